package web

import (
	"encoding/json"
	"io"
	"math"
	"net/http"

	"github.com/pkg/errors"
)

const maxRequestBodySize = 4 << 10

type recordId struct {
	hospitalId uint8
	reportId   uint8
}

type addHashRequest struct {
	recordId
	documentHash string
}

func newAddHashRequestFromHttpContext(r *http.Request) (*addHashRequest, error) {
	httpRequestBody := struct {
		HospitalId   *int64 `json:"hospitalId"`
		ReportId     *int64 `json:"reportId"`
		DocumentHash string `json:"documentHash"`
	}{}

	if err := decodeBody(r, &httpRequestBody); err != nil {
		return nil, err
	}

	id, err := newRecordId(httpRequestBody.HospitalId, httpRequestBody.ReportId)
	if err != nil {
		return nil, err
	}

	if len(httpRequestBody.DocumentHash) == 0 {
		return nil, errors.New("documentHash is required")
	}

	return &addHashRequest{
		recordId:     *id,
		documentHash: httpRequestBody.DocumentHash,
	}, nil
}

func newGetDocumentHashRequestFromHttpContext(r *http.Request) (*recordId, error) {
	httpRequestBody := struct {
		HospitalId *int64 `json:"hospitalId"`
		ReportId   *int64 `json:"reportId"`
	}{}

	if err := decodeBody(r, &httpRequestBody); err != nil {
		return nil, err
	}

	return newRecordId(httpRequestBody.HospitalId, httpRequestBody.ReportId)
}

func newRecordId(hospitalId, reportId *int64) (*recordId, error) {
	if hospitalId == nil {
		return nil, errors.New("hospitalId is required")
	}
	if reportId == nil {
		return nil, errors.New("reportId is required")
	}

	if *hospitalId < 0 || *hospitalId > math.MaxUint8 {
		return nil, errors.Errorf("hospitalId must be between 0 and %d", math.MaxUint8)
	}
	if *reportId < 0 || *reportId > math.MaxUint8 {
		return nil, errors.Errorf("reportId must be between 0 and %d", math.MaxUint8)
	}

	return &recordId{
		hospitalId: uint8(*hospitalId),
		reportId:   uint8(*reportId),
	}, nil
}

func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errors.Wrap(err, "invalid json body")
	}
	return nil
}
