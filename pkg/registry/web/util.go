package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/code-payments/hash-registry/pkg/registry"
)

const (
	successJsonKey = "success"
	errorJsonKey   = "error"
)

type GenericApiResponseBody map[string]any

func NewGenericApiSuccessResponseBody() GenericApiResponseBody {
	return map[string]any{
		successJsonKey: true,
	}
}

func NewGenericApiFailureResponseBody(err error) GenericApiResponseBody {
	return map[string]any{
		successJsonKey: false,
		errorJsonKey:   err.Error(),
	}
}

func (b *GenericApiResponseBody) ToString() string {
	marshalled, _ := json.Marshal(b)
	return string(marshalled)
}

// HandleServiceErrorInWebContext maps a registry service error to an HTTP
// status code and the error that's safe to expose to the caller.
func HandleServiceErrorInWebContext(err error) (int, error) {
	if err == nil {
		return http.StatusOK, nil
	}

	switch errors.Cause(err) {
	case registry.ErrInvalidDocumentHash:
		return http.StatusBadRequest, err
	case registry.ErrRecordNotFound:
		return http.StatusNotFound, err
	case registry.ErrDisabled:
		return http.StatusServiceUnavailable, err
	case registry.ErrUnauthorized:
		return http.StatusUnauthorized, errors.New("authentication failed")
	case registry.ErrRecordNotOwned, registry.ErrNotRentExempt, registry.ErrAddressMismatch, registry.ErrInsufficientFunds:
		return http.StatusConflict, err
	case context.Canceled, context.DeadlineExceeded:
		return http.StatusRequestTimeout, errors.New("request timed out")
	default:
		return http.StatusInternalServerError, errors.New("internal server error")
	}
}
