package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/hash-registry/pkg/ledger"
	"github.com/code-payments/hash-registry/pkg/ledger/account/memory"
	"github.com/code-payments/hash-registry/pkg/rate"
	"github.com/code-payments/hash-registry/pkg/registry"
	"github.com/code-payments/hash-registry/pkg/solana/hashrecord"
	"github.com/code-payments/hash-registry/pkg/testutil"
)

const testHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

type testEnv struct {
	service  *registry.Service
	handlers map[string]http.HandlerFunc
}

func setup(t *testing.T, limiter rate.Limiter) *testEnv {
	ctx := context.Background()

	runtime := ledger.New(memory.New())

	program := testutil.NewRandomPublicKey(t)
	require.NoError(t, runtime.RegisterProgram(program, hashrecord.NewProcessor().Process))

	authorityPublicKey, authority := testutil.NewRandomKey(t)
	require.NoError(t, runtime.Airdrop(ctx, authorityPublicKey, 100_000_000_000))

	service := registry.New(runtime, runtime, authority, program, registry.WithEnvConfigs())

	if limiter == nil {
		limiter = &rate.NoLimiter{}
	}

	return &testEnv{
		service:  service,
		handlers: NewServer(service, limiter, nil).GetHandlers(),
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:1234"
	rec := httptest.NewRecorder()

	e.handlers[path](rec, req)

	assert.Equal(t, jsonContentTypeHeaderValue, rec.Header().Get(contentTypeHeaderName))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec.Code, decoded
}

func TestAddAndGetDocumentHash(t *testing.T) {
	env := setup(t, nil)

	statusCode, body := env.do(t, http.MethodPost, v1AddHashToBlockchainPath, `{"hospitalId":1,"reportId":2,"documentHash":"`+testHash+`"}`)
	require.Equal(t, http.StatusOK, statusCode)
	assert.Equal(t, true, body["success"])

	expected, err := env.service.GetRecordAddress(1, 2)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(expected), body["address"])

	statusCode, body = env.do(t, http.MethodPost, v1GetDocumentHashPath, `{"hospitalId":1,"reportId":2}`)
	require.Equal(t, http.StatusOK, statusCode)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["hospitalId"])
	assert.EqualValues(t, 2, body["reportId"])
	assert.Equal(t, testHash, body["documentHash"])
}

func TestGetDocumentHash_NotFound(t *testing.T) {
	env := setup(t, nil)

	statusCode, body := env.do(t, http.MethodPost, v1GetDocumentHashPath, `{"hospitalId":3,"reportId":4}`)
	assert.Equal(t, http.StatusNotFound, statusCode)
	assert.Equal(t, false, body["success"])
	assert.EqualValues(t, 3, body["hospitalId"])
	assert.EqualValues(t, 4, body["reportId"])
	assert.Equal(t, "", body["documentHash"])
}

func TestAddDocumentHash_InvalidRequests(t *testing.T) {
	env := setup(t, nil)

	for _, tc := range []struct {
		name string
		body string
	}{
		{"malformed json", `{"hospitalId":`},
		{"missing hospital id", `{"reportId":1,"documentHash":"` + testHash + `"}`},
		{"missing report id", `{"hospitalId":1,"documentHash":"` + testHash + `"}`},
		{"hospital id too large", `{"hospitalId":256,"reportId":1,"documentHash":"` + testHash + `"}`},
		{"negative report id", `{"hospitalId":1,"reportId":-1,"documentHash":"` + testHash + `"}`},
		{"missing hash", `{"hospitalId":1,"reportId":1}`},
		{"short hash", `{"hospitalId":1,"reportId":1,"documentHash":"abc"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			statusCode, body := env.do(t, http.MethodPost, v1AddHashToBlockchainPath, tc.body)
			assert.Equal(t, http.StatusBadRequest, statusCode)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandlers_RequirePost(t *testing.T) {
	env := setup(t, nil)

	for _, path := range []string{v1AddHashToBlockchainPath, v1GetDocumentHashPath} {
		statusCode, body := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, statusCode)
		assert.Equal(t, "http post expected", body["error"])
	}
}

func TestHandlers_RateLimited(t *testing.T) {
	env := setup(t, rate.NewLocalRateLimiter(1))

	statusCode, _ := env.do(t, http.MethodPost, v1GetDocumentHashPath, `{"hospitalId":1,"reportId":1}`)
	assert.Equal(t, http.StatusNotFound, statusCode)

	statusCode, body := env.do(t, http.MethodPost, v1GetDocumentHashPath, `{"hospitalId":1,"reportId":1}`)
	assert.Equal(t, http.StatusTooManyRequests, statusCode)
	assert.Equal(t, errRateLimited.Error(), body["error"])
}

func TestHandleServiceErrorInWebContext(t *testing.T) {
	for _, tc := range []struct {
		err      error
		expected int
	}{
		{nil, http.StatusOK},
		{registry.ErrInvalidDocumentHash, http.StatusBadRequest},
		{registry.ErrRecordNotFound, http.StatusNotFound},
		{registry.ErrDisabled, http.StatusServiceUnavailable},
		{registry.ErrUnauthorized, http.StatusUnauthorized},
		{registry.ErrNotRentExempt, http.StatusConflict},
		{registry.ErrInsufficientFunds, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusRequestTimeout},
		{assert.AnError, http.StatusInternalServerError},
	} {
		statusCode, _ := HandleServiceErrorInWebContext(tc.err)
		assert.Equal(t, tc.expected, statusCode, tc.err)
	}
}
