package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     int               `json:"id"`
}

type testServer struct {
	sync.Mutex

	requests  []rpcRequest
	responses []interface{}
}

func (s *testServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.requests = append(s.requests, req)

	resp := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
	}

	next := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}

	switch typed := next.(type) {
	case *jsonrpc.RPCError:
		resp["error"] = typed
	default:
		resp["result"] = typed
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func setupClient(t *testing.T, responses ...interface{}) (*client, *testServer) {
	server := &testServer{responses: responses}
	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)

	noDelay := func(uint, error) bool { return true }
	return newClient(jsonrpc.NewClient(httpServer.URL), noDelay), server
}

func TestClient_GetAccountInfo(t *testing.T) {
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	data := []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	c, server := setupClient(t, map[string]interface{}{
		"context": map[string]interface{}{"slot": 10},
		"value": map[string]interface{}{
			"lamports":   1336320,
			"owner":      base58.Encode(owner),
			"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
			"executable": false,
		},
	})

	info, err := c.GetAccountInfo(account, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, account, info.PublicKey)
	assert.Equal(t, owner, info.Owner)
	assert.EqualValues(t, 1336320, info.Lamports)
	assert.Equal(t, data, info.Data)
	assert.False(t, info.Executable)

	require.Len(t, server.requests, 1)
	assert.Equal(t, "getAccountInfo", server.requests[0].Method)
	require.Len(t, server.requests[0].Params, 2)

	var address string
	require.NoError(t, json.Unmarshal(server.requests[0].Params[0], &address))
	assert.Equal(t, base58.Encode(account), address)

	var config map[string]string
	require.NoError(t, json.Unmarshal(server.requests[0].Params[1], &config))
	assert.Equal(t, "confirmed", config["commitment"])
	assert.Equal(t, "base64", config["encoding"])
}

func TestClient_GetAccountInfo_NotFound(t *testing.T) {
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	c, _ := setupClient(t, map[string]interface{}{
		"context": map[string]interface{}{"slot": 10},
		"value":   nil,
	})

	_, err = c.GetAccountInfo(account, CommitmentFinalized)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_GetBalance(t *testing.T) {
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	c, _ := setupClient(t, map[string]interface{}{
		"context": map[string]interface{}{"slot": 10},
		"value":   2000000000,
	})

	balance, err := c.GetBalance(account)
	require.NoError(t, err)
	assert.EqualValues(t, 2000000000, balance)

	c, _ = setupClient(t, &jsonrpc.RPCError{Code: invalidParamCode, Message: "invalid param"})
	_, err = c.GetBalance(account)
	assert.Equal(t, ErrNoBalance, err)
}

func TestClient_GetMinimumBalanceForRentExemption(t *testing.T) {
	c, server := setupClient(t, 1336320)

	lamports, err := c.GetMinimumBalanceForRentExemption(64)
	require.NoError(t, err)
	assert.EqualValues(t, 1336320, lamports)

	require.Len(t, server.requests, 1)
	assert.Equal(t, "getMinimumBalanceForRentExemption", server.requests[0].Method)
}

func TestClient_GetSlot(t *testing.T) {
	c, _ := setupClient(t, 1234)

	slot, err := c.GetSlot(CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, 1234, slot)
}

func TestClient_RetriesUnhealthyNode(t *testing.T) {
	c, server := setupClient(
		t,
		&jsonrpc.RPCError{Code: rpcNodeUnhealthyCode, Message: "unhealthy"},
		1234,
	)

	slot, err := c.GetSlot(CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, 1234, slot)
	assert.Len(t, server.requests, 2)

	c, server = setupClient(t, &jsonrpc.RPCError{Code: 429, Message: "slow down"})
	_, err = c.GetSlot(CommitmentFinalized)
	assert.Error(t, err)
	assert.Len(t, server.requests, 3)
}

func TestClient_NonRetriableError(t *testing.T) {
	c, server := setupClient(t, &jsonrpc.RPCError{Code: -32000, Message: "failure"})

	_, err := c.GetSlot(CommitmentFinalized)
	assert.Error(t, err)
	assert.Len(t, server.requests, 1)
}

func TestCommitmentFromString(t *testing.T) {
	assert.Equal(t, CommitmentProcessed, CommitmentFromString("processed"))
	assert.Equal(t, CommitmentConfirmed, CommitmentFromString("confirmed"))
	assert.Equal(t, CommitmentFinalized, CommitmentFromString("finalized"))
	assert.Equal(t, CommitmentFinalized, CommitmentFromString(""))
}
