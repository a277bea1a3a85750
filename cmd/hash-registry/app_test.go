package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/hash-registry/pkg/grpc/app"
	"github.com/code-payments/hash-registry/pkg/ledger"
	"github.com/code-payments/hash-registry/pkg/ledger/account/memory"
	"github.com/code-payments/hash-registry/pkg/netutil"
	"github.com/code-payments/hash-registry/pkg/testutil"
)

func TestHashRegistryApp_ServesHTTP(t *testing.T) {
	port, err := netutil.GetAvailablePortForAddress("localhost")
	require.NoError(t, err)
	address := fmt.Sprintf("localhost:%d", port)

	a := &hashRegistryApp{}
	require.NoError(t, a.Init(app.Config{"http_listen_address": address}, nil))
	defer a.Stop()

	url := fmt.Sprintf("http://%s/v1/getDocumentHash", address)
	body := `{"hospitalId":1,"reportId":1}`

	var statusCode int
	require.NoError(t, testutil.WaitFor(5*time.Second, 50*time.Millisecond, func() bool {
		resp, err := http.Post(url, "application/json", strings.NewReader(body))
		if err != nil {
			return false
		}
		resp.Body.Close()
		statusCode = resp.StatusCode
		return true
	}))
	assert.Equal(t, http.StatusNotFound, statusCode)

	a.Stop()
	select {
	case <-a.ShutdownChan():
	case <-time.After(time.Second):
		t.Fatal("shutdown channel not closed")
	}
}

func TestTopUpAuthority(t *testing.T) {
	ctx := context.Background()
	runtime := ledger.New(memory.New())

	authority := testutil.NewRandomPublicKey(t)

	require.NoError(t, topUpAuthority(ctx, runtime, authority, 1_000))
	info, err := runtime.GetAccountInfo(ctx, authority)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, info.Lamports)

	require.NoError(t, topUpAuthority(ctx, runtime, authority, 500))
	info, err = runtime.GetAccountInfo(ctx, authority)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, info.Lamports)

	require.NoError(t, topUpAuthority(ctx, runtime, authority, 2_500))
	info, err = runtime.GetAccountInfo(ctx, authority)
	require.NoError(t, err)
	assert.EqualValues(t, 2_500, info.Lamports)
}
