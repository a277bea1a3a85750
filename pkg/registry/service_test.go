package registry

import (
	"context"
	"crypto/ed25519"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/hash-registry/pkg/ledger"
	"github.com/code-payments/hash-registry/pkg/ledger/account/memory"
	"github.com/code-payments/hash-registry/pkg/solana"
	"github.com/code-payments/hash-registry/pkg/solana/hashrecord"
	"github.com/code-payments/hash-registry/pkg/testutil"
)

const (
	testHash      = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	otherTestHash = "60303ae22b998861bce3b28f33eec1be758a213c86c93c076dbe9f558c11c752"
)

type testEnv struct {
	ctx       context.Context
	runtime   *ledger.Runtime
	service   *Service
	program   ed25519.PublicKey
	authority ed25519.PrivateKey
}

func setup(t *testing.T, overrides *testOverrides) *testEnv {
	ctx := context.Background()

	runtime := ledger.New(memory.New())

	program := testutil.NewRandomPublicKey(t)
	require.NoError(t, runtime.RegisterProgram(program, hashrecord.NewProcessor().Process))

	authorityPublicKey, authority := testutil.NewRandomKey(t)
	require.NoError(t, runtime.Airdrop(ctx, authorityPublicKey, 100_000_000_000))

	if overrides == nil {
		overrides = &testOverrides{}
	}
	if overrides.accountLamports == 0 {
		overrides.accountLamports = defaultAccountLamports
	}

	return &testEnv{
		ctx:       ctx,
		runtime:   runtime,
		service:   New(runtime, runtime, authority, program, withManualTestOverrides(overrides)),
		program:   program,
		authority: authority,
	}
}

func TestAddDocumentHash_HappyPath(t *testing.T) {
	env := setup(t, nil)

	_, err := env.service.GetDocumentHash(env.ctx, 1, 2)
	assert.Equal(t, ErrRecordNotFound, err)

	address, err := env.service.AddDocumentHash(env.ctx, 1, 2, testHash)
	require.NoError(t, err)

	expected, err := env.service.GetRecordAddress(1, 2)
	require.NoError(t, err)
	assert.Equal(t, expected, address)

	actual, err := env.service.GetDocumentHash(env.ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, testHash, actual)

	info, err := env.runtime.GetAccountInfo(env.ctx, address)
	require.NoError(t, err)
	assert.Equal(t, env.program, info.Owner)
	assert.EqualValues(t, defaultAccountLamports, info.Lamports)
	assert.Len(t, info.Data, hashrecord.HashAccountSize)

	_, err = env.service.GetDocumentHash(env.ctx, 2, 1)
	assert.Equal(t, ErrRecordNotFound, err)
}

func TestAddDocumentHash_Overwrite(t *testing.T) {
	env := setup(t, nil)

	first, err := env.service.AddDocumentHash(env.ctx, 1, 2, testHash)
	require.NoError(t, err)

	balance, err := env.runtime.GetAccountInfo(env.ctx, env.service.Authority())
	require.NoError(t, err)

	second, err := env.service.AddDocumentHash(env.ctx, 1, 2, otherTestHash)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	actual, err := env.service.GetDocumentHash(env.ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, otherTestHash, actual)

	// The record account is only funded once
	updatedBalance, err := env.runtime.GetAccountInfo(env.ctx, env.service.Authority())
	require.NoError(t, err)
	assert.Equal(t, balance.Lamports, updatedBalance.Lamports)
}

func TestAddDocumentHash_ConcurrentSameRecord(t *testing.T) {
	env := setup(t, nil)

	initial, err := env.runtime.GetAccountInfo(env.ctx, env.service.Authority())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.service.AddDocumentHash(env.ctx, 7, 7, testHash)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	actual, err := env.service.GetDocumentHash(env.ctx, 7, 7)
	require.NoError(t, err)
	assert.Equal(t, testHash, actual)

	updated, err := env.runtime.GetAccountInfo(env.ctx, env.service.Authority())
	require.NoError(t, err)
	assert.EqualValues(t, initial.Lamports-defaultAccountLamports, updated.Lamports)
}

func TestAddDocumentHash_BoundaryIds(t *testing.T) {
	env := setup(t, nil)

	addresses := make(map[string]struct{})
	for _, ids := range [][2]uint8{{0, 0}, {0, 255}, {255, 0}, {255, 255}} {
		hash := strings.Repeat(string(rune('a'+ids[0]%26)), 32) + strings.Repeat(string(rune('a'+ids[1]%26)), 32)

		address, err := env.service.AddDocumentHash(env.ctx, ids[0], ids[1], hash)
		require.NoError(t, err)
		addresses[string(address)] = struct{}{}

		actual, err := env.service.GetDocumentHash(env.ctx, ids[0], ids[1])
		require.NoError(t, err)
		assert.Equal(t, hash, actual)
	}
	assert.Len(t, addresses, 4)
}

func TestAddDocumentHash_InvalidHash(t *testing.T) {
	env := setup(t, nil)

	for _, hash := range []string{
		"",
		testHash[:63],
		testHash + "0",
		testHash[:62] + "\xff\xfe",
	} {
		_, err := env.service.AddDocumentHash(env.ctx, 1, 2, hash)
		assert.Equal(t, ErrInvalidDocumentHash, err)
	}

	_, err := env.service.GetDocumentHash(env.ctx, 1, 2)
	assert.Equal(t, ErrRecordNotFound, err)

	// Any 64 bytes of text are accepted
	hash := strings.Repeat("é", 32)
	_, err = env.service.AddDocumentHash(env.ctx, 1, 2, hash)
	require.NoError(t, err)

	actual, err := env.service.GetDocumentHash(env.ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, hash, actual)
}

func TestAddDocumentHash_Disabled(t *testing.T) {
	env := setup(t, &testOverrides{
		disableAddDocumentHash: true,
	})

	_, err := env.service.AddDocumentHash(env.ctx, 1, 2, testHash)
	assert.Equal(t, ErrDisabled, err)
}

func TestAddDocumentHash_NotRentExempt(t *testing.T) {
	env := setup(t, &testOverrides{
		accountLamports: 1_000,
	})

	_, err := env.service.AddDocumentHash(env.ctx, 1, 2, testHash)
	assert.Equal(t, ErrNotRentExempt, err)

	_, err = env.service.GetDocumentHash(env.ctx, 1, 2)
	assert.Equal(t, ErrRecordNotFound, err)
}

func TestAddDocumentHash_InsufficientFunds(t *testing.T) {
	env := setup(t, &testOverrides{
		accountLamports: 1_000_000_000_000,
	})

	_, err := env.service.AddDocumentHash(env.ctx, 1, 2, testHash)
	assert.Equal(t, ErrInsufficientFunds, err)

	_, unfunded := testutil.NewRandomKey(t)
	service := New(env.runtime, env.runtime, unfunded, env.program, withManualTestOverrides(&testOverrides{
		accountLamports: defaultAccountLamports,
	}))
	_, err = service.AddDocumentHash(env.ctx, 1, 2, testHash)
	assert.Equal(t, ErrInsufficientFunds, err)
}

func TestGetDocumentHash_AllocatedButEmpty(t *testing.T) {
	env := setup(t, nil)

	_, err := env.runtime.CreateAccountWithSeed(
		env.ctx,
		env.authority,
		hashrecord.Seed(1, 2),
		env.program,
		defaultAccountLamports,
		hashrecord.HashAccountSize,
	)
	require.NoError(t, err)

	_, err = env.service.GetDocumentHash(env.ctx, 1, 2)
	assert.Equal(t, ErrRecordNotFound, err)

	// An existing account is reused rather than created again
	_, err = env.service.AddDocumentHash(env.ctx, 1, 2, testHash)
	require.NoError(t, err)

	actual, err := env.service.GetDocumentHash(env.ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, testHash, actual)
}

func TestGetDocumentHash_WrongOwner(t *testing.T) {
	env := setup(t, nil)

	address, err := env.service.GetRecordAddress(1, 2)
	require.NoError(t, err)
	require.NoError(t, env.runtime.Airdrop(env.ctx, address, 1))

	_, err = env.service.GetDocumentHash(env.ctx, 1, 2)
	assert.Equal(t, ErrRecordNotFound, err)

	_, err = env.service.AddDocumentHash(env.ctx, 1, 2, testHash)
	assert.Equal(t, ErrRecordNotOwned, err)
}

func TestToServiceError(t *testing.T) {
	for _, tc := range []struct {
		err      error
		expected error
	}{
		{solana.NewInstructionError(0, hashrecord.ErrIncorrectOwner), ErrRecordNotOwned},
		{solana.NewInstructionError(0, hashrecord.ErrAccountNotRentExempt), ErrNotRentExempt},
		{solana.NewInstructionError(0, hashrecord.ErrAccountNotHashAccount), ErrAddressMismatch},
		{solana.NewInstructionError(0, hashrecord.ErrIncorrectDataLength), ErrInvalidDocumentHash},
		{solana.NewInstructionError(0, hashrecord.ErrCannotParseData), ErrInvalidDocumentHash},
		{solana.NewInstructionError(0, solana.InstructionErrorMissingRequiredSignature), ErrUnauthorized},
		{solana.NewInstructionError(0, solana.InstructionErrorInsufficientFunds), ErrInsufficientFunds},
		{solana.TransactionErrorSignatureFailure, ErrUnauthorized},
		{solana.TransactionErrorAccountNotFound, ErrInsufficientFunds},
	} {
		assert.Equal(t, tc.expected, toServiceError(tc.err, "message"))
	}

	assert.NoError(t, toServiceError(nil, "message"))

	unknown := errors.New("unknown")
	assert.Equal(t, unknown, errors.Cause(toServiceError(unknown, "message")))

	generic := solana.NewInstructionError(0, solana.InstructionErrorInvalidAccountData)
	assert.Equal(t, generic, errors.Cause(toServiceError(generic, "message")))
}
