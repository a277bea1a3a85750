package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/hash-registry/pkg/solana"
)

// AssertInstructionError verifies that the provided error is an instruction
// error at index 0 wrapping the expected program error.
func AssertInstructionError(t *testing.T, err error, expected error) {
	require.Error(t, err)
	instructionErr, ok := solana.AsInstructionError(err)
	require.True(t, ok, "expected an instruction error, got %v", err)
	assert.Equal(t, 0, instructionErr.Index)
	assert.Equal(t, expected, instructionErr.Err)
}
