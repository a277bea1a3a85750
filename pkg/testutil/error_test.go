package testutil

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/code-payments/hash-registry/pkg/solana"
)

func TestAssertInstructionError(t *testing.T) {
	err := solana.NewInstructionError(0, solana.CustomError(2))
	AssertInstructionError(t, err, solana.CustomError(2))
	AssertInstructionError(t, errors.Wrap(err, "wrapped"), solana.CustomError(2))
}
