package registry

import (
	"github.com/pkg/errors"

	"github.com/code-payments/hash-registry/pkg/solana"
	"github.com/code-payments/hash-registry/pkg/solana/hashrecord"
)

var (
	ErrInvalidDocumentHash = errors.New("document hash must be 64 bytes of utf-8 text")
	ErrRecordNotFound      = errors.New("document hash record not found")
	ErrDisabled            = errors.New("adding document hashes is disabled")

	ErrRecordNotOwned    = errors.New("record account isn't owned by the program")
	ErrNotRentExempt     = errors.New("record account isn't rent exempt")
	ErrAddressMismatch   = errors.New("record account address doesn't match the ids")
	ErrUnauthorized      = errors.New("authority signature missing or invalid")
	ErrInsufficientFunds = errors.New("authority has insufficient funds")
)

// toServiceError translates ledger and program failures into the errors
// exposed by the service. Unknown failures are wrapped as-is.
func toServiceError(err error, message string) error {
	if err == nil {
		return nil
	}

	switch errors.Cause(err) {
	case solana.TransactionErrorSignatureFailure:
		return ErrUnauthorized
	case solana.TransactionErrorAccountNotFound:
		return ErrInsufficientFunds
	}

	instructionErr, ok := solana.AsInstructionError(err)
	if !ok {
		return errors.Wrap(err, message)
	}

	switch instructionErr.Err {
	case hashrecord.ErrIncorrectOwner:
		return ErrRecordNotOwned
	case hashrecord.ErrAccountNotRentExempt:
		return ErrNotRentExempt
	case hashrecord.ErrAccountNotHashAccount:
		return ErrAddressMismatch
	case hashrecord.ErrIncorrectDataLength, hashrecord.ErrCannotParseData:
		return ErrInvalidDocumentHash
	case solana.InstructionErrorMissingRequiredSignature:
		return ErrUnauthorized
	case solana.InstructionErrorInsufficientFunds:
		return ErrInsufficientFunds
	}

	return errors.Wrap(err, message)
}
