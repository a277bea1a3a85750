package hashrecord

import (
	"github.com/code-payments/hash-registry/pkg/solana"
)

// Custom errors returned by the hash record program. The values are part of
// the program's ABI and must never be reordered.
const (
	// The hash account isn't owned by the program
	ErrIncorrectOwner solana.CustomError = iota

	// The hash account doesn't hold enough lamports to be rent exempt
	ErrAccountNotRentExempt

	// The hash account address wasn't derived from the authority and ids
	ErrAccountNotHashAccount

	// The instruction data isn't exactly 66 bytes
	ErrIncorrectDataLength

	// The hash bytes aren't valid UTF-8 text
	ErrCannotParseData
)

var customErrorNames = map[solana.CustomError]string{
	ErrIncorrectOwner:        "IncorrectOwner",
	ErrAccountNotRentExempt:  "AccountNotRentExempt",
	ErrAccountNotHashAccount: "AccountNotHashAccount",
	ErrIncorrectDataLength:   "IncorrectDataLength",
	ErrCannotParseData:       "CannotParseData",
}

// ErrorName returns the name of a hash record program error, or an empty
// string if the error wasn't produced by the program.
func ErrorName(err error) string {
	if instructionErr, ok := solana.AsInstructionError(err); ok {
		err = instructionErr.Err
	}

	switch typed := err.(type) {
	case solana.CustomError:
		return customErrorNames[typed]
	case solana.InstructionErrorKey:
		return string(typed)
	}
	return ""
}
