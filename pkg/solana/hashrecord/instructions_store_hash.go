package hashrecord

import (
	"crypto/ed25519"
	"unicode/utf8"

	"github.com/code-payments/hash-registry/pkg/solana"
	"github.com/code-payments/hash-registry/pkg/solana/binary"
	"github.com/code-payments/hash-registry/pkg/solana/system"
)

const (
	StoreHashInstructionArgsSize = (1 + // hospital id
		1 + // report id
		HashSize) // hash
)

type StoreHashInstructionArgs struct {
	HospitalId uint8
	ReportId   uint8
	Hash       []byte
}

type StoreHashInstructionAccounts struct {
	HashAccount ed25519.PublicKey
	Authority   ed25519.PublicKey
}

// NewStoreHashInstruction returns an instruction that writes args.Hash into
// the hash account derived from the authority and ids.
//
// Account references
//  0. [WRITE] Hash account
//  1. [] Rent sysvar
//  2. [SIGNER] Authority
func NewStoreHashInstruction(
	program ed25519.PublicKey,
	accounts *StoreHashInstructionAccounts,
	args *StoreHashInstructionArgs,
) solana.Instruction {
	return solana.NewInstruction(
		program,
		args.Marshal(),
		solana.NewAccountMeta(accounts.HashAccount, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
		solana.NewReadonlyAccountMeta(accounts.Authority, true),
	)
}

// Marshal encodes the instruction data as
// [hospital id (1)][report id (1)][hash (64)]. A hash shorter than HashSize is
// zero padded and a longer one is truncated.
func (args *StoreHashInstructionArgs) Marshal() []byte {
	res := make([]byte, StoreHashInstructionArgsSize)

	var offset int
	binary.PutUint8(res[offset:], args.HospitalId, &offset)
	binary.PutUint8(res[offset:], args.ReportId, &offset)
	copy(res[offset:offset+HashSize], args.Hash)

	return res
}

// ParseStoreHashInstructionData decodes and validates instruction data.
func ParseStoreHashInstructionData(data []byte) (*StoreHashInstructionArgs, error) {
	if len(data) != StoreHashInstructionArgsSize {
		return nil, ErrIncorrectDataLength
	}

	var args StoreHashInstructionArgs
	var offset int
	binary.GetUint8(data[offset:], &args.HospitalId, &offset)
	binary.GetUint8(data[offset:], &args.ReportId, &offset)

	hash := data[offset : offset+HashSize]
	if !utf8.Valid(hash) {
		return nil, ErrCannotParseData
	}

	args.Hash = make([]byte, HashSize)
	copy(args.Hash, hash)

	return &args, nil
}
