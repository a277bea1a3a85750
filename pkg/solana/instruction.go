package solana

import (
	"crypto/ed25519"
	"errors"

	"github.com/code-payments/hash-registry/pkg/solana/binary"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta represents the account information required
// for building transactions.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta creates a new AccountMeta representing a writable
// account.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewAccountMeta creates a new AccountMeta representing a readonly
// account.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// Instruction represents a transaction instruction.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// Message returns the canonical byte encoding of the instruction that signers
// sign over:
//
//	program (32) | num accounts (u32) | [key (32) | is signer (u8) | is writable (u8)]... | data len (u32) | data
func (i Instruction) Message() []byte {
	size := ed25519.PublicKeySize + 4 + len(i.Accounts)*(ed25519.PublicKeySize+2) + 4 + len(i.Data)
	res := make([]byte, size)

	var offset int
	binary.PutKey32(res[offset:], i.Program, &offset)
	binary.PutUint32(res[offset:], uint32(len(i.Accounts)), &offset)
	for _, account := range i.Accounts {
		binary.PutKey32(res[offset:], account.PublicKey, &offset)
		binary.PutBool(res[offset:], account.IsSigner, &offset)
		binary.PutBool(res[offset:], account.IsWritable, &offset)
	}
	binary.PutUint32(res[offset:], uint32(len(i.Data)), &offset)
	copy(res[offset:], i.Data)

	return res
}
