package solana

import (
	"crypto/ed25519"
)

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
//
// When handed to a program, an AccountInfo is a handle the program may mutate
// for the duration of a single instruction. The host decides whether those
// mutations are committed.
type AccountInfo struct {
	PublicKey  ed25519.PublicKey
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool

	IsSigner   bool
	IsWritable bool
}

// Clone returns a deep copy of the account info.
func (a *AccountInfo) Clone() *AccountInfo {
	cloned := &AccountInfo{
		Lamports:   a.Lamports,
		Executable: a.Executable,
		IsSigner:   a.IsSigner,
		IsWritable: a.IsWritable,
	}

	if a.PublicKey != nil {
		cloned.PublicKey = make(ed25519.PublicKey, len(a.PublicKey))
		copy(cloned.PublicKey, a.PublicKey)
	}
	if a.Owner != nil {
		cloned.Owner = make(ed25519.PublicKey, len(a.Owner))
		copy(cloned.Owner, a.Owner)
	}
	if a.Data != nil {
		cloned.Data = make([]byte, len(a.Data))
		copy(cloned.Data, a.Data)
	}

	return cloned
}

// Entrypoint is the signature of a program's instruction processor, as
// invoked by a host runtime.
type Entrypoint func(program ed25519.PublicKey, accounts []*AccountInfo, data []byte) error

// AccountInfoIter yields the accounts supplied to an instruction in order.
type AccountInfoIter struct {
	accounts []*AccountInfo
	next     int
}

func NewAccountInfoIter(accounts []*AccountInfo) *AccountInfoIter {
	return &AccountInfoIter{
		accounts: accounts,
	}
}

// Next returns the next account, or InstructionErrorNotEnoughAccountKeys when
// the instruction was supplied with fewer accounts than the program consumes.
func (it *AccountInfoIter) Next() (*AccountInfo, error) {
	if it.next >= len(it.accounts) {
		return nil, InstructionErrorNotEnoughAccountKeys
	}

	account := it.accounts[it.next]
	it.next++
	return account, nil
}
