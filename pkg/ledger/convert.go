package ledger

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/hash-registry/pkg/ledger/account"
	"github.com/code-payments/hash-registry/pkg/solana"
	"github.com/code-payments/hash-registry/pkg/solana/system"
)

func toAccountInfo(record *account.Record) (*solana.AccountInfo, error) {
	address, err := base58.Decode(record.Address)
	if err != nil {
		return nil, errors.Wrap(err, "invalid account address")
	}

	owner, err := base58.Decode(record.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "invalid account owner")
	}

	cloned := record.Clone()
	return &solana.AccountInfo{
		PublicKey:  address,
		Owner:      owner,
		Lamports:   cloned.Lamports,
		Data:       cloned.Data,
		Executable: cloned.Executable,
	}, nil
}

func applyAccountInfo(info *solana.AccountInfo, record *account.Record) {
	cloned := info.Clone()

	record.Owner = base58.Encode(cloned.Owner)
	record.Lamports = cloned.Lamports
	record.Data = cloned.Data
	record.Executable = cloned.Executable
}

func newSystemAccountInfo(address ed25519.PublicKey) *solana.AccountInfo {
	return &solana.AccountInfo{
		PublicKey: address,
		Owner:     system.SystemAccount,
	}
}
