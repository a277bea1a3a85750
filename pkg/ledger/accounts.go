package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math/bits"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/hash-registry/pkg/ledger/account"
	"github.com/code-payments/hash-registry/pkg/solana"
	"github.com/code-payments/hash-registry/pkg/solana/system"
)

type loadedAccount struct {
	info     *solana.AccountInfo
	original *solana.AccountInfo

	// Nil when the account isn't persisted
	record *account.Record
}

type loadedAccounts struct {
	// One handle per account meta. Repeated addresses share a handle.
	infos []*solana.AccountInfo

	unique []*loadedAccount
}

func (r *Runtime) loadAccounts(ctx context.Context, ix solana.Instruction) (*loadedAccounts, error) {
	res := &loadedAccounts{}

	byAddress := make(map[string]*loadedAccount)
	for _, meta := range ix.Accounts {
		loaded, ok := byAddress[string(meta.PublicKey)]
		if !ok {
			var err error
			loaded, err = r.loadAccount(ctx, meta.PublicKey)
			if err != nil {
				return nil, err
			}

			byAddress[string(meta.PublicKey)] = loaded
			res.unique = append(res.unique, loaded)
		}

		loaded.info.IsSigner = loaded.info.IsSigner || meta.IsSigner

		// Accounts that don't exist, like sysvars, are exposed read only
		if loaded.record != nil {
			loaded.info.IsWritable = loaded.info.IsWritable || meta.IsWritable
		}

		res.infos = append(res.infos, loaded.info)
	}

	for _, loaded := range res.unique {
		loaded.original = loaded.info.Clone()
	}

	return res, nil
}

func (r *Runtime) loadAccount(ctx context.Context, address ed25519.PublicKey) (*loadedAccount, error) {
	if system.IsRentSysVar(address) {
		return &loadedAccount{
			info: system.NewRentAccountInfo(r.rent),
		}, nil
	}

	record, err := r.store.Get(ctx, base58.Encode(address))
	if err == account.ErrAccountNotFound {
		return &loadedAccount{
			info: newSystemAccountInfo(address),
		}, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting account")
	}

	info, err := toAccountInfo(record)
	if err != nil {
		return nil, err
	}

	return &loadedAccount{
		info:   info,
		record: record,
	}, nil
}

// verifyChanges checks the changes program made to the loaded accounts are
// ones it is allowed to make, and returns the records that need to be saved.
func (l *loadedAccounts) verifyChanges(program ed25519.PublicKey) ([]*account.Record, error) {
	var preHi, preLo, postHi, postLo uint64
	var changed []*account.Record

	for _, loaded := range l.unique {
		pre, post := loaded.original, loaded.info

		if !bytes.Equal(pre.Owner, post.Owner) || !bytes.Equal(pre.PublicKey, post.PublicKey) || pre.Executable != post.Executable {
			return nil, solana.InstructionErrorModifiedProgramID
		}

		isOwnedByProgram := bytes.Equal(pre.Owner, program)

		dataChanged := !bytes.Equal(pre.Data, post.Data)
		if dataChanged {
			if !pre.IsWritable {
				return nil, solana.InstructionErrorReadonlyDataModified
			}

			if !isOwnedByProgram {
				return nil, solana.InstructionErrorExternalAccountDataModified
			}

			if len(pre.Data) != len(post.Data) {
				return nil, solana.InstructionErrorAccountDataSizeChanged
			}
		}

		lamportsChanged := pre.Lamports != post.Lamports
		if lamportsChanged {
			if !pre.IsWritable {
				return nil, solana.InstructionErrorReadonlyLamportChange
			}

			if post.Lamports < pre.Lamports && !isOwnedByProgram {
				return nil, solana.InstructionErrorExternalAccountLamportSpend
			}
		}

		var carry uint64
		preLo, carry = bits.Add64(preLo, pre.Lamports, 0)
		preHi += carry
		postLo, carry = bits.Add64(postLo, post.Lamports, 0)
		postHi += carry

		if (dataChanged || lamportsChanged) && loaded.record != nil {
			applyAccountInfo(post, loaded.record)
			changed = append(changed, loaded.record)
		}
	}

	if preHi != postHi || preLo != postLo {
		return nil, solana.InstructionErrorUnbalancedInstruction
	}

	return changed, nil
}
