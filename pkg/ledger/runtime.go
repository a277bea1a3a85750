// Package ledger provides an in-process stand-in for a Solana cluster. It
// persists accounts through an account.Store and dispatches instructions to
// registered program entrypoints with the same account handle semantics a
// validator would provide.
package ledger

import (
	"context"
	"crypto/ed25519"
	"math"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/hash-registry/pkg/ledger/account"
	"github.com/code-payments/hash-registry/pkg/metrics"
	"github.com/code-payments/hash-registry/pkg/solana"
	"github.com/code-payments/hash-registry/pkg/solana/system"
)

const (
	metricsStructName = "ledger.runtime"
)

var (
	ErrProgramAlreadyRegistered = errors.New("program already registered")
	ErrLamportOverflow          = errors.New("lamport balance overflow")
)

type Runtime struct {
	log   *logrus.Entry
	store account.Store
	rent  system.Rent

	// Serializes every operation that reads then writes accounts
	mu sync.Mutex

	programsMu sync.RWMutex
	programs   map[string]solana.Entrypoint
}

func New(store account.Store, opts ...Option) *Runtime {
	r := &Runtime{
		log:      logrus.StandardLogger().WithField("type", "ledger/runtime"),
		store:    store,
		rent:     system.DefaultRent,
		programs: make(map[string]solana.Entrypoint),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RegisterProgram makes entrypoint the handler for instructions addressed to
// program.
func (r *Runtime) RegisterProgram(program ed25519.PublicKey, entrypoint solana.Entrypoint) error {
	r.programsMu.Lock()
	defer r.programsMu.Unlock()

	key := base58.Encode(program)
	if _, ok := r.programs[key]; ok {
		return ErrProgramAlreadyRegistered
	}

	r.programs[key] = entrypoint
	r.log.WithField("program", key).Info("registered program")
	return nil
}

// Rent returns the rent configuration published through the rent sysvar.
func (r *Runtime) Rent() system.Rent {
	return r.rent
}

// GetMinimumBalanceForRentExemption returns the balance an account holding
// size bytes needs to be rent exempt.
func (r *Runtime) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	return r.rent.MinimumBalance(size), nil
}

// GetAccountInfo returns the current state of an account, or
// solana.ErrNoAccountInfo if it doesn't exist.
func (r *Runtime) GetAccountInfo(ctx context.Context, address ed25519.PublicKey) (*solana.AccountInfo, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetAccountInfo")
	defer tracer.End()

	if system.IsRentSysVar(address) {
		return system.NewRentAccountInfo(r.rent), nil
	}

	record, err := r.store.Get(ctx, base58.Encode(address))
	if err == account.ErrAccountNotFound {
		return nil, solana.ErrNoAccountInfo
	} else if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error getting account")
	}

	return toAccountInfo(record)
}

// Airdrop credits an account with lamports, creating it as an empty system
// account if it doesn't exist.
func (r *Runtime) Airdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Airdrop")
	defer tracer.End()

	err := r.airdrop(ctx, address, lamports)
	tracer.OnError(err)
	return err
}

func (r *Runtime) airdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) error {
	log := r.log.WithFields(logrus.Fields{
		"method":   "Airdrop",
		"address":  base58.Encode(address),
		"lamports": lamports,
	})

	if len(address) != ed25519.PublicKeySize {
		return solana.ErrInvalidPublicKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.store.Get(ctx, base58.Encode(address))
	switch err {
	case nil:
		if math.MaxUint64-record.Lamports < lamports {
			return ErrLamportOverflow
		}

		record.Lamports += lamports
		if err := r.store.Update(ctx, record); err != nil {
			log.WithError(err).Warn("failure crediting account")
			return errors.Wrap(err, "error crediting account")
		}
	case account.ErrAccountNotFound:
		record = &account.Record{
			Address:  base58.Encode(address),
			Owner:    base58.Encode(system.SystemAccount),
			Lamports: lamports,
		}
		if err := r.store.Put(ctx, record); err != nil {
			log.WithError(err).Warn("failure creating account")
			return errors.Wrap(err, "error creating account")
		}
	default:
		log.WithError(err).Warn("failure getting account")
		return errors.Wrap(err, "error getting account")
	}

	log.Debug("airdropped lamports")
	return nil
}

// CreateAccountWithSeed creates an account at the address derived from the
// funder's public key, seed and owner. The account is funded from the funder's
// balance and allocated space zeroed bytes.
func (r *Runtime) CreateAccountWithSeed(
	ctx context.Context,
	funder ed25519.PrivateKey,
	seed string,
	owner ed25519.PublicKey,
	lamports uint64,
	space uint64,
) (ed25519.PublicKey, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateAccountWithSeed")
	defer tracer.End()

	address, err := r.createAccountWithSeed(ctx, funder, seed, owner, lamports, space)
	tracer.OnError(err)
	return address, err
}

func (r *Runtime) createAccountWithSeed(
	ctx context.Context,
	funder ed25519.PrivateKey,
	seed string,
	owner ed25519.PublicKey,
	lamports uint64,
	space uint64,
) (ed25519.PublicKey, error) {
	base, ok := funder.Public().(ed25519.PublicKey)
	if !ok || len(funder) != ed25519.PrivateKeySize {
		return nil, solana.ErrInvalidPublicKey
	}

	log := r.log.WithFields(logrus.Fields{
		"method":   "CreateAccountWithSeed",
		"funder":   base58.Encode(base),
		"seed":     seed,
		"owner":    base58.Encode(owner),
		"lamports": lamports,
		"space":    space,
	})

	address, err := solana.CreateWithSeed(base, seed, owner)
	switch err {
	case nil:
	case solana.ErrMaxSeedLengthExceeded:
		return nil, solana.NewInstructionError(0, solana.InstructionErrorMaxSeedLengthExceeded)
	case solana.ErrIllegalOwner:
		return nil, solana.NewInstructionError(0, solana.InstructionErrorIllegalOwner)
	default:
		return nil, solana.NewInstructionError(0, solana.InstructionErrorInvalidSeeds)
	}
	log = log.WithField("address", base58.Encode(address))

	r.mu.Lock()
	defer r.mu.Unlock()

	funderRecord, err := r.store.Get(ctx, base58.Encode(base))
	if err == account.ErrAccountNotFound {
		return nil, solana.TransactionErrorAccountNotFound
	} else if err != nil {
		log.WithError(err).Warn("failure getting funder account")
		return nil, errors.Wrap(err, "error getting funder account")
	}

	_, err = r.store.Get(ctx, base58.Encode(address))
	if err == nil {
		log.Info("account already exists")
		return nil, solana.NewInstructionError(0, solana.InstructionErrorAccountAlreadyInitialized)
	} else if err != account.ErrAccountNotFound {
		log.WithError(err).Warn("failure getting account")
		return nil, errors.Wrap(err, "error getting account")
	}

	if funderRecord.Lamports < lamports {
		log.WithField("balance", funderRecord.Lamports).Info("insufficient funds")
		return nil, solana.NewInstructionError(0, solana.InstructionErrorInsufficientFunds)
	}

	funderRecord.Lamports -= lamports
	if err := r.store.Update(ctx, funderRecord); err != nil {
		log.WithError(err).Warn("failure debiting funder account")
		return nil, errors.Wrap(err, "error debiting funder account")
	}

	record := &account.Record{
		Address:  base58.Encode(address),
		Owner:    base58.Encode(owner),
		Lamports: lamports,
		Data:     make([]byte, space),
	}
	if err := r.store.Put(ctx, record); err != nil {
		log.WithError(err).Warn("failure creating account")

		funderRecord.Lamports += lamports
		if refundErr := r.store.Update(ctx, funderRecord); refundErr != nil {
			log.WithError(refundErr).Error("failure refunding funder account")
		}

		return nil, errors.Wrap(err, "error creating account")
	}

	log.Debug("created account")
	return address, nil
}

// Execute verifies the signatures backing an instruction, dispatches it to the
// owning program and commits the resulting account changes.
//
// Program failures, and account changes a program isn't allowed to make, are
// returned as a *solana.InstructionError at index 0 and leave every account
// untouched.
func (r *Runtime) Execute(ctx context.Context, ix solana.Instruction, signers ...ed25519.PrivateKey) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Execute")
	defer tracer.End()

	err := r.execute(ctx, ix, signers...)
	tracer.OnError(err)
	return err
}

func (r *Runtime) execute(ctx context.Context, ix solana.Instruction, signers ...ed25519.PrivateKey) error {
	log := r.log.WithFields(logrus.Fields{
		"method":  "Execute",
		"program": base58.Encode(ix.Program),
	})

	r.programsMu.RLock()
	entrypoint, ok := r.programs[base58.Encode(ix.Program)]
	r.programsMu.RUnlock()
	if !ok {
		return solana.TransactionErrorProgramAccountNotFound
	}

	if err := verifySignatures(ix, signers); err != nil {
		log.WithError(err).Info("signature verification failed")
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	loaded, err := r.loadAccounts(ctx, ix)
	if err != nil {
		log.WithError(err).Warn("failure loading accounts")
		return err
	}

	if err := entrypoint(ix.Program, loaded.infos, ix.Data); err != nil {
		log.WithError(err).Info("instruction failed")
		return solana.NewInstructionError(0, err)
	}

	changed, err := loaded.verifyChanges(ix.Program)
	if err != nil {
		log.WithError(err).Info("instruction made an illegal account change")
		return solana.NewInstructionError(0, err)
	}

	if len(changed) == 0 {
		return nil
	}

	if err := r.store.Update(ctx, changed...); err != nil {
		log.WithError(err).Warn("failure committing account changes")
		return errors.Wrap(err, "error committing account changes")
	}

	return nil
}

// verifySignatures checks every signer account referenced by the instruction
// is backed by a key that produces a valid signature over its message.
func verifySignatures(ix solana.Instruction, signers []ed25519.PrivateKey) error {
	message := ix.Message()

	signatures := make(map[string][]byte)
	for _, signer := range signers {
		if len(signer) != ed25519.PrivateKeySize {
			return solana.TransactionErrorSignatureFailure
		}

		pub := signer.Public().(ed25519.PublicKey)
		signatures[string(pub)] = ed25519.Sign(signer, message)
	}

	for _, meta := range ix.Accounts {
		if !meta.IsSigner {
			continue
		}

		signature, ok := signatures[string(meta.PublicKey)]
		if !ok {
			return solana.TransactionErrorSignatureFailure
		}

		if !ed25519.Verify(meta.PublicKey, message, signature) {
			return solana.TransactionErrorSignatureFailure
		}
	}

	return nil
}
