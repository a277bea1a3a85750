package hashrecord

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/hash-registry/pkg/solana"
	"github.com/code-payments/hash-registry/pkg/solana/system"
)

// Processor processes store hash instructions on behalf of the hash record
// program. It holds no state between invocations.
type Processor struct {
	log *logrus.Entry
}

func NewProcessor() *Processor {
	return &Processor{
		log: logrus.StandardLogger().WithField("type", "hashrecord/processor"),
	}
}

// Process implements solana.Entrypoint.
//
// Checks run in a fixed order and the first failure is returned. The hash
// account data is only written once every check has passed, so a failed
// invocation never leaves a partial write behind.
func (p *Processor) Process(program ed25519.PublicKey, accounts []*solana.AccountInfo, data []byte) error {
	log := p.log.WithField("program", base58.Encode(program))

	it := solana.NewAccountInfoIter(accounts)

	// The hash account must be owned by the program, otherwise the program
	// isn't allowed to modify it.
	hashAccount, err := it.Next()
	if err != nil {
		log.Info("hash account not provided")
		return err
	}
	log = log.WithField("hash_account", base58.Encode(hashAccount.PublicKey))

	if !bytes.Equal(hashAccount.Owner, program) {
		log.Info("hash account not owned by the program")
		return ErrIncorrectOwner
	}

	// The hash account must be rent exempt, otherwise the stored hash would
	// eventually be reclaimed.
	rentAccount, err := it.Next()
	if err != nil {
		log.Info("rent sysvar account not provided")
		return err
	}

	if !system.IsRentSysVar(rentAccount.PublicKey) {
		log.Info("rent sysvar account is not the rent sysvar")
		return solana.InstructionErrorInvalidAccountData
	}

	rent, err := system.RentFromAccountInfo(rentAccount)
	if err != nil {
		log.WithError(err).Info("rent sysvar account data is invalid")
		return solana.InstructionErrorInvalidAccountData
	}

	if !rent.IsExempt(hashAccount.Lamports, uint64(len(hashAccount.Data))) {
		log.Info("hash account is not rent exempt")
		return ErrAccountNotRentExempt
	}

	// The authority is the base of the hash account address and must have
	// signed the transaction.
	authorityAccount, err := it.Next()
	if err != nil {
		log.Info("authority account not provided")
		return err
	}

	if !authorityAccount.IsSigner {
		log.Info("authority did not sign the transaction")
		return solana.InstructionErrorMissingRequiredSignature
	}

	args, err := ParseStoreHashInstructionData(data)
	if err != nil {
		log.WithField("data_len", len(data)).Info("invalid instruction data")
		return err
	}

	log = log.WithFields(logrus.Fields{
		"hospital_id": args.HospitalId,
		"report_id":   args.ReportId,
	})

	// The hash account must have been derived from the ids in the instruction
	expected, err := GetHashAccountAddress(&GetHashAccountAddressArgs{
		Authority:  authorityAccount.PublicKey,
		HospitalId: args.HospitalId,
		ReportId:   args.ReportId,
		Program:    program,
	})
	if err != nil {
		log.WithError(err).Info("failure deriving hash account address")
		return toDerivationError(err)
	}

	if !bytes.Equal(expected, hashAccount.PublicKey) {
		log.WithField("expected", base58.Encode(expected)).Info("hash account address doesn't match")
		return ErrAccountNotHashAccount
	}

	if len(hashAccount.Data) < HashAccountSize {
		log.WithField("data_len", len(hashAccount.Data)).Info("hash account is too small")
		return solana.InstructionErrorAccountDataTooSmall
	}

	n := copy(hashAccount.Data, args.Hash)
	for i := n; i < len(hashAccount.Data); i++ {
		hashAccount.Data[i] = 0
	}

	return nil
}

func toDerivationError(err error) error {
	switch err {
	case solana.ErrMaxSeedLengthExceeded:
		return solana.InstructionErrorMaxSeedLengthExceeded
	case solana.ErrIllegalOwner:
		return solana.InstructionErrorIllegalOwner
	default:
		return solana.InstructionErrorInvalidSeeds
	}
}
