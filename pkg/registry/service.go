// Package registry anchors document hashes through the hash record program
// and reads them back.
package registry

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"unicode/utf8"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/hash-registry/pkg/metrics"
	"github.com/code-payments/hash-registry/pkg/solana"
	"github.com/code-payments/hash-registry/pkg/solana/hashrecord"
	"github.com/code-payments/hash-registry/pkg/sync"
)

const (
	metricsStructName = "registry.service"

	documentHashAnchoredEventName = "DocumentHashAnchored"

	recordLockStripes = 64
)

// Ledger submits account creations and instructions.
type Ledger interface {
	CreateAccountWithSeed(
		ctx context.Context,
		funder ed25519.PrivateKey,
		seed string,
		owner ed25519.PublicKey,
		lamports uint64,
		space uint64,
	) (ed25519.PublicKey, error)

	Execute(ctx context.Context, ix solana.Instruction, signers ...ed25519.PrivateKey) error
}

// AccountReader reads account state. solana.ErrNoAccountInfo is returned for
// accounts that don't exist.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, address ed25519.PublicKey) (*solana.AccountInfo, error)
}

type Service struct {
	log    *logrus.Entry
	conf   *conf
	ledger Ledger
	reader AccountReader

	authority ed25519.PrivateKey
	program   ed25519.PublicKey

	// Serializes the create then store sequence per record
	recordLocks *sync.StripedLock
}

func New(
	ledger Ledger,
	reader AccountReader,
	authority ed25519.PrivateKey,
	program ed25519.PublicKey,
	configProvider ConfigProvider,
) *Service {
	return &Service{
		log:         logrus.StandardLogger().WithField("type", "registry/service"),
		conf:        configProvider(),
		ledger:      ledger,
		reader:      reader,
		authority:   authority,
		program:     program,
		recordLocks: sync.NewStripedLock(recordLockStripes),
	}
}

// Authority returns the public key all records are derived from.
func (s *Service) Authority() ed25519.PublicKey {
	return s.authority.Public().(ed25519.PublicKey)
}

// GetRecordAddress returns the address of the record for a (hospital, report)
// pair.
func (s *Service) GetRecordAddress(hospitalId, reportId uint8) (ed25519.PublicKey, error) {
	return hashrecord.GetHashAccountAddress(&hashrecord.GetHashAccountAddressArgs{
		Authority:  s.Authority(),
		HospitalId: hospitalId,
		ReportId:   reportId,
		Program:    s.program,
	})
}

// AddDocumentHash anchors documentHash for a (hospital, report) pair and
// returns the address of the record. The record account is created on first
// use. Anchoring a hash for a pair that already has one overwrites it.
func (s *Service) AddDocumentHash(ctx context.Context, hospitalId, reportId uint8, documentHash string) (ed25519.PublicKey, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "AddDocumentHash")
	defer tracer.End()

	address, err := s.addDocumentHash(ctx, hospitalId, reportId, documentHash)
	tracer.OnError(err)
	return address, err
}

func (s *Service) addDocumentHash(ctx context.Context, hospitalId, reportId uint8, documentHash string) (ed25519.PublicKey, error) {
	log := s.log.WithFields(logrus.Fields{
		"method":      "AddDocumentHash",
		"hospital_id": hospitalId,
		"report_id":   reportId,
	})

	if s.conf.disableAddDocumentHash.Get(ctx) {
		return nil, ErrDisabled
	}

	if len(documentHash) != hashrecord.HashSize || !utf8.ValidString(documentHash) {
		return nil, ErrInvalidDocumentHash
	}

	ctx, cancel := context.WithTimeout(ctx, s.conf.addDocumentHashTimeout.Get(ctx))
	defer cancel()

	address, err := s.GetRecordAddress(hospitalId, reportId)
	if err != nil {
		log.WithError(err).Warn("failure deriving record address")
		return nil, errors.Wrap(err, "error deriving record address")
	}
	log = log.WithField("address", base58.Encode(address))

	unlock := s.recordLocks.Lock(address)
	defer unlock()

	_, err = s.reader.GetAccountInfo(ctx, address)
	switch err {
	case nil:
	case solana.ErrNoAccountInfo:
		log.Debug("creating record account")

		_, err = s.ledger.CreateAccountWithSeed(
			ctx,
			s.authority,
			hashrecord.Seed(hospitalId, reportId),
			s.program,
			s.conf.accountLamports.Get(ctx),
			hashrecord.HashAccountSize,
		)
		if err != nil && !isAccountAlreadyInitialized(err) {
			log.WithError(err).Warn("failure creating record account")
			return nil, toServiceError(err, "error creating record account")
		}
	default:
		log.WithError(err).Warn("failure getting record account")
		return nil, errors.Wrap(err, "error getting record account")
	}

	ix := hashrecord.NewStoreHashInstruction(
		s.program,
		&hashrecord.StoreHashInstructionAccounts{
			HashAccount: address,
			Authority:   s.Authority(),
		},
		&hashrecord.StoreHashInstructionArgs{
			HospitalId: hospitalId,
			ReportId:   reportId,
			Hash:       []byte(documentHash),
		},
	)
	if err := s.ledger.Execute(ctx, ix, s.authority); err != nil {
		log.WithError(err).WithField("program_error", hashrecord.ErrorName(err)).Info("store hash instruction failed")
		return nil, toServiceError(err, "error executing store hash instruction")
	}

	metrics.RecordEvent(ctx, documentHashAnchoredEventName, map[string]interface{}{
		"hospital_id": hospitalId,
		"report_id":   reportId,
		"address":     base58.Encode(address),
	})

	log.Info("anchored document hash")
	return address, nil
}

// GetDocumentHash returns the hash anchored for a (hospital, report) pair.
//
// ErrRecordNotFound is returned if no hash has been anchored.
func (s *Service) GetDocumentHash(ctx context.Context, hospitalId, reportId uint8) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetDocumentHash")
	defer tracer.End()

	hash, err := s.getDocumentHash(ctx, hospitalId, reportId)
	if err != ErrRecordNotFound {
		tracer.OnError(err)
	}
	return hash, err
}

func (s *Service) getDocumentHash(ctx context.Context, hospitalId, reportId uint8) (string, error) {
	log := s.log.WithFields(logrus.Fields{
		"method":      "GetDocumentHash",
		"hospital_id": hospitalId,
		"report_id":   reportId,
	})

	address, err := s.GetRecordAddress(hospitalId, reportId)
	if err != nil {
		log.WithError(err).Warn("failure deriving record address")
		return "", errors.Wrap(err, "error deriving record address")
	}
	log = log.WithField("address", base58.Encode(address))

	info, err := s.reader.GetAccountInfo(ctx, address)
	if err == solana.ErrNoAccountInfo {
		return "", ErrRecordNotFound
	} else if err != nil {
		log.WithError(err).Warn("failure getting record account")
		return "", errors.Wrap(err, "error getting record account")
	}

	if !bytes.Equal(info.Owner, s.program) {
		log.Info("record account isn't owned by the program")
		return "", ErrRecordNotFound
	}

	var record hashrecord.HashAccount
	if err := record.Unmarshal(info.Data); err != nil {
		log.WithError(err).Info("record account data is invalid")
		return "", ErrRecordNotFound
	}

	if record.IsEmpty() {
		return "", ErrRecordNotFound
	}

	return record.String(), nil
}

func isAccountAlreadyInitialized(err error) bool {
	instructionErr, ok := solana.AsInstructionError(err)
	return ok && instructionErr.Err == solana.InstructionErrorAccountAlreadyInitialized
}
