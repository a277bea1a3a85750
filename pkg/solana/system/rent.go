package system

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/hash-registry/pkg/solana"
	"github.com/code-payments/hash-registry/pkg/solana/binary"
)

const (
	RentAccountSize = 8 + 8 + 1

	// AccountStorageOverhead is the number of bytes charged for every account
	// on top of its data, covering the account metadata kept by the runtime.
	AccountStorageOverhead = 128
)

// DefaultRent mirrors the cluster defaults.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/rent.rs#L28-L43
var DefaultRent = Rent{
	LamportsPerByteYear: 3480,
	ExemptionThreshold:  2.0,
	BurnPercent:         50,
}

var (
	ErrInvalidRentAccount = errors.New("invalid rent sysvar account")
)

// Rent is the durability configuration published through the rent sysvar.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/rent.rs#L11
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         uint8
}

func (obj Rent) Marshal() []byte {
	res := make([]byte, RentAccountSize)

	var offset int
	binary.PutUint64(res[offset:], obj.LamportsPerByteYear, &offset)
	binary.PutFloat64(res[offset:], obj.ExemptionThreshold, &offset)
	binary.PutUint8(res[offset:], obj.BurnPercent, &offset)

	return res
}

func (obj *Rent) Unmarshal(data []byte) error {
	if len(data) < RentAccountSize {
		return ErrInvalidRentAccount
	}

	var offset int
	binary.GetUint64(data[offset:], &obj.LamportsPerByteYear, &offset)
	binary.GetFloat64(data[offset:], &obj.ExemptionThreshold, &offset)
	binary.GetUint8(data[offset:], &obj.BurnPercent, &offset)

	return nil
}

// MinimumBalance returns the minimum balance an account holding dataLen bytes
// needs to be exempt from rent collection.
func (obj Rent) MinimumBalance(dataLen uint64) uint64 {
	size := AccountStorageOverhead + dataLen
	return uint64(float64(size*obj.LamportsPerByteYear) * obj.ExemptionThreshold)
}

// IsExempt reports whether balance is enough for an account holding dataLen
// bytes to never have rent collected from it.
func (obj Rent) IsExempt(balance, dataLen uint64) bool {
	return balance >= obj.MinimumBalance(dataLen)
}

// IsRentSysVar reports whether the address is the rent sysvar.
func IsRentSysVar(address ed25519.PublicKey) bool {
	return bytes.Equal(address, RentSysVar)
}

// RentFromAccountInfo reads the rent configuration out of the rent sysvar
// account. The address must be checked with IsRentSysVar beforehand.
func RentFromAccountInfo(info *solana.AccountInfo) (*Rent, error) {
	var rent Rent
	if err := rent.Unmarshal(info.Data); err != nil {
		return nil, err
	}
	return &rent, nil
}

// NewRentAccountInfo builds the rent sysvar account a runtime exposes to
// programs.
func NewRentAccountInfo(rent Rent) *solana.AccountInfo {
	return &solana.AccountInfo{
		PublicKey: RentSysVar,
		Owner:     SysvarOwner,
		Lamports:  rent.MinimumBalance(RentAccountSize),
		Data:      rent.Marshal(),
	}
}
