package hashrecord

import (
	"crypto/ed25519"
	"fmt"

	"github.com/code-payments/hash-registry/pkg/solana"
)

// Seed returns the derivation seed binding a (hospital, report) pair to an
// account, ie. "{hospitalId}_{reportId}" in decimal.
func Seed(hospitalId, reportId uint8) string {
	return fmt.Sprintf("%d_%d", hospitalId, reportId)
}

type GetHashAccountAddressArgs struct {
	Authority  ed25519.PublicKey
	HospitalId uint8
	ReportId   uint8
	Program    ed25519.PublicKey
}

// GetHashAccountAddress returns the address of the hash account for a
// (hospital, report) pair written by authority.
func GetHashAccountAddress(args *GetHashAccountAddressArgs) (ed25519.PublicKey, error) {
	return solana.CreateWithSeed(
		args.Authority,
		Seed(args.HospitalId, args.ReportId),
		args.Program,
	)
}
