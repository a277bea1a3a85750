package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/pkg/errors"
)

const (
	maxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrIllegalOwner          = errors.New("illegal owner")

	ErrInvalidPublicKey = errors.New("invalid public key")
)

var (
	seedHashCtor = sha256.New
)

// CreateWithSeed mirrors the implementation of the Solana SDK's CreateWithSeed.
//
// The derived address is sha256(base || seed || owner). It is a plain hash, so
// the result may or may not lie on the ed25519 curve, and unlike program
// addresses it is not searched for with a bump seed.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L139
func CreateWithSeed(base ed25519.PublicKey, seed string, owner ed25519.PublicKey) (ed25519.PublicKey, error) {
	if len(base) != ed25519.PublicKeySize || len(owner) != ed25519.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}

	if len(seed) > maxSeedLength {
		return nil, ErrMaxSeedLengthExceeded
	}

	// Owners ending with the program address marker would allow a seeded
	// address to collide with the program address space.
	if bytes.HasSuffix(owner, []byte(pdaMarker)) {
		return nil, ErrIllegalOwner
	}

	h := seedHashCtor()
	for _, v := range [][]byte{base, []byte(seed), owner} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	return h.Sum(nil), nil
}

// IsSameAddress reports whether two addresses are byte-for-byte equal.
func IsSameAddress(a, b ed25519.PublicKey) bool {
	return bytes.Equal(a, b)
}
