package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewRandomKey returns a freshly generated ed25519 key pair.
func NewRandomKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub, priv
}

// NewRandomPublicKey returns a freshly generated ed25519 public key, for
// addresses that never need to sign.
func NewRandomPublicKey(t *testing.T) ed25519.PublicKey {
	pub, _ := NewRandomKey(t)
	return pub
}
