package registry

import (
	"context"
	"crypto/ed25519"

	"github.com/code-payments/hash-registry/pkg/solana"
)

type rpcAccountReader struct {
	client     solana.Client
	commitment solana.Commitment
}

// NewRPCAccountReader returns an AccountReader that reads accounts from a
// Solana RPC node at the provided commitment.
func NewRPCAccountReader(client solana.Client, commitment solana.Commitment) AccountReader {
	return &rpcAccountReader{
		client:     client,
		commitment: commitment,
	}
}

// GetAccountInfo implements AccountReader.GetAccountInfo
func (r *rpcAccountReader) GetAccountInfo(ctx context.Context, address ed25519.PublicKey) (*solana.AccountInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.client.GetAccountInfo(address, r.commitment)
}
