package ledger

import (
	"github.com/code-payments/hash-registry/pkg/solana/system"
)

// Option configures a Runtime.
type Option func(r *Runtime)

// WithRent overrides the rent configuration published through the rent
// sysvar. system.DefaultRent is used otherwise.
func WithRent(rent system.Rent) Option {
	return func(r *Runtime) {
		r.rent = rent
	}
}
