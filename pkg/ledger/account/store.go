package account

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

// Record is the persisted state of a ledger account. Addresses and owners are
// base58 encoded public keys.
type Record struct {
	Id uint64

	Address    string
	Owner      string
	Lamports   uint64
	Data       []byte
	Executable bool

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

type Store interface {
	// Put creates a new account.
	//
	// ErrAccountExists is returned if an account already exists at the address.
	Put(ctx context.Context, record *Record) error

	// Update saves the owner, lamports, data and executable flag of existing
	// accounts. Either every record is updated, or none are.
	//
	// ErrAccountNotFound is returned if any of the accounts doesn't exist.
	Update(ctx context.Context, records ...*Record) error

	// Get gets an account by its address.
	//
	// ErrAccountNotFound is returned if the account doesn't exist.
	Get(ctx context.Context, address string) (*Record, error)

	// GetAllByOwner gets all accounts owned by the provided owner, in creation
	// order.
	//
	// ErrAccountNotFound is returned if the owner has no accounts.
	GetAllByOwner(ctx context.Context, owner string) ([]*Record, error)
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	var data []byte
	if r.Data != nil {
		data = make([]byte, len(r.Data))
		copy(data, r.Data)
	}

	return Record{
		Id:            r.Id,
		Address:       r.Address,
		Owner:         r.Owner,
		Lamports:      r.Lamports,
		Data:          data,
		Executable:    r.Executable,
		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	cloned := r.Clone()

	dst.Id = cloned.Id
	dst.Address = cloned.Address
	dst.Owner = cloned.Owner
	dst.Lamports = cloned.Lamports
	dst.Data = cloned.Data
	dst.Executable = cloned.Executable
	dst.CreatedAt = cloned.CreatedAt
	dst.LastUpdatedAt = cloned.LastUpdatedAt
}
