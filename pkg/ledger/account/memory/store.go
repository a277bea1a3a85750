package memory

import (
	"context"
	"sync"
	"time"

	"github.com/code-payments/hash-registry/pkg/ledger/account"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*account.Record
}

// New returns a new in memory account.Store
func New() account.Store {
	return &store{}
}

// Put implements account.Store.Put
func (s *store) Put(_ context.Context, data *account.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(data.Address); item != nil {
		return account.ErrAccountExists
	}

	s.last++
	data.Id = s.last
	data.CreatedAt = time.Now()
	data.LastUpdatedAt = data.CreatedAt

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// Update implements account.Store.Update
func (s *store) Update(_ context.Context, records ...*account.Record) error {
	for _, data := range records {
		if err := data.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]*account.Record, len(records))
	for i, data := range records {
		item := s.findByAddress(data.Address)
		if item == nil {
			return account.ErrAccountNotFound
		}
		items[i] = item
	}

	now := time.Now()
	for i, item := range items {
		cloned := records[i].Clone()

		item.Owner = cloned.Owner
		item.Lamports = cloned.Lamports
		item.Data = cloned.Data
		item.Executable = cloned.Executable
		item.LastUpdatedAt = now

		item.CopyTo(records[i])
	}

	return nil
}

// Get implements account.Store.Get
func (s *store) Get(_ context.Context, address string) (*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(address)
	if item == nil {
		return nil, account.ErrAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAllByOwner implements account.Store.GetAllByOwner
func (s *store) GetAllByOwner(_ context.Context, owner string) ([]*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*account.Record
	for _, item := range s.records {
		if item.Owner == owner {
			cloned := item.Clone()
			res = append(res, &cloned)
		}
	}

	if len(res) == 0 {
		return nil, account.ErrAccountNotFound
	}
	return res, nil
}

func (s *store) findByAddress(address string) *account.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}

	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
	s.records = nil
}
