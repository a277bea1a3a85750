package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/hash-registry/pkg/ledger/account"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed account.Store
func New(db *sql.DB) account.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements account.Store.Put
func (s *store) Put(ctx context.Context, record *account.Record) error {
	obj, err := toModel(record)
	if err != nil {
		return err
	}

	err = obj.dbPut(ctx, s.db)
	if err != nil {
		return err
	}

	res := fromModel(obj)
	res.CopyTo(record)

	return nil
}

// Update implements account.Store.Update
func (s *store) Update(ctx context.Context, records ...*account.Record) error {
	models := make([]*model, len(records))
	for i, record := range records {
		obj, err := toModel(record)
		if err != nil {
			return err
		}
		models[i] = obj
	}

	if err := dbUpdateAll(ctx, s.db, models...); err != nil {
		return err
	}

	for i, obj := range models {
		res := fromModel(obj)
		res.CopyTo(records[i])
	}

	return nil
}

// Get implements account.Store.Get
func (s *store) Get(ctx context.Context, address string) (*account.Record, error) {
	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// GetAllByOwner implements account.Store.GetAllByOwner
func (s *store) GetAllByOwner(ctx context.Context, owner string) ([]*account.Record, error) {
	models, err := dbGetAllByOwner(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}

	res := make([]*account.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}
