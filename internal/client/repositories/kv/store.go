package kv

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/flixkeeper/internal/dbx"
)

// Store is a Repository bound to a database that can also run a group of
// writes atomically.
type Store struct {
	*SQLiteRepository
	db *sql.DB
}

var _ Repository = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{SQLiteRepository: NewSQLiteRepository(db), db: db}
}

// Atomic runs fn against a transactional Repository. Either every write
// made through r is committed or none is.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, r Repository) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, NewSQLiteRepository(tx))
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
