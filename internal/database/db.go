package database

import (
	"context"
	"errors"

	"github.com/BradenHooton/accountdesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MapPostgresError turns a driver error into a domain error. No rows is
// ErrNotFound; anything else is a StoreError tagged with op and, when the
// server answered, the SQLSTATE.
func MapPostgresError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return models.NewStoreError(op+" ["+pgErr.Code+"]", err)
	}

	return models.NewStoreError(op, err)
}

// WithConn acquires one connection for the duration of fn and always releases it
func (db *DB) WithConn(ctx context.Context, fn func(*pgxpool.Conn) error) (err error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return fn(conn)
}
