package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const healthTimeout = 2 * time.Second

// ErrSchemaMissing reports a reachable database whose orders table has not been migrated yet.
var ErrSchemaMissing = errors.New("orders schema not migrated")

// Ping checks connectivity only.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	return pool.Ping(ctx)
}

// CheckHealth backs the readiness probe: the database must answer and hold the orders schema.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	var migrated bool
	err := pool.QueryRow(ctx, `SELECT to_regclass('orders') IS NOT NULL`).Scan(&migrated)
	if err != nil {
		return fmt.Errorf("query schema: %w", err)
	}
	if !migrated {
		return ErrSchemaMissing
	}
	return nil
}
