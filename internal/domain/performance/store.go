package performance

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same query
// methods serve pooled and transaction-scoped stores.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	DB *pgxpool.Pool
	q  querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool, q: pool}
}

func (s *Store) withTx(tx pgx.Tx) *Store {
	return &Store{DB: s.DB, q: tx}
}

// InReviewTx runs fn inside a transaction holding advisory locks that
// serialize review mutations. The cycle lock is always taken before the
// employee+month lock so mutations and cycle closes cannot deadlock.
func (s *Store) InReviewTx(ctx context.Context, cycleID int, employeeID string, year, month int, fn func(StoreAPI) error) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := acquireLock(ctx, tx, cycleKey(cycleID)); err != nil {
			return err
		}
		if err := acquireLock(ctx, tx, monthKey(employeeID, year, month)); err != nil {
			return err
		}
		return fn(s.withTx(tx))
	})
}

// InCycleTx runs fn inside a transaction holding the cycle advisory lock,
// serializing a close against review mutations in the same cycle.
func (s *Store) InCycleTx(ctx context.Context, cycleID int, fn func(StoreAPI) error) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := acquireLock(ctx, tx, cycleKey(cycleID)); err != nil {
			return err
		}
		return fn(s.withTx(tx))
	})
}

func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func acquireLock(ctx context.Context, tx pgx.Tx, key string) error {
	_, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key)
	return err
}

func cycleKey(cycleID int) string {
	return fmt.Sprintf("perf:cycle:%d", cycleID)
}

func monthKey(employeeID string, year, month int) string {
	return fmt.Sprintf("perf:month:%s:%04d-%02d", employeeID, year, month)
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = prefix + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
