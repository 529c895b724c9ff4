// Package postgres is the pgx destination. Rows are bulk loaded with COPY.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ingest_orders/internal/load"
	"ingest_orders/internal/schema"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects and returns a store owning the pool.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := NewPool(ctx, dsn, defaultMaxConns)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}

func (s *Store) Dialect() schema.Dialect { return schema.Postgres }

func (s *Store) Exec(ctx context.Context, stmt string) error {
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx load.Tx) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			tx.Rollback(ctx)
		} else if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("failed to commit: %w", translate(cerr))
		}
	}()

	err = fn(&pgTx{tx: tx})
	return err
}

func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Exec(ctx context.Context, stmt string) error {
	if _, err := t.tx.Exec(ctx, stmt); err != nil {
		return translate(err)
	}
	return nil
}

func (t *pgTx) Insert(ctx context.Context, table *schema.Table, values [][]any) error {
	copyRows, err := copyValues(values)
	if err != nil {
		return err
	}
	n, err := t.tx.CopyFrom(ctx, pgx.Identifier{table.Name}, table.ColumnNames(), pgx.CopyFromRows(copyRows))
	if err != nil {
		return translate(err)
	}
	if n != int64(len(values)) {
		return fmt.Errorf("copied %d of %d rows into %s", n, len(values), table.Name)
	}
	return nil
}

// copyValues converts decimals to pgtype.Numeric, which pgx encodes natively.
func copyValues(values [][]any) ([][]any, error) {
	out := make([][]any, len(values))
	for i, row := range values {
		converted := make([]any, len(row))
		for j, v := range row {
			d, ok := v.(decimal.Decimal)
			if !ok {
				converted[j] = v
				continue
			}
			var n pgtype.Numeric
			if err := n.Scan(d.String()); err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			converted[j] = n
		}
		out[i] = converted
	}
	return out, nil
}

// translate wraps errors that name a violated constraint in *load.ConstraintError.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		return &load.ConstraintError{Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}
