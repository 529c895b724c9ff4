// Package load writes an extracted row set to a relational destination in one
// transaction.
package load

import (
	"context"
	"fmt"

	"ingest_orders/internal/schema"
)

// Tx is an open write transaction.
type Tx interface {
	Exec(ctx context.Context, stmt string) error
	// Insert writes values, one tuple per row in catalog column order.
	Insert(ctx context.Context, table *schema.Table, values [][]any) error
}

// Store is a destination database.
type Store interface {
	Dialect() schema.Dialect
	// Exec runs stmt outside any transaction.
	Exec(ctx context.Context, stmt string) error
	// WithinTx runs fn in a transaction that is committed when fn returns nil and
	// rolled back otherwise, including when fn panics.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Count(ctx context.Context, table string) (int64, error)
	Close() error
}

// ConstraintError is returned by stores when the database rejected a statement
// because of a named constraint.
type ConstraintError struct {
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %s violated: %v", e.Constraint, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }
