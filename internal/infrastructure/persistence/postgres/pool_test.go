package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingest_orders/internal/domain/rows"
	"ingest_orders/internal/load"
	"ingest_orders/internal/schema"
	"ingest_orders/pkg/logger"
)

// testDSN returns the database used by integration tests, skipping when none is set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("INGEST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("INGEST_TEST_POSTGRES_DSN not set")
	}
	return dsn
}

func TestNewPool_WithEnv(t *testing.T) {
	dsn := testDSN(t)

	pool, err := NewPool(context.Background(), dsn, 2)
	require.NoError(t, err, "NewPool failed")
	require.NotNil(t, pool, "pool should not be nil")

	defer pool.Close()

	// Verify connection works
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = pool.Ping(ctx)
	require.NoError(t, err, "ping database failed")
}

func TestNewPool_InvalidDSN(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://%zz", 1)
	assert.Error(t, err)
}

func TestStore_WriteAndCount(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	w := load.NewWriter(s, schema.Default(), logger.NewNop())
	set := sampleSet()

	_, err = w.Write(ctx, set, load.Options{Replace: true})
	require.NoError(t, err)

	counts, err := w.Counts(ctx)
	require.NoError(t, err)
	for _, name := range schema.Default().InsertOrder() {
		assert.Equal(t, int64(set.Len(name)), counts[name], name)
	}

	// Loading again without replace collides on the first table and leaves the data intact.
	_, err = w.Write(ctx, set, load.Options{})
	var ce *load.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "pk_events_id", ce.Constraint)
}

func sampleSet() *rows.Set {
	storeID := int64(1)
	lineID := int64(1)
	s := rows.NewSet()
	s.Add(
		rows.Event{ID: 1, EventName: "order_created"},
		rows.Store{ID: 1, StoreRef: "store-42"},
		rows.Order{ID: 1, OrderRef: "o-1", EventID: 1, StoreID: &storeID,
			Total: decimal.NewNullDecimal(decimal.RequireFromString("40.50"))},
		rows.LineItem{ID: 1, OrderID: 1, LineItemRef: "li-1"},
		rows.TaxLine{ID: 1, ParentType: rows.ParentLineItem, ParentID: 1, TaxLineRef: "t-1"},
		rows.DiscountCode{ID: 1, Code: "SAVE10", OrderID: 1},
		rows.AppliedDiscount{ID: 1, OrderID: 1, AppliedDiscountRef: "ad-1"},
		rows.AppliedDiscountTarget{ID: 1, AppliedDiscountID: 1, TargetType: rows.ParentLineItem, TargetID: &lineID},
	)
	return s
}

func TestCopyValues_ConvertsDecimals(t *testing.T) {
	in := [][]any{{int64(1), decimal.RequireFromString("12.50"), nil, "x"}}

	out, err := copyValues(in)
	require.NoError(t, err)

	n, ok := out[0][1].(pgtype.Numeric)
	require.True(t, ok)
	assert.True(t, n.Valid)
	f, err := n.Float64Value()
	require.NoError(t, err)
	assert.Equal(t, 12.5, f.Float64)

	assert.Equal(t, int64(1), out[0][0])
	assert.Nil(t, out[0][2])
	assert.Equal(t, "x", out[0][3])
	assert.IsType(t, decimal.Decimal{}, in[0][1], "input is not modified")
}

func TestTranslate(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_stores_store_ref"}
	err := translate(pgErr)

	var ce *load.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "uq_stores_store_ref", ce.Constraint)

	plain := errors.New("conn closed")
	assert.Same(t, plain, translate(plain))
}
