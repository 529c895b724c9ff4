package rows

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingest_orders/internal/schema"
)

// Every row type must produce exactly one value per catalog column.
func TestValues_MatchCatalogColumns(t *testing.T) {
	all := []Row{
		Event{}, Store{}, Order{}, LineItem{}, Charge{}, Address{}, CustomerDetails{},
		ShippingLine{}, TaxLine{}, DiscountCode{}, AppliedDiscount{}, AppliedDiscountTarget{},
	}

	seen := make(map[string]bool)
	for _, r := range all {
		tbl, ok := schema.Default().Table(r.Table())
		require.True(t, ok, "table %s not in catalog", r.Table())
		assert.Len(t, r.Values(), len(tbl.Columns), "column count for %s", r.Table())
		seen[r.Table()] = true
	}
	assert.Len(t, seen, len(schema.Default().Tables))
}

func TestValues_NullsAreNil(t *testing.T) {
	r := Order{ID: 7, OrderRef: "o-1", EventID: 3}
	v := r.Values()

	tbl, _ := schema.Default().Table(schema.Orders)
	assert.Equal(t, int64(7), v[tbl.ColumnIndex("id")])
	assert.Equal(t, "o-1", v[tbl.ColumnIndex("order_ref")])
	assert.Nil(t, v[tbl.ColumnIndex("store_id")])
	assert.Nil(t, v[tbl.ColumnIndex("total")])
	assert.Nil(t, v[tbl.ColumnIndex("is_test")])
}

func TestValues_PresentValues(t *testing.T) {
	storeID := int64(2)
	placed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	isTest := false
	r := Order{
		ID: 1, OrderRef: "o-1", EventID: 1, StoreID: &storeID, PlacedAt: &placed, IsTest: &isTest,
		Total: decimal.NewNullDecimal(decimal.RequireFromString("10.50")),
	}
	v := r.Values()

	tbl, _ := schema.Default().Table(schema.Orders)
	assert.Equal(t, int64(2), v[tbl.ColumnIndex("store_id")])
	assert.Equal(t, placed, v[tbl.ColumnIndex("placed_at")])
	assert.Equal(t, false, v[tbl.ColumnIndex("is_test")])
	total, ok := v[tbl.ColumnIndex("total")].(decimal.Decimal)
	require.True(t, ok)
	assert.Equal(t, "10.5", total.String())
}

func TestSet(t *testing.T) {
	s := NewSet()
	s.Add(Event{ID: 1, EventName: "a"}, Store{ID: 1, StoreRef: "s"})

	other := NewSet()
	other.Add(Event{ID: 2, EventName: "b"})
	s.Merge(other)
	s.Merge(nil)

	assert.Equal(t, 2, s.Len(schema.Events))
	assert.Equal(t, 3, s.Total())
	assert.Equal(t, []string{schema.Events, schema.Stores}, s.Tables())
	assert.Equal(t, int64(2), s.Rows(schema.Events)[1].(Event).ID)
	assert.Equal(t, map[string]int{schema.Events: 2, schema.Stores: 1}, s.Counts())
}
