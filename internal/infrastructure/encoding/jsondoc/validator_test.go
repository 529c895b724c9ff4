package jsondoc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingest_orders/internal/domain/document"
	"ingest_orders/internal/domain/ingest"
)

const validEvent = `{
	"event_id": "evt-1",
	"event_name": "order_created",
	"event_payload": {
		"store": {"id": 42, "name": "Huel", "domain": "huel.com"},
		"order": {
			"orderId": "ord-1",
			"placedAt": "2024-03-01T10:00:00Z",
			"amounts": {"subtotal": "25.00", "discount": 5, "total": "20.00"},
			"lineItems": [
				{"id": "li-1", "variantId": 9001, "quantity": 2, "unitPrice": "12.50",
				 "taxLines": [{"id": "tx-1", "rate": 0.2, "amount": "4.17"}]}
			],
			"discountCodes": [{"code": "WELCOME5", "type": "fixed", "amount": "5.00"}]
		}
	}
}`

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestValidator_Decode(t *testing.T) {
	v := newValidator(t)

	ev, err := v.Decode(json.RawMessage(validEvent))
	require.NoError(t, err)

	assert.Equal(t, document.ID("evt-1"), ev.ID)
	assert.Equal(t, "order_created", ev.Name)
	require.NotNil(t, ev.Payload.Store)
	assert.Equal(t, document.ID("42"), ev.Payload.Store.ID)

	o := ev.Payload.Order
	assert.Equal(t, document.ID("ord-1"), o.OrderID)
	assert.Equal(t, "5", o.Amounts.Discount.Decimal.String())
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, "9001", o.LineItems[0].VariantID.String())
	require.Len(t, o.LineItems[0].TaxLines, 1)
	assert.Equal(t, "0.2", o.LineItems[0].TaxLines[0].Rate.Decimal.String())
}

func TestValidator_Rejects(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name   string
		record string
		field  string
	}{
		{
			name:   "not an object",
			record: `[1,2]`,
		},
		{
			name:   "missing event name",
			record: `{"event_payload": {"order": {"orderId": "o"}}}`,
		},
		{
			name:   "missing order",
			record: `{"event_name": "x", "event_payload": {}}`,
			field:  "/event_payload",
		},
		{
			name:   "missing order id",
			record: `{"event_name": "x", "event_payload": {"order": {"currency": "GBP"}}}`,
			field:  "/event_payload/order",
		},
		{
			name:   "empty order id",
			record: `{"event_name": "x", "event_payload": {"order": {"orderId": ""}}}`,
			field:  "/event_payload/order/orderId",
		},
		{
			name:   "line item without id",
			record: `{"event_name": "x", "event_payload": {"order": {"orderId": "o", "lineItems": [{"sku": "A"}]}}}`,
			field:  "/event_payload/order/lineItems/0",
		},
		{
			name:   "non numeric money",
			record: `{"event_name": "x", "event_payload": {"order": {"orderId": "o", "amounts": {"total": "ten"}}}}`,
			field:  "/event_payload/order/amounts/total",
		},
		{
			name:   "fractional quantity",
			record: `{"event_name": "x", "event_payload": {"order": {"orderId": "o", "lineItems": [{"id": "l", "quantity": 1.5}]}}}`,
			field:  "/event_payload/order/lineItems/0/quantity",
		},
		{
			name:   "store without id",
			record: `{"event_name": "x", "event_payload": {"store": {"name": "s"}, "order": {"orderId": "o"}}}`,
			field:  "/event_payload/store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Decode(json.RawMessage(tt.record))
			require.ErrorIs(t, err, ingest.ErrSchemaViolation)
			if tt.field != "" {
				assert.Contains(t, err.Error(), tt.field)
			}
		})
	}
}

func TestValidator_AcceptsNullStore(t *testing.T) {
	v := newValidator(t)

	ev, err := v.Decode(json.RawMessage(`{"event_name": "x", "event_payload": {"store": null, "order": {"orderId": 7}}}`))
	require.NoError(t, err)
	assert.Nil(t, ev.Payload.Store)
	assert.Equal(t, document.ID("7"), ev.Payload.Order.OrderID)
}
