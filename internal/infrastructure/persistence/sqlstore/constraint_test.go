package sqlstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingest_orders/internal/load"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "sqlite unique",
			err:  errors.New("constraint failed: UNIQUE constraint failed: stores.store_ref (2067)"),
			want: "uq_stores_store_ref",
		},
		{
			name: "sqlite composite unique",
			err:  errors.New("UNIQUE constraint failed: addresses.order_id, addresses.role"),
			want: "uq_addresses_order_id_role",
		},
		{
			name: "sqlite primary key",
			err:  errors.New("constraint failed: UNIQUE constraint failed: events.id (1555)"),
			want: "pk_events_id",
		},
		{
			name: "sqlite named check",
			err:  errors.New("constraint failed: CHECK constraint failed: ck_addresses_role (275)"),
			want: "ck_addresses_role",
		},
		{
			name: "sqlite not null",
			err:  errors.New("NOT NULL constraint failed: orders.order_ref"),
			want: "nn_orders_order_ref",
		},
		{
			name: "sqlite foreign key",
			err:  errors.New("constraint failed: FOREIGN KEY constraint failed (787)"),
			want: "foreign_key",
		},
		{
			name: "mysql duplicate entry",
			err:  &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'WELCOME' for key 'discount_codes.uq_discount_codes_code'"},
			want: "uq_discount_codes_code",
		},
		{
			name: "mysql duplicate primary",
			err:  &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'events.PRIMARY'"},
			want: "primary_key",
		},
		{
			name: "mysql foreign key",
			err: &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row: a foreign key constraint fails " +
				"(`orders`.`charges`, CONSTRAINT `fk_charges_order_id` FOREIGN KEY (`order_id`) REFERENCES `orders` (`id`))"},
			want: "fk_charges_order_id",
		},
		{
			name: "mysql check",
			err:  &mysql.MySQLError{Number: 3819, Message: "Check constraint 'ck_tax_lines_parent_type' is violated."},
			want: "ck_tax_lines_parent_type",
		},
		{
			name: "mysql null",
			err:  &mysql.MySQLError{Number: 1048, Message: "Column 'event_name' cannot be null"},
			want: "nn_event_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate(fmt.Errorf("exec: %w", tt.err))

			var ce *load.ConstraintError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.want, ce.Constraint)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTranslate_PassesOtherErrorsThrough(t *testing.T) {
	assert.Nil(t, translate(nil))

	plain := errors.New("database is locked")
	assert.Same(t, plain, translate(plain))

	other := &mysql.MySQLError{Number: 1045, Message: "Access denied"}
	assert.Equal(t, error(other), translate(other))
}
