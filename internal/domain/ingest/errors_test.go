package ingest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkippedRecordError_Unwrap(t *testing.T) {
	err := fmt.Errorf("extract: %w", &SkippedRecordError{
		Index:    3,
		EventRef: "evt-3",
		Err:      fmt.Errorf("order.orderId: %w", ErrMissingField),
	})

	var skipped *SkippedRecordError
	assert.True(t, errors.As(err, &skipped))
	assert.Equal(t, 3, skipped.Index)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "skipped record 3 (evt-3)")
}

func TestLoadFailureError_Message(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed")

	tests := []struct {
		name string
		err  *LoadFailureError
		want string
	}{
		{
			name: "table and constraint",
			err:  &LoadFailureError{Table: "stores", Constraint: "unique(store_ref)", Err: cause},
			want: "load failed on stores (unique(store_ref)): UNIQUE constraint failed",
		},
		{
			name: "table only",
			err:  &LoadFailureError{Table: "orders", Err: cause},
			want: "load failed on orders: UNIQUE constraint failed",
		},
		{
			name: "no table",
			err:  &LoadFailureError{Err: cause},
			want: "load failed: UNIQUE constraint failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, cause)
		})
	}
}

func TestMalformedInputError_Message(t *testing.T) {
	err := &MalformedInputError{Offset: 12, Err: errors.New("unexpected EOF")}
	assert.Equal(t, "malformed input at byte 12: unexpected EOF", err.Error())

	err = &MalformedInputError{Err: errors.New("bad")}
	assert.Equal(t, "malformed input: bad", err.Error())
}
