package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingest_orders/internal/domain/document"
)

type idDecoder struct{}

func (idDecoder) Decode(raw json.RawMessage) (document.Event, error) {
	var ev document.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ev, err
	}
	if ev.ID == "bad" {
		return ev, errors.New("bad record")
	}
	return ev, nil
}

func TestDecodePool_KeepsRecordOrder(t *testing.T) {
	records := make([]json.RawMessage, 200)
	for i := range records {
		records[i] = json.RawMessage(fmt.Sprintf(`{"event_id": "e-%d"}`, i))
	}
	records[7] = json.RawMessage(`{"event_id": "bad"}`)

	got, err := newDecodePool(8, idDecoder{}).decodeAll(context.Background(), records)

	require.NoError(t, err)
	require.Len(t, got, len(records))
	for i, d := range got {
		if i == 7 {
			assert.Error(t, d.err)
			continue
		}
		require.NoError(t, d.err)
		assert.Equal(t, document.ID(fmt.Sprintf("e-%d", i)), d.event.ID)
	}
}

func TestDecodePool_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDecodePool(2, idDecoder{}).decodeAll(ctx, []json.RawMessage{json.RawMessage(`{}`)})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDecodePool_DefaultsWorkers(t *testing.T) {
	assert.Positive(t, newDecodePool(0, idDecoder{}).workers)
}
