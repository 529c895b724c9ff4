package ingest

import (
	"context"
	"encoding/json"
	"runtime"
	"sync"
	"time"

	"ingest_orders/internal/domain/document"
)

type decoded struct {
	event    document.Event
	err      error
	duration time.Duration
}

// decodePool validates and decodes records on a fixed set of workers. Results are
// stored by record index, so extraction still walks the records in document order.
type decodePool struct {
	workers int
	decoder Decoder
}

func newDecodePool(workers int, decoder Decoder) *decodePool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &decodePool{workers: workers, decoder: decoder}
}

// decodeAll returns one result per record. When ctx is cancelled it stops handing out
// records and returns ctx.Err() once the workers have drained.
func (p *decodePool) decodeAll(ctx context.Context, records []json.RawMessage) ([]decoded, error) {
	results := make([]decoded, len(records))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				start := time.Now()
				ev, err := p.decoder.Decode(records[i])
				results[i] = decoded{event: ev, err: err, duration: time.Since(start)}
			}
		}()
	}

	var err error
	for i := range records {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case jobs <- i:
		}
		if err != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return results, nil
}
