package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"

	"ingest_orders/internal/domain/document"
	domain "ingest_orders/internal/domain/ingest"
	"ingest_orders/internal/domain/rows"
	"ingest_orders/internal/identity"
	"ingest_orders/internal/load"
	"ingest_orders/pkg/logger"
)

// Source loads the raw event records of a document.
type Source interface {
	Load(path string) ([]json.RawMessage, error)
}

// SourceFunc adapts a plain function such as jsondoc.Load to Source.
type SourceFunc func(path string) ([]json.RawMessage, error)

func (f SourceFunc) Load(path string) ([]json.RawMessage, error) { return f(path) }

// Decoder validates a raw record and decodes it into an event.
type Decoder interface {
	Decode(raw json.RawMessage) (document.Event, error)
}

type Extractor interface {
	Extract(index int, ev document.Event) (*rows.Set, error)
	Conflicts() []identity.Conflict
}

type Writer interface {
	Write(ctx context.Context, set *rows.Set, opts load.Options) (map[string]int, error)
	Counts(ctx context.Context) (map[string]int64, error)
}

// Latency summarizes per-record decode and extraction time.
type Latency struct {
	P50 time.Duration
	P95 time.Duration
	P99 time.Duration
	Max time.Duration
}

// Summary describes one run. It is returned even when the run fails, filled in as far
// as the run got.
type Summary struct {
	RunID     string
	Records   int
	Loaded    int
	Skipped   []*domain.SkippedRecordError
	Conflicts []identity.Conflict
	Inserted  map[string]int
	Counts    map[string]int64
	Latency   Latency
	Elapsed   time.Duration
}

type Options struct {
	Load load.Options
	// Workers decode records concurrently. Zero means GOMAXPROCS.
	Workers int
}

type Service struct {
	source    Source
	decoders  *decodePool
	extractor Extractor
	writer    Writer
	opts      Options
	log       logger.Logger
}

func NewService(source Source, decoder Decoder, extractor Extractor, writer Writer, opts Options, log logger.Logger) *Service {
	return &Service{
		source:    source,
		decoders:  newDecodePool(opts.Workers, decoder),
		extractor: extractor,
		writer:    writer,
		opts:      opts,
		log:       log,
	}
}

// Run loads the document at path into the destination. Rejected records are reported
// in Summary.Skipped and do not fail the run; input and load failures do.
func (s *Service) Run(ctx context.Context, path string) (*Summary, error) {
	started := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	ctx = logger.ContextWithRunID(ctx, summary.RunID)
	log := s.log.WithContext(ctx)
	defer func() { summary.Elapsed = time.Since(started) }()

	log.Info("Starting ingest", logger.String("input", path))

	records, err := s.source.Load(path)
	if err != nil {
		return summary, fmt.Errorf("failed to load input: %w", err)
	}
	summary.Records = len(records)

	events, err := s.decoders.decodeAll(ctx, records)
	if err != nil {
		return summary, err
	}

	set := rows.NewSet()
	histogram := hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)
	for i, d := range events {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		var rs *rows.Set
		err := d.err
		begin := time.Now()
		if err == nil {
			rs, err = s.extractor.Extract(i, d.event)
		}
		histogram.RecordValue((d.duration + time.Since(begin)).Microseconds())

		if err != nil {
			var skipped *domain.SkippedRecordError
			if !errors.As(err, &skipped) {
				skipped = &domain.SkippedRecordError{Index: i, EventRef: envelopeRef(i, records[i]), Err: err}
			}
			summary.Skipped = append(summary.Skipped, skipped)
			log.Warn("Skipping record",
				logger.Int("record", skipped.Index),
				logger.String("event", skipped.EventRef),
				logger.Error(skipped.Err),
			)
			continue
		}
		set.Merge(rs)
		summary.Loaded++
	}
	summary.Conflicts = s.extractor.Conflicts()
	summary.Latency = Latency{
		P50: time.Duration(histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95: time.Duration(histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99: time.Duration(histogram.ValueAtQuantile(99)) * time.Microsecond,
		Max: time.Duration(histogram.Max()) * time.Microsecond,
	}

	inserted, err := s.writer.Write(ctx, set, s.opts.Load)
	if err != nil {
		return summary, fmt.Errorf("failed to write rows: %w", err)
	}
	summary.Inserted = inserted

	counts, err := s.writer.Counts(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to count rows: %w", err)
	}
	summary.Counts = counts

	log.Info("Ingest finished",
		logger.Int("records", summary.Records),
		logger.Int("loaded", summary.Loaded),
		logger.Int("skipped", len(summary.Skipped)),
		logger.Int("conflicts", len(summary.Conflicts)),
		logger.Duration("elapsed", time.Since(started)),
	)
	return summary, nil
}

// envelopeRef names a record that failed to decode, using whatever of the envelope
// still parses.
func envelopeRef(index int, raw json.RawMessage) string {
	var env struct {
		ID   document.ID `json:"event_id"`
		Name string      `json:"event_name"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return document.Event{}.Ref(index)
	}
	return document.Event{ID: env.ID, Name: env.Name}.Ref(index)
}
