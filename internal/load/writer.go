package load

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ingest_orders/internal/domain/ingest"
	"ingest_orders/internal/domain/rows"
	"ingest_orders/internal/schema"
	"ingest_orders/pkg/logger"
)

const DefaultBatchSize = 500

type Options struct {
	// Replace drops every catalog table before loading.
	Replace   bool
	BatchSize int
}

type Writer struct {
	store   Store
	catalog *schema.Catalog
	log     logger.Logger
}

func NewWriter(store Store, catalog *schema.Catalog, log logger.Logger) *Writer {
	return &Writer{store: store, catalog: catalog, log: log}
}

// Write loads set atomically: either every row is committed or none is. Rows are
// checked in memory first so most violations are reported before the destination
// is touched. Returned counts are rows inserted per table.
func (w *Writer) Write(ctx context.Context, set *rows.Set, opts Options) (map[string]int, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	log := w.log.WithContext(ctx)

	if err := Check(w.catalog, set); err != nil {
		return nil, err
	}

	d := w.store.Dialect()
	if !d.TransactionalDDL {
		if err := w.prepare(ctx, w.store.Exec, opts.Replace); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	inserted := make(map[string]int)
	err := w.store.WithinTx(ctx, func(tx Tx) error {
		if d.TransactionalDDL {
			if err := w.prepare(ctx, tx.Exec, opts.Replace); err != nil {
				return err
			}
		}
		for _, name := range w.catalog.InsertOrder() {
			n, err := w.insert(ctx, tx, name, set.Rows(name), opts.BatchSize)
			if err != nil {
				return err
			}
			inserted[name] = n
		}
		return nil
	})
	if err != nil {
		return nil, asLoadFailure("", err)
	}

	log.Info("Loaded row set",
		logger.Int("rows", set.Total()),
		logger.Strings("tables", set.Tables()),
		logger.Duration("elapsed", time.Since(start)),
	)
	return inserted, nil
}

// prepare drops (on replace) and creates the catalog tables through exec.
func (w *Writer) prepare(ctx context.Context, exec func(context.Context, string) error, replace bool) error {
	if replace {
		for _, name := range w.catalog.DropOrder() {
			tbl, _ := w.catalog.Table(name)
			if err := exec(ctx, schema.DropTableSQL(tbl)); err != nil {
				return asLoadFailure(name, fmt.Errorf("failed to drop table: %w", err))
			}
		}
	}
	d := w.store.Dialect()
	for _, name := range w.catalog.InsertOrder() {
		tbl, _ := w.catalog.Table(name)
		if err := exec(ctx, schema.CreateTableSQL(tbl, d)); err != nil {
			return asLoadFailure(name, fmt.Errorf("failed to create table: %w", err))
		}
	}
	return nil
}

func (w *Writer) insert(ctx context.Context, tx Tx, name string, rs []rows.Row, batchSize int) (int, error) {
	if len(rs) == 0 {
		return 0, nil
	}
	tbl, _ := w.catalog.Table(name)

	for start := 0; start < len(rs); start += batchSize {
		end := start + batchSize
		if end > len(rs) {
			end = len(rs)
		}
		batch := make([][]any, 0, end-start)
		for _, r := range rs[start:end] {
			batch = append(batch, r.Values())
		}
		if err := tx.Insert(ctx, tbl, batch); err != nil {
			return 0, asLoadFailure(name, fmt.Errorf("failed to insert rows %d-%d: %w", start, end-1, err))
		}
	}

	w.log.WithContext(ctx).Debug("Inserted rows", logger.String("table", name), logger.Int("rows", len(rs)))
	return len(rs), nil
}

// Counts returns the number of rows each catalog table holds.
func (w *Writer) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(w.catalog.Tables))
	for _, name := range w.catalog.InsertOrder() {
		n, err := w.store.Count(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}

// asLoadFailure wraps err unless it already is a load failure, filling in the
// violated constraint when the store reported one.
func asLoadFailure(table string, err error) error {
	var lf *ingest.LoadFailureError
	if errors.As(err, &lf) {
		return err
	}
	out := &ingest.LoadFailureError{Table: table, Err: err}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		out.Constraint = ce.Constraint
	}
	return out
}
