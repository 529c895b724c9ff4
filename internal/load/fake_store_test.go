package load

import (
	"context"
	"strings"

	"ingest_orders/internal/schema"
)

// fakeStore records what the writer asks of it.
type fakeStore struct {
	dialect schema.Dialect

	outside   []string
	inside    []string
	inserts   []insertCall
	committed bool
	txCalls   int

	failInsert map[string]error
	counts     map[string]int64
}

type insertCall struct {
	table string
	rows  int
}

func newFakeStore(d schema.Dialect) *fakeStore {
	return &fakeStore{dialect: d, failInsert: map[string]error{}, counts: map[string]int64{}}
}

func (s *fakeStore) Dialect() schema.Dialect { return s.dialect }

func (s *fakeStore) Exec(_ context.Context, stmt string) error {
	s.outside = append(s.outside, stmt)
	return nil
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	s.txCalls++
	if err := fn(&fakeTx{store: s}); err != nil {
		return err
	}
	s.committed = true
	return nil
}

func (s *fakeStore) Count(_ context.Context, table string) (int64, error) {
	return s.counts[table], nil
}

func (s *fakeStore) Close() error { return nil }

// statements returns the leading keyword pair and table of each recorded statement,
// e.g. "CREATE TABLE events".
func statements(stmts []string) []string {
	out := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		f := strings.Fields(stmt)
		switch {
		case len(f) >= 6 && f[2] == "IF":
			out = append(out, f[0]+" "+f[1]+" "+f[5])
		case len(f) >= 5 && f[0] == "DROP":
			out = append(out, f[0]+" "+f[1]+" "+f[4])
		default:
			out = append(out, stmt)
		}
	}
	return out
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) Exec(_ context.Context, stmt string) error {
	t.store.inside = append(t.store.inside, stmt)
	return nil
}

func (t *fakeTx) Insert(_ context.Context, table *schema.Table, values [][]any) error {
	if err := t.store.failInsert[table.Name]; err != nil {
		return err
	}
	t.store.inserts = append(t.store.inserts, insertCall{table: table.Name, rows: len(values)})
	return nil
}
