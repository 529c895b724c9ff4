package load

import (
	"fmt"
	"strings"

	"ingest_orders/internal/domain/ingest"
	"ingest_orders/internal/domain/rows"
	"ingest_orders/internal/schema"
)

// Check verifies set against every constraint the catalog declares, plus the
// existence of polymorphic parents which no database enforces. It returns a
// *ingest.LoadFailureError naming the first violation found, in insert order.
func Check(catalog *schema.Catalog, set *rows.Set) error {
	// values seen per table column, for foreign key and polymorphic lookups
	seen := make(map[string]map[string]map[string]bool)
	record := func(table, column, value string) {
		cols, ok := seen[table]
		if !ok {
			cols = make(map[string]map[string]bool)
			seen[table] = cols
		}
		if cols[column] == nil {
			cols[column] = make(map[string]bool)
		}
		cols[column][value] = true
	}
	exists := func(table, column, value string) bool {
		return seen[table][column][value]
	}

	for _, name := range catalog.InsertOrder() {
		tbl, _ := catalog.Table(name)
		rs := set.Rows(name)
		if len(rs) == 0 {
			continue
		}

		fail := func(constraint string, err error) error {
			return &ingest.LoadFailureError{Table: name, Constraint: constraint, Err: err}
		}

		unique := make([]map[string]bool, len(tbl.Unique))
		for i := range unique {
			unique[i] = make(map[string]bool)
		}
		pkIndex := tbl.ColumnIndex(tbl.PrimaryKey)
		pks := make(map[string]bool, len(rs))

		for n, r := range rs {
			values := r.Values()
			if len(values) != len(tbl.Columns) {
				return fail("", fmt.Errorf("row %d has %d values for %d columns", n, len(values), len(tbl.Columns)))
			}

			for i, col := range tbl.Columns {
				if values[i] == nil && !col.Nullable {
					return fail(schema.ConstraintName("nn", name, col.Name),
						fmt.Errorf("%w: %s.%s (row %d)", ingest.ErrNullValue, name, col.Name, n))
				}
			}

			pk := key(values[pkIndex])
			if pks[pk] {
				return fail(schema.ConstraintName("pk", name, tbl.PrimaryKey),
					fmt.Errorf("%w: %s=%s", ingest.ErrDuplicateKey, tbl.PrimaryKey, pk))
			}
			pks[pk] = true

			for u, cols := range tbl.Unique {
				k, ok := compositeKey(tbl, values, cols)
				if !ok {
					continue
				}
				if unique[u][k] {
					return fail(schema.ConstraintName("uq", name, cols...),
						fmt.Errorf("%w: (%s)=(%s)", ingest.ErrDuplicateKey, strings.Join(cols, ", "), k))
				}
				unique[u][k] = true
			}

			for _, fk := range tbl.ForeignKeys {
				v := values[tbl.ColumnIndex(fk.Column)]
				if v == nil {
					continue
				}
				if !exists(fk.References, fk.ReferencesColumn, key(v)) {
					return fail(schema.ConstraintName("fk", name, fk.Column),
						fmt.Errorf("%w: %s=%s not in %s", ingest.ErrDanglingParent, fk.Column, key(v), fk.References))
				}
			}

			for _, ck := range tbl.Checks {
				v := values[tbl.ColumnIndex(ck.Column)]
				if v == nil {
					continue
				}
				if !contains(ck.In, key(v)) {
					return fail(schema.ConstraintName("ck", name, ck.Column),
						fmt.Errorf("%w: %s=%q", ingest.ErrCheckFailed, ck.Column, key(v)))
				}
			}

			for _, p := range tbl.Polymorphic {
				kind := key(values[tbl.ColumnIndex(p.TypeColumn)])
				id := values[tbl.ColumnIndex(p.IDColumn)]
				target, polymorphic := p.Targets[kind]
				constraint := schema.ConstraintName("ck", name, p.IDColumn)
				switch {
				case polymorphic && id == nil:
					return fail(constraint, fmt.Errorf("%w: %s is NULL for %s=%q", ingest.ErrNullValue, p.IDColumn, p.TypeColumn, kind))
				case !polymorphic && id != nil:
					return fail(constraint, fmt.Errorf("%w: %s set for %s=%q", ingest.ErrCheckFailed, p.IDColumn, p.TypeColumn, kind))
				case polymorphic:
					targetTbl, _ := catalog.Table(target)
					if !exists(target, targetTbl.PrimaryKey, key(id)) {
						return fail(constraint, fmt.Errorf("%w: %s %s=%s not in %s",
							ingest.ErrDanglingParent, kind, p.IDColumn, key(id), target))
					}
				}
			}

			for i, col := range tbl.Columns {
				if values[i] != nil {
					record(name, col.Name, key(values[i]))
				}
			}
		}
	}
	return nil
}

func key(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// compositeKey joins the values of cols. ok is false when any of them is NULL, since
// NULLs never collide under SQL unique constraints.
func compositeKey(tbl *schema.Table, values []any, cols []string) (string, bool) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		v := values[tbl.ColumnIndex(c)]
		if v == nil {
			return "", false
		}
		parts[i] = key(v)
	}
	return strings.Join(parts, "\x00"), true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
