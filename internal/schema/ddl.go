package schema

import (
	"fmt"
	"sort"
	"strings"
)

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for t. Constraint names follow
// pk_/uq_/fk_/ck_<table>_<columns> so load failures can be traced back to the catalog.
func CreateTableSQL(t *Table, d Dialect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)

	lines := make([]string, 0, len(t.Columns)+len(t.Unique)+len(t.ForeignKeys)+len(t.Checks)+1)
	for _, col := range t.Columns {
		line := fmt.Sprintf("\t%s %s", col.Name, d.columnType(t, col))
		if !col.Nullable {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}

	lines = append(lines, fmt.Sprintf("\tCONSTRAINT %s PRIMARY KEY (%s)", ConstraintName("pk", t.Name, t.PrimaryKey), t.PrimaryKey))
	for _, cols := range t.Unique {
		lines = append(lines, fmt.Sprintf("\tCONSTRAINT %s UNIQUE (%s)",
			ConstraintName("uq", t.Name, cols...), strings.Join(cols, ", ")))
	}
	for _, fk := range t.ForeignKeys {
		lines = append(lines, fmt.Sprintf("\tCONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			ConstraintName("fk", t.Name, fk.Column), fk.Column, fk.References, fk.ReferencesColumn))
	}
	for _, ck := range t.Checks {
		values := make([]string, len(ck.In))
		for i, v := range ck.In {
			values[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		lines = append(lines, fmt.Sprintf("\tCONSTRAINT %s CHECK (%s IN (%s))",
			ConstraintName("ck", t.Name, ck.Column), ck.Column, strings.Join(values, ", ")))
	}
	for _, p := range t.Polymorphic {
		lines = append(lines, fmt.Sprintf("\tCONSTRAINT %s CHECK (%s)",
			ConstraintName("ck", t.Name, p.IDColumn), polymorphicCheck(p)))
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	return b.String()
}

// polymorphicCheck requires the id column to be set exactly when the discriminator
// names a target table.
func polymorphicCheck(p Polymorphic) string {
	kinds := make([]string, 0, len(p.Targets))
	for kind := range p.Targets {
		kinds = append(kinds, "'"+kind+"'")
	}
	sort.Strings(kinds)
	in := strings.Join(kinds, ", ")
	return fmt.Sprintf("(%[1]s IN (%[2]s) AND %[3]s IS NOT NULL) OR (%[1]s NOT IN (%[2]s) AND %[3]s IS NULL)",
		p.TypeColumn, in, p.IDColumn)
}

func DropTableSQL(t *Table) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", t.Name)
}

// InsertSQL renders a multi-row INSERT for rowCount tuples of t.
func InsertSQL(t *Table, d Dialect, rowCount int) string {
	cols := t.ColumnNames()
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", t.Name, strings.Join(cols, ", "))

	n := 1
	for r := 0; r < rowCount; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range cols {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

func ConstraintName(prefix, table string, columns ...string) string {
	return prefix + "_" + table + "_" + strings.Join(columns, "_")
}
