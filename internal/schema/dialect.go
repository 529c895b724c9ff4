package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures what differs between destination engines.
type Dialect struct {
	Name string
	// TransactionalDDL is false when CREATE/DROP commit implicitly.
	TransactionalDDL bool

	types       map[Type]string
	keyedText   string
	placeholder func(n int) string
}

var (
	SQLite = Dialect{
		Name:             "sqlite",
		TransactionalDDL: true,
		types: map[Type]string{
			TypeInteger: "INTEGER",
			TypeText:    "TEXT",
			// TEXT keeps decimals exact; NUMERIC affinity would coerce them to REAL.
			TypeDecimal:   "TEXT",
			TypeBoolean:   "BOOLEAN",
			TypeTimestamp: "TIMESTAMP",
		},
		keyedText:   "TEXT",
		placeholder: func(int) string { return "?" },
	}

	Postgres = Dialect{
		Name:             "postgres",
		TransactionalDDL: true,
		types: map[Type]string{
			TypeInteger:   "BIGINT",
			TypeText:      "TEXT",
			TypeDecimal:   "NUMERIC",
			TypeBoolean:   "BOOLEAN",
			TypeTimestamp: "TIMESTAMPTZ",
		},
		keyedText:   "TEXT",
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}

	MySQL = Dialect{
		Name:             "mysql",
		TransactionalDDL: false,
		types: map[Type]string{
			TypeInteger:   "BIGINT",
			TypeText:      "TEXT",
			TypeDecimal:   "DECIMAL(20,6)",
			TypeBoolean:   "BOOLEAN",
			TypeTimestamp: "DATETIME(6)",
		},
		keyedText:   "VARCHAR(255)",
		placeholder: func(int) string { return "?" },
	}
)

// DialectByName resolves a configured driver name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported dialect %q", name)
	}
}

// Placeholder renders the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string { return d.placeholder(n) }

func (d Dialect) columnType(t *Table, col Column) string {
	if col.Type == TypeText && t.keyed(col.Name) {
		return d.keyedText
	}
	return d.types[col.Type]
}
