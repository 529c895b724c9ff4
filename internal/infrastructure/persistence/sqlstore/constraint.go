package sqlstore

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"

	"ingest_orders/internal/load"
	"ingest_orders/internal/schema"
)

var (
	// e.g. "constraint failed: UNIQUE constraint failed: addresses.order_id, addresses.role (2067)"
	sqliteConstraint = regexp.MustCompile(`(UNIQUE|NOT NULL|CHECK|FOREIGN KEY) constraint failed(?:: ([\w.]+(?:, [\w.]+)*))?`)

	mysqlDuplicateKey = regexp.MustCompile(`for key '([^']+)'`)
	mysqlNamed        = regexp.MustCompile("CONSTRAINT `([^`]+)`|[Cc]heck constraint '([^']+)'")
	mysqlNullColumn   = regexp.MustCompile(`Column '([^']+)' cannot be null`)
)

// MySQL server error numbers for constraint violations.
const (
	mysqlErrDupEntry      = 1062
	mysqlErrNoReferenced  = 1452
	mysqlErrRowIsReferred = 1451
	mysqlErrCheck         = 3819
	mysqlErrBadNull       = 1048
)

// translate wraps constraint violations in *load.ConstraintError. Other errors are
// returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if name := constraintName(err); name != "" {
		return &load.ConstraintError{Constraint: name, Err: err}
	}
	return err
}

func constraintName(err error) string {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return mysqlConstraint(me)
	}
	return sqliteConstraintName(err.Error())
}

// sqliteConstraintName maps SQLite's report to catalog constraint names. SQLite
// names CHECK constraints but reports UNIQUE and NOT NULL by column.
func sqliteConstraintName(msg string) string {
	m := sqliteConstraint.FindStringSubmatch(msg)
	if m == nil {
		return ""
	}
	kind, detail := m[1], m[2]

	switch kind {
	case "CHECK":
		if detail != "" {
			return detail
		}
		return "check"
	case "FOREIGN KEY":
		return "foreign_key"
	}

	table, cols := splitColumns(detail)
	if table == "" {
		return strings.ToLower(strings.ReplaceAll(kind, " ", "_"))
	}
	if kind == "NOT NULL" {
		return schema.ConstraintName("nn", table, cols...)
	}
	if len(cols) == 1 && cols[0] == "id" {
		return schema.ConstraintName("pk", table, cols...)
	}
	return schema.ConstraintName("uq", table, cols...)
}

// splitColumns turns "t.a, t.b" into ("t", ["a", "b"]).
func splitColumns(detail string) (string, []string) {
	if detail == "" {
		return "", nil
	}
	var table string
	var cols []string
	for _, part := range strings.Split(detail, ", ") {
		i := strings.LastIndexByte(part, '.')
		if i < 0 {
			return "", nil
		}
		table = part[:i]
		cols = append(cols, part[i+1:])
	}
	return table, cols
}

func mysqlConstraint(me *mysql.MySQLError) string {
	switch me.Number {
	case mysqlErrDupEntry:
		if m := mysqlDuplicateKey.FindStringSubmatch(me.Message); m != nil {
			name := m[1]
			// MySQL 8 reports "table.key"
			if i := strings.LastIndexByte(name, '.'); i >= 0 {
				name = name[i+1:]
			}
			if name == "PRIMARY" {
				return "primary_key"
			}
			return name
		}
		return "unique"
	case mysqlErrNoReferenced, mysqlErrRowIsReferred, mysqlErrCheck:
		if m := mysqlNamed.FindStringSubmatch(me.Message); m != nil {
			if m[1] != "" {
				return m[1]
			}
			return m[2]
		}
		if me.Number == mysqlErrCheck {
			return "check"
		}
		return "foreign_key"
	case mysqlErrBadNull:
		if m := mysqlNullColumn.FindStringSubmatch(me.Message); m != nil {
			return "nn_" + m[1]
		}
		return "not_null"
	}
	return ""
}
