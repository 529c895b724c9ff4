// Package sqlstore is the database/sql destination used for SQLite and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"ingest_orders/internal/load"
	"ingest_orders/internal/schema"
)

const sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

// Bind variable limits per statement.
const (
	sqliteMaxParams = 32766
	mysqlMaxParams  = 65535
)

type Store struct {
	db        *sql.DB
	dialect   schema.Dialect
	maxParams int
}

// New wraps an open handle. Close closes it.
func New(db *sql.DB, dialect schema.Dialect) *Store {
	limit := sqliteMaxParams
	if dialect.Name == schema.MySQL.Name {
		limit = mysqlMaxParams
	}
	return &Store{db: db, dialect: dialect, maxParams: limit}
}

// OpenSQLite opens (creating if needed) the database file at path with foreign key
// enforcement on.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one writer; also keeps pragmas on the single connection that does the work
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return New(db, schema.SQLite), nil
}

// OpenMySQL connects using a go-sql-driver DSN.
func OpenMySQL(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.MultiStatements = false

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql database: %w", err)
	}
	return New(db, schema.MySQL), nil
}

func (s *Store) Dialect() schema.Dialect { return s.dialect }

func (s *Store) Exec(ctx context.Context, stmt string) error {
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx load.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit: %w", translate(cerr))
		}
	}()

	err = fn(&sqlTx{tx: tx, store: s})
	return err
}

func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type sqlTx struct {
	tx    *sql.Tx
	store *Store
}

func (t *sqlTx) Exec(ctx context.Context, stmt string) error {
	if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
		return translate(err)
	}
	return nil
}

// Insert issues multi-row INSERTs, splitting values so that no statement exceeds
// the driver's bind variable limit.
func (t *sqlTx) Insert(ctx context.Context, table *schema.Table, values [][]any) error {
	cols := len(table.Columns)
	perStmt := t.store.maxParams / cols
	if perStmt < 1 {
		perStmt = 1
	}

	for start := 0; start < len(values); start += perStmt {
		end := start + perStmt
		if end > len(values) {
			end = len(values)
		}
		chunk := values[start:end]

		args := make([]any, 0, len(chunk)*cols)
		for _, v := range chunk {
			args = append(args, v...)
		}
		if _, err := t.tx.ExecContext(ctx, schema.InsertSQL(table, t.store.dialect, len(chunk)), args...); err != nil {
			return translate(err)
		}
	}
	return nil
}
