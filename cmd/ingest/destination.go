package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"ingest_orders/internal/config"
	"ingest_orders/internal/infrastructure/persistence/postgres"
	"ingest_orders/internal/infrastructure/persistence/sqlstore"
	"ingest_orders/internal/load"
	"ingest_orders/internal/schema"
)

type destination struct {
	store load.Store
	// created is the SQLite file this run created, removed again if the run fails.
	created string
}

func openDestination(ctx context.Context, db config.DBConfig) (*destination, error) {
	if _, err := schema.DialectByName(db.Driver); err != nil {
		return nil, err
	}

	switch db.Driver {
	case config.DriverSQLite:
		_, statErr := os.Stat(db.Path)
		fresh := errors.Is(statErr, fs.ErrNotExist)

		s, err := sqlstore.OpenSQLite(ctx, db.Path)
		if err != nil {
			if fresh {
				removeSQLite(db.Path)
			}
			return nil, err
		}
		d := &destination{store: s}
		if fresh {
			d.created = db.Path
		}
		return d, nil

	case config.DriverMySQL:
		s, err := sqlstore.OpenMySQL(ctx, db.DSN)
		if err != nil {
			return nil, err
		}
		return &destination{store: s}, nil

	case config.DriverPostgres:
		s, err := postgres.Open(ctx, db.DSN)
		if err != nil {
			return nil, err
		}
		return &destination{store: s}, nil
	}
	return nil, fmt.Errorf("unsupported driver %q", db.Driver)
}

func (d *destination) discard() error {
	if d.created == "" {
		return nil
	}
	return removeSQLite(d.created)
}

func removeSQLite(path string) error {
	var errs []error
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
