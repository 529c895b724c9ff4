package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	app "ingest_orders/internal/application/ingest"
	"ingest_orders/internal/config"
	"ingest_orders/internal/extract"
	"ingest_orders/internal/identity"
	"ingest_orders/internal/infrastructure/encoding/jsondoc"
	"ingest_orders/internal/load"
	"ingest_orders/internal/schema"
	"ingest_orders/pkg/logger"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitSkipped = 3
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, "error:", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	// Validation happens once flags are applied.
	cfg, _ := config.Load()

	cmd := &cobra.Command{
		Use:           "ingest",
		Short:         "Flatten order events into relational tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return withCode(exitUsage, fmt.Errorf("unexpected arguments: %v", args))
			}
			return nil
		},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return withCode(exitUsage, err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, stdout)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	cmd.Flags().StringVar(&cfg.Input.Path, "input", cfg.Input.Path, "Input document (JSON array or newline-delimited, optionally .gz)")
	cmd.Flags().StringVar(&cfg.DB.Path, "db", cfg.DB.Path, "SQLite database file")
	cmd.Flags().StringVar(&cfg.DB.Driver, "driver", cfg.DB.Driver, "Destination driver: sqlite, postgres or mysql")
	cmd.Flags().StringVar(&cfg.DB.DSN, "dsn", cfg.DB.DSN, "Connection string for postgres and mysql")
	cmd.Flags().BoolVar(&cfg.Ingest.Replace, "replace", cfg.Ingest.Replace, "Drop and recreate the destination tables before loading (sqlite and postgres only)")
	cmd.Flags().IntVar(&cfg.Ingest.BatchSize, "batch-size", cfg.Ingest.BatchSize, "Rows per insert statement")
	cmd.Flags().IntVar(&cfg.Ingest.Workers, "workers", cfg.Ingest.Workers, "Records decoded concurrently")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	log, err := logger.NewZapLogger(cfg.App.Env)
	if err != nil {
		return withCode(exitFailure, fmt.Errorf("failed to init logger: %w", err))
	}
	defer log.Sync()

	validator, err := jsondoc.NewValidator()
	if err != nil {
		return withCode(exitFailure, err)
	}

	dest, err := openDestination(ctx, cfg.DB)
	if err != nil {
		return withCode(exitFailure, err)
	}

	svc := app.NewService(
		app.SourceFunc(jsondoc.Load),
		validator,
		extract.NewExtractor(identity.NewResolver(), log),
		load.NewWriter(dest.store, schema.Default(), log),
		app.Options{
			Load:    load.Options{Replace: cfg.Ingest.Replace, BatchSize: cfg.Ingest.BatchSize},
			Workers: cfg.Ingest.Workers,
		},
		log,
	)

	summary, runErr := svc.Run(ctx, cfg.Input.Path)
	if err := dest.store.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close destination: %w", err)
	}
	printSummary(out, summary, cfg.DB.Target())

	if runErr != nil {
		if err := dest.discard(); err != nil {
			log.Error("Failed to remove partial destination", logger.String("path", dest.created), logger.Error(err))
		}
		return withCode(exitFailure, runErr)
	}
	if n := len(summary.Skipped); n > 0 {
		return withCode(exitSkipped, fmt.Errorf("%d of %d records skipped", n, summary.Records))
	}
	return nil
}
