package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noobjs/blog-backend/internal/config"
	"github.com/noobjs/blog-backend/internal/db/migrations"
	"github.com/noobjs/blog-backend/internal/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the embedded PostgreSQL migrations",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (defaults to BLOG_POSTGRES_DSN)")

	run := func(fn func(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), dsn, fn)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			RunE: run(func(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error {
				if err := migrations.Up(ctx, db); err != nil {
					return fmt.Errorf("migration up failed: %w", err)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: run(func(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error {
				if err := migrations.Down(ctx, db); err != nil {
					return fmt.Errorf("migration down failed: %w", err)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the state of every migration",
			RunE: run(func(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error {
				if err := migrations.Status(ctx, db); err != nil {
					return fmt.Errorf("migration status failed: %w", err)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: run(func(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error {
				version, err := migrations.Version(ctx, db)
				if err != nil {
					return fmt.Errorf("migration version failed: %w", err)
				}
				logger.Infow("Schema version", "version", version)
				return nil
			}),
		},
	)

	return cmd
}

func withDB(ctx context.Context, dsn string, fn func(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.NewSugar(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()
	migrations.SetLogger(logger)

	if dsn == "" {
		dsn = cfg.Database.PostgresDSN
	}
	if dsn == "" {
		return fmt.Errorf("no PostgreSQL DSN: set BLOG_POSTGRES_DSN or --dsn")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}

	return fn(ctx, db, logger)
}
