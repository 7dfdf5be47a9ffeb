package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noobjs/blog-backend/internal/config"
	gdb "github.com/noobjs/blog-backend/internal/db"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
	"github.com/noobjs/blog-backend/internal/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type seedOptions struct {
	authors int
	posts   int
	clean   bool
	backend string
}

func newRootCommand() *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Fill the configured storage backend with fixture authors and posts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.authors < 0 || opts.posts < 0 {
				return fmt.Errorf("--authors and --posts must not be negative")
			}
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.authors, "authors", "a", 10, "number of authors to create")
	cmd.Flags().IntVarP(&opts.posts, "posts", "p", 3, "posts per author (relational backends only)")
	cmd.Flags().BoolVar(&opts.clean, "clean", false, "truncate authors and posts first")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "override BLOG_DB_BACKEND")
	return cmd
}

func run(ctx context.Context, opts seedOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.NewSugar(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	backend := cfg.Database.Backend
	if opts.backend != "" {
		backend = opts.backend
	}

	db, err := gdb.NewDatabase(&gdb.Config{
		Type:          backend,
		PostgresDSN:   cfg.Database.PostgresDSN,
		MaxConns:      cfg.Database.PostgresMaxConns,
		MongoURI:      cfg.Database.MongoURI,
		MongoDatabase: cfg.Database.MongoDatabase,
	}, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := gdb.ConnectAndMigrate(ctx, db); err != nil {
		return err
	}
	defer db.Disconnect(context.WithoutCancel(ctx))

	if opts.clean {
		if err := gdb.CleanDB(ctx, db); err != nil {
			return fmt.Errorf("failed to clean database: %w", err)
		}
		logger.Infow("Database cleaned", "backend", db.Name())
	}

	return seed(ctx, db, opts, logger.Infow)
}

// seed creates the fixture rows. Posts are only created on relational backends.
func seed(ctx context.Context, db interfaces.Database, opts seedOptions, logf func(msg string, kv ...interface{})) error {
	fixtures := gdb.NewFixtures()
	rel, relational := interfaces.AsRelational(db)

	var posts int
	for i := 0; i < opts.authors; i++ {
		if !relational || opts.posts == 0 {
			if _, err := fixtures.CreateAuthor(ctx, db.Authors()); err != nil {
				return fmt.Errorf("failed to create author: %w", err)
			}
			continue
		}

		_, created, err := fixtures.CreateAuthorWithPosts(ctx, rel, opts.posts)
		if err != nil {
			return fmt.Errorf("failed to create author with posts: %w", err)
		}
		posts += len(created)
	}

	logf("Seed complete", "backend", db.Name(), "authors", opts.authors, "posts", posts)
	return nil
}
