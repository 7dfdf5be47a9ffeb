package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/noobjs/blog-backend/internal/db/interfaces"
	"github.com/noobjs/blog-backend/internal/db/migrations"
)

// Config holds the connection settings
type Config struct {
	DSN      string
	MaxConns int32
}

// Database implements the relational Database interface on PostgreSQL
type Database struct {
	cfg    Config
	pool   *pgxpool.Pool
	logger *zap.SugaredLogger

	authors *AuthorRepository
	posts   *PostRepository
}

var _ interfaces.Relational = (*Database)(nil)

// NewDatabase creates an unconnected PostgreSQL database
func NewDatabase(cfg Config, logger *zap.SugaredLogger) *Database {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	db := &Database{cfg: cfg, logger: logger}
	db.authors = &AuthorRepository{db: db}
	db.posts = &PostRepository{db: db}
	return db
}

// Name identifies the backend
func (db *Database) Name() string {
	return "postgres"
}

// Connect opens the connection pool
func (db *Database) Connect(ctx context.Context) error {
	if db.pool != nil {
		return nil
	}
	pool, err := NewPool(ctx, db.cfg.DSN, PoolOptions{MaxConns: db.cfg.MaxConns})
	if err != nil {
		return err
	}
	db.pool = pool
	db.logger.Infow("Connected to PostgreSQL", "max_conns", pool.Config().MaxConns)
	return nil
}

// Disconnect closes the connection pool
func (db *Database) Disconnect(ctx context.Context) error {
	if db.pool == nil {
		return nil
	}
	db.pool.Close()
	db.pool = nil
	db.logger.Info("Disconnected from PostgreSQL")
	return nil
}

// IsHealthy pings the database
func (db *Database) IsHealthy(ctx context.Context) bool {
	if db.pool == nil {
		return false
	}
	return db.pool.Ping(ctx) == nil
}

// Migrate applies the embedded goose migrations
func (db *Database) Migrate(ctx context.Context) error {
	pool, err := db.conn()
	if err != nil {
		return err
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	migrations.SetLogger(db.logger)
	if err := migrations.Up(ctx, sqlDB); err != nil {
		return err
	}
	db.logger.Info("PostgreSQL migrations applied")
	return nil
}

// Truncate empties both tables and restarts their sequences
func (db *Database) Truncate(ctx context.Context) error {
	pool, err := db.conn()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `TRUNCATE TABLE posts, authors RESTART IDENTITY CASCADE`); err != nil {
		return interfaces.Wrap("truncate", fmt.Errorf("truncate tables: %w", err))
	}
	return nil
}

// Authors returns the author store
func (db *Database) Authors() interfaces.AuthorStore {
	return db.authors
}

// Catalog returns the author store with read and administrative operations
func (db *Database) Catalog() interfaces.AuthorCatalog {
	return db.authors
}

// Posts returns the post store
func (db *Database) Posts() interfaces.PostStore {
	return db.posts
}

func (db *Database) conn() (*pgxpool.Pool, error) {
	if db.pool == nil {
		return nil, interfaces.ErrDatabaseNotConnected
	}
	return db.pool, nil
}
