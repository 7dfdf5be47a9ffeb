package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noobjs/blog-backend/internal/db/backends/memory"
	"github.com/noobjs/blog-backend/internal/db/backends/mongodb"
	"github.com/noobjs/blog-backend/internal/db/backends/postgres"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

// Supported backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongoDB  = "mongodb"
)

// Config holds database configuration
type Config struct {
	Type          string // "memory", "postgres", "mongodb"
	PostgresDSN   string
	MaxConns      int32 // Maximum pool connections (postgres)
	MongoURI      string
	MongoDatabase string
}

// NewDatabase creates a new database instance based on configuration
func NewDatabase(config *Config, logger *zap.SugaredLogger) (interfaces.Database, error) {
	if config == nil {
		config = &Config{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	switch config.Type {
	case "", BackendMemory:
		logger.Info("Using in-memory database")
		return memory.NewDatabase(logger), nil
	case BackendPostgres:
		if config.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend requires a dsn")
		}
		logger.Info("Using PostgreSQL database")
		return postgres.NewDatabase(postgres.Config{
			DSN:      config.PostgresDSN,
			MaxConns: config.MaxConns,
		}, logger), nil
	case BackendMongoDB:
		if config.MongoURI == "" {
			return nil, fmt.Errorf("mongodb backend requires a uri")
		}
		logger.Info("Using MongoDB database")
		return mongodb.NewDatabase(mongodb.Config{
			URI:      config.MongoURI,
			Database: config.MongoDatabase,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

// NewInMemoryDatabase creates a new in-memory database instance
func NewInMemoryDatabase() interfaces.Relational {
	return memory.NewDatabase(nil)
}

// ConnectAndMigrate connects to the database and runs migrations
func ConnectAndMigrate(ctx context.Context, db interfaces.Database) error {
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if !db.IsHealthy(ctx) {
		return fmt.Errorf("database health check failed")
	}

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
