package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

const authorsCollection = "authors"

// Config holds the connection settings
type Config struct {
	URI      string
	Database string
}

// Database implements the document-store Database interface on MongoDB.
// It stores authors only and enforces no references between documents.
type Database struct {
	cfg    Config
	client *mongo.Client
	db     *mongo.Database
	logger *zap.SugaredLogger

	authors *AuthorRepository
}

var _ interfaces.Database = (*Database)(nil)

// NewDatabase creates an unconnected MongoDB database
func NewDatabase(cfg Config, logger *zap.SugaredLogger) *Database {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	db := &Database{cfg: cfg, logger: logger}
	db.authors = &AuthorRepository{db: db}
	return db
}

// Name identifies the backend
func (d *Database) Name() string {
	return "mongodb"
}

// Connect dials the server and verifies it with a ping
func (d *Database) Connect(ctx context.Context) error {
	if d.client != nil {
		return nil
	}
	if d.cfg.URI == "" {
		return fmt.Errorf("mongodb uri is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(d.cfg.URI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	d.client = client
	d.db = client.Database(d.cfg.Database)
	d.logger.Infow("Connected to MongoDB", "database", d.cfg.Database)
	return nil
}

// Disconnect closes the client
func (d *Database) Disconnect(ctx context.Context) error {
	if d.client == nil {
		return nil
	}
	err := d.client.Disconnect(ctx)
	d.client = nil
	d.db = nil
	d.logger.Info("Disconnected from MongoDB")
	return err
}

// IsHealthy pings the primary
func (d *Database) IsHealthy(ctx context.Context) bool {
	if d.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.client.Ping(ctx, nil) == nil
}

// Migrate creates the authors collection when it does not exist yet
func (d *Database) Migrate(ctx context.Context) error {
	db, err := d.database()
	if err != nil {
		return err
	}
	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: authorsCollection}})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	if len(names) > 0 {
		return nil
	}
	if err := db.CreateCollection(ctx, authorsCollection); err != nil {
		return fmt.Errorf("create collection %s: %w", authorsCollection, err)
	}
	d.logger.Infow("Created MongoDB collection", "collection", authorsCollection)
	return nil
}

// Truncate removes every author document
func (d *Database) Truncate(ctx context.Context) error {
	coll, err := d.collection()
	if err != nil {
		return err
	}
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		return interfaces.Wrap("truncate", err)
	}
	return nil
}

// Authors returns the author store
func (d *Database) Authors() interfaces.AuthorStore {
	return d.authors
}

// Documents exposes the author repository with its lookup helpers
func (d *Database) Documents() *AuthorRepository {
	return d.authors
}

func (d *Database) database() (*mongo.Database, error) {
	if d.db == nil {
		return nil, interfaces.ErrDatabaseNotConnected
	}
	return d.db, nil
}

func (d *Database) collection() (*mongo.Collection, error) {
	db, err := d.database()
	if err != nil {
		return nil, err
	}
	return db.Collection(authorsCollection), nil
}
