package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

// Database implements the relational Database interface for in-memory storage
type Database struct {
	mu        sync.RWMutex
	tables    map[string]map[string]map[string]interface{} // tableName -> recordID -> record
	schemas   map[string]*interfaces.Schema                 // tableName -> schema
	sequences map[string]int64                              // tableName -> last issued id
	connected bool
	logger    *zap.SugaredLogger

	authors *AuthorRepository
	posts   *PostRepository
}

var _ interfaces.Relational = (*Database)(nil)

// NewDatabase creates a new in-memory database
func NewDatabase(logger *zap.SugaredLogger) *Database {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	db := &Database{
		tables:    make(map[string]map[string]map[string]interface{}),
		schemas:   make(map[string]*interfaces.Schema),
		sequences: make(map[string]int64),
		logger:    logger,
	}
	db.authors = &AuthorRepository{repo: NewRepository(db, entities.AuthorSchema)}
	db.posts = &PostRepository{repo: NewRepository(db, entities.PostSchema)}
	return db
}

// Name identifies the backend
func (db *Database) Name() string {
	return "memory"
}

// Connect establishes a connection to the database
func (db *Database) Connect(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.connected = true
	db.logger.Info("Connected to in-memory database")
	return nil
}

// Disconnect closes the database connection. All data is dropped.
func (db *Database) Disconnect(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.connected = false
	db.tables = make(map[string]map[string]map[string]interface{})
	db.schemas = make(map[string]*interfaces.Schema)
	db.sequences = make(map[string]int64)
	db.logger.Info("Disconnected from in-memory database")
	return nil
}

// IsHealthy checks if the database connection is healthy
func (db *Database) IsHealthy(ctx context.Context) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.connected
}

// Migrate registers the entity schemas and creates their tables
func (db *Database) Migrate(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.connected {
		return interfaces.ErrDatabaseNotConnected
	}

	schemas := entities.AllSchemas()
	for _, schema := range schemas {
		db.schemas[schema.TableName] = schema

		if _, exists := db.tables[schema.TableName]; !exists {
			db.tables[schema.TableName] = make(map[string]map[string]interface{})
			db.logger.Debugw("Created in-memory table", "table", schema.TableName)
		}
	}

	db.logger.Infow("Migration completed", "schemas", len(schemas))
	return nil
}

// Truncate removes all rows and restarts the id sequences
func (db *Database) Truncate(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.connected {
		return interfaces.ErrDatabaseNotConnected
	}

	for tableName := range db.tables {
		db.tables[tableName] = make(map[string]map[string]interface{})
	}
	db.sequences = make(map[string]int64)
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

// GetTables returns all table names (for debugging/testing)
func (db *Database) GetTables() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	tables := make([]string, 0, len(db.tables))
	for name := range db.tables {
		tables = append(tables, name)
	}
	return tables
}

// GetTableData returns all data for a specific table (for debugging/testing)
func (db *Database) GetTableData(tableName string) map[string]map[string]interface{} {
	db.mu.RLock()
	defer db.mu.RUnlock()

	table, exists := db.tables[tableName]
	if !exists {
		return nil
	}

	// Return a deep copy to prevent external modifications
	result := make(map[string]map[string]interface{})
	for id, record := range table {
		result[id] = copyRecord(record)
	}

	return result
}

func (db *Database) nextID(tableName string) entities.IntID {
	db.sequences[tableName]++
	return entities.IntID(db.sequences[tableName])
}

func copyRecord(record map[string]interface{}) map[string]interface{} {
	c := make(map[string]interface{}, len(record))
	for k, v := range record {
		c[k] = v
	}
	return c
}
