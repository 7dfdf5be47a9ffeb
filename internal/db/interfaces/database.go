package interfaces

import "context"

// Database represents the main database interface
type Database interface {
	// Name identifies the backend ("memory", "postgres", "mongodb")
	Name() string

	// Connect establishes a connection to the database
	Connect(ctx context.Context) error

	// Disconnect closes the database connection
	Disconnect(ctx context.Context) error

	// IsHealthy checks if the database connection is healthy
	IsHealthy(ctx context.Context) bool

	// Migrate creates tables/collections and applies schema changes
	Migrate(ctx context.Context) error

	// Truncate removes every author and post. Administrative use only.
	Truncate(ctx context.Context) error

	// Authors returns the author store available on every backend
	Authors() AuthorStore
}

// Relational is implemented by backends that model the full Author 1-* Post
// association with referential integrity.
type Relational interface {
	Database

	// Catalog returns the author store with read and administrative operations
	Catalog() AuthorCatalog

	// Posts returns the post store
	Posts() PostStore
}

// AsRelational reports whether db supports the relational operations.
func AsRelational(db Database) (Relational, bool) {
	r, ok := db.(Relational)
	return r, ok
}
