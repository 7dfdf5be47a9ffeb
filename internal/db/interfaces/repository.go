package interfaces

import (
	"context"

	"github.com/noobjs/blog-backend/internal/db/entities"
)

// AuthorStore persists new authors
type AuthorStore interface {
	// Create inserts a new author and fills in its generated ID and timestamps.
	// Every call creates a new record; identical inputs are not deduplicated.
	Create(ctx context.Context, author *entities.Author) error
}

// AuthorCatalog adds read and administrative operations to AuthorStore
type AuthorCatalog interface {
	AuthorStore

	// Get retrieves a single author by its ID
	Get(ctx context.Context, id ID) (*entities.Author, error)

	// List returns all authors, ordered as requested by q
	List(ctx context.Context, q *Query) ([]entities.Author, error)

	// Delete removes an author; posts referencing it keep existing with a null AuthorID
	Delete(ctx context.Context, id ID) error
}

// PostStore provides operations on posts
type PostStore interface {
	// Create inserts a new post. A non-nil AuthorID must reference an existing
	// author, otherwise ErrForeignKeyConstraint is returned.
	Create(ctx context.Context, post *entities.Post) error

	// Get retrieves a single post by its ID
	Get(ctx context.Context, id ID) (*entities.Post, error)

	// ListByAuthor returns the posts referencing authorID, ordered by ID
	ListByAuthor(ctx context.Context, authorID ID) ([]entities.Post, error)
}
