package db

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

// Fixtures builds sequence-numbered authors and posts for tests and seeding.
// Each call to a builder advances its own sequence.
type Fixtures struct {
	authorSeq atomic.Int64
	postSeq   atomic.Int64
}

// NewFixtures returns fixtures whose sequences start at 1
func NewFixtures() *Fixtures {
	return &Fixtures{}
}

// Author returns an unsaved author named firstName<n> lastName<n>
func (f *Fixtures) Author() entities.Author {
	n := f.authorSeq.Add(1)
	return entities.Author{
		FirstName: fmt.Sprintf("firstName%d", n),
		LastName:  fmt.Sprintf("lastName%d", n),
	}
}

// Post returns an unsaved post titled title<n> with content<n>
func (f *Fixtures) Post(authorID interfaces.ID) entities.Post {
	n := f.postSeq.Add(1)
	return entities.Post{
		Title:    fmt.Sprintf("title%d", n),
		Content:  fmt.Sprintf("content%d", n),
		AuthorID: authorID,
	}
}

// CreateAuthor persists the next fixture author
func (f *Fixtures) CreateAuthor(ctx context.Context, store interfaces.AuthorStore) (*entities.Author, error) {
	author := f.Author()
	if err := store.Create(ctx, &author); err != nil {
		return nil, err
	}
	return &author, nil
}

// CreatePost persists the next fixture post for authorID
func (f *Fixtures) CreatePost(ctx context.Context, store interfaces.PostStore, authorID interfaces.ID) (*entities.Post, error) {
	post := f.Post(authorID)
	if err := store.Create(ctx, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreateAuthorWithPosts persists one author and n posts referencing it
func (f *Fixtures) CreateAuthorWithPosts(ctx context.Context, db interfaces.Relational, n int) (*entities.Author, []entities.Post, error) {
	author, err := f.CreateAuthor(ctx, db.Catalog())
	if err != nil {
		return nil, nil, err
	}
	posts := make([]entities.Post, 0, n)
	for i := 0; i < n; i++ {
		post, err := f.CreatePost(ctx, db.Posts(), author.ID)
		if err != nil {
			return nil, nil, err
		}
		posts = append(posts, *post)
	}
	return author, posts, nil
}

// CleanDB removes every author and post
func CleanDB(ctx context.Context, db interfaces.Database) error {
	if err := db.Truncate(ctx); err != nil {
		return fmt.Errorf("clean %s database: %w", db.Name(), err)
	}
	return nil
}
