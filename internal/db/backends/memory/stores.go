package memory

import (
	"context"

	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

// AuthorRepository stores authors in the "authors" table
type AuthorRepository struct {
	repo *Repository
}

var _ interfaces.AuthorCatalog = (*AuthorRepository)(nil)

// Create inserts a new author
func (a *AuthorRepository) Create(ctx context.Context, author *entities.Author) error {
	rec, err := a.repo.Create(ctx, map[string]interface{}{
		"first_name": author.FirstName,
		"last_name":  author.LastName,
	})
	if err != nil {
		return interfaces.Wrap("create author", err)
	}
	*author = entities.AuthorFromRecord(rec)
	return nil
}

// Get retrieves an author by ID
func (a *AuthorRepository) Get(ctx context.Context, id interfaces.ID) (*entities.Author, error) {
	rec, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, interfaces.Wrap("get author", err)
	}
	author := entities.AuthorFromRecord(rec)
	return &author, nil
}

// List returns all authors
func (a *AuthorRepository) List(ctx context.Context, q *interfaces.Query) ([]entities.Author, error) {
	var orderBy []interfaces.OrderBy
	if q != nil {
		orderBy = q.OrderBy
	}
	recs, err := a.repo.FindMany(ctx, nil, orderBy)
	if err != nil {
		return nil, interfaces.Wrap("list authors", err)
	}
	authors := make([]entities.Author, 0, len(recs))
	for _, rec := range recs {
		authors = append(authors, entities.AuthorFromRecord(rec))
	}
	return authors, nil
}

// Delete removes an author, clearing the author of its posts
func (a *AuthorRepository) Delete(ctx context.Context, id interfaces.ID) error {
	return interfaces.Wrap("delete author", a.repo.Delete(ctx, id))
}

// PostRepository stores posts in the "posts" table
type PostRepository struct {
	repo *Repository
}

var _ interfaces.PostStore = (*PostRepository)(nil)

// Create inserts a new post
func (p *PostRepository) Create(ctx context.Context, post *entities.Post) error {
	data := map[string]interface{}{
		"title":   post.Title,
		"content": post.Content,
	}
	if post.AuthorID != nil {
		authorID, ok := entities.Int64(post.AuthorID)
		if !ok {
			return interfaces.Wrap("create post", interfaces.ErrInvalidID)
		}
		data["author_id"] = entities.IntID(authorID)
	}
	rec, err := p.repo.Create(ctx, data)
	if err != nil {
		return interfaces.Wrap("create post", err)
	}
	*post = entities.PostFromRecord(rec)
	return nil
}

// Get retrieves a post by ID
func (p *PostRepository) Get(ctx context.Context, id interfaces.ID) (*entities.Post, error) {
	rec, err := p.repo.GetByID(ctx, id)
	if err != nil {
		return nil, interfaces.Wrap("get post", err)
	}
	post := entities.PostFromRecord(rec)
	return &post, nil
}

// ListByAuthor returns the posts of an author ordered by ID
func (p *PostRepository) ListByAuthor(ctx context.Context, authorID interfaces.ID) ([]entities.Post, error) {
	recs, err := p.repo.FindMany(ctx, map[string]interface{}{"author_id": authorID}, interfaces.ByIDAsc().OrderBy)
	if err != nil {
		return nil, interfaces.Wrap("list posts by author", err)
	}
	posts := make([]entities.Post, 0, len(recs))
	for _, rec := range recs {
		posts = append(posts, entities.PostFromRecord(rec))
	}
	return posts, nil
}
