package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
	"github.com/noobjs/blog-backend/internal/db/query"
)

const (
	authorColumns = `id, first_name, last_name, created_at, updated_at`
	postColumns   = `id, title, content, author_id, created_at, updated_at`
)

var authorQueries = query.NewBuilder(entities.AuthorSchema)

// AuthorRepository stores authors in the authors table
type AuthorRepository struct {
	db *Database
}

var _ interfaces.AuthorCatalog = (*AuthorRepository)(nil)

// Create inserts a new author
func (r *AuthorRepository) Create(ctx context.Context, author *entities.Author) error {
	pool, err := r.db.conn()
	if err != nil {
		return interfaces.Wrap("create author", err)
	}
	row := pool.QueryRow(ctx,
		`INSERT INTO authors (first_name, last_name) VALUES ($1, $2) RETURNING `+authorColumns,
		author.FirstName, author.LastName)
	created, err := scanAuthor(row)
	if err != nil {
		return interfaces.Wrap("create author", translate(err))
	}
	*author = *created
	return nil
}

// Get retrieves an author by ID
func (r *AuthorRepository) Get(ctx context.Context, id interfaces.ID) (*entities.Author, error) {
	key, err := intKey(id)
	if err != nil {
		return nil, interfaces.Wrap("get author", err)
	}
	pool, err := r.db.conn()
	if err != nil {
		return nil, interfaces.Wrap("get author", err)
	}
	author, err := scanAuthor(pool.QueryRow(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = $1`, key))
	if err != nil {
		return nil, interfaces.Wrap("get author", translate(err))
	}
	return author, nil
}

// List returns all authors
func (r *AuthorRepository) List(ctx context.Context, q *interfaces.Query) ([]entities.Author, error) {
	var orderBy []interfaces.OrderBy
	if q != nil {
		orderBy = q.OrderBy
	}
	order, err := authorQueries.OrderClause(orderBy)
	if err != nil {
		return nil, interfaces.Wrap("list authors", err)
	}
	pool, err := r.db.conn()
	if err != nil {
		return nil, interfaces.Wrap("list authors", err)
	}

	rows, err := pool.Query(ctx, `SELECT `+authorColumns+` FROM authors`+order)
	if err != nil {
		return nil, interfaces.Wrap("list authors", translate(err))
	}
	defer rows.Close()

	authors := []entities.Author{}
	for rows.Next() {
		author, err := scanAuthor(rows)
		if err != nil {
			return nil, interfaces.Wrap("list authors", err)
		}
		authors = append(authors, *author)
	}
	if err := rows.Err(); err != nil {
		return nil, interfaces.Wrap("list authors", translate(err))
	}
	return authors, nil
}

// Delete removes an author. The foreign key clears author_id on its posts.
func (r *AuthorRepository) Delete(ctx context.Context, id interfaces.ID) error {
	key, err := intKey(id)
	if err != nil {
		return interfaces.Wrap("delete author", err)
	}
	pool, err := r.db.conn()
	if err != nil {
		return interfaces.Wrap("delete author", err)
	}
	tag, err := pool.Exec(ctx, `DELETE FROM authors WHERE id = $1`, key)
	if err != nil {
		return interfaces.Wrap("delete author", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return interfaces.Wrap("delete author", interfaces.ErrNotFound)
	}
	return nil
}

// PostRepository stores posts in the posts table
type PostRepository struct {
	db *Database
}

var _ interfaces.PostStore = (*PostRepository)(nil)

// Create inserts a new post. A missing author surfaces as a foreign key violation.
func (r *PostRepository) Create(ctx context.Context, post *entities.Post) error {
	var authorID *int64
	if post.AuthorID != nil {
		key, err := intKey(post.AuthorID)
		if err != nil {
			return interfaces.Wrap("create post", err)
		}
		authorID = &key
	}
	pool, err := r.db.conn()
	if err != nil {
		return interfaces.Wrap("create post", err)
	}
	row := pool.QueryRow(ctx,
		`INSERT INTO posts (title, content, author_id) VALUES ($1, $2, $3) RETURNING `+postColumns,
		post.Title, post.Content, authorID)
	created, err := scanPost(row)
	if err != nil {
		return interfaces.Wrap("create post", translate(err))
	}
	*post = *created
	return nil
}

// Get retrieves a post by ID
func (r *PostRepository) Get(ctx context.Context, id interfaces.ID) (*entities.Post, error) {
	key, err := intKey(id)
	if err != nil {
		return nil, interfaces.Wrap("get post", err)
	}
	pool, err := r.db.conn()
	if err != nil {
		return nil, interfaces.Wrap("get post", err)
	}
	post, err := scanPost(pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, key))
	if err != nil {
		return nil, interfaces.Wrap("get post", translate(err))
	}
	return post, nil
}

// ListByAuthor returns the posts of an author ordered by ID
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID interfaces.ID) ([]entities.Post, error) {
	key, err := intKey(authorID)
	if err != nil {
		return nil, interfaces.Wrap("list posts by author", err)
	}
	pool, err := r.db.conn()
	if err != nil {
		return nil, interfaces.Wrap("list posts by author", err)
	}

	rows, err := pool.Query(ctx, `SELECT `+postColumns+` FROM posts WHERE author_id = $1 ORDER BY id ASC`, key)
	if err != nil {
		return nil, interfaces.Wrap("list posts by author", translate(err))
	}
	defer rows.Close()

	posts := []entities.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, interfaces.Wrap("list posts by author", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, interfaces.Wrap("list posts by author", translate(err))
	}
	return posts, nil
}

func intKey(id interfaces.ID) (int64, error) {
	if id == nil {
		return 0, interfaces.ErrInvalidID
	}
	if key, ok := entities.Int64(id); ok {
		return key, nil
	}
	parsed, err := entities.ParseIntID(id.String())
	if err != nil {
		return 0, err
	}
	return int64(parsed), nil
}

func scanAuthor(row pgx.Row) (*entities.Author, error) {
	var (
		a  entities.Author
		id int64
	)
	if err := row.Scan(&id, &a.FirstName, &a.LastName, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ID = entities.IntID(id)
	return &a, nil
}

func scanPost(row pgx.Row) (*entities.Post, error) {
	var (
		p        entities.Post
		id       int64
		authorID *int64
	)
	if err := row.Scan(&id, &p.Title, &p.Content, &authorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = entities.IntID(id)
	if authorID != nil {
		p.AuthorID = entities.IntID(*authorID)
	}
	return &p, nil
}
