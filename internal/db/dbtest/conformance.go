// Package dbtest provides conformance tests for interfaces.Database implementations
package dbtest

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobjs/blog-backend/internal/db"
	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

// Factory returns a connected, migrated and empty database
type Factory func(t *testing.T) interfaces.Database

// RelationalFactory returns a connected, migrated and empty relational database
type RelationalFactory func(t *testing.T) interfaces.Relational

// RunDocumentTests runs the operations every backend supports
func RunDocumentTests(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		test func(t *testing.T, d interfaces.Database)
	}{
		{"CreateAuthorEchoesFields", testCreateAuthorEchoesFields},
		{"CreateAuthorDefaultsNames", testCreateAuthorDefaultsNames},
		{"CreateAuthorIsNotIdempotent", testCreateAuthorIsNotIdempotent},
		{"Truncate", testTruncate},
		{"HealthCheck", testHealthCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.test(t, factory(t))
		})
	}
}

// RunRelationalTests runs the document tests plus list, post and
// association tests.
func RunRelationalTests(t *testing.T, factory RelationalFactory) {
	RunDocumentTests(t, func(t *testing.T) interfaces.Database {
		return factory(t)
	})

	tests := []struct {
		name string
		test func(t *testing.T, d interfaces.Relational)
	}{
		{"ListAuthorsEmpty", testListAuthorsEmpty},
		{"ListAuthorsOrderedByID", testListAuthorsOrderedByID},
		{"ListAuthorsRejectsUnknownField", testListAuthorsRejectsUnknownField},
		{"GetAuthorNotFound", testGetAuthorNotFound},
		{"CreatePostWithAuthor", testCreatePostWithAuthor},
		{"CreatePostWithoutAuthor", testCreatePostWithoutAuthor},
		{"CreatePostMissingAuthor", testCreatePostMissingAuthor},
		{"LargeIDsAreMissing", testLargeIDsAreMissing},
		{"PostsByAuthor", testPostsByAuthor},
		{"DeleteAuthorClearsPosts", testDeleteAuthorClearsPosts},
		{"DeleteAuthorNotFound", testDeleteAuthorNotFound},
		{"TruncateRestartsIdentity", testTruncateRestartsIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.test(t, factory(t))
		})
	}
}

func testCreateAuthorEchoesFields(t *testing.T, d interfaces.Database) {
	ctx := context.Background()

	author := entities.Author{FirstName: "Seb", LastName: "Ceb"}
	require.NoError(t, d.Authors().Create(ctx, &author))

	assert.NotNil(t, author.ID)
	assert.NotEmpty(t, author.ID.String())
	assert.Equal(t, "Seb", author.FirstName)
	assert.Equal(t, "Ceb", author.LastName)
	assert.False(t, author.CreatedAt.IsZero())
	assert.Equal(t, author.CreatedAt, author.UpdatedAt)
}

func testCreateAuthorDefaultsNames(t *testing.T, d interfaces.Database) {
	ctx := context.Background()

	author := entities.Author{}
	require.NoError(t, d.Authors().Create(ctx, &author))

	assert.NotNil(t, author.ID)
	assert.Equal(t, "", author.FirstName)
	assert.Equal(t, "", author.LastName)
}

func testCreateAuthorIsNotIdempotent(t *testing.T, d interfaces.Database) {
	ctx := context.Background()

	first := entities.Author{FirstName: "Seb", LastName: "Ceb"}
	second := first
	require.NoError(t, d.Authors().Create(ctx, &first))
	require.NoError(t, d.Authors().Create(ctx, &second))

	assert.NotEqual(t, first.ID.String(), second.ID.String())
}

func testTruncate(t *testing.T, d interfaces.Database) {
	ctx := context.Background()
	fixtures := db.NewFixtures()

	_, err := fixtures.CreateAuthor(ctx, d.Authors())
	require.NoError(t, err)
	require.NoError(t, db.CleanDB(ctx, d))

	if r, ok := interfaces.AsRelational(d); ok {
		authors, err := r.Catalog().List(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, authors)
	}
}

func testHealthCheck(t *testing.T, d interfaces.Database) {
	assert.True(t, d.IsHealthy(context.Background()))
}

func testListAuthorsEmpty(t *testing.T, d interfaces.Relational) {
	authors, err := d.Catalog().List(context.Background(), interfaces.ByIDAsc())
	require.NoError(t, err)
	assert.NotNil(t, authors)
	assert.Empty(t, authors)
}

func testListAuthorsOrderedByID(t *testing.T, d interfaces.Relational) {
	ctx := context.Background()
	fixtures := db.NewFixtures()

	for i := 0; i < 5; i++ {
		_, err := fixtures.CreateAuthor(ctx, d.Catalog())
		require.NoError(t, err)
	}

	authors, err := d.Catalog().List(ctx, interfaces.ByIDAsc())
	require.NoError(t, err)
	require.Len(t, authors, 5)

	for i := 1; i < len(authors); i++ {
		prev, _ := entities.Int64(authors[i-1].ID)
		cur, _ := entities.Int64(authors[i].ID)
		assert.Less(t, prev, cur)
	}
	assert.Equal(t, "firstName1", authors[0].FirstName)
	assert.Equal(t, "lastName5", authors[4].LastName)

	desc, err := d.Catalog().List(ctx, &interfaces.Query{
		OrderBy: []interfaces.OrderBy{{Field: "id", Direction: "desc"}},
	})
	require.NoError(t, err)
	require.Len(t, desc, 5)
	assert.Equal(t, authors[4].ID.String(), desc[0].ID.String())
}

func testListAuthorsRejectsUnknownField(t *testing.T, d interfaces.Relational) {
	_, err := d.Catalog().List(context.Background(), &interfaces.Query{
		OrderBy: []interfaces.OrderBy{{Field: "id; DROP TABLE authors", Direction: "asc"}},
	})
	assert.ErrorIs(t, err, interfaces.ErrInvalidQuery)
}

func testGetAuthorNotFound(t *testing.T, d interfaces.Relational) {
	_, err := d.Catalog().Get(context.Background(), entities.IntID(999999))
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func testCreatePostWithAuthor(t *testing.T, d interfaces.Relational) {
	ctx := context.Background()
	fixtures := db.NewFixtures()

	author, err := fixtures.CreateAuthor(ctx, d.Catalog())
	require.NoError(t, err)

	post := entities.Post{Title: "Hello", Content: "World", AuthorID: author.ID}
	require.NoError(t, d.Posts().Create(ctx, &post))

	assert.NotNil(t, post.ID)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "World", post.Content)
	require.NotNil(t, post.AuthorID)
	assert.Equal(t, author.ID.String(), post.AuthorID.String())

	stored, err := d.Posts().Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, stored.Title)

	owner, err := d.Catalog().Get(ctx, stored.AuthorID)
	require.NoError(t, err)
	assert.Equal(t, author.FirstName, owner.FirstName)
}

func testCreatePostWithoutAuthor(t *testing.T, d interfaces.Relational) {
	ctx := context.Background()

	post := entities.Post{Title: "Orphan"}
	require.NoError(t, d.Posts().Create(ctx, &post))

	assert.Nil(t, post.AuthorID)
	assert.Equal(t, "", post.Content)
}

func testCreatePostMissingAuthor(t *testing.T, d interfaces.Relational) {
	ctx := context.Background()

	post := entities.Post{Title: "Dangling", AuthorID: entities.IntID(424242)}
	err := d.Posts().Create(ctx, &post)
	assert.ErrorIs(t, err, interfaces.ErrForeignKeyConstraint)

	var dbErr *interfaces.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "create post", dbErr.Op)
}

// Ids beyond the 32-bit range are ordinary missing rows, never storage errors
func testLargeIDsAreMissing(t *testing.T, d interfaces.Relational) {
	ctx := context.Background()

	for _, id := range []entities.IntID{3000000000, math.MaxInt64} {
		post := entities.Post{Title: "Far away", AuthorID: id}
		assert.ErrorIs(t, d.Posts().Create(ctx, &post), interfaces.ErrForeignKeyConstraint, id.String())

		_, err := d.Catalog().Get(ctx, id)
		assert.ErrorIs(t, err, interfaces.ErrNotFound, id.String())

		_, err = d.Posts().Get(ctx, id)
		assert.ErrorIs(t, err, interfaces.ErrNotFound, id.String())

		posts, err := d.Posts().ListByAuthor(ctx, id)
		require.NoError(t, err, id.String())
		assert.Empty(t, posts)

		assert.ErrorIs(t, d.Catalog().Delete(ctx, id), interfaces.ErrNotFound, id.String())
	}
}

func testPostsByAuthor(t *testing.T, d interfaces.Relational) {
	ctx := context.Background()
	fixtures := db.NewFixtures()

	author, posts, err := fixtures.CreateAuthorWithPosts(ctx, d, 3)
	require.NoError(t, err)
	_, _, err = fixtures.CreateAuthorWithPosts(ctx, d, 2)
	require.NoError(t, err)

	got, err := d.Posts().ListByAuthor(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range posts {
		assert.Equal(t, posts[i].ID.String(), got[i].ID.String())
		assert.Equal(t, posts[i].Title, got[i].Title)
	}

	lonely, err := fixtures.CreateAuthor(ctx, d.Catalog())
	require.NoError(t, err)
	none, err := d.Posts().ListByAuthor(ctx, lonely.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testDeleteAuthorClearsPosts(t *testing.T, d interfaces.Relational) {
	ctx := context.Background()
	fixtures := db.NewFixtures()

	author, posts, err := fixtures.CreateAuthorWithPosts(ctx, d, 2)
	require.NoError(t, err)

	require.NoError(t, d.Catalog().Delete(ctx, author.ID))

	_, err = d.Catalog().Get(ctx, author.ID)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	for _, p := range posts {
		survivor, err := d.Posts().Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, survivor.AuthorID)
	}
}

func testDeleteAuthorNotFound(t *testing.T, d interfaces.Relational) {
	err := d.Catalog().Delete(context.Background(), entities.IntID(999999))
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func testTruncateRestartsIdentity(t *testing.T, d interfaces.Relational) {
	ctx := context.Background()
	fixtures := db.NewFixtures()

	_, _, err := fixtures.CreateAuthorWithPosts(ctx, d, 1)
	require.NoError(t, err)
	require.NoError(t, db.CleanDB(ctx, d))

	author, err := fixtures.CreateAuthor(ctx, d.Catalog())
	require.NoError(t, err)
	assert.Equal(t, entities.IntID(1), author.ID)
}
