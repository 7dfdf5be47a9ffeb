package mongodb_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobjs/blog-backend/internal/db"
	"github.com/noobjs/blog-backend/internal/db/backends/mongodb"
	"github.com/noobjs/blog-backend/internal/db/dbtest"
	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

func openMongo(t *testing.T) *mongodb.Database {
	t.Helper()
	uri := os.Getenv("BLOG_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("BLOG_TEST_MONGO_URI not set; skipping MongoDB contract tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d := mongodb.NewDatabase(mongodb.Config{URI: uri, Database: "blog_test"}, nil)
	require.NoError(t, db.ConnectAndMigrate(ctx, d))
	require.NoError(t, db.CleanDB(ctx, d))
	t.Cleanup(func() { _ = d.Disconnect(context.Background()) })
	return d
}

func TestContract_MongoDatabase(t *testing.T) {
	dbtest.RunDocumentTests(t, func(t *testing.T) interfaces.Database {
		return openMongo(t)
	})
}

func TestMongoIsNotRelational(t *testing.T) {
	d := mongodb.NewDatabase(mongodb.Config{}, nil)
	_, ok := interfaces.AsRelational(d)
	assert.False(t, ok)
}

func TestMongoAuthorRoundTrip(t *testing.T) {
	d := openMongo(t)
	ctx := context.Background()

	author := entities.Author{FirstName: "Seb", LastName: "Ceb"}
	require.NoError(t, d.Authors().Create(ctx, &author))
	assert.Len(t, author.ID.String(), 24)

	stored, err := d.Documents().Get(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Seb", stored.FirstName)
	assert.Equal(t, author.CreatedAt, stored.CreatedAt)

	n, err := d.Documents().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = d.Documents().Get(ctx, entities.StringID("not-hex"))
	assert.ErrorIs(t, err, interfaces.ErrInvalidID)
}
