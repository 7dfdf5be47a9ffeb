package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db := NewDatabase(nil)
	ctx := context.Background()
	require.NoError(t, db.Connect(ctx))
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestNotConnected(t *testing.T) {
	db := NewDatabase(nil)
	ctx := context.Background()

	assert.False(t, db.IsHealthy(ctx))
	assert.ErrorIs(t, db.Migrate(ctx), interfaces.ErrDatabaseNotConnected)
	assert.ErrorIs(t, db.Authors().Create(ctx, &entities.Author{}), interfaces.ErrDatabaseNotConnected)

	_, err := db.Catalog().List(ctx, nil)
	assert.ErrorIs(t, err, interfaces.ErrDatabaseNotConnected)
}

func TestMigrateCreatesTables(t *testing.T) {
	db := newTestDatabase(t)
	assert.ElementsMatch(t, []string{"authors", "posts"}, db.GetTables())
}

func TestCreateStoresSnakeCaseRecord(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	author := entities.Author{FirstName: "Seb"}
	require.NoError(t, db.Authors().Create(ctx, &author))

	data := db.GetTableData("authors")
	require.Len(t, data, 1)
	rec := data[author.ID.String()]
	assert.Equal(t, "Seb", rec["first_name"])
	assert.Equal(t, "", rec["last_name"])
	assert.Equal(t, entities.IntID(1), rec["id"])
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := entities.Author{FirstName: "same", LastName: "same"}
			if assert.NoError(t, db.Authors().Create(ctx, &a)) {
				ids <- a.ID.String()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestCanceledContext(t *testing.T) {
	db := newTestDatabase(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.Authors().Create(ctx, &entities.Author{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeleteRestrictBlocks(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	// register a schema whose foreign key forbids deleting its parent
	db.mu.Lock()
	db.schemas["reviews"] = &interfaces.Schema{
		TableName: "reviews",
		Fields: map[string]entities.FieldSchema{
			"author_id": {Type: "int64", ForeignKey: &entities.ForeignKey{
				Table: "authors", Column: "id", OnDelete: entities.OnDeleteRestrict,
			}},
		},
	}
	db.mu.Unlock()

	author := entities.Author{}
	require.NoError(t, db.Authors().Create(ctx, &author))

	reviews := NewRepository(db, db.schemas["reviews"])
	_, err := reviews.Create(ctx, map[string]interface{}{"author_id": author.ID})
	require.NoError(t, err)

	err = db.Catalog().Delete(ctx, author.ID)
	assert.ErrorIs(t, err, interfaces.ErrForeignKeyConstraint)

	_, err = db.Catalog().Get(ctx, author.ID)
	assert.NoError(t, err)
}
