package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

func TestOrderClause(t *testing.T) {
	b := NewBuilder(entities.AuthorSchema)

	clause, err := b.OrderClause(nil)
	require.NoError(t, err)
	assert.Equal(t, "", clause)

	clause, err = b.OrderClause(interfaces.ByIDAsc().OrderBy)
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY id ASC", clause)

	clause, err = b.OrderClause([]interfaces.OrderBy{{Field: "last_name", Direction: "DESC"}, {Field: "id"}})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY last_name DESC, id ASC", clause)

	_, err = b.OrderClause([]interfaces.OrderBy{{Field: "password"}})
	assert.ErrorIs(t, err, interfaces.ErrInvalidQuery)

	_, err = b.OrderClause([]interfaces.OrderBy{{Field: "id", Direction: "sideways"}})
	assert.ErrorIs(t, err, interfaces.ErrInvalidQuery)
}

func TestApplySort(t *testing.T) {
	b := NewBuilder(entities.AuthorSchema)
	now := time.Now()
	records := []map[string]interface{}{
		{"id": entities.IntID(3), "last_name": "b", "created_at": now},
		{"id": entities.IntID(1), "last_name": "a", "created_at": now.Add(time.Minute)},
		{"id": entities.IntID(2), "last_name": "b", "created_at": now.Add(-time.Minute)},
	}

	sorted := b.ApplySort(records, interfaces.ByIDAsc().OrderBy)
	assert.Equal(t, entities.IntID(1), sorted[0]["id"])
	assert.Equal(t, entities.IntID(3), sorted[2]["id"])
	assert.Equal(t, entities.IntID(3), records[0]["id"], "input must not be reordered")

	sorted = b.ApplySort(records, []interfaces.OrderBy{{Field: "last_name", Direction: "desc"}, {Field: "id"}})
	assert.Equal(t, entities.IntID(2), sorted[0]["id"])
	assert.Equal(t, entities.IntID(3), sorted[1]["id"])
	assert.Equal(t, entities.IntID(1), sorted[2]["id"])

	sorted = b.ApplySort(records, []interfaces.OrderBy{{Field: "created_at"}})
	assert.Equal(t, entities.IntID(2), sorted[0]["id"])
}

func TestMatches(t *testing.T) {
	b := NewBuilder(entities.PostSchema)
	rec := map[string]interface{}{"author_id": entities.IntID(4), "title": "x"}

	assert.True(t, b.Matches(rec, "author_id", entities.IntID(4)))
	assert.False(t, b.Matches(rec, "author_id", entities.IntID(5)))
	assert.True(t, b.Matches(rec, "title", "x"))
	assert.True(t, b.Matches(map[string]interface{}{"author_id": nil}, "author_id", nil))
	assert.False(t, b.Matches(map[string]interface{}{"author_id": nil}, "author_id", entities.IntID(4)))
}

func TestValidateData(t *testing.T) {
	b := NewBuilder(entities.PostSchema)

	data := map[string]interface{}{"title": "hello"}
	b.ApplyDefaults(data)
	assert.Equal(t, "", data["content"])
	assert.NoError(t, b.ValidateData(data))

	err := b.ValidateData(map[string]interface{}{"content": "body"})
	assert.ErrorIs(t, err, interfaces.ErrNotNullConstraint)

	err = b.ValidateData(map[string]interface{}{"title": 12})
	assert.ErrorIs(t, err, interfaces.ErrInvalidQuery)
}
