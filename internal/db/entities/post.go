package entities

import (
	"time"
)

// Post represents a post entity. AuthorID is nil for posts without an
// author, including posts whose author was deleted.
type Post struct {
	ID        ID        `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	AuthorID  ID        `json:"AuthorId" db:"author_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PostSchema defines the database schema for posts
var PostSchema = &Schema{
	TableName: "posts",
	Fields: map[string]FieldSchema{
		"id": {
			Type:       "int64",
			PrimaryKey: true,
		},
		"title": {
			Type: "string",
		},
		"content": {
			Type:         "text",
			DefaultValue: "",
		},
		"author_id": {
			Type:     "int64",
			Nullable: true,
			ForeignKey: &ForeignKey{
				Table:    "authors",
				Column:   "id",
				OnDelete: OnDeleteSetNull,
			},
		},
		"created_at": {
			Type: "time",
		},
		"updated_at": {
			Type: "time",
		},
	},
	Indexes: []Index{
		{
			Name:    "idx_posts_author",
			Columns: []string{"author_id"},
		},
	},
}

// Record flattens the post into column/value pairs. A missing author is
// stored as nil.
func (p Post) Record() map[string]interface{} {
	var author interface{}
	if p.AuthorID != nil {
		author = p.AuthorID
	}
	return map[string]interface{}{
		"id":         p.ID,
		"title":      p.Title,
		"content":    p.Content,
		"author_id":  author,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
}

// PostFromRecord is the inverse of Post.Record
func PostFromRecord(r map[string]interface{}) Post {
	p := Post{}
	p.ID, _ = r["id"].(ID)
	p.Title, _ = r["title"].(string)
	p.Content, _ = r["content"].(string)
	p.AuthorID, _ = r["author_id"].(ID)
	p.CreatedAt, _ = r["created_at"].(time.Time)
	p.UpdatedAt, _ = r["updated_at"].(time.Time)
	return p
}
