package entities

import (
	"time"
)

// Author represents an author entity
type Author struct {
	ID        ID        `json:"id" db:"id"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// AuthorSchema defines the database schema for authors
var AuthorSchema = &Schema{
	TableName: "authors",
	Fields: map[string]FieldSchema{
		"id": {
			Type:       "int64",
			PrimaryKey: true,
		},
		"first_name": {
			Type:         "string",
			DefaultValue: "",
		},
		"last_name": {
			Type:         "string",
			DefaultValue: "",
		},
		"created_at": {
			Type: "time",
		},
		"updated_at": {
			Type: "time",
		},
	},
}

// Record flattens the author into column/value pairs
func (a Author) Record() map[string]interface{} {
	return map[string]interface{}{
		"id":         a.ID,
		"first_name": a.FirstName,
		"last_name":  a.LastName,
		"created_at": a.CreatedAt,
		"updated_at": a.UpdatedAt,
	}
}

// AuthorFromRecord is the inverse of Author.Record
func AuthorFromRecord(r map[string]interface{}) Author {
	a := Author{}
	a.ID, _ = r["id"].(ID)
	a.FirstName, _ = r["first_name"].(string)
	a.LastName, _ = r["last_name"].(string)
	a.CreatedAt, _ = r["created_at"].(time.Time)
	a.UpdatedAt, _ = r["updated_at"].(time.Time)
	return a
}
