package entities

// Schema represents entity schema definition
type Schema struct {
	TableName string                 `json:"table_name"`
	Fields    map[string]FieldSchema `json:"fields"`
	Indexes   []Index                `json:"indexes,omitempty"`
}

// FieldSchema represents a field definition
type FieldSchema struct {
	Type         string      `json:"type"` // "string", "text", "int64", "time"
	Nullable     bool        `json:"nullable"`
	DefaultValue interface{} `json:"default_value,omitempty"`
	Unique       bool        `json:"unique"`
	PrimaryKey   bool        `json:"primary_key"`
	ForeignKey   *ForeignKey `json:"foreign_key,omitempty"`
}

// On-delete rules understood by ForeignKey.
const (
	OnDeleteCascade  = "CASCADE"
	OnDeleteSetNull  = "SET_NULL"
	OnDeleteRestrict = "RESTRICT"
)

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Table    string `json:"table"`
	Column   string `json:"column"`
	OnDelete string `json:"on_delete,omitempty"` // CASCADE, SET_NULL, RESTRICT
}

// Index represents a database index
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// Column reports whether name is a declared field of the schema.
func (s *Schema) Column(name string) (FieldSchema, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

// AllSchemas returns all entity schemas in dependency order
func AllSchemas() []*Schema {
	return []*Schema{
		AuthorSchema,
		PostSchema,
	}
}
