package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/noobjs/blog-backend/internal/db/interfaces"
	"github.com/noobjs/blog-backend/internal/db/query"
)

// Repository is the schema-driven record engine shared by the typed stores
type Repository struct {
	db        *Database
	schema    *interfaces.Schema
	builder   *query.Builder
	tableName string
}

// NewRepository creates a new in-memory repository
func NewRepository(db *Database, schema *interfaces.Schema) *Repository {
	return &Repository{
		db:        db,
		schema:    schema,
		builder:   query.NewBuilder(schema),
		tableName: schema.TableName,
	}
}

// GetByID retrieves a single record by its ID
func (r *Repository) GetByID(ctx context.Context, id interfaces.ID) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if !r.db.connected {
		return nil, interfaces.ErrDatabaseNotConnected
	}

	record, exists := r.db.tables[r.tableName][id.String()]
	if !exists {
		return nil, interfaces.ErrNotFound
	}

	return copyRecord(record), nil
}

// FindMany returns the records whose fields equal every value in where,
// sorted by orderBy. A nil where matches everything.
func (r *Repository) FindMany(ctx context.Context, where map[string]interface{}, orderBy []interfaces.OrderBy) ([]map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.builder.ValidateOrder(orderBy); err != nil {
		return nil, err
	}

	r.db.mu.RLock()
	if !r.db.connected {
		r.db.mu.RUnlock()
		return nil, interfaces.ErrDatabaseNotConnected
	}

	records := make([]map[string]interface{}, 0, len(r.db.tables[r.tableName]))
	for _, record := range r.db.tables[r.tableName] {
		if r.matches(record, where) {
			records = append(records, copyRecord(record))
		}
	}
	r.db.mu.RUnlock()

	return r.builder.ApplySort(records, orderBy), nil
}

func (r *Repository) matches(record map[string]interface{}, where map[string]interface{}) bool {
	for field, value := range where {
		if !r.builder.Matches(record, field, value) {
			return false
		}
	}
	return true
}

// Create inserts a new record, assigning the next id of the table
func (r *Repository) Create(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := copyRecord(data)
	delete(record, "id")
	r.builder.ApplyDefaults(record)

	if err := r.builder.ValidateData(record); err != nil {
		return nil, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if !r.db.connected {
		return nil, interfaces.ErrDatabaseNotConnected
	}

	// Ensure table exists
	if _, exists := r.db.tables[r.tableName]; !exists {
		r.db.tables[r.tableName] = make(map[string]map[string]interface{})
	}
	table := r.db.tables[r.tableName]

	if err := r.validateUniqueConstraints(table, record); err != nil {
		return nil, err
	}
	if err := r.validateForeignKeyConstraints(record); err != nil {
		return nil, err
	}

	id := r.db.nextID(r.tableName)
	now := time.Now().UTC()
	record["id"] = id
	record["created_at"] = now
	record["updated_at"] = now

	table[id.String()] = record

	return copyRecord(record), nil
}

// Delete removes a record by ID and applies the on-delete rule of every
// foreign key referencing this table.
func (r *Repository) Delete(ctx context.Context, id interfaces.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if !r.db.connected {
		return interfaces.ErrDatabaseNotConnected
	}

	table := r.db.tables[r.tableName]
	if _, exists := table[id.String()]; !exists {
		return interfaces.ErrNotFound
	}

	if err := r.applyOnDelete(id); err != nil {
		return err
	}

	delete(table, id.String())
	return nil
}

// Helper methods for constraint validation

func (r *Repository) validateUniqueConstraints(table map[string]map[string]interface{}, record map[string]interface{}) error {
	for fieldName, fieldSchema := range r.schema.Fields {
		if !fieldSchema.Unique {
			continue
		}

		value, exists := record[fieldName]
		if !exists || value == nil {
			continue
		}

		for _, existing := range table {
			if r.builder.Matches(existing, fieldName, value) {
				return fmt.Errorf("%w: field '%s' value '%v'", interfaces.ErrUniqueConstraint, fieldName, value)
			}
		}
	}

	for _, index := range r.schema.Indexes {
		if !index.Unique {
			continue
		}

		for _, existing := range table {
			match := true
			for _, column := range index.Columns {
				if !r.builder.Matches(existing, column, record[column]) {
					match = false
					break
				}
			}
			if match {
				return fmt.Errorf("%w: unique index '%s'", interfaces.ErrUniqueConstraint, index.Name)
			}
		}
	}

	return nil
}

func (r *Repository) validateForeignKeyConstraints(record map[string]interface{}) error {
	for fieldName, fieldSchema := range r.schema.Fields {
		fk := fieldSchema.ForeignKey
		if fk == nil {
			continue
		}

		value, exists := record[fieldName]
		if !exists || value == nil {
			continue
		}

		found := false
		for _, refRecord := range r.db.tables[fk.Table] {
			if r.builder.Matches(refRecord, fk.Column, value) {
				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("%w: field '%s' references non-existent %s.%s '%v'",
				interfaces.ErrForeignKeyConstraint, fieldName, fk.Table, fk.Column, value)
		}
	}

	return nil
}

// applyOnDelete walks every registered schema for foreign keys pointing at
// this table. RESTRICT references abort before anything is modified.
func (r *Repository) applyOnDelete(id interfaces.ID) error {
	type reference struct {
		table string
		field string
		rule  string
	}

	var refs []reference
	for tableName, schema := range r.db.schemas {
		for fieldName, fieldSchema := range schema.Fields {
			fk := fieldSchema.ForeignKey
			if fk == nil || fk.Table != r.tableName || fk.Column != "id" {
				continue
			}
			refs = append(refs, reference{table: tableName, field: fieldName, rule: fk.OnDelete})
		}
	}

	for _, ref := range refs {
		if ref.rule != interfaces.OnDeleteRestrict && ref.rule != "" {
			continue
		}
		for _, record := range r.db.tables[ref.table] {
			if r.builder.Matches(record, ref.field, id) {
				return fmt.Errorf("%w: record is referenced by %s.%s", interfaces.ErrForeignKeyConstraint, ref.table, ref.field)
			}
		}
	}

	now := time.Now().UTC()
	for _, ref := range refs {
		table := r.db.tables[ref.table]
		for key, record := range table {
			if !r.builder.Matches(record, ref.field, id) {
				continue
			}
			switch ref.rule {
			case interfaces.OnDeleteSetNull:
				record[ref.field] = nil
				record["updated_at"] = now
			case interfaces.OnDeleteCascade:
				delete(table, key)
			}
		}
	}

	return nil
}
