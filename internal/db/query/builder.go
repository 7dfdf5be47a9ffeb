package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

// Builder helps construct database queries
type Builder struct {
	schema *interfaces.Schema
}

// NewBuilder creates a new query builder for a schema
func NewBuilder(schema *interfaces.Schema) *Builder {
	return &Builder{schema: schema}
}

// Matches reports whether field equals value in record. Identities are
// compared by value so an IntID matches an equal IntID from another record.
func (b *Builder) Matches(record map[string]interface{}, field string, value interface{}) bool {
	fieldValue, exists := record[field]
	if !exists || fieldValue == nil {
		return value == nil
	}
	if av, ok := fieldValue.(entities.ID); ok {
		bv, ok := value.(entities.ID)
		return ok && entities.SameID(av, bv)
	}
	return fieldValue == value
}

func (b *Builder) compare(a, other interface{}) int {
	switch av := a.(type) {
	case entities.IntID:
		if bv, ok := other.(entities.IntID); ok {
			return compareInt64(int64(av), int64(bv))
		}
	case int64:
		if bv, ok := other.(int64); ok {
			return compareInt64(av, bv)
		}
	case string:
		if bv, ok := other.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := other.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return 0
}

func compareInt64(a, b int64) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

// ValidateOrder rejects order clauses naming fields the schema does not declare.
func (b *Builder) ValidateOrder(orderBy []interfaces.OrderBy) error {
	for _, order := range orderBy {
		if _, ok := b.schema.Column(order.Field); !ok {
			return fmt.Errorf("%w: unknown order field %q", interfaces.ErrInvalidQuery, order.Field)
		}
		switch strings.ToLower(order.Direction) {
		case "", "asc", "desc":
		default:
			return fmt.Errorf("%w: unknown direction %q", interfaces.ErrInvalidQuery, order.Direction)
		}
	}
	return nil
}

// ApplySort sorts records by the OrderBy clauses
func (b *Builder) ApplySort(records []map[string]interface{}, orderBy []interfaces.OrderBy) []map[string]interface{} {
	if len(orderBy) == 0 {
		return records
	}

	// Create a copy to avoid modifying the original slice
	sorted := make([]map[string]interface{}, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return b.less(sorted[i], sorted[j], orderBy)
	})

	return sorted
}

func (b *Builder) less(a, other map[string]interface{}, orderBy []interfaces.OrderBy) bool {
	for _, order := range orderBy {
		cmp := b.compare(a[order.Field], other[order.Field])
		if cmp == 0 {
			continue // Equal, check next field
		}
		if strings.EqualFold(order.Direction, "desc") {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

// OrderClause renders orderBy as a SQL ORDER BY clause. Field names are
// checked against the schema so they can be interpolated safely.
func (b *Builder) OrderClause(orderBy []interfaces.OrderBy) (string, error) {
	if len(orderBy) == 0 {
		return "", nil
	}
	if err := b.ValidateOrder(orderBy); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(orderBy))
	for _, order := range orderBy {
		dir := "ASC"
		if strings.EqualFold(order.Direction, "desc") {
			dir = "DESC"
		}
		parts = append(parts, order.Field+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// ApplyDefaults fills absent fields that declare a default value
func (b *Builder) ApplyDefaults(data map[string]interface{}) {
	for fieldName, fieldSchema := range b.schema.Fields {
		if fieldSchema.DefaultValue == nil {
			continue
		}
		if _, exists := data[fieldName]; !exists {
			data[fieldName] = fieldSchema.DefaultValue
		}
	}
}

// ValidateData validates data against the schema. Missing non-nullable
// fields without a default are reported as interfaces.ErrNotNullConstraint.
func (b *Builder) ValidateData(data map[string]interface{}) error {
	for fieldName, fieldSchema := range b.schema.Fields {
		value, exists := data[fieldName]

		// Skip system fields that are auto-generated
		if fieldName == "id" || fieldName == "created_at" || fieldName == "updated_at" {
			continue
		}

		if (!exists || value == nil) && !fieldSchema.Nullable && fieldSchema.DefaultValue == nil {
			return fmt.Errorf("%w: field '%s' cannot be null", interfaces.ErrNotNullConstraint, fieldName)
		}

		if value != nil {
			if err := b.validateFieldType(fieldName, value, fieldSchema.Type); err != nil {
				return err
			}
		}
	}

	return nil
}

func (b *Builder) validateFieldType(fieldName string, value interface{}, expectedType string) error {
	switch expectedType {
	case "string", "text":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: field '%s' must be a string", interfaces.ErrInvalidQuery, fieldName)
		}
	case "int64":
		switch value.(type) {
		case int64, entities.IntID:
		default:
			return fmt.Errorf("%w: field '%s' must be an int64", interfaces.ErrInvalidQuery, fieldName)
		}
	case "time":
		if _, ok := value.(time.Time); !ok {
			return fmt.Errorf("%w: field '%s' must be a time value", interfaces.ErrInvalidQuery, fieldName)
		}
	}

	return nil
}
