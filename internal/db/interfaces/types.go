package interfaces

import (
	"errors"

	"github.com/noobjs/blog-backend/internal/db/entities"
)

// ID is the storage identity type shared with the entity package.
type ID = entities.ID

// Identity and schema types re-exported for callers that only import the port.
type (
	IntID    = entities.IntID
	StringID = entities.StringID
	Schema   = entities.Schema
)

// On-delete rules re-exported from the entity package.
const (
	OnDeleteCascade  = entities.OnDeleteCascade
	OnDeleteSetNull  = entities.OnDeleteSetNull
	OnDeleteRestrict = entities.OnDeleteRestrict
)

// OrderBy represents sorting configuration
type OrderBy struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // "asc" or "desc"
}

// Query carries listing options. A nil Query or an empty OrderBy means the
// backend may return rows in any order.
type Query struct {
	OrderBy []OrderBy `json:"order_by,omitempty"`
}

// ByIDAsc is the ordering used by the top-level author listing.
func ByIDAsc() *Query {
	return &Query{OrderBy: []OrderBy{{Field: "id", Direction: "asc"}}}
}

// Common database errors
var (
	ErrNotFound             = errors.New("record not found")
	ErrUniqueConstraint     = errors.New("unique constraint violation")
	ErrForeignKeyConstraint = errors.New("foreign key constraint violation")
	ErrNotNullConstraint    = errors.New("not null constraint violation")
	ErrInvalidQuery         = errors.New("invalid query")
	ErrInvalidID            = entities.ErrInvalidID
	ErrDatabaseNotConnected = errors.New("database not connected")
	ErrUnsupported          = errors.New("operation not supported by this backend")
)

// DatabaseError wraps database-specific errors
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// Wrap annotates err with the failing operation, leaving nil untouched.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DatabaseError{Op: op, Err: err}
}
