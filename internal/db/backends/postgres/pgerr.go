package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

const (
	// UniqueViolationCode indicates a unique constraint violation.
	UniqueViolationCode = "23505"
	// ForeignKeyViolationCode indicates a foreign key violation.
	ForeignKeyViolationCode = "23503"
	// NotNullViolationCode indicates a null value in a NOT NULL column.
	NotNullViolationCode = "23502"
	// CheckViolationCode indicates a check constraint violation.
	CheckViolationCode = "23514"
)

func AsPgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// translate maps driver errors onto the storage error taxonomy. The driver
// error stays in the chain for logging.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return interfaces.ErrNotFound
	}
	pe, ok := AsPgError(err)
	if !ok {
		return err
	}
	switch pe.Code {
	case UniqueViolationCode:
		return fmt.Errorf("%w: %s", interfaces.ErrUniqueConstraint, pe.ConstraintName)
	case ForeignKeyViolationCode:
		return fmt.Errorf("%w: %s", interfaces.ErrForeignKeyConstraint, pe.ConstraintName)
	case NotNullViolationCode:
		return fmt.Errorf("%w: %s", interfaces.ErrNotNullConstraint, pe.ColumnName)
	}
	return err
}
