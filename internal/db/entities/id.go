package entities

import (
	"errors"
	"strconv"
)

// ErrInvalidID is returned when a textual identifier cannot be parsed.
var ErrInvalidID = errors.New("invalid id")

// ID represents a storage-generated identity. Relational backends hand out
// IntID values, the document store hands out StringID values. A nil ID
// encodes as JSON null.
type ID interface {
	String() string
}

// StringID implements ID for string identifiers
type StringID string

func (s StringID) String() string {
	return string(s)
}

// IntID implements ID for integer identifiers
type IntID int64

func (i IntID) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// ParseIntID parses a path parameter into an IntID.
func ParseIntID(s string) (IntID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidID
	}
	return IntID(n), nil
}

// Int64 returns the numeric value of an IntID, or false for any other ID.
func Int64(id ID) (int64, bool) {
	if v, ok := id.(IntID); ok {
		return int64(v), true
	}
	return 0, false
}

// SameID compares two identities by value. Two nil IDs are equal.
func SameID(a, b ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}
