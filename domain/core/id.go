package core

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// positionalSep separates the owning document from the array index in a
// positional ID. Document IDs produced by the stores never contain it.
const positionalSep = "#"

// PositionalID identifies an array entry that carries no id of its own.
func PositionalID(documentID string, index int) ID {
	return ID(documentID + positionalSep + strconv.Itoa(index))
}

// ParsePositionalID splits a positional ID back into document and index.
func ParsePositionalID(id ID) (documentID string, index int, ok bool) {
	s := string(id)
	i := strings.LastIndex(s, positionalSep)
	if i <= 0 || i == len(s)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return s[:i], n, true
}
