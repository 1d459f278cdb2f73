package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ID identifies an entity or edge endpoint. Values are canonical UUID strings;
// anything else is rejected at the boundary via ParseID so invalid identifiers
// never reach a store.
type ID string

// ErrInvalidID indicates an identifier that is not a well-formed UUID.
var ErrInvalidID = errors.New("invalid identifier")

// NewID mints a fresh identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID validates raw and returns its canonical form.
func ParseID(raw string) (ID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return ID(parsed.String()), nil
}

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool {
	return id == ""
}
