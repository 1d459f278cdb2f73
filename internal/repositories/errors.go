package repositories

import "errors"

var (
	// ErrNotFound indicates the entity or edge does not exist, or a write
	// referenced a row that is gone.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write lost to a uniqueness constraint, such as
	// a taken username or an edge that already exists.
	ErrConflict = errors.New("record conflict")
)
