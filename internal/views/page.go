package views

import (
	"errors"
	"fmt"

	"github.com/vidtube/backend/internal/pipeline"
)

// DefaultLimit is the page size used when a caller does not supply one.
const DefaultLimit = 10

// Page is a validated 1-based pagination window.
type Page struct {
	Number int
	Limit  int
}

// DefaultPage returns the first page at the default size.
func DefaultPage() Page {
	return Page{Number: 1, Limit: DefaultLimit}
}

// Skip returns the number of records preceding this page's window.
func (p Page) Skip() int {
	return (p.Number - 1) * p.Limit
}

// TotalPages computes how many pages the given total spans.
func (p Page) TotalPages(total int) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// ErrInvalidSort indicates a sort field no listing supports.
var ErrInvalidSort = errors.New("unsupported sort field")

// VideoSort selects the ordering of a channel's video listing.
type VideoSort struct {
	Field string
	Desc  bool
}

// DefaultVideoSort orders newest first.
func DefaultVideoSort() VideoSort {
	return VideoSort{Field: "createdAt", Desc: true}
}

func (s VideoSort) direction() (pipeline.Direction, error) {
	switch s.Field {
	case "createdAt", "title", "views":
	default:
		return pipeline.Ascending, fmt.Errorf("%w: %q", ErrInvalidSort, s.Field)
	}
	if s.Desc {
		return pipeline.Descending, nil
	}
	return pipeline.Ascending, nil
}
