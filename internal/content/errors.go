package content

import (
	"errors"
	"fmt"
)

// Sentinel errors for content lookups.
var (
	// ErrNotFound is returned when the API answers 404.
	ErrNotFound = errors.New("content: not found")

	// ErrInvalidQuery is returned when a report query names neither a tag
	// nor a genre.
	ErrInvalidQuery = errors.New("content: query needs a tag or genre")
)

// StatusError is an unexpected HTTP status from the content API.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("content: GET %s returned status %d", e.Path, e.Status)
}
