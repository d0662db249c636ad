package pipeline

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError is returned when the document is unknown to the user or the
// user has no calendar to write events to.
type NotFoundError struct {
	Resource string // "document" or "calendar"
	ID       int64  // 0 when no specific id was requested
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("no %s found", e.Resource)
	}
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
