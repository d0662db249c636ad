package events

import (
	"errors"
	"fmt"
)

var (
	// ErrEventInsert is returned when the calendar event could not be stored.
	ErrEventInsert = errors.New("failed to create calendar event")

	// ErrSourceLinkInsert is returned when the event was stored but its source
	// link was not. The event is rolled back.
	ErrSourceLinkInsert = errors.New("failed to link event to its source line")
)

// MaterializationError is the per-line failure of Materialize. It never aborts
// a pipeline run; its message ends up in ParsedEventResult.Error.
type MaterializationError struct {
	// Line is the extracted line that could not be materialized.
	Line string

	// Err is the underlying error.
	Err error

	// Stage is the sentinel naming the step that failed.
	Stage error
}

// Error implements the error interface.
func (e *MaterializationError) Error() string {
	return fmt.Sprintf("%v: %v", e.Stage, e.Err)
}

// Unwrap exposes both the stage sentinel and the store error.
func (e *MaterializationError) Unwrap() []error {
	return []error{e.Stage, e.Err}
}
