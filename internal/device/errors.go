package device

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the device cloud rejects the token.
	ErrUnauthorized = errors.New("device cloud rejected the access token")

	// ErrDocumentNotFound is returned when a remote document does not exist.
	ErrDocumentNotFound = errors.New("remote document not found")
)

// APIError is a non-2xx answer of the device cloud.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: device cloud returned HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: device cloud returned HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == 401 || e.StatusCode == 403
	case ErrDocumentNotFound:
		return e.StatusCode == 404
	}
	return false
}
