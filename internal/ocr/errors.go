package ocr

import (
	"errors"
	"fmt"
)

// Error classes returned by the gateway. Match them with errors.Is.
var (
	// ErrConfiguration is returned when a provider is unset, unknown, server-side
	// unavailable, or missing its credential. No network call has been made.
	ErrConfiguration = errors.New("OCR provider is not configured")

	// ErrFormat is returned when the payload cannot be used, e.g. a malformed data URL.
	ErrFormat = errors.New("invalid OCR payload")

	// ErrProvider is returned when the vendor API answered with a failure.
	ErrProvider = errors.New("OCR provider request failed")
)

// ConfigurationError names the provider and setting that is missing or wrong.
type ConfigurationError struct {
	Provider Provider
	Setting  string
	Reason   string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("ocr: %s is not configured: %s (setting %q)", e.Provider, e.Reason, e.Setting)
	}
	return fmt.Sprintf("ocr: %s is not configured: %s", e.Provider, e.Reason)
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// FormatError describes a payload the gateway refused to send.
type FormatError struct {
	Reason string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("ocr: invalid payload: %s", e.Reason)
}

// Is matches ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// ProviderError carries the vendor's own error message when it sent one.
type ProviderError struct {
	Provider   Provider
	StatusCode int    // HTTP status, 0 if the request never got a response
	Message    string // Vendor error message, may be empty
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("ocr: %s error: %s", e.Provider, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("ocr: %s request failed with status %d", e.Provider, e.StatusCode)
	default:
		return fmt.Sprintf("ocr: %s request failed", e.Provider)
	}
}

// Is matches ErrProvider.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// OCRError wraps errors with additional context about the OCR processing failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "Recognize", "ParseDataURL").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err // Already wrapped
	}

	return &OCRError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}
