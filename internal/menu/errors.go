package menu

import (
	"errors"
	"fmt"
)

// Common pipeline errors
var (
	// ErrImageTooSmall is returned when the upload is below the minimum size
	// for a plausible menu photograph.
	ErrImageTooSmall = errors.New("image data is too small to be a menu photo")

	// ErrImageTooLarge is returned when the upload exceeds the maximum size
	// ceiling that bounds memory and external-call cost.
	ErrImageTooLarge = errors.New("image data exceeds the maximum size limit (50MB)")

	// ErrUnsupportedFormat is returned when the image bytes carry no
	// recognized JPEG, PNG or WebP signature.
	ErrUnsupportedFormat = errors.New("unsupported image format (expected JPEG, PNG or WebP)")

	// ErrNoDishesFound is returned when extraction legitimately identified no
	// dishes in the image.
	ErrNoDishesFound = errors.New("no dishes could be identified in the menu")

	// ErrExtractionFailed is returned when the extraction provider was
	// unreachable or returned malformed output.
	ErrExtractionFailed = errors.New("dish extraction failed")

	// ErrNotConfigured is returned when a service is constructed without the
	// credentials it requires.
	ErrNotConfigured = errors.New("service is not configured")

	// ErrCancelled is returned when a run was cancelled by the caller.
	ErrCancelled = errors.New("processing was cancelled by user")

	// ErrAlreadyProcessing is returned when a run is started under an ID
	// that is already in flight.
	ErrAlreadyProcessing = errors.New("processing is already in progress for this ID")
)

// PipelineError wraps errors with context about which pipeline operation
// failed.
type PipelineError struct {
	// Op is the operation that failed (e.g., "ExtractDishes", "Process").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("menu: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("menu: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps an error as a PipelineError if it isn't already one.
func WrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var perr *PipelineError
	if errors.As(err, &perr) {
		return err // Already wrapped
	}

	return &PipelineError{Op: op, Err: err, Details: details}
}
