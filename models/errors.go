package models

import (
	"context"
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTimeout       = "SCRAPE_TIMEOUT"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash  = "BROWSER_CRASH"
	ErrCodeNotMatched    = "LAYOUT_NOT_MATCHED"
	ErrCodeNormalization = "NORMALIZATION_FAILED"
	ErrCodeExhausted     = "EXTRACTION_EXHAUSTED"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error

	// SnapshotPath is set on EXTRACTION_EXHAUSTED errors and points at the
	// diagnostic page dump written for the failed call.
	SnapshotPath string
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first ScrapeError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// MessageOf returns the human-readable message of the first ScrapeError in
// err's chain, falling back to err.Error().
func MessageOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// IsRecoverable reports whether a failed attempt may succeed when repeated.
//
// Layout mismatches, normalization failures, timeouts and navigation errors
// are recoverable. Cancellation of the caller's context, invalid input and
// failures to start the browser are not.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *ScrapeError
	if !errors.As(err, &se) {
		// Unclassified errors from the browser or the page are treated as
		// transient.
		return true
	}
	switch se.Code {
	case ErrCodeInvalidInput, ErrCodeBrowserCrash, ErrCodeExhausted,
		ErrCodeUnauthorized, ErrCodeRateLimited:
		return false
	default:
		return true
	}
}
