package recruitment

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gcsrm/recruitment-portal/internal/storage"
)

// Common errors
var (
	ErrWindowNotOpen        = errors.New("window not open yet")
	ErrWindowClosed         = errors.New("window has closed")
	ErrValidation           = errors.New("validation failed")
	ErrDuplicateKey         = errors.New("already registered")
	ErrIndexMisconfigured   = errors.New("unexpected unique index collision")
	ErrNotFound             = errors.New("participant not found")
	ErrAlreadySubmitted     = errors.New("task already submitted")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrMissingParameter     = errors.New("email is required")
	ErrMissingIdentifier    = errors.New("registrationNumber or email required")
	ErrUpstreamUnavailable  = errors.New("sheet endpoint not configured on server")
	ErrUpstreamError        = errors.New("sheet endpoint request failed")
	ErrInternal             = errors.New("internal error")
)

// WindowError reports a time-gate rejection and the boundary that caused it.
// Kind is ErrWindowNotOpen or ErrWindowClosed.
type WindowError struct {
	Kind     error
	Boundary time.Time
}

func (e *WindowError) Error() string {
	if errors.Is(e.Kind, ErrWindowNotOpen) {
		return fmt.Sprintf("%v: opens at %s", e.Kind, e.Boundary.Format(time.RFC3339))
	}
	return fmt.Sprintf("%v: closed at %s", e.Kind, e.Boundary.Format(time.RFC3339))
}

func (e *WindowError) Unwrap() error { return e.Kind }

// NotOpen reports whether the window has not opened yet
func (e *WindowError) NotOpen() bool { return errors.Is(e.Kind, ErrWindowNotOpen) }

// ValidationError carries per-field messages for a rejected payload
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DuplicateError names the identity field a registration collided on
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	switch e.Field {
	case storage.FieldEmail:
		return "Email is already registered"
	case storage.FieldRegistrationNumber:
		return "Registration number is already registered"
	}
	return ErrDuplicateKey.Error()
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateKey }

// UpstreamError marks a non-success answer from the sheet endpoint
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v: upstream returned status %d", ErrUpstreamError, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstreamError }
