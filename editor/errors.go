package editor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned by a Backend when a role has no assigned permissions yet.
	ErrNotFound = errors.New("not found")
	// ErrProtectedRole is returned by Open for roles whose permissions cannot be edited.
	ErrProtectedRole = errors.New("the permissions of this role cannot be modified")
	// ErrBusy is returned when a load or save is already in flight.
	ErrBusy = errors.New("editor is busy")
	// ErrClosed is returned once the editor has been closed; late results are discarded.
	ErrClosed = errors.New("editor is closed")
	// ErrNotReady is returned when saving an editor that has not finished loading.
	ErrNotReady = errors.New("editor is not ready")
	// ErrLoadFailed marks the terminal state after the permission catalog could not be fetched.
	ErrLoadFailed = errors.New("permission catalog could not be loaded")
	// ErrUnknownPermission is returned when toggling an id that is not in the catalog.
	ErrUnknownPermission = errors.New("permission is not in the catalog")
	// ErrUnknownGroup is returned for a module group that does not exist.
	ErrUnknownGroup = errors.New("module group does not exist")
	// ErrNothingSelected is wrapped by the ValidationError returned when saving an empty selection.
	ErrNothingSelected = errors.New("select at least one permission to assign to the role")
)

// ValidationError carries field-level validation messages, either produced locally
// or normalized from a backend response.
type ValidationError struct {
	Fields map[string][]string
	Err    error
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Err != nil {
			return e.Err.Error()
		}
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], ", ")))
	}
	return strings.Join(parts, "\n")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}
