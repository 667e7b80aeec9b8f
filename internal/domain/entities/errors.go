package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrResolution indicates that a selection refers to a nick that no longer exists.
	ErrResolution = errors.New("resolution failure")

	// ErrStaleSelection indicates that a posted choice is not among the current suggestions.
	ErrStaleSelection = errors.New("stale selection")

	// ErrInvalidName indicates an empty or whitespace-only name.
	ErrInvalidName = errors.New("invalid name")
)

// ResolutionError is returned when committing an Existing selection whose
// nick has vanished between rendering and submission.
type ResolutionError struct {
	NickID int64
	Name   string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%q (nick %d) no longer exists, please search again", e.Name, e.NickID)
	}
	return fmt.Sprintf("nick %d no longer exists, please search again", e.NickID)
}

// Unwrap returns ErrResolution for use with errors.Is.
func (e *ResolutionError) Unwrap() error {
	return ErrResolution
}

// StaleSelectionError describes a posted choice rejected under the reject policy.
type StaleSelectionError struct {
	Field string
	Key   string
}

// Error implements the error interface.
func (e *StaleSelectionError) Error() string {
	return fmt.Sprintf("%s: choice %q is not one of the current suggestions", e.Field, e.Key)
}

// Unwrap returns ErrStaleSelection for use with errors.Is.
func (e *StaleSelectionError) Unwrap() error {
	return ErrStaleSelection
}
