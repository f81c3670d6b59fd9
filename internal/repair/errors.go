// Package repair resolves corrupted texture records by borrowing a nearby vertex's texture coordinate.
package repair

import (
	"errors"
	"fmt"
)

// ErrUnresolved is returned when a configured relaxation cap is reached before any
// candidate satisfies the sibling threshold.
var ErrUnresolved = errors.New("no candidate satisfied the sibling threshold")

// Error represents a general repair error
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("repair error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("repair error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ResolveError is a failure to resolve one anomaly. Line is the corrupted texture line.
type ResolveError struct {
	Line    int
	Message string
	Cause   error
}

func (e *ResolveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resolve error at line %d: %s: %v", e.Line, e.Message, e.Cause)
	}
	return fmt.Sprintf("resolve error at line %d: %s", e.Line, e.Message)
}

func (e *ResolveError) Unwrap() error {
	return e.Cause
}
