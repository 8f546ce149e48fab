package config

import (
	"errors"
	"strings"
)

// ErrConfiguration is the sentinel every *Error unwraps to.
var ErrConfiguration = errors.New("invalid configuration")

// FieldError describes one missing or malformed environment variable.
type FieldError struct {
	// Field is the environment variable name.
	Field string

	// Reason never contains the variable's value.
	Reason string
}

// Error is returned by Load and lists every problem found, not just the first one.
type Error struct {
	Fields []FieldError
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	problems := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		problems = append(problems, f.Field+" "+f.Reason)
	}
	return ErrConfiguration.Error() + ": " + strings.Join(problems, "; ")
}

// Unwrap allows errors.Is(err, ErrConfiguration).
func (e *Error) Unwrap() error {
	return ErrConfiguration
}

// Names returns the names of all problem fields in the order they were found.
func (e *Error) Names() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

func (e *Error) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}
