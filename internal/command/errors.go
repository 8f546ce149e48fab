package command

import "errors"

// ErrDuplicateCommand is returned when a command name is registered twice.
var ErrDuplicateCommand = errors.New("command is already registered")

// ErrReservedCommand is returned for names the Discord adapter handles itself.
var ErrReservedCommand = errors.New("command name is reserved")

// ErrMalformedArguments is returned when command arguments cannot be split into values,
// e.g. a quote is not closed or a shell operator appears outside quotes.
var ErrMalformedArguments = errors.New("malformed arguments")
