package command

import (
	"fmt"

	"github.com/mattn/go-shellwords"
)

// splitArgs splits text into values the way a shell splits words. Single or double quotes keep a
// span with spaces as one value, so `Carol "Out of office"` yields two values and `""` yields an
// empty one. A backslash escapes the next character.
func splitArgs(text string) ([]string, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false

	args, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedArguments, err)
	}

	// The parser stops at the first unquoted shell operator and records where.
	if parser.Position >= 0 {
		return nil, fmt.Errorf("%w: operator outside quotes", ErrMalformedArguments)
	}

	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}
