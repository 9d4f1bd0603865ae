package parser

import (
	"errors"
	"fmt"
)

// ParserError is the single error kind the parser surfaces. Structural,
// semantic and reconciliation failures are distinguished only by their
// message text; every message names the section or check that failed.
type ParserError struct {
	msg string
}

func (e *ParserError) Error() string { return e.msg }

// newErrorf builds a ParserError with a formatted message.
func newErrorf(format string, args ...any) *ParserError {
	return &ParserError{msg: fmt.Sprintf(format, args...)}
}

// IsParserError reports whether err is (or wraps) a ParserError.
func IsParserError(err error) bool {
	var pe *ParserError
	return errors.As(err, &pe)
}
