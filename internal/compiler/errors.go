package compiler

import (
	"errors"
	"fmt"
)

// ParseError reports malformed graph text.
type ParseError struct {
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Msg  string `json:"message"`
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// IsParseError returns true if the error is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func errorAt(pos position, format string, args ...any) *ParseError {
	return &ParseError{Line: pos.line, Col: pos.col, Msg: fmt.Sprintf(format, args...)}
}
