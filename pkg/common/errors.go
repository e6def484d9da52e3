package common

import (
	"errors"
	"fmt"
)

// ErrMalformedInput marks a document that is not well-formed XML or JSON.
var ErrMalformedInput = errors.New("malformed input")

// MalformedInputError carries the location of a parse failure. It is the
// only error kind that aborts a conversion.
type MalformedInputError struct {
	File   string
	Line   int
	Column int
	Err    error
}

func (e *MalformedInputError) Error() string {
	loc := e.File
	if loc == "" {
		loc = "<input>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s: %v", loc, ErrMalformedInput, e.Err)
}

func (e *MalformedInputError) Unwrap() []error {
	return []error{ErrMalformedInput, e.Err}
}

// LineColumn converts a byte offset into 1-based line and column numbers.
func LineColumn(data []byte, offset int64) (int, int) {
	line, col := 1, 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
