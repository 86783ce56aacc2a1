package ledger

import (
	"errors"
	"fmt"
)

// ErrParse matches every *ParseError.
var ErrParse = errors.New("ledger parse error")

// ParseError reports a row that could not be typed. It is only returned
// in strict mode; by default such rows are dropped and counted in Stats.
type ParseError struct {
	Row    int // zero-based index into the input rows
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: cannot parse %s %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }
