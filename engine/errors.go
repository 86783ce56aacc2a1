package engine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies caller-facing engine failures.
type ErrorKind string

const (
	// KindInvalidRequest: unknown dimension or metric, metric not computed,
	// bad direction or limit. Nothing is computed.
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindEmptyResult: ranking or extremum over zero groups.
	KindEmptyResult ErrorKind = "empty_result"
)

// Sentinels for errors.Is.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrEmptyResult    = errors.New("empty result")
)

// RequestError is the error type returned by engine operations.
type RequestError struct {
	Kind ErrorKind
	Op   string // "aggregate", "rank", "extremum", "complete", "execute"
	Msg  string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

// Is matches the sentinel for the error's kind.
func (e *RequestError) Is(target error) bool {
	switch e.Kind {
	case KindInvalidRequest:
		return target == ErrInvalidRequest
	case KindEmptyResult:
		return target == ErrEmptyResult
	}
	return false
}

func invalidRequest(op, format string, args ...any) error {
	return &RequestError{Kind: KindInvalidRequest, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func emptyResult(op, format string, args ...any) error {
	return &RequestError{Kind: KindEmptyResult, Op: op, Msg: fmt.Sprintf(format, args...)}
}
