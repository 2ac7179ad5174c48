package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindStateConflict ErrorKind = "state_conflict"
	KindGeneration    ErrorKind = "generation"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrStateConflict = errors.New("state conflict")
	ErrGeneration    = errors.New("card generation failed")
)

// Causes carried in Error.Err by generation precondition failures.
var (
	ErrCountOutOfRange = errors.New("card count out of range")
	ErrPoolTooSmall    = errors.New("playlist too small")
)

// Error is the domain error returned by the bingo core.
type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
	// Index is the 1-based card index a generation failure refers to.
	Index int
	Err   error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrStateConflict:
		return e.Kind == KindStateConflict
	case ErrGeneration:
		return e.Kind == KindGeneration
	}
	return false
}

func Validationf(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(op, format string, args ...any) error {
	return &Error{Kind: KindStateConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// GenerationFailed reports a batch failure; index is 0 when no single card is to blame.
func GenerationFailed(index int, format string, args ...any) error {
	return &Error{Kind: KindGeneration, Op: "generate cards", Index: index, Msg: fmt.Sprintf(format, args...)}
}

// GenerationRejected reports a batch refused before any card was drawn. cause
// is one of the generation precondition sentinels.
func GenerationRejected(cause error, format string, args ...any) error {
	return &Error{Kind: KindGeneration, Op: "generate cards", Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
