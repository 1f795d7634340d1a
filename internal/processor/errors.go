package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTemplate reports a template, piece or special token that
	// cannot be built.
	ErrInvalidTemplate = errors.New("invalid_template")
	// ErrInvalidInput reports a call with the wrong number of encodings.
	ErrInvalidInput = errors.New("invalid_input")
)

type templateError struct {
	msg string
}

func (e templateError) Error() string {
	return e.msg
}

func (e templateError) Unwrap() error {
	return ErrInvalidTemplate
}

func newTemplateError(format string, args ...any) error {
	return templateError{msg: fmt.Sprintf(format, args...)}
}
