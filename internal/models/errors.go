package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig reports a model that cannot be built from the given
	// parameters.
	ErrInvalidConfig = errors.New("invalid_model_config")
	// ErrSave reports a failure to persist model files.
	ErrSave = errors.New("save_failed")
	// ErrPoisoned is returned by every operation once a writer panicked
	// while holding the model lock.
	ErrPoisoned = errors.New("model_poisoned")
	// ErrUnsupported is returned when an accessor does not apply to the
	// model variant.
	ErrUnsupported = errors.New("unsupported_operation")
)

type configError struct {
	msg string
}

func (e configError) Error() string {
	return e.msg
}

func (e configError) Unwrap() error {
	return ErrInvalidConfig
}

func newConfigError(format string, args ...any) error {
	return configError{msg: fmt.Sprintf(format, args...)}
}

func errMissingUnk(token string) error {
	return newConfigError("unk token %q not found in the vocabulary", token)
}
