package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMissingField is wrapped by a ConfigError when a mandatory key is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrMalformedField is wrapped by a ConfigError when a value has the wrong type or range.
	ErrMalformedField = errors.New("malformed field")
)

// ConfigError reports a configuration document that cannot be turned into a Config.
type ConfigError struct {
	// Field is the offending key path, e.g. "_Attributes.labels". Empty for document-level
	// failures.
	Field string
	// Err wraps ErrMissingField or ErrMalformedField.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("model config: %v", e.Err)
	}
	return fmt.Sprintf("model config: %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error so errors.Is matches the sentinel values.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func missing(field string) *ConfigError {
	return &ConfigError{Field: field, Err: ErrMissingField}
}

func malformed(field string, cause error) *ConfigError {
	if cause == nil {
		return &ConfigError{Field: field, Err: ErrMalformedField}
	}
	return &ConfigError{Field: field, Err: errors.Wrap(ErrMalformedField, cause.Error())}
}
