package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("catalog: configuration error")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("catalog: validation error")
)

// ConfigurationError reports malformed construction arguments or an
// operation the resource type does not support.
type ConfigurationError struct {
	Kind   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Kind == "" {
		return "catalog: " + e.Reason
	}
	return fmt.Sprintf("catalog: %s: %s", e.Kind, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func configErr(kind, format string, args ...any) error {
	return &ConfigurationError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports local state the server would reject.
type ValidationError struct {
	Kind   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog: %s: invalid: %s", e.Kind, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
