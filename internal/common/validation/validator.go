// Package validation provides an accumulating validator for request input.
package validation

import (
	"fmt"
	"strings"
)

// Validator accumulates validation errors
type Validator struct {
	errors []error
	prefix string
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: make([]error, 0),
	}
}

// NewValidatorWithPrefix creates a new validator with a prefix for error messages
func NewValidatorWithPrefix(prefix string) *Validator {
	return &Validator{
		errors: make([]error, 0),
		prefix: prefix,
	}
}

// RequireString validates that a string is not empty
func (v *Validator) RequireString(value, name string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.addError("%s is required", name)
	}
	return v
}

// MaxLen validates that a string does not exceed max characters
func (v *Validator) MaxLen(value string, max int, name string) *Validator {
	if len([]rune(value)) > max {
		v.addError("%s must be at most %d characters", name, max)
	}
	return v
}

// LenBetween validates that a string length is within [min, max] characters
func (v *Validator) LenBetween(value string, min, max int, name string) *Validator {
	n := len([]rune(value))
	if n < min || n > max {
		v.addError("%s must be between %d and %d characters", name, min, max)
	}
	return v
}

// IntBetween validates that an integer is within [min, max]
func (v *Validator) IntBetween(value, min, max int, name string) *Validator {
	if value < min || value > max {
		v.addError("%s must be between %d and %d", name, min, max)
	}
	return v
}

// RequireOneOf validates that a value is one of the allowed values
func (v *Validator) RequireOneOf(value string, allowed []string, name string) *Validator {
	if value == "" {
		v.addError("%s is required", name)
		return v
	}

	for _, a := range allowed {
		if value == a {
			return v
		}
	}

	v.addError("%s must be one of: %s", name, strings.Join(allowed, ", "))
	return v
}

// Check adds an error with the given message when ok is false
func (v *Validator) Check(ok bool, format string, args ...interface{}) *Validator {
	if !ok {
		v.addError(format, args...)
	}
	return v
}

// Valid returns true when no validation errors were recorded
func (v *Validator) Valid() bool {
	return len(v.errors) == 0
}

// Err returns all accumulated errors joined into one, or nil
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(v.errors))
	for _, e := range v.errors {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func (v *Validator) addError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if v.prefix != "" {
		msg = v.prefix + ": " + msg
	}
	v.errors = append(v.errors, fmt.Errorf("%s", msg))
}
