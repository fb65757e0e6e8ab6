package errors

import (
	"errors"
	"fmt"
)

// LoadError reports a failed quiz document retrieval.
type LoadError struct {
	Source string `json:"source"`
	// Status is the upstream status code, zero for transport failures.
	Status int   `json:"status,omitempty"`
	Err    error `json:"-"`
}

func (le *LoadError) Error() string {
	if le.Status != 0 {
		return fmt.Sprintf("failed to load quiz %q: status %d", le.Source, le.Status)
	}
	if le.Err != nil {
		return fmt.Sprintf("failed to load quiz %q: %v", le.Source, le.Err)
	}
	return fmt.Sprintf("failed to load quiz %q", le.Source)
}

func (le *LoadError) Unwrap() error {
	return le.Err
}

// NewLoadError creates a load error for a transport or decoding failure
func NewLoadError(source string, err error) *LoadError {
	return &LoadError{Source: source, Err: err}
}

// NewLoadStatusError creates a load error for a non-success upstream status
func NewLoadStatusError(source string, status int) *LoadError {
	return &LoadError{Source: source, Status: status}
}

// IsValidation checks if err carries validation errors
func IsValidation(err error) bool {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *ValidationError
	return errors.As(err, &single)
}

// AsLoadError extracts a LoadError from err
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
