package models

import "fmt"

// ConfigurationError indicates a malformed or unsupported profile field.
// It is surfaced to the caller and never recovered internally.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error on field %s: %s", e.Field, e.Message)
}
