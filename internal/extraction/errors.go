package extraction

import (
	"errors"
	"fmt"
)

// ErrNoText is returned for empty documents. The extraction service is not called.
var ErrNoText = errors.New("document contains no text")

// ParseError means the service answered with something that is not a JSON object.
type ParseError struct {
	Raw   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse extraction response: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// SchemaError means the response is JSON but does not describe a valid record.
type SchemaError struct {
	Cause error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("extraction response does not match the record schema: %v", e.Cause)
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// ServiceError wraps transport failures, timeouts and empty answers.
type ServiceError struct {
	Cause error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("extraction service: %v", e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }
