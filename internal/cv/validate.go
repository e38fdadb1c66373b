package cv

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
})

// FieldError describes a single failed rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when a record or document does not match the schema.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// SchemaLoadError indicates the embedded schema itself could not be compiled.
type SchemaLoadError struct {
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("load record schema: %v", e.Cause)
}

func (e *SchemaLoadError) Unwrap() error { return e.Cause }

// Schema returns the JSON schema describing the canonical record.
func Schema() string {
	return schemaJSON
}

// CheckSchema validates a raw JSON document against the record schema.
func CheckSchema(doc []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return &SchemaLoadError{Cause: err}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Errors = append(verr.Errors, FieldError{Field: desc.Field(), Message: desc.Description()})
	}
	return verr
}

// Validate normalizes a copy of rec and checks it against the field rules and the schema.
// The input is never modified.
func Validate(rec *Record) (*Record, error) {
	out, _, err := Aggregate(rec)
	return out, err
}

// Aggregate is Validate that also reports what every normalization step did.
func Aggregate(rec *Record) (*Record, []Step, error) {
	out, err := rec.Clone()
	if err != nil {
		return nil, nil, err
	}

	steps := make([]Step, 0, len(pipeline))
	for _, n := range pipeline {
		steps = append(steps, n.Apply(out))
	}

	if err := validate.Struct(out); err != nil {
		return nil, steps, fieldErrors(err)
	}

	doc, err := Canonical(out)
	if err != nil {
		return nil, steps, err
	}
	if err := CheckSchema(doc); err != nil {
		return nil, steps, err
	}

	return out, steps, nil
}

func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate record: %w", err)
	}
	out := &ValidationError{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed on the %q rule", fe.Tag()),
		})
	}
	return out
}
