// Package appdataschema validates serialized AppData documents against the
// AppData JSON schema.
package appdataschema

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

// ValidationResult represents the result of validating a document
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validator validates documents against a JSON schema. The zero value is
// not usable; use New or NewWithSchema.
type Validator struct {
	schema *gojsonschema.Schema
}

// New creates a validator for the embedded AppData schema
func New() (*Validator, error) {
	return NewWithSchema(schemaJSON)
}

// NewWithSchema creates a validator for a caller-supplied schema
func NewWithSchema(schema []byte) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile app data schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Check validates data and reports every schema violation
func (v *Validator) Check(data string) ValidationResult {
	result, err := v.schema.Validate(gojsonschema.NewStringLoader(data))
	if err != nil {
		return ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("Schema validation failed: %v", err)},
		}
	}

	if result.Valid() {
		return ValidationResult{Valid: true}
	}

	var errors []string
	for _, desc := range result.Errors() {
		errors = append(errors, fmt.Sprintf("%s: %s", desc.Context().String(), desc.Description()))
	}

	return ValidationResult{
		Valid:  false,
		Errors: errors,
	}
}

// Validate implements claimhooks.Validator
func (v *Validator) Validate(data string) error {
	result := v.Check(data)
	if result.Valid {
		return nil
	}
	return fmt.Errorf("app data does not match schema: %s", strings.Join(result.Errors, "; "))
}
