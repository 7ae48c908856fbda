package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/multierr"
)

//go:embed profile.schema.json
var profileSchemaJSON []byte

const profileSchemaURL = "profile.schema.json"

var (
	profileSchemaOnce sync.Once
	profileSchema     *jsonschema.Schema
	profileSchemaErr  error
)

// ProfileSchema returns the JSON Schema profiles are checked against.
func ProfileSchema() []byte {
	return bytes.Clone(profileSchemaJSON)
}

func compiledSchema() (*jsonschema.Schema, error) {
	profileSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(profileSchemaURL, bytes.NewReader(profileSchemaJSON)); err != nil {
			profileSchemaErr = fmt.Errorf("invalid schema: %w", err)
			return
		}
		profileSchema, profileSchemaErr = compiler.Compile(profileSchemaURL)
		if profileSchemaErr != nil {
			profileSchemaErr = fmt.Errorf("invalid schema: %w", profileSchemaErr)
		}
	})
	return profileSchema, profileSchemaErr
}

// validateSchema checks a decoded document structurally. doc may come from
// either the JSON or the YAML decoder; it is normalised through JSON first.
func validateSchema(doc interface{}) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("profile is not representable as JSON: %w", err)
	}
	var jsonData interface{}
	if err := json.Unmarshal(raw, &jsonData); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	err = schema.Validate(jsonData)
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return extractValidationErrors(validationErr)
	}
	return err
}

// extractValidationErrors flattens the leaves of a schema error tree.
func extractValidationErrors(err *jsonschema.ValidationError) error {
	if len(err.Causes) == 0 {
		return &ValidationError{Field: instanceField(err.InstanceLocation), Message: err.Message}
	}
	var errs error
	for _, cause := range err.Causes {
		errs = multierr.Append(errs, extractValidationErrors(cause))
	}
	return errs
}

// instanceField turns a JSON pointer such as "/report/ticks" into
// "report.ticks".
func instanceField(pointer string) string {
	b := []byte(pointer)
	if len(b) > 0 && b[0] == '/' {
		b = b[1:]
	}
	return string(bytes.ReplaceAll(b, []byte("/"), []byte(".")))
}
