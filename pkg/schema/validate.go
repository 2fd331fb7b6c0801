package schema

import (
	"sort"
)

// Schema maps property names to their expected types.
type Schema map[string]Type

// Validate checks that data carries every required property and that every property
// present is defined by the schema with a matching type. Failures are reported in key
// order as one *AggregateError.
func Validate(schema Schema, data map[string]any, required ...string) error {
	return validateAt("", schema, data, required)
}

func validateAt(path string, schema Schema, data map[string]any, required []string) error {
	var errs []error

	for _, key := range required {
		if _, ok := data[key]; !ok {
			errs = append(errs, &ValidationError{Path: path, Key: key, Reason: "required"})
		}
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := data[key]
		fieldType, ok := schema[key]
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Key: key, Reason: "not defined in schema"})
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Path: path, Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateFields validates only the named fields. A field missing from the schema or
// from data is an error.
func ValidateFields(schema Schema, data map[string]any, fields ...string) error {
	var errs []error

	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: "not defined in schema"})
			continue
		}

		value, fieldExists := data[fieldName]
		if !fieldExists {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: "required"})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
