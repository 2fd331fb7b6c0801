package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
)

// Type defines the contract for property validation.
type Type interface {
	// Name returns the type name as written in a catalog (e.g. "string", "[integer]").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// IntegerType validates whole numbers, including json.Number and whole floats.
type IntegerType struct{}

func (t *IntegerType) Name() string { return "integer" }

func (t *IntegerType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return nil
		}
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) {
			return fmt.Errorf("expected integer, got %s", v)
		}
		return nil
	case float64:
		if v == math.Trunc(v) {
			return nil
		}
		return fmt.Errorf("expected integer, got float (not a whole number)")
	default:
		return fmt.Errorf("expected integer, got %T", value)
	}
}

// NumberType validates any numeric value.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(value any) error {
	switch v := value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("expected number, got %q", string(v))
		}
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

// BooleanType validates boolean values.
type BooleanType struct{}

func (t *BooleanType) Name() string { return "boolean" }

func (t *BooleanType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected boolean, got %T", value)
	}
	return nil
}

// ObjectType validates JSON objects.
type ObjectType struct{}

func (t *ObjectType) Name() string { return "object" }

func (t *ObjectType) Validate(value any) error {
	if _, ok := value.(map[string]any); !ok {
		return fmt.Errorf("expected object, got %T", value)
	}
	return nil
}

// ArrayType validates lists. A nil element type accepts any element.
type ArrayType struct {
	elemType Type
}

func (t *ArrayType) Name() string {
	if t.elemType == nil {
		return "array"
	}
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *ArrayType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected array, got %T", value)
	}
	if t.elemType == nil {
		return nil
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elemType.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// EnumType accepts one of a fixed set of string values.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string { return "enum(" + strings.Join(t.values, "|") + ")" }

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected one of %v, got %T", t.values, value)
	}
	if !slices.Contains(t.values, s) {
		return fmt.Errorf("expected one of %v, got %q", t.values, s)
	}
	return nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

func String() Type  { return &StringType{} }
func Integer() Type { return &IntegerType{} }
func Number() Type  { return &NumberType{} }
func Boolean() Type { return &BooleanType{} }
func Object() Type  { return &ObjectType{} }

// Array creates a list type; elemType may be nil.
func Array(elemType Type) Type {
	return &ArrayType{elemType: elemType}
}

// Enum creates a string type restricted to values.
func Enum(values ...string) Type {
	return &EnumType{values: slices.Clone(values)}
}

// Custom creates a type validated by a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a catalog type name to a Type. Supports "string", "integer",
// "number", "boolean", "object", "array" and element-typed lists such as "[string]".
// The short forms "int", "float" and "bool" are accepted as aliases.
func ParseType(typeStr string) (Type, error) {
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Array(elemType), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "integer", "int":
		return Integer(), nil
	case "number", "float":
		return Number(), nil
	case "boolean", "bool":
		return Boolean(), nil
	case "object":
		return Object(), nil
	case "array":
		return Array(nil), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// jsonType maps a Type to its JSON Schema "type" keyword value.
func jsonType(t Type) string {
	switch t.(type) {
	case *StringType, *EnumType:
		return "string"
	case *IntegerType:
		return "integer"
	case *NumberType:
		return "number"
	case *BooleanType:
		return "boolean"
	case *ObjectType:
		return "object"
	case *ArrayType:
		return "array"
	default:
		return ""
	}
}
