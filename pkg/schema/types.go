package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Type defines the contract for parameter validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
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

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// JSON numbers arrive as float64.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return fmt.Errorf("expected int, got %s", v)
		}
		return nil
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

// FloatType validates numeric values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	switch v := value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("expected float, got %s", v)
		}
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// AnyType accepts every value except nil.
type AnyType struct{}

func (t *AnyType) Name() string { return "any" }

func (t *AnyType) Validate(value any) error {
	if value == nil {
		return fmt.Errorf("expected a value, got nil")
	}
	return nil
}

// SliceType validates slices whose elements match ElementType.
type SliceType struct {
	ElementType Type
}

func (t *SliceType) Name() string {
	return "[" + t.ElementType.Name() + "]"
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.ElementType.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// MapType validates maps keyed by strings, such as column/value assignments.
type MapType struct{}

func (t *MapType) Name() string { return "map" }

func (t *MapType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("expected map with string keys, got %T", value)
	}
	return nil
}

// OptionalType marks a parameter that may be omitted.
// A present value must still match Type.
type OptionalType struct {
	Type Type
}

func (t *OptionalType) Name() string { return t.Type.Name() + "?" }

func (t *OptionalType) Validate(value any) error {
	return t.Type.Validate(value)
}

// CustomType delegates validation to a user-provided function.
type CustomType struct {
	TypeName  string
	Validator func(any) error
}

func (t *CustomType) Name() string { return t.TypeName }

func (t *CustomType) Validate(value any) error {
	if t.Validator == nil {
		return fmt.Errorf("custom type %q has no validator", t.TypeName)
	}
	return t.Validator(value)
}

// String returns a Type validating strings.
func String() Type { return &StringType{} }

// Int returns a Type validating integers.
func Int() Type { return &IntType{} }

// Float returns a Type validating numbers.
func Float() Type { return &FloatType{} }

// Bool returns a Type validating booleans.
func Bool() Type { return &BoolType{} }

// Any returns a Type accepting any non-nil value.
func Any() Type { return &AnyType{} }

// Map returns a Type validating string keyed maps.
func Map() Type { return &MapType{} }

// Slice returns a Type validating slices of elem.
func Slice(elem Type) Type { return &SliceType{ElementType: elem} }

// Optional wraps t so that a missing parameter is not an error.
func Optional(t Type) Type { return &OptionalType{Type: t} }

// Custom returns a Type validated by fn.
func Custom(name string, fn func(any) error) Type {
	return &CustomType{TypeName: name, Validator: fn}
}

// ParseType converts a type string into a Type.
// Supported: "string", "int", "float", "bool", "any", "map", "[elem]" and a "?"
// suffix for optional parameters, e.g. "[string]?".
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)
	if typeStr == "" {
		return nil, fmt.Errorf("empty type")
	}

	if base, ok := strings.CutSuffix(typeStr, "?"); ok {
		t, err := ParseType(base)
		if err != nil {
			return nil, err
		}
		return Optional(t), nil
	}

	if strings.HasPrefix(typeStr, "[") && strings.HasSuffix(typeStr, "]") {
		elem, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid slice element type: %w", err)
		}
		return Slice(elem), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "any":
		return Any(), nil
	case "map":
		return Map(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of parameter names to type strings into a Schema.
// Example: {"text": "string", "limit": "int?"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
