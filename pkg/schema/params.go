package schema

import "sort"

// Schema maps parameter names to their expected types.
// Example: {"text": String(), "values": Map(), "limit": Optional(Int())}
type Schema map[string]Type

// Validate checks params against the schema and reports every failure at once.
// Required parameters must be present, optional ones are checked only when given and
// parameters the schema does not know are rejected. A nil schema accepts anything.
func Validate(s Schema, params map[string]any) error {
	if s == nil {
		return nil
	}

	var errs []error
	for _, key := range sortedKeys(s) {
		t := s[key]
		value, exists := params[key]
		if !exists {
			if _, optional := t.(*OptionalType); !optional {
				errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			}
			continue
		}
		if err := t.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	for _, key := range sortedKeys(params) {
		if _, known := s[key]; !known {
			errs = append(errs, &ValidationError{Key: key, Reason: "not defined in schema"})
		}
	}

	return aggregate(errs)
}

// Names returns the parameter names of the schema in sorted order.
func (s Schema) Names() []string {
	return sortedKeys(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
