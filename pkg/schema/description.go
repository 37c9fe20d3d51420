package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report the document keys, not the Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Parse reads a description from a YAML or JSON document.
func Parse(data []byte) (domain.ActionDescription, error) {
	var desc domain.ActionDescription
	if len(bytes.TrimSpace(data)) == 0 {
		return desc, fmt.Errorf("%w: empty document", domain.ErrInvalidDescription)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&desc); err != nil {
		return desc, fmt.Errorf("%w: %v", domain.ErrInvalidDescription, err)
	}
	return desc, nil
}

// ParseFile reads a description from the file at path.
func ParseFile(path string) (domain.ActionDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ActionDescription{}, fmt.Errorf("failed to read description %s: %w", path, err)
	}
	desc, err := Parse(data)
	if err != nil {
		return desc, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

// Marshal writes desc as a YAML document.
func Marshal(desc domain.ActionDescription) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(desc); err != nil {
		return nil, fmt.Errorf("failed to marshal description %q: %w", desc.Alias, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeDescription converts a generic value, typically a map decoded from JSON or
// YAML, into a description. Numbers given as strings are accepted. Unknown keys are not.
func DecodeDescription(raw any) (domain.ActionDescription, error) {
	var desc domain.ActionDescription
	if raw == nil {
		return desc, fmt.Errorf("%w: nil description", domain.ErrInvalidDescription)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &desc,
	})
	if err != nil {
		return desc, err
	}
	if err := dec.Decode(raw); err != nil {
		return desc, fmt.Errorf("%w: %v", domain.ErrInvalidDescription, err)
	}
	return desc, nil
}

// ValidateDescription checks desc and every nested description before anything is
// instantiated. All failures are reported together as an *AggregateError.
func ValidateDescription(desc domain.ActionDescription) error {
	var errs []error

	if err := structValidator.Struct(desc); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, &ValidationError{
				Key:    fieldPath(fe.Namespace()),
				Reason: ruleReason(fe),
				Value:  fe.Value(),
			})
		}
	}

	errs = append(errs, checkDescription("", desc)...)
	return aggregate(errs)
}

// checkDescription enforces the rules struct tags cannot express.
func checkDescription(path string, desc domain.ActionDescription) []error {
	var errs []error
	key := func(field string) string {
		if path == "" {
			return field
		}
		return path + "." + field
	}

	if desc.InputRowsMin != nil && desc.InputRowsMax != nil &&
		*desc.InputRowsMax != domain.UnlimitedRows && *desc.InputRowsMin > *desc.InputRowsMax {
		errs = append(errs, &ValidationError{
			Key:    key("input_rows_min"),
			Reason: fmt.Sprintf("must not exceed input_rows_max (%d)", *desc.InputRowsMax),
			Value:  *desc.InputRowsMin,
		})
	}

	if !desc.IsChain() {
		if len(desc.Actions) > 0 {
			errs = append(errs, &ValidationError{
				Key:    key("actions"),
				Reason: fmt.Sprintf("only %s descriptions can contain actions", domain.AliasChain),
			})
		}
		return errs
	}

	n := len(desc.Actions)
	if n == 0 {
		errs = append(errs, &ValidationError{Key: key("actions"), Reason: "a chain needs at least one action"})
	}
	if desc.UseResultOfAction != nil && *desc.UseResultOfAction >= n && n > 0 {
		errs = append(errs, &ValidationError{
			Key:    key("use_result_of_action"),
			Reason: fmt.Sprintf("out of range for %d actions", n),
			Value:  *desc.UseResultOfAction,
		})
	}
	if desc.UseInputDataOfAction != nil && *desc.UseInputDataOfAction >= n && n > 0 {
		errs = append(errs, &ValidationError{
			Key:    key("use_input_data_of_action"),
			Reason: fmt.Sprintf("out of range for %d actions", n),
			Value:  *desc.UseInputDataOfAction,
		})
	}

	for i, child := range desc.Actions {
		errs = append(errs, checkDescription(fmt.Sprintf("%s[%d]", key("actions"), i), child)...)
	}
	return errs
}

// fieldPath drops the root struct name: "ActionDescription.actions[0].alias" -> "actions[0].alias".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func ruleReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed rule '%s' (%s)", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed rule '%s'", fe.Tag())
	}
}
