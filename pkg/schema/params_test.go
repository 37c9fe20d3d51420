package schema

import "testing"

func TestValidate_Success(t *testing.T) {
	s := Schema{
		"text":   String(),
		"values": Map(),
		"limit":  Optional(Int()),
	}
	params := map[string]any{
		"text":   "done",
		"values": map[string]any{"status": "shipped"},
	}
	if err := Validate(s, params); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_ReportsEveryFailure(t *testing.T) {
	s := Schema{
		"text":  String(),
		"limit": Optional(Int()),
	}
	params := map[string]any{
		"limit": "ten",
		"extra": true,
	}

	err := Validate(s, params)
	errs := ValidationErrors(err)
	if len(errs) != 3 {
		t.Fatalf("Validate() = %v, want 3 errors", err)
	}

	// Schema keys first in sorted order, then unknown keys.
	wantKeys := []string{"limit", "text", "extra"}
	for i, want := range wantKeys {
		ve, ok := errs[i].(*ValidationError)
		if !ok {
			t.Fatalf("error %d should be *ValidationError, got %T", i, errs[i])
		}
		if ve.Key != want {
			t.Errorf("error %d key = %q, want %q", i, ve.Key, want)
		}
	}
	if errs[1].(*ValidationError).Reason != "required" {
		t.Errorf("missing text should be reported as required, got %q", errs[1].(*ValidationError).Reason)
	}
}

func TestValidate_NilSchemaAcceptsAnything(t *testing.T) {
	if err := Validate(nil, map[string]any{"x": 1}); err != nil {
		t.Errorf("Validate(nil) error = %v", err)
	}
}

func TestValidate_EmptySchemaRejectsParams(t *testing.T) {
	if err := Validate(Schema{}, map[string]any{"x": 1}); err == nil {
		t.Error("an empty schema declares that no parameters are accepted")
	}
	if err := Validate(Schema{}, nil); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestSchemaNames(t *testing.T) {
	s := Schema{"b": String(), "a": Int()}
	names := s.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v, want [a b]", names)
	}
}

func TestAggregateError_String(t *testing.T) {
	single := &AggregateError{Errors: []error{&ValidationError{Key: "a", Reason: "required"}}}
	if got := single.Error(); got != `field "a": required` {
		t.Errorf("Error() = %q", got)
	}

	multi := &AggregateError{Errors: []error{
		&ValidationError{Key: "a", Reason: "required"},
		&ValidationError{Key: "b", Reason: "expected int, got string", Value: "x"},
	}}
	want := "2 validation errors:\n  1. field \"a\": required\n  2. field \"b\": expected int, got string (got string)\n"
	if got := multi.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
