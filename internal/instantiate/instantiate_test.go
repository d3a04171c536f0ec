package instantiate

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInstantiatePrimitives(t *testing.T) {
	tests := []struct {
		name      string
		valueType string
		value     any
		want      any
	}{
		{"str passthrough", TypeStr, "hello", "hello"},
		{"str from int", TypeStr, 42, "42"},
		{"str from float", TypeStr, 0.5, "0.5"},
		{"str from bool", TypeStr, true, "true"},
		{"int from string", TypeInt, "42", 42},
		{"int from padded string", TypeInt, " -7 ", -7},
		{"int from int", TypeInt, 3, 3},
		{"int from int64", TypeInt, int64(9), 9},
		{"int from integral float", TypeInt, float64(12), 12},
		{"int from json number", TypeInt, json.Number("5"), 5},
		{"int from large json number", TypeInt, json.Number("9007199254740993"), 9007199254740993},
		{"int from integral json number", TypeInt, json.Number("12.0"), 12},
		{"int from int8", TypeInt, int8(-8), -8},
		{"int from uint16", TypeInt, uint16(16), 16},
		{"int from uint32", TypeInt, uint32(32), 32},
		{"str from uint8", TypeStr, uint8(200), "200"},
		{"str from int16", TypeStr, int16(-3), "-3"},
		{"float from uint8", TypeFloat, uint8(4), 4.0},
		{"float from int16", TypeFloat, int16(-2), -2.0},
		{"float from string", TypeFloat, "0.7", 0.7},
		{"float from int", TypeFloat, 2, 2.0},
		{"float from json number", TypeFloat, json.Number("1.25"), 1.25},
		{"bool from string", TypeBool, "true", true},
		{"bool from capitalized string", TypeBool, "False", false},
		{"bool from numeric string", TypeBool, "1", true},
		{"bool passthrough", TypeBool, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Instantiate(tt.valueType, tt.value)
			if err != nil {
				t.Fatalf("Instantiate(%q, %#v) error: %v", tt.valueType, tt.value, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Instantiate(%q, %#v) mismatch (-want +got):\n%s", tt.valueType, tt.value, diff)
			}
		})
	}
}

func TestInstantiateCoercionFailures(t *testing.T) {
	tests := []struct {
		name      string
		valueType string
		value     any
	}{
		{"int from word", TypeInt, "not-a-number"},
		{"int from abc", TypeInt, "abc"},
		{"int from fractional float", TypeInt, 3.7},
		{"int from fractional string", TypeInt, "3.7"},
		{"int from bool", TypeInt, true},
		{"float from word", TypeFloat, "fast"},
		{"float from bool", TypeFloat, false},
		{"bool from word", TypeBool, "yes please"},
		{"bool from int", TypeBool, 1},
		{"str from map", TypeStr, map[string]any{"a": 1}},
		{"str from nil", TypeStr, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Instantiate(tt.valueType, tt.value)
			if err == nil {
				t.Fatalf("Instantiate(%q, %#v) expected error", tt.valueType, tt.value)
			}
			var coercion *TypeCoercionError
			if !errors.As(err, &coercion) {
				t.Fatalf("expected *TypeCoercionError, got %T: %v", err, err)
			}
			if coercion.ValueType != tt.valueType {
				t.Errorf("ValueType = %q, want %q", coercion.ValueType, tt.valueType)
			}
			if !errors.Is(err, ErrTypeCoercion) {
				t.Error("expected errors.Is(err, ErrTypeCoercion)")
			}
		})
	}
}

func TestInstantiateStrRejectsOnlyComposites(t *testing.T) {
	_, err := Instantiate(TypeStr, []any{1, 2})
	if !errors.Is(err, errComposite) {
		t.Errorf("slice: expected composite error, got %v", err)
	}

	_, err = Instantiate(TypeStr, make(chan int))
	if err == nil || errors.Is(err, errComposite) {
		t.Errorf("chan: expected a non-composite coercion error, got %v", err)
	}
}

func TestInstantiateUnsupported(t *testing.T) {
	_, err := Instantiate("UnregisteredType", map[string]any{"a": 1})
	if err == nil {
		t.Fatal("expected error for unregistered type")
	}

	var unsupported *UnsupportedValueTypeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *UnsupportedValueTypeError, got %T", err)
	}
	if unsupported.ValueType != "UnregisteredType" {
		t.Errorf("ValueType = %q, want UnregisteredType", unsupported.ValueType)
	}
	if !strings.Contains(err.Error(), "UnregisteredType") {
		t.Errorf("error %q does not name the value_type", err)
	}
	if !errors.Is(err, ErrUnsupportedValueType) {
		t.Error("expected errors.Is(err, ErrUnsupportedValueType)")
	}
}

type foo struct {
	A int
}

func TestRegistryConstructor(t *testing.T) {
	r := NewRegistry()
	var gotArgs map[string]any
	err := r.Register("Foo", func(args map[string]any) (any, error) {
		gotArgs = args
		a, _ := args["a"].(int)
		return foo{A: a}, nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := r.Instantiate("Foo", map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if got != (foo{A: 1}) {
		t.Errorf("got %#v, want foo{A: 1}", got)
	}
	if diff := cmp.Diff(map[string]any{"a": 1}, gotArgs); diff != "" {
		t.Errorf("constructor args mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryConstructorCannotMutateDeclaredValue(t *testing.T) {
	r := NewRegistry()
	err := r.Register("Greedy", func(args map[string]any) (any, error) {
		args["a"] = 99
		args["nested"].(map[string]any)["b"] = "changed"
		args["list"].([]any)[0] = "changed"
		delete(args, "c")
		return len(args), nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	declared := map[string]any{
		"a":      1,
		"c":      true,
		"nested": map[string]any{"b": "initial"},
		"list":   []any{"first"},
	}
	if _, err := r.Instantiate("Greedy", declared); err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	want := map[string]any{
		"a":      1,
		"c":      true,
		"nested": map[string]any{"b": "initial"},
		"list":   []any{"first"},
	}
	if diff := cmp.Diff(want, declared); diff != "" {
		t.Errorf("declared value changed (-want +got):\n%s", diff)
	}
}

func TestRegistryConstructorErrorPropagates(t *testing.T) {
	r := NewRegistry()
	sentinel := errors.New("bad arguments")
	r.Register("Broken", func(map[string]any) (any, error) { return nil, sentinel })

	_, err := r.Instantiate("Broken", map[string]any{})
	if err != sentinel {
		t.Errorf("expected constructor error unchanged, got %v", err)
	}
}

func TestRegistryRejectsNonMappingArgs(t *testing.T) {
	r := NewRegistry()
	r.Register("Foo", func(map[string]any) (any, error) { return foo{}, nil })

	_, err := r.Instantiate("Foo", "a=1")
	if !errors.Is(err, ErrTypeCoercion) {
		t.Errorf("expected type coercion error, got %v", err)
	}

	if _, err := r.Instantiate("Foo", nil); err != nil {
		t.Errorf("nil arguments should invoke constructor with no args: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctor := func(map[string]any) (any, error) { return nil, nil }

	tests := []struct {
		name string
		reg  string
		c    Constructor
	}{
		{"empty name", "", ctor},
		{"primitive name", TypeInt, ctor},
		{"nil constructor", "Foo", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewRegistry().Register(tt.reg, tt.c); err == nil {
				t.Error("expected error")
			}
		})
	}

	r := NewRegistry()
	if err := r.Register("Foo", ctor); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register("Foo", ctor); err == nil {
		t.Error("expected error on duplicate registration")
	}
	if diff := cmp.Diff([]string{"Foo"}, r.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

type promptTemplate struct {
	Template    string  `json:"template" validate:"required"`
	Temperature float64 `json:"temperature" validate:"min=0,max=2"`
}

func TestStructConstructor(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("PromptTemplate", StructConstructor[promptTemplate]()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := r.Instantiate("PromptTemplate", map[string]any{
		"template":    "Answer: {question}",
		"temperature": 0.2,
	})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	want := promptTemplate{Template: "Answer: {question}", Temperature: 0.2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name string
		args map[string]any
	}{
		{"unknown argument", map[string]any{"template": "x", "top_k": 3}},
		{"missing required", map[string]any{"temperature": 0.5}},
		{"out of range", map[string]any{"template": "x", "temperature": 3.0}},
		{"wrong type", map[string]any{"template": 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Instantiate("PromptTemplate", tt.args); err == nil {
				t.Error("expected constructor error")
			}
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	if _, ok := Default().Lookup("instantiate_test.PromptTemplate"); !ok {
		if err := RegisterStruct[promptTemplate]("instantiate_test.PromptTemplate"); err != nil {
			t.Fatalf("RegisterStruct: %v", err)
		}
	}
	if _, ok := Default().Lookup("instantiate_test.PromptTemplate"); !ok {
		t.Fatal("expected type in default registry")
	}

	got, err := Instantiate("instantiate_test.PromptTemplate", map[string]any{"template": "t"})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if got.(promptTemplate).Template != "t" {
		t.Errorf("got %#v", got)
	}
}
