// Package instantiate turns a declared (value_type, value) pair into a
// concrete runtime value.
//
// Primitive tags (str, int, float, bool) are converted with strict strconv
// parsers. Any other tag must name a constructor registered on the Registry;
// the declared value is then handed to that constructor as keyword arguments.
// Registration is an init-time activity: the host application registers its
// types before any experiment configuration is loaded.
package instantiate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Constructor builds an extension value from keyword arguments.
type Constructor func(args map[string]any) (any, error)

// Registry maps extension type names to constructors.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Constructor)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by Instantiate.
func Default() *Registry { return defaultRegistry }

// Register adds a constructor to the process-wide registry.
func Register(name string, c Constructor) error { return defaultRegistry.Register(name, c) }

// MustRegister is like Register but panics on error.
func MustRegister(name string, c Constructor) {
	if err := Register(name, c); err != nil {
		panic(err)
	}
}

// Instantiate converts value according to valueType using the process-wide
// registry.
func Instantiate(valueType string, value any) (any, error) {
	return defaultRegistry.Instantiate(valueType, value)
}

// Register adds a constructor under name. Names must be non-empty, must not
// collide with a primitive tag and may only be registered once.
func (r *Registry) Register(name string, c Constructor) error {
	if name == "" {
		return errors.New("registering extension type: empty name")
	}
	if IsPrimitive(name) {
		return fmt.Errorf("registering extension type %q: name is reserved for a primitive", name)
	}
	if c == nil {
		return fmt.Errorf("registering extension type %q: nil constructor", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[name]; exists {
		return fmt.Errorf("registering extension type %q: already registered", name)
	}
	r.types[name] = c
	return nil
}

// Lookup returns the constructor registered under name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.types[name]
	return c, ok
}

// Names returns the registered extension type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instantiate converts value according to valueType. Constructor errors are
// returned unchanged.
func (r *Registry) Instantiate(valueType string, value any) (any, error) {
	if parse, ok := primitives[valueType]; ok {
		v, err := parse(value)
		if err != nil {
			return nil, &TypeCoercionError{ValueType: valueType, Value: value, Err: err}
		}
		return v, nil
	}

	c, ok := r.Lookup(valueType)
	if !ok {
		return nil, &UnsupportedValueTypeError{ValueType: valueType}
	}

	var args map[string]any
	switch v := value.(type) {
	case nil:
	case map[string]any:
		args = cloneArgs(v)
	default:
		return nil, &TypeCoercionError{
			ValueType: valueType,
			Value:     value,
			Err:       fmt.Errorf("constructor arguments must be a mapping, got %T", value),
		}
	}
	return c(args)
}

// cloneArgs deep copies nested maps and slices so a constructor cannot
// mutate the declared value it was built from.
func cloneArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneArgs(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// RegisterStruct registers a constructor on the process-wide registry that
// decodes the keyword arguments into a T. Unknown argument names are
// rejected and `validate` struct tags on T are enforced.
func RegisterStruct[T any](name string) error {
	return defaultRegistry.Register(name, StructConstructor[T]())
}

// StructConstructor returns a Constructor producing values of type T.
func StructConstructor[T any]() Constructor {
	return func(args map[string]any) (any, error) {
		var out T
		if args == nil {
			args = map[string]any{}
		}
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encoding constructor arguments: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&out); err != nil {
			return nil, fmt.Errorf("decoding constructor arguments into %T: %w", out, err)
		}
		if err := validateStruct(out); err != nil {
			return nil, fmt.Errorf("validating %T: %w", out, err)
		}
		return out, nil
	}
}

// validateStruct only applies to struct kinds; validator rejects anything
// else with InvalidValidationError.
func validateStruct(v any) error {
	err := structValidator.Struct(v)
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil
	}
	return err
}
