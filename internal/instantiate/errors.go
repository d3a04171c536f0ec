package instantiate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedValueType is matched by UnsupportedValueTypeError.
	ErrUnsupportedValueType = errors.New("unsupported value_type")

	// ErrTypeCoercion is matched by TypeCoercionError.
	ErrTypeCoercion = errors.New("type coercion failed")
)

// UnsupportedValueTypeError reports a value_type that is neither a primitive
// tag nor a registered extension type.
type UnsupportedValueTypeError struct {
	ValueType string
}

func (e *UnsupportedValueTypeError) Error() string {
	return fmt.Sprintf("unsupported value_type: %q", e.ValueType)
}

func (e *UnsupportedValueTypeError) Is(target error) bool {
	return target == ErrUnsupportedValueType
}

// TypeCoercionError reports a declared value that could not be converted to
// the requested type.
type TypeCoercionError struct {
	ValueType string
	Value     any
	Err       error
}

func (e *TypeCoercionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %#v to %s: %v", e.Value, e.ValueType, e.Err)
	}
	return fmt.Sprintf("cannot convert %#v to %s", e.Value, e.ValueType)
}

func (e *TypeCoercionError) Unwrap() error { return e.Err }

func (e *TypeCoercionError) Is(target error) bool {
	return target == ErrTypeCoercion
}
