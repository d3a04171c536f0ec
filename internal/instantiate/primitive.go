package instantiate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Primitive value_type tags.
const (
	TypeStr   = "str"
	TypeInt   = "int"
	TypeFloat = "float"
	TypeBool  = "bool"
)

type parseFunc func(value any) (any, error)

// primitives is the closed set of built-in tags. Extension types can never
// shadow these.
var primitives = map[string]parseFunc{
	TypeStr:   parseStr,
	TypeInt:   parseInt,
	TypeFloat: parseFloat,
	TypeBool:  parseBool,
}

var errComposite = errors.New("composite values are not supported")

// IsPrimitive reports whether valueType is one of the built-in tags.
func IsPrimitive(valueType string) bool {
	_, ok := primitives[valueType]
	return ok
}

func parseStr(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		return v.String(), nil
	case nil:
		return nil, errors.New("value is missing")
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return nil, errComposite
	default:
		return nil, fmt.Errorf("unexpected %T", value)
	}
}

func parseInt(value any) (any, error) {
	switch v := value.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 0)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	case json.Number:
		if n, err := strconv.ParseInt(v.String(), 10, 0); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return floatToInt(f)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n > math.MaxInt || n < math.MinInt {
			return nil, strconv.ErrRange
		}
		return int(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := rv.Uint()
		if n > math.MaxInt {
			return nil, strconv.ErrRange
		}
		return int(n), nil
	case reflect.Float32, reflect.Float64:
		return floatToInt(rv.Float())
	default:
		return nil, fmt.Errorf("unexpected %T", value)
	}
}

// floatToInt accepts only integral values; JSON decodes every number as
// float64.
func floatToInt(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, errors.New("not an integral number")
	}
	if f >= 1<<63 || f < -(1<<63) {
		return nil, strconv.ErrRange
	}
	return int(f), nil
}

func parseFloat(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case json.Number:
		return v.Float64()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	default:
		return nil, fmt.Errorf("unexpected %T", value)
	}
}

func parseBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return nil, fmt.Errorf("unexpected %T", value)
	}
}
