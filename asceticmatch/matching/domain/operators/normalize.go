package operators

import (
	"reflect"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// Normalize brings both operands to the representation the registry is keyed by:
// signed integers become int64, unsigned uint64, floats float64, named strings and
// bools their basic type. A numeric pair of different representations is promoted
// to float64. Pointers to basic values and to time.Time are dereferenced.
func Normalize(left, right any) (any, any) {
	left, right = Canonical(left), Canonical(right)
	if !IsNumber(left) || !IsNumber(right) {
		return left, right
	}
	if reflect.TypeOf(left) == reflect.TypeOf(right) {
		return left, right
	}
	return toFloat(left), toFloat(right)
}

// Canonical normalizes a single value. See Normalize.
func Canonical(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		elem := rv.Elem()
		if elem.Type() != timeType && !isBasicKind(elem.Kind()) {
			return v
		}
		rv = elem
		v = elem.Interface()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}

// IsNumber reports whether v is of any Go numeric kind.
func IsNumber(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// IsTime reports whether v is a time.Time or a non-nil pointer to one.
func IsTime(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return true
	case *time.Time:
		return t != nil
	}
	return false
}

func isBasicKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Bool:
		return true
	}
	return false
}

func toFloat(v any) float64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	default:
		return rv.Float()
	}
}
