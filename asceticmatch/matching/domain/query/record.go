package query

import (
	"reflect"
	"regexp"
	"strings"
	"time"
)

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the value of a field the record does not have at all,
// as opposed to nil for a field that is present but null.
var Undefined any = undefined{}

func isAbsent(v any) bool {
	return v == nil || v == Undefined
}

var (
	timeType   = reflect.TypeOf(time.Time{})
	regexpType = reflect.TypeOf(regexp.Regexp{})
)

// isRecord reports whether fields of v can be looked up: string-keyed maps
// and structs, except timestamps and patterns.
func isRecord(v any) bool {
	if isAbsent(v) {
		return false
	}
	if _, ok := v.(map[string]any); ok {
		return true
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		if reflect.ValueOf(v).IsNil() {
			return false
		}
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Map:
		return t.Key().Kind() == reflect.String
	case reflect.Struct:
		return t != timeType && t != regexpType
	}
	return false
}

// lookupField returns the value of field in record, Undefined when the record
// has no such field and nil when the field holds a nil value.
func lookupField(record any, field string) any {
	if m, ok := record.(map[string]any); ok {
		v, found := m[field]
		if !found {
			return Undefined
		}
		return nilIfEmpty(v)
	}
	if !isRecord(record) {
		return Undefined
	}
	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() == reflect.Map {
		key := reflect.ValueOf(field).Convert(v.Type().Key())
		item := v.MapIndex(key)
		if !item.IsValid() {
			return Undefined
		}
		return nilIfEmpty(item.Interface())
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("json")
		if tag != "" {
			name, _, _ := strings.Cut(tag, ",")
			if name == field {
				return nilIfEmpty(v.Field(i).Interface())
			}
		}
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("json") == "-" {
			continue
		}
		if sf.Name == field {
			return nilIfEmpty(v.Field(i).Interface())
		}
	}
	return Undefined
}

func nilIfEmpty(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}
