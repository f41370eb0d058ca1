package query

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/operators"
)

const (
	rootPath       = "(root)"
	maxArrayRender = 3
	isoLayout      = "2006-01-02T15:04:05.000Z"
)

// Description is a textual expectation or observation, e.g. "object" or
// ">= 10". It is rendered without quotes.
type Description string

func (d Description) String() string {
	return string(d)
}

// Failure is the first condition a record did not satisfy.
type Failure struct {
	Path     string
	Operator string
	Expected any
	Actual   any
	Message  string
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return FormatMessage(*f)
	}
	return f.Message
}

// FormatMessage renders "<path>: <operator> expected <expected>, got <actual>".
func FormatMessage(f Failure) string {
	return fmt.Sprintf("%s: %s expected %s, got %s",
		f.Path, f.Operator, RenderValue(f.Expected), RenderValue(f.Actual))
}

// RenderValue renders a value compactly for failure messages.
func RenderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case undefined:
		return "undefined"
	case Description:
		return string(val)
	case time.Time:
		return val.UTC().Format(isoLayout)
	case *time.Time:
		if val == nil {
			return "null"
		}
		return val.UTC().Format(isoLayout)
	case *regexp.Regexp:
		return "/" + val.String() + "/"
	case string:
		return strconv.Quote(val)
	case float64:
		return renderFloat(val)
	case float32:
		return renderFloat(float64(val))
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		if c := operators.Canonical(v); reflect.TypeOf(c) != rv.Type() {
			return RenderValue(c)
		}
	case reflect.String:
		return strconv.Quote(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "null"
		}
		return renderArray(rv)
	}
	if isRecord(v) {
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(v)
}

func renderArray(rv reflect.Value) string {
	n := rv.Len()
	shown := n
	if shown > maxArrayRender {
		shown = maxArrayRender
	}
	parts := make([]string, 0, shown+1)
	for i := 0; i < shown; i++ {
		parts = append(parts, RenderValue(rv.Index(i).Interface()))
	}
	if n > maxArrayRender {
		parts = append(parts, "...")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func renderFloat(f float64) string {
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func displayPath(path string) string {
	if path == "" {
		return rootPath
	}
	return path
}

func fieldPath(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "." + field
}

func logicalPath(parent, key string, index int) string {
	return fieldPath(parent, fmt.Sprintf("%s[%d]", key, index))
}

// kindOf names the kind of a value the way messages refer to it.
func kindOf(v any) Description {
	if operators.IsTime(v) {
		return "date"
	}
	if nilIfEmpty(v) == nil {
		return "null"
	}
	switch v.(type) {
	case undefined:
		return "undefined"
	case *regexp.Regexp:
		return "pattern"
	case Predicate:
		return "function"
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if c := operators.Canonical(v); reflect.TypeOf(c) != rv.Type() {
			return kindOf(c)
		}
	}
	switch rv.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Func:
		return "function"
	}
	if isRecord(v) {
		return "object"
	}
	return Description(rv.Kind().String())
}
