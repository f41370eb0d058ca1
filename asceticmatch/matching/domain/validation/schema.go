package validation

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FieldType is the kind of value a record field holds.
type FieldType string

const (
	TypeAny    FieldType = "any"
	TypeNumber FieldType = "number"
	TypeString FieldType = "string"
	TypeBool   FieldType = "boolean"
	TypeTime   FieldType = "date"
	TypeArray  FieldType = "array"
	TypeObject FieldType = "object"
)

var ErrUnknownFieldType = errors.New("unknown field type")

func (t FieldType) Valid() bool {
	switch t {
	case TypeAny, TypeNumber, TypeString, TypeBool, TypeTime, TypeArray, TypeObject:
		return true
	}
	return false
}

// Schema maps dotted field paths to their types, e.g. "album.year": TypeNumber.
// Fields missing from a strict schema are reported; otherwise they are
// treated as TypeAny.
type Schema struct {
	Fields map[string]FieldType `yaml:"fields"`
	Strict bool                 `yaml:"strict"`
}

func (s Schema) typeOf(path string) (FieldType, bool) {
	t, ok := s.Fields[path]
	if !ok {
		return TypeAny, false
	}
	return t, true
}

// ParseSchema reads a schema document:
//
//	strict: true
//	fields:
//	  plays: number
//	  album: object
//	  album.year: number
func ParseSchema(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, errors.Wrap(err, "unable to decode schema")
	}
	for path, t := range s.Fields {
		if !t.Valid() {
			return Schema{}, errors.Wrapf(ErrUnknownFieldType, "field %q: %q", path, t)
		}
	}
	return s, nil
}
