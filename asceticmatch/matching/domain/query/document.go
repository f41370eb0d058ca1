package query

import (
	"bytes"
	"io"
	"reflect"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const timestampTag = "!!timestamp"

// mapping is a decoded mapping that keeps its key order.
type mapping []mappingEntry

type mappingEntry struct {
	Key   string
	Value any
}

func (m mapping) plain() map[string]any {
	result := make(map[string]any, len(m))
	for _, e := range m {
		result[e.Key] = plain(e.Value)
	}
	return result
}

// plain converts decoded mappings back to map[string]any, recursively.
func plain(v any) any {
	switch t := v.(type) {
	case mapping:
		return t.plain()
	case []any:
		result := make([]any, len(t))
		for i, item := range t {
			result[i] = plain(item)
		}
		return result
	}
	return v
}

// asMapping accepts ordered mappings and Go maps with string keys of any
// value type; keys of a Go map are enumerated in sorted order.
func asMapping(v any) (mapping, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case mapping:
		return t, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		result := make(mapping, len(keys))
		for i, k := range keys {
			result[i] = mappingEntry{Key: k, Value: t[k]}
		}
		return result, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	result := make(mapping, len(keys))
	for i, k := range keys {
		result[i] = mappingEntry{Key: k.String(), Value: rv.MapIndex(k).Interface()}
	}
	return result, true
}

func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil

	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeNode(n.Content[0])

	case yaml.MappingNode:
		m := make(mapping, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, errors.Wrapf(err, "line %d: mapping key", n.Content[i].Line)
			}
			value, err := decodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m = append(m, mappingEntry{Key: key, Value: value})
		}
		return m, nil

	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := decodeNode(item)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil

	case yaml.AliasNode:
		return decodeNode(n.Alias)

	case yaml.ScalarNode:
		if n.ShortTag() == timestampTag {
			var t time.Time
			if err := n.Decode(&t); err != nil {
				return nil, errors.Wrapf(err, "line %d: timestamp", n.Line)
			}
			return t, nil
		}
		var value any
		if err := n.Decode(&value); err != nil {
			return nil, errors.Wrapf(err, "line %d: scalar", n.Line)
		}
		return value, nil
	}
	return nil, errors.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
}

// DecodeDocument decodes one YAML or JSON document into plain Go values.
// Unquoted YAML timestamps become time.Time.
func DecodeDocument(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unable to decode document")
	}
	value, err := decodeNode(&doc)
	if err != nil {
		return nil, err
	}
	return plain(value), nil
}

// DecodeDocuments decodes a YAML stream of "---" separated documents.
func DecodeDocuments(r io.Reader) ([]any, error) {
	decoder := yaml.NewDecoder(r)
	var result []any
	for {
		var doc yaml.Node
		err := decoder.Decode(&doc)
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "unable to decode document %d", len(result)+1)
		}
		value, err := decodeNode(&doc)
		if err != nil {
			return nil, errors.Wrapf(err, "document %d", len(result)+1)
		}
		result = append(result, plain(value))
	}
}

// DecodeLines decodes newline-delimited JSON, skipping blank lines.
func DecodeLines(data []byte) ([]any, error) {
	var result []any
	for i, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		value, err := DecodeDocument(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i+1)
		}
		result = append(result, value)
	}
	return result, nil
}
