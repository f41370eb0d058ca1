package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type Genre string

type credits struct {
	Artist   string `json:"artist,omitempty"`
	Producer string
	Secret   string `json:"-"`
	internal string
}

func TestLookupField(t *testing.T) {
	c := credits{Artist: "Massive Attack", Producer: "Neil Davidge", Secret: "x", internal: "y"}

	tests := []struct {
		name     string
		record   any
		field    string
		expected any
	}{
		{"map", map[string]any{"a": 1}, "a", 1},
		{"map missing", map[string]any{"a": 1}, "b", Undefined},
		{"map nil", map[string]any{"a": nil}, "a", nil},
		{"typed map", map[string]int{"a": 1}, "a", 1},
		{"named key map", map[Genre]string{"rock": "loud"}, "rock", "loud"},
		{"json tag", c, "artist", "Massive Attack"},
		{"field name", c, "Producer", "Neil Davidge"},
		{"ignored field", c, "Secret", Undefined},
		{"unexported field", c, "internal", Undefined},
		{"struct pointer", &c, "artist", "Massive Attack"},
		{"nil record", nil, "a", Undefined},
		{"scalar record", 5, "a", Undefined},
		{"nil slice value", map[string]any{"a": []int(nil)}, "a", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, lookupField(tt.record, tt.field))
		})
	}
}

func TestMatcher_NamedTypes(t *testing.T) {
	record := map[string]any{"genre": Genre("rock"), "plays": int32(12)}

	matched, err := BuildMatcher(New(
		Field("genre", "rock"),
		Field("plays", Ops(Eq(12), Gt(uint8(3)), In(12.0))),
	)).Match(record)
	assert.NoError(t, err)
	assert.True(t, matched)

	matched, err = BuildMatcher(New(Field("genre", Pattern("^ro")))).Match(record)
	assert.NoError(t, err)
	assert.True(t, matched)
}
