package query

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompiler struct {
	sources []string
}

func (c *stubCompiler) Compile(source string) (Predicate, error) {
	c.sources = append(c.sources, source)
	if source == "broken" {
		return nil, errors.New("syntax error")
	}
	return Func(func(v any) bool { return v != nil }), nil
}

func TestQueryParserClassification(t *testing.T) {
	parser := NewQueryParser()

	t.Run("literal", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{"genre": "jazz"})
		require.NoError(t, err)
		require.Len(t, q.Fields, 1)
		assert.Equal(t, "genre", q.Fields[0].Field)
		assert.Equal(t, KindLiteral, q.Fields[0].Query.Kind())
		assert.Equal(t, Literal{Value: "jazz"}, q.Fields[0].Query)
	})
	t.Run("operator clause", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{"plays": map[string]any{"$gte": 10, "$lt": 20}})
		require.NoError(t, err)
		clause := q.Fields[0].Query.(OperatorClause)
		assert.Equal(t, KindOperators, clause.Kind())
		assert.Equal(t, []OperatorEntry{{Name: OpGte, Operand: 10}, {Name: OpLt, Operand: 20}}, clause.Operators)
	})
	t.Run("unknown keys of an operator clause are dropped", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{"plays": map[string]any{"$gte": 10, "max": 20}})
		require.NoError(t, err)
		assert.Equal(t, []OperatorEntry{{Name: OpGte, Operand: 10}}, q.Fields[0].Query.(OperatorClause).Operators)
	})
	t.Run("nested query", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{"album": map[string]any{"year": 1998}})
		require.NoError(t, err)
		nested := q.Fields[0].Query.(NestedQuery)
		assert.Equal(t, KindNested, nested.Kind())
		assert.Equal(t, "year", nested.Query.Fields[0].Field)
	})
	t.Run("array literal", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{"tags": []string{"a", "b"}})
		require.NoError(t, err)
		assert.Equal(t, ArrayLiteral{Values: []any{"a", "b"}}, q.Fields[0].Query)
	})
	t.Run("time is a literal", func(t *testing.T) {
		now := time.Now()
		q, err := parser.Parse(map[string]any{"at": now})
		require.NoError(t, err)
		assert.Equal(t, Literal{Value: now}, q.Fields[0].Query)
	})
	t.Run("exists false is an operator clause", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{"album": map[string]any{"$exists": false}})
		require.NoError(t, err)
		assert.Equal(t, KindOperators, q.Fields[0].Query.Kind())
	})
	t.Run("typed map with operator keys", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{"plays": map[string]int{"$lt": 20, "$gte": 10}})
		require.NoError(t, err)
		clause := q.Fields[0].Query.(OperatorClause)
		assert.Equal(t, []OperatorEntry{{Name: OpGte, Operand: 10}, {Name: OpLt, Operand: 20}}, clause.Operators)
	})
	t.Run("typed map without operator keys", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{"album": map[Genre]string{"genre": "jazz"}})
		require.NoError(t, err)
		nested := q.Fields[0].Query.(NestedQuery)
		require.Len(t, nested.Query.Fields, 1)
		assert.Equal(t, FieldClause{Field: "genre", Query: Literal{Value: "jazz"}}, nested.Query.Fields[0])
	})
	t.Run("operator keys at query level are skipped", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{"$gte": 1, "genre": "jazz"})
		require.NoError(t, err)
		require.Len(t, q.Fields, 1)
		assert.Equal(t, "genre", q.Fields[0].Field)
	})
}

func TestIsReservedKey(t *testing.T) {
	for _, key := range []string{"$eq", "$fn", "$pattern", "$where", "$and", "$or", "$not"} {
		assert.True(t, IsReservedKey(key), key)
	}
	for _, key := range []string{"genre", "$regex", "and", ""} {
		assert.False(t, IsReservedKey(key), key)
	}
	assert.False(t, IsOperatorKey(KeyAnd))
}

func TestQueryParserLogical(t *testing.T) {
	parser := NewQueryParser()

	t.Run("and or not", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{
			"$and": []any{map[string]any{"a": 1}, map[string]any{"b": 2}},
			"$or":  []map[string]any{{"c": 3}},
			"$not": map[string]any{"d": 4},
		})
		require.NoError(t, err)
		require.NotNil(t, q.And)
		assert.Len(t, q.And.Operands, 2)
		require.NotNil(t, q.Or)
		assert.Len(t, q.Or.Operands, 1)
		require.NotNil(t, q.Not)
		assert.Equal(t, "d", q.Not.Operand.Fields[0].Field)
		assert.Empty(t, q.Fields)
	})
	t.Run("empty and keeps the key", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{"$and": []any{}, "$or": []any{}})
		require.NoError(t, err)
		require.NotNil(t, q.And)
		require.NotNil(t, q.Or)
		assert.Empty(t, q.And.Operands)
		assert.Empty(t, q.Or.Operands)
	})
	t.Run("and must be a list", func(t *testing.T) {
		_, err := parser.Parse(map[string]any{"$and": map[string]any{"a": 1}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidQuery))
	})
	t.Run("or element must be a mapping", func(t *testing.T) {
		_, err := parser.Parse(map[string]any{"$or": []any{1}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidQuery))
		assert.Contains(t, err.Error(), "$or[0]")
	})
	t.Run("not must be a mapping", func(t *testing.T) {
		_, err := parser.Parse(map[string]any{"$not": []any{}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidQuery))
	})
	t.Run("error inside a nested query names the field", func(t *testing.T) {
		_, err := parser.Parse(map[string]any{"album": map[string]any{"$or": "x"}})
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "album: "))
	})
	t.Run("nil where is absent", func(t *testing.T) {
		q, err := parser.Parse(map[string]any{"$where": nil})
		require.NoError(t, err)
		assert.True(t, q.IsEmpty())
	})
}

func TestQueryParserOperands(t *testing.T) {
	t.Run("pattern source is compiled", func(t *testing.T) {
		q, err := NewQueryParser().Parse(map[string]any{"title": map[string]any{"$pattern": "^Tear"}})
		require.NoError(t, err)
		operand, ok := q.Fields[0].Query.(OperatorClause).Lookup(OpPattern)
		require.True(t, ok)
		assert.IsType(t, &regexp.Regexp{}, operand)
	})
	t.Run("invalid pattern source is an error", func(t *testing.T) {
		_, err := NewQueryParser().Parse(map[string]any{"title": map[string]any{"$pattern": "("}})
		assert.Error(t, err)
	})
	t.Run("strings stay uncompiled without a compiler", func(t *testing.T) {
		q, err := NewQueryParser().Parse(map[string]any{"plays": map[string]any{"$fn": "value > 1"}})
		require.NoError(t, err)
		operand, _ := q.Fields[0].Query.(OperatorClause).Lookup(OpFn)
		assert.Equal(t, "value > 1", operand)
	})
	t.Run("compiler turns strings into predicates", func(t *testing.T) {
		compiler := &stubCompiler{}
		parser := NewQueryParser(WithPredicateCompiler(compiler))
		q, err := parser.Parse(map[string]any{
			"$where": "record != null",
			"plays":  map[string]any{"$fn": "value > 1"},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"record != null", "value > 1"}, compiler.sources)
		require.NotNil(t, q.Where)
		operand, _ := q.Fields[0].Query.(OperatorClause).Lookup(OpFn)
		_, callable := asPredicate(operand)
		assert.True(t, callable)

		matched, err := BuildMatcher(q).Match(map[string]any{"plays": 2})
		require.NoError(t, err)
		assert.True(t, matched)
	})
	t.Run("compiler error", func(t *testing.T) {
		parser := NewQueryParser(WithPredicateCompiler(&stubCompiler{}))
		_, err := parser.Parse(map[string]any{"$where": "broken"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "syntax error")
	})
	t.Run("functions are kept", func(t *testing.T) {
		q, err := NewQueryParser().Parse(map[string]any{
			"plays": map[string]any{"$fn": func(v any) bool { return true }},
		})
		require.NoError(t, err)
		operand, _ := q.Fields[0].Query.(OperatorClause).Lookup(OpFn)
		_, callable := asPredicate(operand)
		assert.True(t, callable)
	})
}

func TestQueryParserDocument(t *testing.T) {
	parser := NewQueryParser()

	t.Run("key order is preserved", func(t *testing.T) {
		q, err := parser.ParseDocument([]byte(`
title: Teardrop
album:
  year: 1998
  artist: Massive Attack
genre: {$in: [trip-hop, electronic]}
`))
		require.NoError(t, err)
		require.Len(t, q.Fields, 3)
		assert.Equal(t, "title", q.Fields[0].Field)
		assert.Equal(t, "album", q.Fields[1].Field)
		assert.Equal(t, "genre", q.Fields[2].Field)

		nested := q.Fields[1].Query.(NestedQuery).Query
		assert.Equal(t, "year", nested.Fields[0].Field)
		assert.Equal(t, "artist", nested.Fields[1].Field)

		operand, _ := q.Fields[2].Query.(OperatorClause).Lookup(OpIn)
		assert.Equal(t, []any{"trip-hop", "electronic"}, operand)
	})
	t.Run("operator order is preserved", func(t *testing.T) {
		q, err := parser.ParseDocument([]byte(`{"plays": {"$lt": 5, "$gt": 1}}`))
		require.NoError(t, err)
		clause := q.Fields[0].Query.(OperatorClause)
		assert.Equal(t, OpLt, clause.Operators[0].Name)
		assert.Equal(t, OpGt, clause.Operators[1].Name)

		result, err := Explain(q, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "plays: $lt expected 5, got undefined", result.Failure.Message)
	})
	t.Run("timestamps", func(t *testing.T) {
		q, err := parser.ParseDocument([]byte("releasedAt:\n  $gte: 1998-04-20T00:00:00Z\n"))
		require.NoError(t, err)
		operand, _ := q.Fields[0].Query.(OperatorClause).Lookup(OpGte)
		assert.Equal(t, time.Date(1998, 4, 20, 0, 0, 0, 0, time.UTC), operand)

		matched, err := BuildMatcher(q).Match(map[string]any{"releasedAt": time.Date(1998, 4, 21, 0, 0, 0, 0, time.UTC)})
		require.NoError(t, err)
		assert.True(t, matched)
	})
	t.Run("logical lists", func(t *testing.T) {
		q, err := parser.ParseDocument([]byte(`
$or:
  - genre: jazz
  - plays: {$gte: 1000}
`))
		require.NoError(t, err)
		require.NotNil(t, q.Or)
		assert.Len(t, q.Or.Operands, 2)
	})
	t.Run("empty document", func(t *testing.T) {
		q, err := parser.ParseDocument([]byte(""))
		require.NoError(t, err)
		assert.True(t, q.IsEmpty())
	})
	t.Run("not a mapping", func(t *testing.T) {
		_, err := parser.ParseDocument([]byte("- a\n- b\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidQuery))
	})
	t.Run("syntax error", func(t *testing.T) {
		_, err := parser.ParseDocument([]byte("a: [1, 2"))
		assert.Error(t, err)
	})
}

func TestBuilderField(t *testing.T) {
	t.Run("map value is parsed", func(t *testing.T) {
		q := New(Field("plays", map[string]any{"$gte": 1}))
		assert.Equal(t, KindOperators, q.Fields[0].Query.Kind())
	})
	t.Run("query value is nested", func(t *testing.T) {
		q := New(Field("album", New(Field("year", 1998))))
		assert.Equal(t, KindNested, q.Fields[0].Query.Kind())
	})
	t.Run("invalid map panics", func(t *testing.T) {
		assert.Panics(t, func() {
			New(Field("title", map[string]any{"$pattern": "("}))
		})
	})
	t.Run("invalid pattern panics", func(t *testing.T) {
		assert.Panics(t, func() { Pattern("(") })
	})
	t.Run("ops keeps order", func(t *testing.T) {
		clause := Ops(Lt(5), Exists(true), Gt(1))
		assert.Equal(t, []OperatorName{OpLt, OpExists, OpGt}, []OperatorName{
			clause.Operators[0].Name, clause.Operators[1].Name, clause.Operators[2].Name,
		})
	})
}
