package query

import (
	"fmt"
	"reflect"
	"regexp"
	"time"
)

type FieldQueryKind int

const (
	KindLiteral FieldQueryKind = iota
	KindOperators
	KindNested
	KindArray
)

func (k FieldQueryKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindOperators:
		return "operators"
	case KindNested:
		return "nested"
	case KindArray:
		return "array"
	}
	return fmt.Sprintf("FieldQueryKind(%d)", int(k))
}

// FieldQuery is the condition on a single field. The concrete type is fixed
// when the query is built: Literal, OperatorClause, NestedQuery or ArrayLiteral.
type FieldQuery interface {
	Kind() FieldQueryKind
}

// Literal represents implicit equality: {'genre': 'jazz'}
type Literal struct {
	Value any
}

func (Literal) Kind() FieldQueryKind { return KindLiteral }

// ArrayLiteral represents ordered element-wise equality: {'tags': [1, 2, 3]}
type ArrayLiteral struct {
	Values []any
}

func (ArrayLiteral) Kind() FieldQueryKind { return KindArray }

// NestedQuery applies a query to a nested record: {'album': {'year': 1999}}
type NestedQuery struct {
	Query Query
}

func (NestedQuery) Kind() FieldQueryKind { return KindNested }

type FieldClause struct {
	Field string
	Query FieldQuery
}

// AndOperator represents {'$and': [q1, q2, ...]}. No operands match everything.
type AndOperator struct {
	Operands []Query
}

// OrOperator represents {'$or': [q1, q2, ...]}. No operands match nothing.
type OrOperator struct {
	Operands []Query
}

// NotOperator represents {'$not': q}
type NotOperator struct {
	Operand Query
}

// Query is a query node. Nil logical operators are absent; Fields are
// evaluated in order and the first failing one is reported.
// A Query is never modified by evaluation and may be shared.
type Query struct {
	Where  Predicate
	And    *AndOperator
	Or     *OrOperator
	Not    *NotOperator
	Fields []FieldClause
}

// IsEmpty reports whether the query has no constraint at all.
func (q Query) IsEmpty() bool {
	return q.Where == nil && q.And == nil && q.Or == nil && q.Not == nil && len(q.Fields) == 0
}

func (q Query) String() string {
	return fmt.Sprintf("Query(%v)", QueryToDict(q))
}

// Clause adds a condition to a query under construction.
type Clause func(q *Query)

// New builds a query from clauses, in the given order.
func New(clauses ...Clause) Query {
	var q Query
	for _, c := range clauses {
		c(&q)
	}
	return q
}

// Field adds a condition on name. The value is classified right away:
// operator clauses and queries are kept, slices become ArrayLiteral,
// mappings are parsed (Field panics if a mapping does not parse), anything
// else becomes a Literal.
func Field(name string, value any) Clause {
	fq, err := defaultParser.parseFieldQuery(value)
	if err != nil {
		panic(fmt.Sprintf("query: field %q: %v", name, err))
	}
	return func(q *Query) {
		q.Fields = append(q.Fields, FieldClause{Field: name, Query: fq})
	}
}

// Nested is a shortcut for Field(name, New(clauses...)).
func Nested(name string, clauses ...Clause) Clause {
	return Field(name, New(clauses...))
}

func And(operands ...Query) Clause {
	ops := append([]Query{}, operands...)
	return func(q *Query) {
		q.And = &AndOperator{Operands: ops}
	}
}

func Or(operands ...Query) Clause {
	ops := append([]Query{}, operands...)
	return func(q *Query) {
		q.Or = &OrOperator{Operands: ops}
	}
}

func Not(operand Query) Clause {
	return func(q *Query) {
		q.Not = &NotOperator{Operand: operand}
	}
}

func Where(p Predicate) Clause {
	return func(q *Query) {
		q.Where = p
	}
}

func isLiteralObject(v any) bool {
	switch v.(type) {
	case time.Time, *time.Time, *regexp.Regexp:
		return true
	}
	return false
}

func asList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, false
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, true
}
