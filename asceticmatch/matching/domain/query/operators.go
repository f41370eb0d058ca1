package query

import (
	"fmt"
	"regexp"
)

// OperatorName is a reserved key of an operator clause, e.g. "$gte".
type OperatorName string

const (
	OpEq       OperatorName = "$eq"
	OpNe       OperatorName = "$ne"
	OpGt       OperatorName = "$gt"
	OpGte      OperatorName = "$gte"
	OpLt       OperatorName = "$lt"
	OpLte      OperatorName = "$lte"
	OpIn       OperatorName = "$in"
	OpNin      OperatorName = "$nin"
	OpExists   OperatorName = "$exists"
	OpContains OperatorName = "$contains"
	OpSize     OperatorName = "$size"
	OpPattern  OperatorName = "$pattern"
	OpFn       OperatorName = "$fn"
)

// Logical keys of a query node.
const (
	KeyWhere = "$where"
	KeyAnd   = "$and"
	KeyOr    = "$or"
	KeyNot   = "$not"
)

// Synthetic operator names reported for structural failures.
const (
	OpEqImplicit = "eq-implicit"
	OpEqArray    = "eq-array"
	OpNested     = "nested"
)

var operatorVocabulary = map[string]OperatorName{
	string(OpEq):       OpEq,
	string(OpNe):       OpNe,
	string(OpGt):       OpGt,
	string(OpGte):      OpGte,
	string(OpLt):       OpLt,
	string(OpLte):      OpLte,
	string(OpIn):       OpIn,
	string(OpNin):      OpNin,
	string(OpExists):   OpExists,
	string(OpContains): OpContains,
	string(OpSize):     OpSize,
	string(OpPattern):  OpPattern,
	string(OpFn):       OpFn,
}

var logicalVocabulary = map[string]struct{}{
	KeyWhere: {}, KeyAnd: {}, KeyOr: {}, KeyNot: {},
}

// IsOperatorKey reports whether key belongs to the operator vocabulary.
func IsOperatorKey(key string) bool {
	_, ok := operatorVocabulary[key]
	return ok
}

// IsReservedKey reports whether key is an operator or a logical key.
func IsReservedKey(key string) bool {
	if IsOperatorKey(key) {
		return true
	}
	_, ok := logicalVocabulary[key]
	return ok
}

// OperatorEntry is one operator of a clause with its raw operand.
type OperatorEntry struct {
	Name    OperatorName
	Operand any
}

// OperatorClause holds operators applied to one field value; all must pass.
// Order of Operators is the order the clause was written in.
type OperatorClause struct {
	Operators []OperatorEntry
}

func (c OperatorClause) Kind() FieldQueryKind {
	return KindOperators
}

// Lookup returns the operand of the first entry named name.
func (c OperatorClause) Lookup(name OperatorName) (any, bool) {
	for _, e := range c.Operators {
		if e.Name == name {
			return e.Operand, true
		}
	}
	return nil, false
}

func (c OperatorClause) String() string {
	return fmt.Sprintf("OperatorClause(%v)", c.Operators)
}

func single(name OperatorName, operand any) OperatorClause {
	return OperatorClause{Operators: []OperatorEntry{{Name: name, Operand: operand}}}
}

func Eq(value any) OperatorClause       { return single(OpEq, value) }
func Ne(value any) OperatorClause       { return single(OpNe, value) }
func Gt(value any) OperatorClause       { return single(OpGt, value) }
func Gte(value any) OperatorClause      { return single(OpGte, value) }
func Lt(value any) OperatorClause       { return single(OpLt, value) }
func Lte(value any) OperatorClause      { return single(OpLte, value) }
func In(values ...any) OperatorClause   { return single(OpIn, values) }
func Nin(values ...any) OperatorClause  { return single(OpNin, values) }
func Exists(exists bool) OperatorClause { return single(OpExists, exists) }
func Contains(value any) OperatorClause { return single(OpContains, value) }
func Size(size int) OperatorClause      { return single(OpSize, size) }

// Pattern compiles source right away and panics if it is not a valid
// regular expression.
func Pattern(source string) OperatorClause {
	return single(OpPattern, regexp.MustCompile(source))
}

func PatternRegexp(re *regexp.Regexp) OperatorClause {
	return single(OpPattern, re)
}

func Fn(p Predicate) OperatorClause {
	return single(OpFn, p)
}

// Ops joins several clauses into one, keeping their order.
func Ops(clauses ...OperatorClause) OperatorClause {
	var result OperatorClause
	for _, c := range clauses {
		result.Operators = append(result.Operators, c.Operators...)
	}
	return result
}
