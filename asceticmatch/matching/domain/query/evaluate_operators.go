package query

import (
	"reflect"
	"regexp"

	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/operators"
)

var orderingOperators = []struct {
	name   OperatorName
	op     operators.Operator
	symbol string
}{
	{OpGt, operators.OperatorGt, ">"},
	{OpGte, operators.OperatorGte, ">="},
	{OpLt, operators.OperatorLt, "<"},
	{OpLte, operators.OperatorLte, "<="},
}

// evaluateOperators applies an operator clause to one field value.
//
// Operators run in a fixed order ($exists, $eq, $ne, ordering, $in, $nin,
// $contains, $size, $pattern, $fn) whatever order the clause lists them in.
// The exception is an absent field: the first non-$exists operator in the
// clause's own order is reported.
func (w *EvaluateWalker) evaluateOperators(
	value any,
	clause OperatorClause,
	path string,
) (*Failure, error) {
	fail := func(name OperatorName, expected, actual any) (*Failure, error) {
		return &Failure{Path: path, Operator: string(name), Expected: expected, Actual: actual}, nil
	}

	if operand, ok := clause.Lookup(OpExists); ok {
		want := truthy(operand)
		if !isAbsent(value) != want {
			return fail(OpExists, want, value)
		}
	}

	if isAbsent(value) {
		for _, e := range clause.Operators {
			if e.Name != OpExists {
				return fail(e.Name, e.Operand, value)
			}
		}
		return nil, nil
	}

	if operand, ok := clause.Lookup(OpEq); ok {
		if !w.registry.Equal(value, operand) {
			return fail(OpEq, operand, value)
		}
	}

	if operand, ok := clause.Lookup(OpNe); ok {
		if w.registry.Equal(value, operand) {
			return fail(OpNe, Description("not "+RenderValue(operand)), value)
		}
	}

	for _, o := range orderingOperators {
		operand, ok := clause.Lookup(o.name)
		if !ok {
			continue
		}
		if result, comparable := w.registry.Compare(value, o.op, operand); !comparable || !result {
			return fail(o.name, Description(o.symbol+" "+RenderValue(operand)), value)
		}
	}

	if operand, ok := clause.Lookup(OpIn); ok {
		list, isList := asList(operand)
		if !isList {
			return fail(OpIn, Description("array operand"), operand)
		}
		if !w.member(list, value) {
			return fail(OpIn, operand, value)
		}
	}

	if operand, ok := clause.Lookup(OpNin); ok {
		list, isList := asList(operand)
		if !isList {
			return fail(OpNin, Description("array operand"), operand)
		}
		if w.member(list, value) {
			return fail(OpNin, Description("not in "+RenderValue(operand)), value)
		}
	}

	if operand, ok := clause.Lookup(OpContains); ok {
		items, isList := asList(value)
		if !isList {
			return fail(OpContains, Description("array"), kindOf(value))
		}
		if !w.member(items, operand) {
			return fail(OpContains, operand, value)
		}
	}

	if operand, ok := clause.Lookup(OpSize); ok {
		items, isList := asList(value)
		if !isList {
			return fail(OpSize, Description("array"), kindOf(value))
		}
		if !w.registry.Equal(len(items), operand) {
			return fail(OpSize, operand, len(items))
		}
	}

	if operand, ok := clause.Lookup(OpPattern); ok {
		re, err := compilePattern(operand)
		if err != nil {
			if _, isSource := operand.(string); isSource {
				return fail(OpPattern, Description("valid pattern"), operand)
			}
			return fail(OpPattern, Description("pattern or string"), kindOf(operand))
		}
		s, isString := operators.Canonical(value).(string)
		if !isString {
			return fail(OpPattern, Description("string"), kindOf(value))
		}
		if !re.MatchString(s) {
			return fail(OpPattern, re, value)
		}
	}

	if operand, ok := clause.Lookup(OpFn); ok {
		p, callable := asPredicate(operand)
		if !callable {
			return fail(OpFn, Description("function"), kindOf(operand))
		}
		result, err := p.Test(value)
		if err != nil {
			return nil, err
		}
		if !result {
			return fail(OpFn, Description("predicate to accept the value"), value)
		}
	}

	return nil, nil
}

func (w *EvaluateWalker) member(list []any, value any) bool {
	for _, item := range list {
		if w.registry.Equal(value, item) {
			return true
		}
	}
	return false
}

func (w *EvaluateWalker) arrayEqual(expected []any, actual any) bool {
	items, ok := asList(actual)
	if !ok || len(items) != len(expected) {
		return false
	}
	for i := range expected {
		if !w.registry.Equal(items[i], expected[i]) {
			return false
		}
	}
	return true
}

func compilePattern(operand any) (*regexp.Regexp, error) {
	switch p := operand.(type) {
	case *regexp.Regexp:
		if p == nil {
			return nil, errNotAPattern
		}
		return p, nil
	case string:
		return regexp.Compile(p)
	}
	return nil, errNotAPattern
}

func truthy(v any) bool {
	v = operators.Canonical(v)
	if isAbsent(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float64:
		return rv.Float() != 0
	case reflect.String:
		return rv.String() != ""
	}
	return true
}
