package query

import (
	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/operators"
)

// EvaluateWalker walks a query against a record depth-first and reports the
// first failing condition. It holds no per-record state and may be shared.
type EvaluateWalker struct {
	registry *operators.OperatorRegistry
}

func NewEvaluateWalker() *EvaluateWalker {
	return &EvaluateWalker{
		registry: operators.Default(),
	}
}

// Evaluate returns nil when record matches query. The only error is one
// returned by a caller-supplied predicate.
func (w *EvaluateWalker) Evaluate(query Query, record any) (*Failure, error) {
	return w.evaluate(query, record, "")
}

func (w *EvaluateWalker) evaluate(query Query, record any, path string) (*Failure, error) {
	if query.Where != nil {
		failure, err := w.evaluateWhere(query.Where, record, path)
		if err != nil || failure != nil {
			return failure, err
		}
	}

	if query.And != nil {
		for i, operand := range query.And.Operands {
			failure, err := w.evaluate(operand, record, logicalPath(path, "and", i))
			if err != nil || failure != nil {
				return failure, err
			}
		}
	}

	if query.Or != nil {
		failure, err := w.evaluateOr(query.Or, record, path)
		if err != nil || failure != nil {
			return failure, err
		}
	}

	if query.Not != nil {
		failure, err := w.evaluate(query.Not.Operand, record, path)
		if err != nil {
			return nil, err
		}
		if failure == nil {
			return &Failure{
				Path:     displayPath(path),
				Operator: KeyNot,
				Expected: Description("not to match"),
				Actual:   Description("it matched"),
			}, nil
		}
	}

	for _, clause := range query.Fields {
		failure, err := w.evaluateField(clause, record, fieldPath(path, clause.Field))
		if err != nil || failure != nil {
			return failure, err
		}
	}
	return nil, nil
}

func (w *EvaluateWalker) evaluateWhere(where Predicate, record any, path string) (*Failure, error) {
	p, callable := asPredicate(where)
	if !callable {
		actual := kindOf(where)
		if u, ok := where.(uncallable); ok {
			actual = kindOf(u.value)
		}
		return &Failure{
			Path:     displayPath(path),
			Operator: KeyWhere,
			Expected: Description("function"),
			Actual:   actual,
		}, nil
	}
	result, err := p.Test(record)
	if err != nil {
		return nil, err
	}
	if !result {
		return &Failure{
			Path:     displayPath(path),
			Operator: KeyWhere,
			Expected: Description("predicate to accept the record"),
			Actual:   Description("rejected"),
		}, nil
	}
	return nil, nil
}

func (w *EvaluateWalker) evaluateOr(or *OrOperator, record any, path string) (*Failure, error) {
	if len(or.Operands) == 0 {
		return &Failure{
			Path:     displayPath(path),
			Operator: KeyOr,
			Expected: Description("at least one condition to match"),
			Actual:   Description("empty array"),
		}, nil
	}
	for i, operand := range or.Operands {
		failure, err := w.evaluate(operand, record, logicalPath(path, "or", i))
		if err != nil {
			return nil, err
		}
		if failure == nil {
			return nil, nil
		}
	}
	return &Failure{
		Path:     displayPath(path),
		Operator: KeyOr,
		Expected: Description("at least one condition to match"),
		Actual:   Description("no condition matched"),
	}, nil
}

func (w *EvaluateWalker) evaluateField(clause FieldClause, record any, path string) (*Failure, error) {
	value := lookupField(record, clause.Field)

	switch fq := clause.Query.(type) {
	case OperatorClause:
		return w.evaluateOperators(value, fq, path)

	case NestedQuery:
		if isAbsent(value) {
			return &Failure{Path: path, Operator: OpNested, Expected: Description("object"), Actual: value}, nil
		}
		if !isRecord(value) {
			return &Failure{Path: path, Operator: OpNested, Expected: Description("object"), Actual: kindOf(value)}, nil
		}
		return w.evaluate(fq.Query, value, path)

	case ArrayLiteral:
		if !w.arrayEqual(fq.Values, value) {
			return &Failure{Path: path, Operator: OpEqArray, Expected: fq.Values, Actual: value}, nil
		}
		return nil, nil

	case Literal:
		if !w.registry.Equal(value, fq.Value) {
			return &Failure{Path: path, Operator: OpEqImplicit, Expected: fq.Value, Actual: value}, nil
		}
		return nil, nil
	}
	return nil, nil
}
