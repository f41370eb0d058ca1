package validation

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/operators"
	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/query"
)

// Violation is an operator applied to a field whose declared type does not
// support it.
type Violation struct {
	Path      string
	Operator  string
	FieldType FieldType
	Reason    string
}

func (v *Violation) Error() string {
	if v.FieldType == "" {
		return fmt.Sprintf("%s: %s", v.Path, v.Reason)
	}
	return fmt.Sprintf("%s: %s %s on %s field", v.Path, v.Operator, v.Reason, v.FieldType)
}

var operatorTypes = map[query.OperatorName][]FieldType{
	query.OpGt:       {TypeNumber, TypeTime},
	query.OpGte:      {TypeNumber, TypeTime},
	query.OpLt:       {TypeNumber, TypeTime},
	query.OpLte:      {TypeNumber, TypeTime},
	query.OpContains: {TypeArray},
	query.OpSize:     {TypeArray},
	query.OpPattern:  {TypeString},
}

// Validate checks every operator of q against the field types of s and
// returns all violations at once, or nil. Matching never calls it.
// orderingSamples stand for a field's values when checking that an ordering
// operand can be compared with them.
var orderingSamples = map[FieldType]any{
	TypeNumber: int64(0),
	TypeTime:   time.Time{},
}

func isOrdering(name query.OperatorName) bool {
	switch name {
	case query.OpGt, query.OpGte, query.OpLt, query.OpLte:
		return true
	}
	return false
}

func Validate(q query.Query, s Schema) error {
	v := validator{schema: s}
	v.query(q, "")
	return v.errs.ErrorOrNil()
}

type validator struct {
	schema Schema
	errs   *multierror.Error
}

func (v *validator) report(violation *Violation) {
	v.errs = multierror.Append(v.errs, violation)
}

func (v *validator) query(q query.Query, prefix string) {
	if q.And != nil {
		for _, operand := range q.And.Operands {
			v.query(operand, prefix)
		}
	}
	if q.Or != nil {
		for _, operand := range q.Or.Operands {
			v.query(operand, prefix)
		}
	}
	if q.Not != nil {
		v.query(q.Not.Operand, prefix)
	}
	for _, clause := range q.Fields {
		v.field(prefix+clause.Field, clause.Query)
	}
}

func (v *validator) field(path string, fq query.FieldQuery) {
	fieldType, declared := v.schema.typeOf(path)
	if !declared && v.schema.Strict {
		v.report(&Violation{Path: path, Reason: "field is not declared"})
		return
	}

	switch t := fq.(type) {
	case query.OperatorClause:
		for _, e := range t.Operators {
			allowed, restricted := operatorTypes[e.Name]
			if restricted && fieldType != TypeAny && !contains(allowed, fieldType) {
				v.report(&Violation{Path: path, Operator: string(e.Name), FieldType: fieldType, Reason: "is not applicable"})
				continue
			}
			sample, typed := orderingSamples[fieldType]
			if typed && isOrdering(e.Name) && !operators.Default().IsOrdered(sample, e.Operand) {
				v.report(&Violation{
					Path:      path,
					Operator:  string(e.Name),
					FieldType: fieldType,
					Reason:    fmt.Sprintf("operand %s is not comparable", query.RenderValue(e.Operand)),
				})
			}
		}

	case query.NestedQuery:
		if fieldType != TypeAny && fieldType != TypeObject {
			v.report(&Violation{Path: path, Operator: query.OpNested, FieldType: fieldType, Reason: "query is not applicable"})
			return
		}
		v.query(t.Query, path+".")

	case query.ArrayLiteral:
		if fieldType != TypeAny && fieldType != TypeArray {
			v.report(&Violation{Path: path, Operator: query.OpEqArray, FieldType: fieldType, Reason: "comparison is not applicable"})
		}
	}
}

func contains(types []FieldType, t FieldType) bool {
	for _, item := range types {
		if item == t {
			return true
		}
	}
	return false
}
