package operators

type Operator string

const (
	OperatorEq  Operator = "="
	OperatorNe  Operator = "!="
	OperatorGt  Operator = ">"
	OperatorGte Operator = ">="
	OperatorLt  Operator = "<"
	OperatorLte Operator = "<="
)

// IsOrdering reports whether op is one of >, >=, <, <=.
func (o Operator) IsOrdering() bool {
	switch o {
	case OperatorGt, OperatorGte, OperatorLt, OperatorLte:
		return true
	}
	return false
}
