package operators

import "reflect"

type BinaryOp func(left, right any) (bool, error)

type binaryKey struct {
	left  reflect.Type
	op    Operator
	right reflect.Type
}

// OperatorRegistry dispatches comparisons by the dynamic types of both operands.
// It is read-only once built and may be shared between goroutines.
type OperatorRegistry struct {
	binary map[binaryKey]BinaryOp
}

func NewOperatorRegistry() *OperatorRegistry {
	return &OperatorRegistry{
		binary: make(map[binaryKey]BinaryOp),
	}
}

func RegisterBinary[L, R any](reg *OperatorRegistry, op Operator, fn func(L, R) bool) {
	var zeroL L
	var zeroR R
	key := binaryKey{
		left:  reflect.TypeOf(zeroL),
		op:    op,
		right: reflect.TypeOf(zeroR),
	}
	reg.binary[key] = func(left, right any) (bool, error) {
		return fn(left.(L), right.(R)), nil
	}
}

// Equal compares with value semantics: registered pairs and value objects
// first, structural equality otherwise.
func (r *OperatorRegistry) Equal(left, right any) bool {
	left, right = Normalize(left, right)
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if fn, found := r.lookupBinary(left, OperatorEq, right); found {
		if result, err := fn(left, right); err == nil {
			return result
		}
	}
	return reflect.DeepEqual(left, right)
}

// Compare applies an ordering operator. ok is false when the operands
// cannot be ordered against each other.
func (r *OperatorRegistry) Compare(left any, op Operator, right any) (result bool, ok bool) {
	if !op.IsOrdering() {
		return false, false
	}
	left, right = Normalize(left, right)
	if left == nil || right == nil {
		return false, false
	}
	fn, found := r.lookupBinary(left, op, right)
	if !found {
		return false, false
	}
	result, err := fn(left, right)
	return result, err == nil
}

// IsOrdered reports whether ordering operators apply to the pair.
func (r *OperatorRegistry) IsOrdered(left, right any) bool {
	_, ok := r.Compare(left, OperatorGte, right)
	return ok
}

func (r *OperatorRegistry) lookupBinary(left any, op Operator, right any) (BinaryOp, bool) {
	key := binaryKey{
		left:  reflect.TypeOf(left),
		op:    op,
		right: reflect.TypeOf(right),
	}
	if fn, ok := r.binary[key]; ok {
		return fn, true
	}

	if fallback := interfaceFallback(left, op, right); fallback != nil {
		return fallback, true
	}

	return nil, false
}

func interfaceFallback(left any, op Operator, right any) BinaryOp {
	switch op {
	case OperatorEq, OperatorNe:
		l, lok := left.(EqualOperand)
		rr, rok := right.(EqualOperand)
		if !lok || !rok {
			return nil
		}
		return func(_, _ any) (bool, error) {
			if op == OperatorNe {
				return !l.Equal(rr), nil
			}
			return l.Equal(rr), nil
		}
	case OperatorGt:
		l, lok := left.(GreaterThanOperand)
		rr, rok := right.(GreaterThanOperand)
		if !lok || !rok {
			return nil
		}
		return func(_, _ any) (bool, error) { return l.GreaterThan(rr), nil }
	case OperatorGte:
		l, lok := left.(GreaterThanEqualOperand)
		rr, rok := right.(GreaterThanEqualOperand)
		if !lok || !rok {
			return nil
		}
		return func(_, _ any) (bool, error) { return l.GreaterThanEqual(rr), nil }
	case OperatorLt:
		l, lok := left.(LessThanOperand)
		rr, rok := right.(LessThanOperand)
		if !lok || !rok {
			return nil
		}
		return func(_, _ any) (bool, error) { return l.LessThan(rr), nil }
	case OperatorLte:
		l, lok := left.(LessThanEqualOperand)
		rr, rok := right.(LessThanEqualOperand)
		if !lok || !rok {
			return nil
		}
		return func(_, _ any) (bool, error) { return l.LessThanEqual(rr), nil }
	}
	return nil
}
