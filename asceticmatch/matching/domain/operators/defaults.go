package operators

import "time"

func registerOrdered[T int64 | uint64 | float64](reg *OperatorRegistry) {
	RegisterBinary[T, T](reg, OperatorEq, func(a, b T) bool { return a == b })
	RegisterBinary[T, T](reg, OperatorNe, func(a, b T) bool { return a != b })
	RegisterBinary[T, T](reg, OperatorGt, func(a, b T) bool { return a > b })
	RegisterBinary[T, T](reg, OperatorGte, func(a, b T) bool { return a >= b })
	RegisterBinary[T, T](reg, OperatorLt, func(a, b T) bool { return a < b })
	RegisterBinary[T, T](reg, OperatorLte, func(a, b T) bool { return a <= b })
}

func registerEquality[T string | bool](reg *OperatorRegistry) {
	RegisterBinary[T, T](reg, OperatorEq, func(a, b T) bool { return a == b })
	RegisterBinary[T, T](reg, OperatorNe, func(a, b T) bool { return a != b })
}

// NewDefaultRegistry creates a registry where numbers and timestamps are
// ordered, strings and bools only compare for equality.
func NewDefaultRegistry() *OperatorRegistry {
	reg := NewOperatorRegistry()

	registerOrdered[int64](reg)
	registerOrdered[uint64](reg)
	registerOrdered[float64](reg)

	registerEquality[string](reg)
	registerEquality[bool](reg)

	// time.Time compares by instant, not by location or monotonic reading
	RegisterBinary[time.Time, time.Time](reg, OperatorEq, func(a, b time.Time) bool { return a.Equal(b) })
	RegisterBinary[time.Time, time.Time](reg, OperatorNe, func(a, b time.Time) bool { return !a.Equal(b) })
	RegisterBinary[time.Time, time.Time](reg, OperatorGt, func(a, b time.Time) bool { return a.After(b) })
	RegisterBinary[time.Time, time.Time](reg, OperatorGte, func(a, b time.Time) bool { return !a.Before(b) })
	RegisterBinary[time.Time, time.Time](reg, OperatorLt, func(a, b time.Time) bool { return a.Before(b) })
	RegisterBinary[time.Time, time.Time](reg, OperatorLte, func(a, b time.Time) bool { return !a.After(b) })

	return reg
}

var defaultRegistry = NewDefaultRegistry()

// Default returns the shared process-wide registry. It must not be extended.
func Default() *OperatorRegistry {
	return defaultRegistry
}
