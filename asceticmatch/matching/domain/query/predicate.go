package query

// Predicate is a caller-supplied condition: $fn receives the field value,
// $where the whole record. An error it returns reaches the caller of
// Match or Explain unchanged.
type Predicate interface {
	Test(value any) (bool, error)
}

type PredicateFunc func(value any) (bool, error)

func (f PredicateFunc) Test(value any) (bool, error) {
	return f(value)
}

// Func adapts a plain boolean function.
func Func(fn func(value any) bool) Predicate {
	return PredicateFunc(func(value any) (bool, error) {
		return fn(value), nil
	})
}

// PredicateCompiler turns the textual form of $fn and $where found in query
// documents into predicates.
type PredicateCompiler interface {
	Compile(source string) (Predicate, error)
}

// uncallable keeps a $where operand that is not a predicate so evaluation
// can report it.
type uncallable struct {
	value any
}

func (u uncallable) Test(any) (bool, error) {
	return false, nil
}

// asPredicate rejects nil functions, including a nil func stored in a
// Predicate.
func asPredicate(v any) (Predicate, bool) {
	if nilIfEmpty(v) == nil {
		return nil, false
	}
	switch p := v.(type) {
	case uncallable:
		return nil, false
	case Predicate:
		return p, true
	case func(any) bool:
		return Func(p), true
	case func(any) (bool, error):
		return PredicateFunc(p), true
	}
	return nil, false
}
