package query

// ExplainResult tells whether a record matched and, if not, why.
type ExplainResult struct {
	Matched bool
	Failure *Failure
}

// Matcher evaluates one query against any number of records.
// It is immutable and safe for concurrent use.
type Matcher struct {
	query  Query
	walker *EvaluateWalker
}

// BuildMatcher does not validate the query; malformed parts fail when a
// record reaches them.
func BuildMatcher(query Query) *Matcher {
	return &Matcher{
		query:  query,
		walker: NewEvaluateWalker(),
	}
}

// Match reports whether record satisfies the query. The error is the one
// returned by a $fn or $where predicate, unchanged.
func (m *Matcher) Match(record any) (bool, error) {
	failure, err := m.walker.Evaluate(m.query, record)
	if err != nil {
		return false, err
	}
	return failure == nil, nil
}

// Explain evaluates record and describes the first failing condition.
func (m *Matcher) Explain(record any) (ExplainResult, error) {
	failure, err := m.walker.Evaluate(m.query, record)
	if err != nil {
		return ExplainResult{}, err
	}
	if failure == nil {
		return ExplainResult{Matched: true}, nil
	}
	failure.Message = FormatMessage(*failure)
	return ExplainResult{Matched: false, Failure: failure}, nil
}

// Predicate adapts the matcher to a plain predicate. A func(any) bool has
// no error result, so an error returned by a $fn or $where predicate is
// raised with panic, as the same value. Use Match to get it as an error.
func (m *Matcher) Predicate() func(record any) bool {
	return func(record any) bool {
		matched, err := m.Match(record)
		if err != nil {
			panic(err)
		}
		return matched
	}
}

// Explain is BuildMatcher(query).Explain(record).
func Explain(query Query, record any) (ExplainResult, error) {
	return BuildMatcher(query).Explain(record)
}
