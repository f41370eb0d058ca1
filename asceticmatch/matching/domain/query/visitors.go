package query

import "regexp"

// QueryToDict converts a Query back to plain data with $-prefixed keys.
// Patterns become their source strings; predicates are kept as they are.
// Parsing the result with QueryParser gives an equivalent query, except that
// plain maps lose the field order.
func QueryToDict(q Query) map[string]any {
	result := make(map[string]any, len(q.Fields)+4)
	if q.Where != nil {
		if u, ok := q.Where.(uncallable); ok {
			result[KeyWhere] = u.value
		} else {
			result[KeyWhere] = q.Where
		}
	}
	if q.And != nil {
		result[KeyAnd] = queriesToList(q.And.Operands)
	}
	if q.Or != nil {
		result[KeyOr] = queriesToList(q.Or.Operands)
	}
	if q.Not != nil {
		result[KeyNot] = QueryToDict(q.Not.Operand)
	}
	for _, clause := range q.Fields {
		result[clause.Field] = FieldQueryToValue(clause.Query)
	}
	return result
}

// FieldQueryToValue converts a single field condition to plain data.
func FieldQueryToValue(fq FieldQuery) any {
	switch t := fq.(type) {
	case Literal:
		return t.Value
	case ArrayLiteral:
		values := make([]any, len(t.Values))
		copy(values, t.Values)
		return values
	case NestedQuery:
		return QueryToDict(t.Query)
	case OperatorClause:
		result := make(map[string]any, len(t.Operators))
		for _, e := range t.Operators {
			if re, ok := e.Operand.(*regexp.Regexp); ok && re != nil {
				result[string(e.Name)] = re.String()
				continue
			}
			result[string(e.Name)] = e.Operand
		}
		return result
	}
	return nil
}

func queriesToList(queries []Query) []any {
	items := make([]any, len(queries))
	for i, q := range queries {
		items[i] = QueryToDict(q)
	}
	return items
}
