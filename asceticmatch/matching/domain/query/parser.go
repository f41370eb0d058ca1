package query

import (
	"regexp"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// QueryParser builds a Query from plain data: Go maps or YAML/JSON documents.
//
// Keys of Go maps are enumerated in sorted order; documents keep the order
// they were written in. Operator operands are not validated here except that
// $pattern sources must compile.
type QueryParser struct {
	predicates PredicateCompiler
}

type ParserOption func(p *QueryParser)

// WithPredicateCompiler lets string operands of $fn and $where be compiled
// into predicates.
func WithPredicateCompiler(c PredicateCompiler) ParserOption {
	return func(p *QueryParser) {
		p.predicates = c
	}
}

func NewQueryParser(opts ...ParserOption) QueryParser {
	var p QueryParser
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

var defaultParser = NewQueryParser()

// Parse builds a query from a plain map.
func (p QueryParser) Parse(query map[string]any) (Query, error) {
	m, _ := asMapping(query)
	return p.parseQuery(m)
}

// ParseDocument builds a query from a YAML or JSON document.
func (p QueryParser) ParseDocument(data []byte) (Query, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Query{}, errors.Wrap(err, "unable to decode query document")
	}
	value, err := decodeNode(&doc)
	if err != nil {
		return Query{}, err
	}
	if value == nil {
		return Query{}, nil
	}
	m, ok := value.(mapping)
	if !ok {
		return Query{}, errors.Wrapf(ErrInvalidQuery, "query document must be a mapping, got %s", kindOf(plain(value)))
	}
	return p.parseQuery(m)
}

func (p QueryParser) parseQuery(m mapping) (Query, error) {
	var q Query
	for _, e := range m {
		switch e.Key {
		case KeyWhere:
			if isAbsent(e.Value) {
				continue
			}
			where, err := p.parsePredicate(e.Value)
			if err != nil {
				return Query{}, errors.Wrap(err, KeyWhere)
			}
			if where == nil {
				where = uncallable{value: plain(e.Value)}
			}
			q.Where = where

		case KeyAnd:
			operands, err := p.parseQueryList(e.Key, e.Value)
			if err != nil {
				return Query{}, err
			}
			q.And = &AndOperator{Operands: operands}

		case KeyOr:
			operands, err := p.parseQueryList(e.Key, e.Value)
			if err != nil {
				return Query{}, err
			}
			q.Or = &OrOperator{Operands: operands}

		case KeyNot:
			operand, err := p.parseSubQuery(e.Key, e.Value)
			if err != nil {
				return Query{}, err
			}
			q.Not = &NotOperator{Operand: operand}

		default:
			if IsReservedKey(e.Key) {
				continue
			}
			fq, err := p.parseFieldQuery(e.Value)
			if err != nil {
				return Query{}, errors.Wrap(err, e.Key)
			}
			q.Fields = append(q.Fields, FieldClause{Field: e.Key, Query: fq})
		}
	}
	return q, nil
}

func (p QueryParser) parseSubQuery(key string, value any) (Query, error) {
	switch t := value.(type) {
	case Query:
		return t, nil
	case *Query:
		if t != nil {
			return *t, nil
		}
	}
	m, ok := asMapping(value)
	if !ok {
		return Query{}, errors.Wrapf(ErrInvalidQuery, "%s value must be a mapping, got %s", key, kindOf(plain(value)))
	}
	q, err := p.parseQuery(m)
	if err != nil {
		return Query{}, errors.Wrap(err, key)
	}
	return q, nil
}

func (p QueryParser) parseQueryList(key string, value any) ([]Query, error) {
	if queries, ok := value.([]Query); ok {
		return append([]Query{}, queries...), nil
	}
	list, ok := asList(value)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidQuery, "%s value must be a list, got %s", key, kindOf(plain(value)))
	}
	result := make([]Query, len(list))
	for i, item := range list {
		q, err := p.parseSubQuery(logicalPath("", key, i), item)
		if err != nil {
			return nil, err
		}
		result[i] = q
	}
	return result, nil
}

func (p QueryParser) parseFieldQuery(value any) (FieldQuery, error) {
	switch t := value.(type) {
	case FieldQuery:
		return t, nil
	case Query:
		return NestedQuery{Query: t}, nil
	case *Query:
		if t != nil {
			return NestedQuery{Query: *t}, nil
		}
	}
	if isLiteralObject(value) {
		return Literal{Value: value}, nil
	}
	if m, ok := asMapping(value); ok {
		if hasOperatorKey(m) {
			return p.parseOperatorClause(m)
		}
		nested, err := p.parseQuery(m)
		if err != nil {
			return nil, err
		}
		return NestedQuery{Query: nested}, nil
	}
	if list, ok := asList(value); ok {
		return ArrayLiteral{Values: plain(list).([]any)}, nil
	}
	return Literal{Value: value}, nil
}

func hasOperatorKey(m mapping) bool {
	for _, e := range m {
		if IsOperatorKey(e.Key) {
			return true
		}
	}
	return false
}

// parseOperatorClause keeps recognised operators in their written order and
// drops every other key.
func (p QueryParser) parseOperatorClause(m mapping) (OperatorClause, error) {
	var clause OperatorClause
	for _, e := range m {
		name, ok := operatorVocabulary[e.Key]
		if !ok {
			continue
		}
		operand := plain(e.Value)
		switch name {
		case OpPattern:
			if source, isSource := operand.(string); isSource {
				re, err := regexp.Compile(source)
				if err != nil {
					return OperatorClause{}, errors.Wrapf(err, "invalid %s operand", name)
				}
				operand = re
			}
		case OpFn:
			fn, err := p.parsePredicate(operand)
			if err != nil {
				return OperatorClause{}, errors.Wrap(err, string(name))
			}
			if fn != nil {
				operand = fn
			}
		}
		clause.Operators = append(clause.Operators, OperatorEntry{Name: name, Operand: operand})
	}
	return clause, nil
}

// parsePredicate returns nil without error when value is not callable and
// cannot be compiled.
func (p QueryParser) parsePredicate(value any) (Predicate, error) {
	if fn, ok := asPredicate(value); ok {
		return fn, nil
	}
	source, isSource := value.(string)
	if !isSource || p.predicates == nil {
		return nil, nil
	}
	fn, err := p.predicates.Compile(source)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to compile predicate %q", source)
	}
	return fn, nil
}
