package query

import "github.com/pkg/errors"

var (
	ErrInvalidQuery = errors.New("invalid query")
	errNotAPattern  = errors.New("operand is neither a pattern nor a string")
)
