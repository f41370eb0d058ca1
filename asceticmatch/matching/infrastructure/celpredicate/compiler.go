package celpredicate

import (
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/query"
)

// Both names are bound to the tested value: $fn expressions read naturally
// with "value", $where expressions with "record".
const (
	valueVar  = "value"
	recordVar = "record"
)

var ErrNotBoolean = errors.New("expression does not evaluate to a boolean")

// Compiler turns CEL expressions into query predicates. Compiled programs
// are cached by source, so a Compiler is meant to be shared.
type Compiler struct {
	env      *cel.Env
	programs sync.Map // map[string]cel.Program
}

var _ query.PredicateCompiler = (*Compiler)(nil)

func NewCompiler() (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable(valueVar, cel.DynType),
		cel.Variable(recordVar, cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create CEL environment")
	}
	return &Compiler{env: env}, nil
}

func (c *Compiler) Compile(source string) (query.Predicate, error) {
	if cached, ok := c.programs.Load(source); ok {
		return &Predicate{source: source, program: cached.(cel.Program)}, nil
	}

	ast, issues := c.env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrap(issues.Err(), "compile error")
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, errors.Wrapf(ErrNotBoolean, "%q has type %s", source, t)
	}
	program, err := c.env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "program construction error")
	}

	actual, _ := c.programs.LoadOrStore(source, program)
	return &Predicate{source: source, program: actual.(cel.Program)}, nil
}

// Predicate is a compiled CEL expression.
type Predicate struct {
	source  string
	program cel.Program
}

func (p *Predicate) Test(value any) (bool, error) {
	input, err := activationValue(value)
	if err != nil {
		return false, err
	}
	out, _, err := p.program.Eval(map[string]any{
		valueVar:  input,
		recordVar: input,
	})
	if err != nil {
		return false, errors.Wrapf(err, "eval error in %q", p.source)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, errors.Wrapf(ErrNotBoolean, "%q returned %T", p.source, out.Value())
	}
	return result, nil
}

func (p *Predicate) String() string {
	return p.source
}

// MarshalText keeps the source, so queries holding CEL predicates can be
// printed back as documents.
func (p *Predicate) MarshalText() ([]byte, error) {
	return []byte(p.source), nil
}

// activationValue converts structs to plain maps through their JSON form,
// since CEL only understands maps, lists and scalars natively.
func activationValue(value any) (any, error) {
	if value == nil || value == query.Undefined {
		return nil, nil
	}
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	}
	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return value, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "unable to convert record")
	}
	var plain any
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, errors.Wrap(err, "unable to convert record")
	}
	return plain, nil
}
