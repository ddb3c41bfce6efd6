package bytecode

import (
	"fmt"
	"slices"
	"strings"
)

// Function is a function constant: a body plus the signature closures are
// built from. Functions never change once created. The rewriter swaps bodies
// with WithCode.
type Function struct {
	id       string
	name     string
	params   []string
	defaults []any
	code     *Code
}

// FunctionParams describes a Function. Defaults line up with Parameters and a
// nil entry means the parameter has no default.
type FunctionParams struct {
	ID         string
	Name       string
	Parameters []string
	Defaults   []any
	Code       *Code
}

// NewFunction returns a Function holding copies of the given slices.
func NewFunction(p FunctionParams) *Function {
	return &Function{
		id:       p.ID,
		name:     p.Name,
		params:   slices.Clone(p.Parameters),
		defaults: slices.Clone(p.Defaults),
		code:     p.Code,
	}
}

// WithCode returns a copy of f with a different body.
func (f *Function) WithCode(code *Code) *Function {
	return NewFunction(FunctionParams{
		ID:         f.id,
		Name:       f.name,
		Parameters: f.params,
		Defaults:   f.defaults,
		Code:       code,
	})
}

func (f *Function) ID() string   { return f.id }
func (f *Function) Name() string { return f.name }
func (f *Function) Code() *Code  { return f.code }

func (f *Function) ParameterCount() int        { return len(f.params) }
func (f *Function) Parameter(index int) string { return f.params[index] }
func (f *Function) DefaultCount() int          { return len(f.defaults) }
func (f *Function) Default(index int) any      { return f.defaults[index] }

// RequiredArgsCount is the number of parameters without a default.
func (f *Function) RequiredArgsCount() int {
	required := len(f.params)
	for _, d := range f.defaults {
		if d != nil {
			required--
		}
	}
	return required
}

// String renders the signature, e.g. "func add(a, b=10)".
func (f *Function) String() string {
	params := make([]string, len(f.params))
	for i, name := range f.params {
		params[i] = name
		if i < len(f.defaults) && f.defaults[i] != nil {
			params[i] = fmt.Sprintf("%s=%v", name, f.defaults[i])
		}
	}
	name := f.name
	if name != "" {
		name = " " + name
	}
	return "func" + name + "(" + strings.Join(params, ", ") + ")"
}
