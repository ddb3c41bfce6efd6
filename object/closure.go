package object

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/op"
)

var _ Callable = (*Closure)(nil)

// Closure is a runtime function instance with captured variables.
// It references an immutable bytecode.Function for its signature and code,
// and holds runtime state like default values (as Objects) and free variables.
type Closure struct {
	*base
	fn       *bytecode.Function
	defaults []Object
	freeVars []*Cell
}

func (f *Closure) Type() Type {
	return FUNCTION
}

// Name returns the function name.
func (f *Closure) Name() string {
	return f.fn.Name()
}

func (f *Closure) Inspect() string {
	parameters := make([]string, 0, f.fn.ParameterCount())
	for i := 0; i < f.fn.ParameterCount(); i++ {
		name := f.fn.Parameter(i)
		if def := f.Default(i); def != nil {
			name += "=" + def.Inspect()
		}
		parameters = append(parameters, name)
	}
	name := f.fn.Name()
	if name != "" {
		name = " " + name
	}
	return fmt.Sprintf("func%s(%s) { ... }", name, strings.Join(parameters, ", "))
}

func (f *Closure) String() string {
	return f.Inspect()
}

func (f *Closure) Interface() interface{} {
	return nil
}

func (f *Closure) Equals(other Object) bool {
	return f == other
}

func (f *Closure) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupported(FUNCTION, opType, right)
}

// FreeVarCount returns the number of captured variables.
func (f *Closure) FreeVarCount() int {
	return len(f.freeVars)
}

// FreeVar returns the captured variable at the given index.
func (f *Closure) FreeVar(index int) *Cell {
	return f.freeVars[index]
}

// Code returns the bytecode for this function's body.
func (f *Closure) Code() *bytecode.Code {
	return f.fn.Code()
}

// Function returns the underlying bytecode.Function.
func (f *Closure) Function() *bytecode.Function {
	return f.fn
}

// Default returns the default parameter value at the given index, or nil.
func (f *Closure) Default(index int) Object {
	if index < 0 || index >= len(f.defaults) {
		return nil
	}
	return f.defaults[index]
}

// RequiredArgsCount returns the minimum number of arguments required.
func (f *Closure) RequiredArgsCount() int {
	return f.fn.RequiredArgsCount()
}

func (f *Closure) Call(ctx context.Context, args ...Object) (Object, error) {
	callFunc, found := GetCallFunc(ctx)
	if !found {
		return nil, fmt.Errorf("eval error: context did not contain a call function")
	}
	return callFunc(ctx, f, args)
}

func (f *Closure) MarshalJSON() ([]byte, error) {
	return nil, TypeErrorf("unable to marshal function")
}

// NewClosure creates a Closure from a bytecode.Function template and the
// cells of the variables it captures.
func NewClosure(fn *bytecode.Function, freeVars []*Cell) *Closure {
	var defaults []Object
	for i := 0; i < fn.DefaultCount(); i++ {
		if value := fn.Default(i); value != nil {
			defaults = append(defaults, FromGoType(value))
		} else {
			defaults = append(defaults, nil)
		}
	}
	return &Closure{
		fn:       fn,
		defaults: defaults,
		freeVars: freeVars,
	}
}
