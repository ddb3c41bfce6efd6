package object

import (
	"context"

	"github.com/cloudcmds/plusplus/op"
)

var _ Callable = (*Builtin)(nil)

// BuiltinFunction is a host function callable from bytecode.
type BuiltinFunction func(ctx context.Context, args ...Object) (Object, error)

// Builtin exposes a BuiltinFunction as a value, typically bound to a global.
type Builtin struct {
	*base
	name string
	fn   BuiltinFunction
}

func NewBuiltin(name string, fn BuiltinFunction) *Builtin {
	return &Builtin{name: name, fn: fn}
}

func (b *Builtin) Name() string           { return b.name }
func (b *Builtin) Value() BuiltinFunction { return b.fn }
func (b *Builtin) Type() Type             { return BUILTIN }
func (b *Builtin) Inspect() string        { return "builtin(" + b.name + ")" }
func (b *Builtin) String() string         { return b.Inspect() }
func (b *Builtin) Interface() interface{} { return nil }
func (b *Builtin) Equals(other Object) bool {
	return b == other
}

func (b *Builtin) Call(ctx context.Context, args ...Object) (Object, error) {
	return b.fn(ctx, args...)
}

func (b *Builtin) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupported(BUILTIN, opType, right)
}

func (b *Builtin) MarshalJSON() ([]byte, error) {
	return nil, TypeErrorf("builtin %s has no JSON form", b.name)
}
