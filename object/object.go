// Package object holds the runtime values of the plusplus virtual machine.
// The rewritten increment sequences only need a few capabilities from a
// value: arithmetic through RunOperation, attributes through GetAttr and
// SetAttr, and items through Container.
package object

import (
	"context"
	"sort"

	"github.com/cloudcmds/plusplus/op"
)

// Type names the kind of a value in error messages and listings.
type Type string

const (
	BOOL     Type = "bool"
	BUILTIN  Type = "builtin"
	CELL     Type = "cell"
	FLOAT    Type = "float"
	FUNCTION Type = "function"
	INSTANCE Type = "instance"
	INT      Type = "int"
	LIST     Type = "list"
	MAP      Type = "map"
	MODULE   Type = "module"
	NIL      Type = "nil"
	STRING   Type = "string"
)

var (
	Nil   = &NilType{}
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

// Object is a value on the VM stack.
type Object interface {
	Type() Type
	Inspect() string

	// Interface returns the Go form of the value, or nil if it has none.
	Interface() interface{}

	Equals(other Object) bool

	// GetAttr and SetAttr back LOAD_ATTR and STORE_ATTR.
	GetAttr(name string) (Object, bool)
	SetAttr(name string, value Object) error

	IsTruthy() bool

	// RunOperation applies a binary operator with the receiver on the left.
	RunOperation(opType op.BinaryOpType, right Object) (Object, error)
}

// Container is a value that supports subscripts, LENGTH and UNPACK.
type Container interface {
	GetItem(key Object) (Object, error)
	SetItem(key, value Object) error
	Len() *Int

	// Items returns the values in iteration order.
	Items() []Object
}

// Callable is a value that can be called from Go.
type Callable interface {
	Call(ctx context.Context, args ...Object) (Object, error)
}

// Comparable values can be ordered. Compare returns a negative number, zero
// or a positive number as the receiver sorts before, equal to or after other.
type Comparable interface {
	Compare(other Object) (int, error)
}

// Keys returns the keys of m in sorted order.
func Keys(m map[string]Object) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
