package object

import "github.com/cloudcmds/plusplus/op"

// NilType is the type of Nil, the result of code that leaves no value.
type NilType struct{}

func (*NilType) Type() Type                    { return NIL }
func (*NilType) Inspect() string               { return "nil" }
func (*NilType) String() string                { return "nil" }
func (*NilType) Interface() interface{}        { return nil }
func (*NilType) IsTruthy() bool                { return false }
func (*NilType) GetAttr(string) (Object, bool) { return nil, false }
func (*NilType) MarshalJSON() ([]byte, error)  { return []byte("null"), nil }

func (*NilType) SetAttr(name string, _ Object) error {
	return TypeErrorf("cannot set attribute %q on nil", name)
}

func (*NilType) Equals(other Object) bool {
	_, ok := other.(*NilType)
	return ok
}

func (*NilType) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupported(NIL, opType, right)
}
