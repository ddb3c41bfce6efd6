package object

import (
	"cmp"
	"encoding/json"
	"strconv"

	"github.com/cloudcmds/plusplus/op"
)

// Int is a 64-bit integer. Mixed arithmetic with a Float yields a Float.
type Int struct {
	*base
	value int64
}

func NewInt(value int64) *Int { return &Int{value: value} }

func (i *Int) Type() Type                   { return INT }
func (i *Int) Value() int64                 { return i.value }
func (i *Int) Inspect() string              { return strconv.FormatInt(i.value, 10) }
func (i *Int) String() string               { return i.Inspect() }
func (i *Int) Interface() interface{}       { return i.value }
func (i *Int) IsTruthy() bool               { return i.value != 0 }
func (i *Int) MarshalJSON() ([]byte, error) { return json.Marshal(i.value) }

func (i *Int) Equals(other Object) bool {
	switch other := other.(type) {
	case *Int:
		return i.value == other.value
	case *Float:
		return float64(i.value) == other.value
	}
	return false
}

func (i *Int) Compare(other Object) (int, error) {
	switch other := other.(type) {
	case *Int:
		return cmp.Compare(i.value, other.value), nil
	case *Float:
		return cmp.Compare(float64(i.value), other.value), nil
	}
	return 0, TypeErrorf("cannot order int and %s", other.Type())
}

func (i *Int) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch right := right.(type) {
	case *Float:
		return floatOp(opType, float64(i.value), right.value)
	case *Int:
		b := right.value
		switch opType {
		case op.Add:
			return NewInt(i.value + b), nil
		case op.Subtract:
			return NewInt(i.value - b), nil
		case op.Multiply:
			return NewInt(i.value * b), nil
		case op.Divide, op.Modulo:
			if b == 0 {
				return nil, ValueErrorf("division by zero")
			}
			if opType == op.Modulo {
				return NewInt(i.value % b), nil
			}
			return NewInt(i.value / b), nil
		}
	}
	return nil, unsupported(INT, opType, right)
}

// Float is a 64-bit floating point number.
type Float struct {
	*base
	value float64
}

func NewFloat(value float64) *Float { return &Float{value: value} }

func (f *Float) Type() Type                   { return FLOAT }
func (f *Float) Value() float64               { return f.value }
func (f *Float) Inspect() string              { return strconv.FormatFloat(f.value, 'f', -1, 64) }
func (f *Float) String() string               { return f.Inspect() }
func (f *Float) Interface() interface{}       { return f.value }
func (f *Float) IsTruthy() bool               { return f.value != 0 }
func (f *Float) MarshalJSON() ([]byte, error) { return json.Marshal(f.value) }

func (f *Float) Equals(other Object) bool {
	switch other := other.(type) {
	case *Float:
		return f.value == other.value
	case *Int:
		return f.value == float64(other.value)
	}
	return false
}

func (f *Float) Compare(other Object) (int, error) {
	switch other := other.(type) {
	case *Float:
		return cmp.Compare(f.value, other.value), nil
	case *Int:
		return cmp.Compare(f.value, float64(other.value)), nil
	}
	return 0, TypeErrorf("cannot order float and %s", other.Type())
}

func (f *Float) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch right := right.(type) {
	case *Float:
		return floatOp(opType, f.value, right.value)
	case *Int:
		return floatOp(opType, f.value, float64(right.value))
	}
	return nil, unsupported(FLOAT, opType, right)
}

func floatOp(opType op.BinaryOpType, a, b float64) (Object, error) {
	switch opType {
	case op.Add:
		return NewFloat(a + b), nil
	case op.Subtract:
		return NewFloat(a - b), nil
	case op.Multiply:
		return NewFloat(a * b), nil
	case op.Divide:
		return NewFloat(a / b), nil
	}
	return nil, TypeErrorf("unsupported operation for float: %v", opType)
}
