package object

import "github.com/cloudcmds/plusplus/op"

var orderings = map[op.CompareOpType]func(int) bool{
	op.LessThan:           func(c int) bool { return c < 0 },
	op.LessThanOrEqual:    func(c int) bool { return c <= 0 },
	op.GreaterThan:        func(c int) bool { return c > 0 },
	op.GreaterThanOrEqual: func(c int) bool { return c >= 0 },
}

// Compare applies a comparison operator. Equality works on any pair of
// values; ordering requires a Comparable left operand.
func Compare(opType op.CompareOpType, a, b Object) (Object, error) {
	switch opType {
	case op.Equal:
		return NewBool(a.Equals(b)), nil
	case op.NotEqual:
		return NewBool(!a.Equals(b)), nil
	}
	holds, ok := orderings[opType]
	if !ok {
		return nil, ValueErrorf("unknown comparison operator %d", opType)
	}
	left, ok := a.(Comparable)
	if !ok {
		return nil, TypeErrorf("%s values cannot be ordered", a.Type())
	}
	c, err := left.Compare(b)
	if err != nil {
		return nil, err
	}
	return NewBool(holds(c)), nil
}

// BinaryOp applies an arithmetic operator through the left operand.
func BinaryOp(opType op.BinaryOpType, a, b Object) (Object, error) {
	return a.RunOperation(opType, b)
}
