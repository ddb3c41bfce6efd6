package object

import (
	"github.com/cloudcmds/plusplus/errz"
	"github.com/cloudcmds/plusplus/op"
)

// TypeErrorf returns a type error with the given message.
func TypeErrorf(format string, args ...interface{}) error {
	return errz.NewStructuredErrorf(errz.ErrType, errz.SourceLocation{}, nil, format, args...)
}

// ValueErrorf returns a value error with the given message.
func ValueErrorf(format string, args ...interface{}) error {
	return errz.NewStructuredErrorf(errz.ErrValue, errz.SourceLocation{}, nil, format, args...)
}

func unsupported(t Type, opType op.BinaryOpType, right Object) error {
	return TypeErrorf("unsupported operation for %s: %v on type %s", t, opType, right.Type())
}
