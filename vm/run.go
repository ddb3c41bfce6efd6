package vm

import (
	"context"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/object"
)

// Run executes main on a fresh VirtualMachine and returns the value left on
// top of the stack, or object.Nil when the stack is empty.
func Run(ctx context.Context, main *bytecode.Code, options ...Option) (object.Object, error) {
	machine := New(main, options...)
	if err := machine.Run(ctx); err != nil {
		return nil, err
	}
	result, ok := machine.TOS()
	if !ok {
		return object.Nil, nil
	}
	return result, nil
}
