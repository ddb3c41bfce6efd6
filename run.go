package plusplus

import (
	"context"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/object"
	"github.com/cloudcmds/plusplus/vm"
)

// Run executes compiled bytecode and returns the result as a native Go value.
// Each call creates fresh runtime state, allowing concurrent execution of the
// same Code. Run does not rewrite the code.
func Run(ctx context.Context, code *bytecode.Code, opts ...Option) (any, error) {
	result, err := RunObject(ctx, code, opts...)
	if err != nil {
		return nil, err
	}
	interfaceVal := result.Interface()
	// Objects without a Go equivalent (modules, closures) are returned as
	// their string representation.
	if interfaceVal == nil {
		if _, isNil := result.(*object.NilType); !isNil {
			return result.Inspect(), nil
		}
	}
	return interfaceVal, nil
}

// RunObject is like Run but returns the result as an object.
func RunObject(ctx context.Context, code *bytecode.Code, opts ...Option) (object.Object, error) {
	return vm.Run(ctx, code, newConfig(opts...).vmOpts()...)
}
