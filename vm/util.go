package vm

import (
	"fmt"

	"github.com/cloudcmds/plusplus/errz"
	"github.com/cloudcmds/plusplus/object"
)

func checkCallArgs(fn *object.Closure, argc int) error {
	params := fn.Function().ParameterCount()
	if argc <= params && argc >= fn.RequiredArgsCount() {
		return nil
	}
	name := "function"
	if fn.Name() != "" {
		name = fmt.Sprintf("function %q", fn.Name())
	}
	noun := "arguments"
	if params == 1 {
		noun = "argument"
	}
	return errz.NewStructuredErrorf(errz.ErrArgs, errz.SourceLocation{}, nil,
		"%s takes %d %s (%d given)", name, params, noun, argc)
}
