package vm

import (
	"github.com/cloudcmds/plusplus/object"
)

type frame struct {
	returnAddr int
	returnSp   int
	fn         *object.Closure
	code       *code
	locals     []object.Object
}

func (f *frame) ActivateCode(code *code) {
	f.code = code
	f.fn = nil
	f.returnAddr = 0
	f.returnSp = 0
	// Locals live on the heap so that cells created by MAKE_CELL stay valid
	// after the frame is reused.
	f.locals = make([]object.Object, code.LocalCount())
}

func (f *frame) ActivateFunction(fn *object.Closure, code *code, returnAddr, returnSp int, localValues []object.Object) {
	f.ActivateCode(code)
	f.fn = fn
	f.returnAddr = returnAddr
	f.returnSp = returnSp
	if len(localValues) > len(f.locals) {
		f.locals = make([]object.Object, len(localValues))
	}
	copy(f.locals, localValues)
}

func (f *frame) Locals() []object.Object {
	return f.locals
}
