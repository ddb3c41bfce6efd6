// Package vm provides a VirtualMachine that executes plusplus bytecode.
package vm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/errz"
	"github.com/cloudcmds/plusplus/importer"
	"github.com/cloudcmds/plusplus/object"
	"github.com/cloudcmds/plusplus/op"
)

const (
	MaxArgs       = 256
	MaxFrameDepth = 1024
	MaxStackDepth = 1024
	StopSignal    = -1

	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000
)

var (
	ErrGlobalNotFound = errors.New("global not found")
	errObserverHalt   = errors.New("execution halted by observer")
)

type VirtualMachine struct {
	ip           int // instruction pointer
	sp           int // stack pointer
	fp           int // frame pointer
	halt         int32
	activeFrame  *frame
	activeCode   *code
	main         *bytecode.Code
	set          op.InstructionSet
	importer     importer.Importer
	modules      map[string]*object.Module
	inputGlobals map[string]any
	loadedCode   map[*bytecode.Code]*code
	running      bool
	runMutex     sync.Mutex
	tmp          [MaxArgs]object.Object
	stack        [MaxStackDepth]object.Object
	frames       [MaxFrameDepth]frame

	contextCheckInterval int
	observer             Observer
}

// New creates a new Virtual Machine for the given main unit.
func New(main *bytecode.Code, options ...Option) *VirtualMachine {
	vm := &VirtualMachine{
		sp:                   -1,
		main:                 main,
		set:                  op.Standard,
		modules:              map[string]*object.Module{},
		inputGlobals:         map[string]any{},
		loadedCode:           map[*bytecode.Code]*code{},
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(vm)
	}
	return vm
}

func (vm *VirtualMachine) start(ctx context.Context) error {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return fmt.Errorf("vm is already running")
	}
	vm.running = true
	// Halt execution when the context is cancelled
	vm.halt = 0
	if doneChan := ctx.Done(); doneChan != nil {
		go func() {
			<-doneChan
			atomic.StoreInt32(&vm.halt, 1)
		}()
	}
	return nil
}

func (vm *VirtualMachine) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	vm.running = false
}

// Run evaluates the main unit. When it completes, the value it left on the
// stack is available from TOS.
func (vm *VirtualMachine) Run(ctx context.Context) (err error) {
	if vm.main == nil {
		return fmt.Errorf("no main code available")
	}
	if err := vm.start(ctx); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		vm.stop()
	}()

	globals, err := vm.rootGlobals(vm.main)
	if err != nil {
		return err
	}
	main, err := vm.loadCode(vm.main, globals)
	if err != nil {
		return err
	}
	vm.activateCode(0, 0, main)
	return vm.eval(vm.initContext(ctx))
}

// rootGlobals builds the globals slice for a main unit, seeded with the
// values given by WithGlobals.
func (vm *VirtualMachine) rootGlobals(main *bytecode.Code) ([]object.Object, error) {
	size := main.GlobalCount()
	if n := main.GlobalNameCount(); n > size {
		size = n
	}
	globals := make([]object.Object, size)
	for i, name := range main.GlobalNames() {
		value, ok := vm.inputGlobals[name]
		if !ok {
			continue
		}
		obj, err := object.AsObject(value)
		if err != nil {
			return nil, fmt.Errorf("invalid global %q: %w", name, err)
		}
		globals[i] = obj
	}
	return globals, nil
}

// Get a global variable of the main unit by name.
func (vm *VirtualMachine) Get(name string) (object.Object, error) {
	main, ok := vm.loadedCode[vm.main]
	if !ok {
		return nil, errors.New("no active code")
	}
	for i, globalName := range main.GlobalNames() {
		if globalName == name && i < len(main.Globals) {
			if value := main.Globals[i]; value != nil {
				return value, nil
			}
			return object.Nil, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrGlobalNotFound, name)
}

// TOS returns the top-of-stack object if there is one, without modifying the
// stack. This only works on a stopped VM. If the VM is running, (nil, false)
// is returned.
func (vm *VirtualMachine) TOS() (object.Object, bool) {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if !vm.running && vm.sp >= 0 {
		return vm.stack[vm.sp], true
	}
	return nil, false
}

// Evaluate the active code. The caller must initialize vm.ip, vm.fp,
// vm.activeCode and vm.activeFrame before calling this function.
//
// Assuming this function returns without error, the result of the evaluation
// will be on the top of the stack.
func (vm *VirtualMachine) eval(ctx context.Context) error {
	var instructionCount int
	checkInterval := vm.contextCheckInterval
	doneChan := ctx.Done()

	for vm.ip < len(vm.activeCode.Instructions) {
		if atomic.LoadInt32(&vm.halt) == 1 {
			return ctx.Err()
		}
		if checkInterval > 0 && doneChan != nil {
			instructionCount++
			if instructionCount >= checkInterval {
				instructionCount = 0
				select {
				case <-doneChan:
					atomic.StoreInt32(&vm.halt, 1)
					return ctx.Err()
				default:
				}
			}
		}

		opcode := vm.activeCode.Instructions[vm.ip]

		if vm.observer != nil {
			event := StepEvent{
				IP:         vm.ip,
				Opcode:     opcode,
				Location:   vm.activeCode.LocationAt(vm.ip),
				StackDepth: vm.sp + 1,
				FrameDepth: vm.fp + 1,
			}
			if !vm.observer.OnStep(event) {
				return errObserverHalt
			}
		}

		// Advance past the opcode before executing it. Relative jumps account
		// for this.
		vm.ip++

		switch opcode {
		case op.Nop:
		case op.LoadAttr:
			obj := vm.pop()
			name := vm.activeCode.Names[vm.fetch()]
			value, found := obj.GetAttr(name)
			if !found {
				return vm.typeError("attribute %q not found on %s object", name, obj.Type())
			}
			vm.push(value)
		case op.LoadConst:
			vm.push(vm.activeCode.Constants[vm.fetch()])
		case op.LoadFast:
			idx := vm.fetch()
			value := vm.activeFrame.Locals()[idx]
			if value == nil {
				return vm.runtimeError(errz.ErrName, "local variable %q referenced before assignment",
					vm.activeCode.LocalNameAt(int(idx)))
			}
			vm.push(value)
		case op.LoadGlobal:
			idx := vm.fetch()
			value := vm.activeCode.Globals[idx]
			if value == nil {
				return vm.runtimeError(errz.ErrName, "%q is not defined", vm.globalName(int(idx)))
			}
			vm.push(value)
		case op.LoadFree:
			idx := vm.fetch()
			value := vm.activeFrame.fn.FreeVar(int(idx)).Value()
			if value == nil {
				return vm.runtimeError(errz.ErrName, "free variable %d referenced before assignment", idx)
			}
			vm.push(value)
		case op.StoreFast:
			idx := vm.fetch()
			vm.activeFrame.Locals()[idx] = vm.pop()
		case op.StoreGlobal:
			vm.activeCode.Globals[vm.fetch()] = vm.pop()
		case op.StoreFree:
			idx := vm.fetch()
			vm.activeFrame.fn.FreeVar(int(idx)).Set(vm.pop())
		case op.StoreAttr:
			name := vm.activeCode.Names[vm.fetch()]
			obj := vm.pop()
			value := vm.pop()
			if err := obj.SetAttr(name, value); err != nil {
				return err
			}
		case op.LoadClosure:
			constIndex := vm.fetch()
			freeCount := vm.fetch()
			free := make([]*object.Cell, freeCount)
			for i := uint16(0); i < freeCount; i++ {
				cell, ok := vm.pop().(*object.Cell)
				if !ok {
					return vm.evalError("expected cell")
				}
				free[freeCount-i-1] = cell
			}
			fn, ok := vm.activeCode.Constants[constIndex].(*object.Closure)
			if !ok {
				return vm.evalError("expected function constant")
			}
			vm.push(object.NewClosure(fn.Function(), free))
		case op.MakeCell:
			symbolIndex := vm.fetch()
			framesBack := int(vm.fetch())
			frameIndex := vm.fp - framesBack
			if frameIndex < 0 {
				return vm.evalError("no frame at depth %d", framesBack)
			}
			locals := vm.frames[frameIndex].Locals()
			vm.push(object.NewCell(&locals[symbolIndex]))
		case op.Nil:
			vm.push(object.Nil)
		case op.True:
			vm.push(object.True)
		case op.False:
			vm.push(object.False)
		case op.CompareOp:
			opType := op.CompareOpType(vm.fetch())
			b := vm.pop()
			a := vm.pop()
			result, err := object.Compare(opType, a, b)
			if err != nil {
				return err
			}
			vm.push(result)
		case op.BinaryOp:
			opType := op.BinaryOpType(vm.fetch())
			b := vm.pop()
			a := vm.pop()
			result, err := object.BinaryOp(opType, a, b)
			if err != nil {
				return err
			}
			vm.push(result)
		case op.UnaryNegative:
			switch obj := vm.pop().(type) {
			case *object.Int:
				vm.push(object.NewInt(-obj.Value()))
			case *object.Float:
				vm.push(object.NewFloat(-obj.Value()))
			default:
				return vm.typeError("bad operand type for unary -: %s", obj.Type())
			}
		case op.UnaryPositive:
			switch obj := vm.pop().(type) {
			case *object.Int, *object.Float:
				vm.push(obj)
			default:
				return vm.typeError("bad operand type for unary +: %s", obj.Type())
			}
		case op.UnaryNot:
			vm.push(object.Not(object.NewBool(vm.pop().IsTruthy())))
		case op.Call:
			argc := int(vm.fetch())
			if argc > MaxArgs {
				return vm.evalError("max args limit of %d exceeded (got %d)", MaxArgs, argc)
			}
			args := make([]object.Object, argc)
			for argIndex := argc - 1; argIndex >= 0; argIndex-- {
				args[argIndex] = vm.pop()
			}
			obj := vm.pop()
			if err := vm.callObject(ctx, obj, args); err != nil {
				return err
			}
		case op.ReturnValue:
			activeFrame := vm.activeFrame
			if vm.observer != nil {
				funcName := ""
				if activeFrame.fn != nil {
					funcName = activeFrame.fn.Name()
				}
				if !vm.observer.OnReturn(ReturnEvent{FunctionName: funcName, FrameDepth: vm.fp}) {
					return errObserverHalt
				}
			}
			if vm.fp == 0 {
				return nil
			}
			returnAddr := activeFrame.returnAddr
			vm.resumeFrame(vm.fp-1, returnAddr, activeFrame.returnSp)
			if returnAddr == StopSignal {
				return nil
			}
		case op.PopJumpForwardIfTrue:
			tos := vm.pop()
			delta := int(vm.fetch()) - 2
			if tos.IsTruthy() {
				vm.ip += delta
			}
		case op.PopJumpForwardIfFalse:
			tos := vm.pop()
			delta := int(vm.fetch()) - 2
			if !tos.IsTruthy() {
				vm.ip += delta
			}
		case op.JumpForward:
			base := vm.ip - 1
			delta := int(vm.fetch())
			vm.ip = base + delta
		case op.JumpBackward:
			base := vm.ip - 1
			delta := int(vm.fetch())
			vm.ip = base - delta
		case op.BuildList:
			count := int(vm.fetch())
			items := make([]object.Object, count)
			for i := count - 1; i >= 0; i-- {
				items[i] = vm.pop()
			}
			vm.push(object.NewList(items))
		case op.BuildMap:
			count := int(vm.fetch())
			items := make(map[string]object.Object, count)
			for i := 0; i < count; i++ {
				v := vm.pop()
				k := vm.pop()
				key, err := object.AsString(k)
				if err != nil {
					return vm.typeError("map keys must be strings (got %s)", k.Type())
				}
				items[key] = v
			}
			vm.push(object.NewMap(items))
		case op.BinarySubscr:
			idx := vm.pop()
			lhs := vm.pop()
			container, ok := lhs.(object.Container)
			if !ok {
				return vm.typeError("object is not subscriptable (got %s)", lhs.Type())
			}
			result, err := container.GetItem(idx)
			if err != nil {
				return err
			}
			vm.push(result)
		case op.StoreSubscr:
			idx := vm.pop()
			lhs := vm.pop()
			rhs := vm.pop()
			container, ok := lhs.(object.Container)
			if !ok {
				return vm.typeError("object does not support item assignment (got %s)", lhs.Type())
			}
			if err := container.SetItem(idx, rhs); err != nil {
				return err
			}
		case op.Length:
			obj := vm.pop()
			container, ok := obj.(object.Container)
			if !ok {
				return vm.typeError("object has no length (got %s)", obj.Type())
			}
			vm.push(container.Len())
		case op.Unpack:
			obj := vm.pop()
			count := int(vm.fetch())
			container, ok := obj.(object.Container)
			if !ok {
				return vm.typeError("object is not a container (got %s)", obj.Type())
			}
			items := container.Items()
			if len(items) != count {
				return vm.runtimeError(errz.ErrValue, "unpack count mismatch: %d != %d", len(items), count)
			}
			for i := len(items) - 1; i >= 0; i-- {
				vm.push(items[i])
			}
		case op.Swap:
			vm.swap(int(vm.fetch()))
		case op.Copy:
			offset := int(vm.fetch())
			vm.push(vm.stack[vm.sp-offset])
		case op.Rotate:
			vm.rotate(int(vm.fetch()))
		case op.PopTop:
			vm.pop()
		case op.Import:
			name, ok := vm.activeCode.Constants[vm.fetch()].(*object.String)
			if !ok {
				return vm.evalError("import name must be a string")
			}
			module, err := vm.importModule(ctx, name.Value())
			if err != nil {
				return err
			}
			vm.push(module)
		case op.Halt:
			return nil
		default:
			return vm.evalError("unknown opcode: %d", opcode)
		}
	}
	return nil
}

func (vm *VirtualMachine) pop() object.Object {
	obj := vm.stack[vm.sp]
	vm.stack[vm.sp] = nil
	vm.sp--
	return obj
}

func (vm *VirtualMachine) push(obj object.Object) {
	vm.sp++
	vm.stack[vm.sp] = obj
}

func (vm *VirtualMachine) swap(pos int) {
	otherIndex := vm.sp - pos
	tos := vm.stack[vm.sp]
	other := vm.stack[otherIndex]
	vm.stack[otherIndex] = tos
	vm.stack[vm.sp] = other
}

// rotate moves TOS down n-1 slots, lifting the items above its new position.
func (vm *VirtualMachine) rotate(n int) {
	if n < 2 {
		return
	}
	tos := vm.stack[vm.sp]
	bottom := vm.sp - n + 1
	copy(vm.stack[bottom+1:vm.sp+1], vm.stack[bottom:vm.sp])
	vm.stack[bottom] = tos
}

func (vm *VirtualMachine) fetch() uint16 {
	ip := vm.ip
	vm.ip++
	return uint16(vm.activeCode.Instructions[ip])
}

// Call a function with the given arguments. If this VM is already running,
// an error is returned.
func (vm *VirtualMachine) Call(
	ctx context.Context,
	fn *object.Closure,
	args []object.Object,
) (result object.Object, err error) {
	if err := vm.start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		vm.stop()
	}()
	return vm.callFunction(vm.initContext(ctx), fn, args)
}

// Calls a compiled function with the given arguments. This is also used when
// Go code holding a closure calls back into the VM.
func (vm *VirtualMachine) callFunction(
	ctx context.Context,
	fn *object.Closure,
	args []object.Object,
) (result object.Object, resultErr error) {
	paramsCount := fn.Function().ParameterCount()
	argc := len(args)
	if argc > MaxArgs {
		return nil, vm.evalError("max args limit of %d exceeded (got %d)", MaxArgs, argc)
	}
	if err := checkCallArgs(fn, argc); err != nil {
		return nil, err
	}
	if vm.fp+1 >= MaxFrameDepth {
		return nil, vm.evalError("max frame depth of %d exceeded", MaxFrameDepth)
	}

	baseFP := vm.fp
	baseIP := vm.ip
	baseSP := vm.sp
	defer vm.resumeFrame(baseFP, baseIP, baseSP)

	// Parameters come first in the locals, followed by the function itself
	// when it is named.
	copy(vm.tmp[:argc], args)
	for i := argc; i < paramsCount; i++ {
		vm.tmp[i] = fn.Default(i)
	}
	localCount := paramsCount
	if fn.Code().IsNamed() {
		vm.tmp[localCount] = fn
		localCount++
	}

	if err := vm.activateFunction(vm.fp+1, 0, fn, vm.tmp[:localCount]); err != nil {
		return nil, err
	}

	if vm.observer != nil {
		event := CallEvent{
			FunctionName: fn.Name(),
			ArgCount:     argc,
			FrameDepth:   vm.fp + 1,
		}
		if !vm.observer.OnCall(event) {
			return nil, errObserverHalt
		}
	}

	// StopSignal as the return address makes eval return once this frame
	// returns.
	vm.activeFrame.returnAddr = StopSignal

	if err := vm.eval(ctx); err != nil {
		return nil, err
	}
	if vm.sp <= baseSP {
		return object.Nil, nil
	}
	return vm.pop(), nil
}

// Call a callable object with the given arguments. If this call succeeds,
// the result of the call will have been pushed onto the stack.
func (vm *VirtualMachine) callObject(
	ctx context.Context,
	fn object.Object,
	args []object.Object,
) error {
	switch fn := fn.(type) {
	case *object.Closure:
		result, err := vm.callFunction(ctx, fn, args)
		if err != nil {
			return err
		}
		vm.push(result)
		return nil
	case object.Callable:
		result, err := fn.Call(ctx, args...)
		if err != nil {
			return err
		}
		if result == nil {
			result = object.Nil
		}
		vm.push(result)
		return nil
	default:
		return vm.typeError("object is not callable (got %s)", fn.Type())
	}
}

// Resume the frame at the given frame pointer, restoring the given IP and SP.
func (vm *VirtualMachine) resumeFrame(fp, ip, sp int) *frame {
	// The return value of the previous frame is on the top of the stack
	var frameResult object.Object
	if vm.sp > sp {
		frameResult = vm.pop()
	}
	for i := vm.sp; i > sp; i-- {
		vm.stack[i] = nil
	}
	vm.sp = sp
	if frameResult != nil {
		vm.push(frameResult)
	}
	vm.fp = fp
	vm.ip = ip
	vm.activeFrame = &vm.frames[fp]
	vm.activeCode = vm.activeFrame.code
	return vm.activeFrame
}

// Activate a frame with the given code. This is used to begin running the
// entrypoint of a unit or module.
func (vm *VirtualMachine) activateCode(fp, ip int, code *code) *frame {
	vm.fp = fp
	vm.ip = ip
	vm.activeFrame = &vm.frames[fp]
	vm.activeFrame.ActivateCode(code)
	vm.activeCode = code
	return vm.activeFrame
}

// Activate a frame with the given function, to implement a function call.
func (vm *VirtualMachine) activateFunction(fp, ip int, fn *object.Closure, locals []object.Object) error {
	code, ok := vm.loadedCode[fn.Code()]
	if !ok {
		// Functions created outside the running units share the caller's
		// globals.
		var globals []object.Object
		if vm.activeCode != nil {
			globals = vm.activeCode.Globals
		}
		var err error
		if code, err = vm.loadCode(fn.Code(), globals); err != nil {
			return err
		}
	}
	returnAddr := vm.ip
	returnSp := vm.sp
	vm.fp = fp
	vm.ip = ip
	vm.activeFrame = &vm.frames[fp]
	vm.activeFrame.ActivateFunction(fn, code, returnAddr, returnSp, locals)
	vm.activeCode = code
	return nil
}

// loadCode prepares a unit and every unit nested in it for execution. All of
// them share the given globals. Units using instructions the host does not
// support are rejected.
func (vm *VirtualMachine) loadCode(cc *bytecode.Code, globals []object.Object) (*code, error) {
	if c, ok := vm.loadedCode[cc]; ok {
		return c, nil
	}
	if err := vm.checkInstructions(cc); err != nil {
		return nil, err
	}
	c := wrapCode(cc, globals)
	vm.loadedCode[cc] = c
	for i := 0; i < cc.ChildCount(); i++ {
		if _, err := vm.loadCode(cc.ChildAt(i), globals); err != nil {
			return nil, err
		}
	}
	for i := 0; i < cc.ConstantCount(); i++ {
		if fn, ok := cc.ConstantAt(i).(*bytecode.Function); ok && fn.Code() != nil {
			if _, err := vm.loadCode(fn.Code(), globals); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func (vm *VirtualMachine) checkInstructions(cc *bytecode.Code) error {
	for ip := 0; ip < cc.InstructionCount(); {
		opcode := cc.InstructionAt(ip)
		if !vm.set.Supports(opcode) {
			return errz.NewStructuredErrorf(errz.ErrConfig, errz.SourceLocation{}, nil,
				"%s is not supported by the %s instruction set", opcode, vm.set.Name)
		}
		if opcode == op.Rotate && ip+1 < cc.InstructionCount() {
			if n := int(cc.InstructionAt(ip + 1)); !vm.set.SupportsRotate(n) {
				return errz.NewStructuredErrorf(errz.ErrConfig, errz.SourceLocation{}, nil,
					"ROTATE %d exceeds the %s instruction set limit of %d", n, vm.set.Name, vm.set.MaxRotate)
			}
		}
		ip += 1 + op.GetInfo(opcode).OperandCount
	}
	return nil
}

func (vm *VirtualMachine) importModule(ctx context.Context, name string) (*object.Module, error) {
	if module, ok := vm.modules[name]; ok {
		return module, nil
	}
	if vm.importer == nil {
		return nil, vm.runtimeError(errz.ErrImport, "imports are disabled")
	}
	cc, err := vm.importer.Import(ctx, name)
	if err != nil {
		return nil, vm.runtimeError(errz.ErrImport, "%v", err)
	}
	if vm.fp+1 >= MaxFrameDepth {
		return nil, vm.evalError("max frame depth of %d exceeded", MaxFrameDepth)
	}
	module := object.NewModule(name, cc)
	globals, err := vm.rootGlobals(cc)
	if err != nil {
		return nil, err
	}
	code, err := vm.loadCode(cc, globals)
	if err != nil {
		return nil, err
	}
	baseFP := vm.fp
	baseIP := vm.ip
	baseSP := vm.sp
	vm.activateCode(vm.fp+1, 0, code)
	defer vm.resumeFrame(baseFP, baseIP, baseSP)
	if err := vm.eval(ctx); err != nil {
		return nil, err
	}
	// Drop the module's result so that only the module object is pushed.
	for vm.sp > baseSP {
		vm.pop()
	}
	module.UseGlobals(code.Globals)
	vm.modules[name] = module
	return module, nil
}

func (vm *VirtualMachine) initContext(ctx context.Context) context.Context {
	return object.WithCallFunc(ctx, vm.callFunction)
}

func (vm *VirtualMachine) globalName(idx int) string {
	if name := vm.activeCode.GlobalNameAt(idx); name != "" {
		return name
	}
	if main, ok := vm.loadedCode[vm.main]; ok {
		if name := main.GlobalNameAt(idx); name != "" {
			return name
		}
	}
	return fmt.Sprintf("global %d", idx)
}

// captureStack builds a stack trace from the current call frames.
func (vm *VirtualMachine) captureStack() []errz.StackFrame {
	var frames []errz.StackFrame
	for i := vm.fp; i >= 0; i-- {
		frame := &vm.frames[i]
		if frame.code == nil {
			continue
		}
		funcName := frame.code.CodeName()
		if frame.fn != nil {
			if funcName = frame.fn.Name(); funcName == "" {
				funcName = "<anonymous>"
			}
		}
		// The active frame reports the current instruction, the others the
		// call they are waiting on.
		ip := vm.ip - 1
		if i < vm.fp {
			ip = vm.frames[i+1].returnAddr - 1
		}
		if ip < 0 {
			ip = 0
		}
		frames = append(frames, errz.StackFrame{
			Function: funcName,
			Location: frame.code.LocationAt(ip),
		})
	}
	return frames
}

// currentLocation returns the source location of the current instruction.
func (vm *VirtualMachine) currentLocation() errz.SourceLocation {
	if vm.activeCode == nil {
		return errz.SourceLocation{}
	}
	ip := vm.ip - 1
	if ip < 0 {
		ip = 0
	}
	return vm.activeCode.LocationAt(ip)
}

func (vm *VirtualMachine) runtimeError(kind errz.ErrorKind, format string, args ...any) *errz.StructuredError {
	return errz.NewStructuredErrorf(kind, vm.currentLocation(), vm.captureStack(), format, args...)
}

func (vm *VirtualMachine) typeError(format string, args ...any) *errz.StructuredError {
	return vm.runtimeError(errz.ErrType, format, args...)
}

func (vm *VirtualMachine) evalError(format string, args ...any) *errz.StructuredError {
	return vm.runtimeError(errz.ErrRuntime, format, args...)
}
