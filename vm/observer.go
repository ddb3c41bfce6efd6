package vm

import (
	"github.com/cloudcmds/plusplus/errz"
	"github.com/cloudcmds/plusplus/op"
)

// Observer receives execution events synchronously from the run loop.
// A method that returns false stops the VM.
type Observer interface {
	OnStep(event StepEvent) bool
	OnCall(event CallEvent) bool
	OnReturn(event ReturnEvent) bool
}

// StepEvent is sent before an instruction runs.
type StepEvent struct {
	IP         int
	Opcode     op.Code
	Location   errz.SourceLocation
	StackDepth int // values on the stack
	FrameDepth int // active calls, 0 in the main unit
}

// CallEvent is sent after a frame is pushed for a compiled function.
// FunctionName is empty for anonymous functions.
type CallEvent struct {
	FunctionName string
	ArgCount     int
	FrameDepth   int
}

// ReturnEvent is sent after a compiled function's frame is popped.
type ReturnEvent struct {
	FunctionName string
	FrameDepth   int
}

// NoOpObserver accepts every event. Embed it to implement only some methods.
type NoOpObserver struct{}

var _ Observer = NoOpObserver{}

func (NoOpObserver) OnStep(StepEvent) bool     { return true }
func (NoOpObserver) OnCall(CallEvent) bool     { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool { return true }
