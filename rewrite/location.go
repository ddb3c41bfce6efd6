package rewrite

import (
	"fmt"

	"github.com/cloudcmds/plusplus/dis"
	"github.com/cloudcmds/plusplus/op"
)

// Location describes where the operand of an update is stored. It is one of
// PlainSlot, Attribute or Subscript.
type Location interface {
	Kind() string
	isLocation()
}

// Span is a half-open range of listing entries that leaves exactly one value
// on the stack. Known is false when the range could not be recovered.
type Span struct {
	Start int
	End   int
	Known bool
}

func (s Span) String() string {
	if !s.Known {
		return "unknown"
	}
	return fmt.Sprintf("[%d:%d]", s.Start, s.End)
}

// PlainSlot is a local, free or global variable.
type PlainSlot struct {
	Load  dis.Instruction
	Store op.Code
}

// Attribute is an attribute of an object produced by Base.
type Attribute struct {
	Name string
	Base Span
}

// Subscript is an item of a container produced by Container, keyed by the
// value produced by Key.
type Subscript struct {
	Container Span
	Key       Span
}

func (PlainSlot) Kind() string { return "slot" }
func (Attribute) Kind() string { return "attribute" }
func (Subscript) Kind() string { return "subscript" }

func (PlainSlot) isLocation() {}
func (Attribute) isLocation() {}
func (Subscript) isLocation() {}

var storeFor = map[op.Code]op.Code{
	op.LoadFast:   op.StoreFast,
	op.LoadFree:   op.StoreFree,
	op.LoadGlobal: op.StoreGlobal,
}

// UnclassifiableError reports an operand whose storage location is unknown.
type UnclassifiableError struct {
	Producer dis.Instruction
	HasLoad  bool
}

func (e *UnclassifiableError) Error() string {
	if !e.HasLoad {
		return "operand has no producing instruction"
	}
	return fmt.Sprintf("operand produced by %s is not assignable", e.Producer.Opcode)
}

// Classify returns the location of the operand of the given match.
func Classify(l *dis.Listing, m Match) (Location, error) {
	if m.Load < 0 {
		return nil, &UnclassifiableError{}
	}
	load := l.Get(m.Load)
	if store, ok := storeFor[load.Opcode]; ok {
		return PlainSlot{Load: load, Store: store}, nil
	}
	switch load.Opcode {
	case op.LoadAttr:
		name, ok := load.Arg.(string)
		if !ok {
			return nil, &UnclassifiableError{Producer: load, HasLoad: true}
		}
		return Attribute{Name: name, Base: producerSpan(l, m.Load)}, nil
	case op.BinarySubscr:
		key := producerSpan(l, m.Load)
		container := Span{}
		if key.Known {
			container = producerSpan(l, key.Start)
		}
		return Subscript{Container: container, Key: key}, nil
	}
	return nil, &UnclassifiableError{Producer: load, HasLoad: true}
}

// producerSpan walks backward from entry end and returns the entries that
// push the single value on top of the stack at that point.
func producerSpan(l *dis.Listing, end int) Span {
	need := 1
	for i := end - 1; i >= 0; i-- {
		instr := l.Get(i)
		if instr.IsLabel() || op.IsJump(instr.Opcode) {
			return Span{}
		}
		info := op.GetInfo(instr.Opcode)
		push := info.Push
		if instr.Opcode == op.Unpack {
			push = instr.IntArg()
		}
		pop := push - instr.StackEffect()
		if push > need {
			return Span{}
		}
		need += pop - push
		if need == 0 {
			return Span{Start: i, End: end, Known: true}
		}
	}
	return Span{}
}
