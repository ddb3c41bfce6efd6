package dis

import (
	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/op"
)

// Listing is the editable instruction sequence of one compiled unit.
//
// Params carries everything about the unit other than its instructions:
// metadata, the initial constant and name pools, children and flags. Assemble
// keeps the existing pools in order and appends whatever new constants or
// names the instructions reference.
type Listing struct {
	Params       bytecode.CodeParams
	Instructions []Instruction

	location  bytecode.SourceLocation
	nextLabel int
}

// NewListing returns an empty listing for a unit with the given metadata.
func NewListing(params bytecode.CodeParams) *Listing {
	params.Instructions = nil
	params.Locations = nil
	return &Listing{Params: params}
}

// NewLabel allocates a label that is unique within the listing.
func (l *Listing) NewLabel() *Label {
	l.nextLabel++
	return &Label{id: l.nextLabel}
}

// At sets the source location applied to subsequently emitted instructions.
func (l *Listing) At(line, column int) *Listing {
	l.location = bytecode.SourceLocation{Line: line, Column: column}
	return l
}

// Emit appends an instruction. See Instr for the meaning of args.
func (l *Listing) Emit(code op.Code, args ...any) *Listing {
	l.Instructions = append(l.Instructions, Instr(code, args...).WithLocation(l.location))
	return l
}

// Mark appends a label marker.
func (l *Listing) Mark(label *Label) *Listing {
	l.Instructions = append(l.Instructions, Mark(label))
	return l
}

// Len returns the number of entries, label markers included.
func (l *Listing) Len() int {
	return len(l.Instructions)
}

// Get returns the entry at index i.
func (l *Listing) Get(i int) Instruction {
	return l.Instructions[i]
}

// WithInstructions returns a listing with a copy of this listing's metadata
// and a new instruction sequence.
func (l *Listing) WithInstructions(instructions []Instruction) *Listing {
	params := l.Params
	params.Constants = append([]any(nil), l.Params.Constants...)
	params.Names = append([]string(nil), l.Params.Names...)
	params.Children = append([]*bytecode.Code(nil), l.Params.Children...)
	return &Listing{
		Params:       params,
		Instructions: instructions,
		nextLabel:    l.nextLabel,
	}
}

// LocalName returns the name of a local slot, if known.
func (l *Listing) LocalName(slot int) string {
	if slot < 0 || slot >= len(l.Params.LocalNames) {
		return ""
	}
	return l.Params.LocalNames[slot]
}

// ReplaceConstant swaps a constant in the pool and in every instruction that
// references it.
func (l *Listing) ReplaceConstant(old, replacement any) {
	for i, c := range l.Params.Constants {
		if sameConstant(c, old) {
			l.Params.Constants[i] = replacement
		}
	}
	for i, instr := range l.Instructions {
		if instr.IsLabel() || op.GetInfo(instr.Opcode).Kind != op.OperandConst {
			continue
		}
		if sameConstant(instr.Arg, old) {
			l.Instructions[i].Arg = replacement
		}
	}
}

// ReplaceChild swaps a child unit.
func (l *Listing) ReplaceChild(old, replacement *bytecode.Code) {
	for i, child := range l.Params.Children {
		if child == old {
			l.Params.Children[i] = replacement
		}
	}
}

// sameConstant reports whether two constants would share a pool slot.
func sameConstant(a, b any) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case *bytecode.Function:
		fn, ok := b.(*bytecode.Function)
		return ok && fn == a
	case int64, float64, string, bool, int:
		return a == b
	default:
		return false
	}
}
