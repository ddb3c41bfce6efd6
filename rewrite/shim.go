package rewrite

import (
	"github.com/cloudcmds/plusplus/dis"
	"github.com/cloudcmds/plusplus/op"
)

// sinkOne moves the two identical values on top of the stack below the item
// beneath them: [o, v, v] becomes [v, v, o].
func sinkOne() []dis.Instruction {
	return []dis.Instruction{
		dis.Instr(op.Rotate, 3),
		dis.Instr(op.Rotate, 3),
	}
}

// sinkPair moves the two identical values on top of the stack below the two
// items beneath them: [c, k, v, v] becomes [v, v, c, k].
//
// Hosts without a 4-slot rotation pack the four items into a list and unpack
// them again, which reverses them to [v, v, k, c]. Swapping the top two then
// restores the container and key order. This only works because the two
// values sunk are the same object.
func sinkPair(set op.InstructionSet) []dis.Instruction {
	if set.SupportsRotate(4) {
		return []dis.Instruction{
			dis.Instr(op.Rotate, 4),
			dis.Instr(op.Rotate, 4),
		}
	}
	return []dis.Instruction{
		dis.Instr(op.BuildList, 4),
		dis.Instr(op.Unpack, 4),
		dis.Instr(op.Swap, 1),
	}
}

// Requirements returns the opcodes a host must support for rewritten code to
// run on it, given its rotation limit.
func Requirements(set op.InstructionSet) []op.Code {
	required := []op.Code{
		op.LoadConst,
		op.BinaryOp,
		op.Copy,
		op.StoreAttr,
		op.StoreSubscr,
		op.BinarySubscr,
		op.Rotate,
	}
	if !set.SupportsRotate(4) {
		required = append(required, op.BuildList, op.Unpack, op.Swap)
	}
	return required
}
