package dis

import (
	"fmt"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/op"
)

// Label marks a jump target inside a Listing. Labels appear in the
// instruction sequence as zero-width markers.
type Label struct {
	id int
}

func (l *Label) String() string {
	return fmt.Sprintf("L%d", l.id)
}

// Instruction is one editable instruction. Its argument is resolved to what
// the operand means rather than the raw pool index:
//
//   - constant value for LOAD_CONST, IMPORT and LOAD_CLOSURE
//   - attribute name (string) for LOAD_ATTR and STORE_ATTR
//   - *Label for jumps
//   - int for slots, counts and operator types
//
// Extra holds the second operand of LOAD_CLOSURE and MAKE_CELL.
type Instruction struct {
	Opcode   op.Code
	Arg      any
	Extra    int
	Location bytecode.SourceLocation
	Label    *Label // set only on label markers
}

// Instr returns an instruction with the given opcode and optional argument
// and second operand.
func Instr(code op.Code, args ...any) Instruction {
	instr := Instruction{Opcode: code}
	if len(args) > 0 {
		instr.Arg = args[0]
	}
	if len(args) > 1 {
		if extra, ok := args[1].(int); ok {
			instr.Extra = extra
		}
	}
	return instr
}

// Mark returns the label marker for l.
func Mark(l *Label) Instruction {
	return Instruction{Label: l}
}

// IsLabel returns true if this is a label marker rather than an instruction.
func (i Instruction) IsLabel() bool {
	return i.Label != nil
}

// Is returns true if the instruction has the given opcode.
func (i Instruction) Is(code op.Code) bool {
	return !i.IsLabel() && i.Opcode == code
}

// IntArg returns the argument as an int, or 0 if it is not an int.
func (i Instruction) IntArg() int {
	n, _ := i.Arg.(int)
	return n
}

// Target returns the jump target of a jump instruction.
func (i Instruction) Target() (*Label, bool) {
	l, ok := i.Arg.(*Label)
	return l, ok
}

// StackEffect returns the net change in stack depth caused by the
// instruction. Label markers have no effect.
func (i Instruction) StackEffect() int {
	if i.IsLabel() {
		return 0
	}
	return op.StackEffect(i.Opcode, i.IntArg(), i.Extra)
}

// WithLocation returns a copy of the instruction at the given location.
func (i Instruction) WithLocation(loc bytecode.SourceLocation) Instruction {
	i.Location = loc
	return i
}

func (i Instruction) String() string {
	if i.IsLabel() {
		return i.Label.String() + ":"
	}
	info := op.GetInfo(i.Opcode)
	switch info.OperandCount {
	case 0:
		return info.Name
	case 1:
		if info.Kind == op.OperandConst {
			return fmt.Sprintf("%s %s", info.Name, formatConstant(i.Arg))
		}
		return fmt.Sprintf("%s %v", info.Name, i.Arg)
	default:
		if info.Kind == op.OperandConst {
			return fmt.Sprintf("%s %s %d", info.Name, formatConstant(i.Arg), i.Extra)
		}
		return fmt.Sprintf("%s %v %d", info.Name, i.Arg, i.Extra)
	}
}

func formatConstant(c any) string {
	switch c := c.(type) {
	case nil:
		return "nil"
	case string:
		if len(c) > 80 {
			c = c[:77] + "..."
		}
		return fmt.Sprintf("%q", c)
	case *bytecode.Function:
		if c.Name() == "" {
			return "func:<anonymous>"
		}
		return "func:" + c.Name()
	default:
		return fmt.Sprintf("%v", c)
	}
}
