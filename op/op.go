// Package op defines opcodes used by the plusplus virtual machine and the
// increment rewriter.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop         Code = 1
	Halt        Code = 2
	Call        Code = 3
	ReturnValue Code = 4

	// Jump
	JumpBackward          Code = 10
	JumpForward           Code = 11
	PopJumpForwardIfFalse Code = 12
	PopJumpForwardIfTrue  Code = 13

	// Load
	LoadAttr   Code = 20
	LoadFast   Code = 21
	LoadFree   Code = 22
	LoadGlobal Code = 23
	LoadConst  Code = 24

	// Store
	StoreAttr   Code = 30
	StoreFast   Code = 31
	StoreFree   Code = 32
	StoreGlobal Code = 33

	// Operations
	BinaryOp      Code = 40
	CompareOp     Code = 41
	UnaryNegative Code = 42
	UnaryNot      Code = 43
	UnaryPositive Code = 44

	// Build
	BuildList Code = 50
	BuildMap  Code = 51

	// Containers
	BinarySubscr Code = 60
	StoreSubscr  Code = 61
	Length       Code = 63
	Unpack       Code = 65 // Pushes items in reverse so the first item ends on top

	// Stack
	Swap   Code = 70 // Swap TOS with the item n slots below it
	Copy   Code = 71 // Push a copy of the item n slots below TOS
	PopTop Code = 72
	Rotate Code = 73 // Move TOS down n-1 slots, lifting the items above it

	// Push constants
	Nil   Code = 80
	False Code = 81
	True  Code = 82

	// Modules
	Import Code = 100

	// Closures
	LoadClosure Code = 120
	MakeCell    Code = 121
)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add      BinaryOpType = 1
	Subtract BinaryOpType = 2
	Multiply BinaryOpType = 3
	Divide   BinaryOpType = 4
	Modulo   BinaryOpType = 5
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// OperandKind describes how the first operand of an opcode is interpreted.
type OperandKind uint8

const (
	OperandNone   OperandKind = iota
	OperandConst              // index into the constant pool
	OperandName               // index into the attribute name table
	OperandLocal              // local variable slot
	OperandGlobal             // global variable slot
	OperandFree               // free variable slot of the active closure
	OperandJump               // relative jump offset
	OperandRaw                // count or operator type
)

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
	Kind         OperandKind

	// Stack effect for opcodes whose effect does not depend on an operand.
	// Variable is set when StackEffect must inspect the operand.
	Pop      int
	Push     int
	Variable bool
}

var (
	infos  = make([]Info, 256)
	byName = map[string]Code{}
)

func init() {
	type opInfo struct {
		op       Code
		name     string
		count    int
		kind     OperandKind
		pop      int
		push     int
		variable bool
	}
	ops := []opInfo{
		{BinaryOp, "BINARY_OP", 1, OperandRaw, 2, 1, false},
		{BinarySubscr, "BINARY_SUBSCR", 0, OperandNone, 2, 1, false},
		{BuildList, "BUILD_LIST", 1, OperandRaw, 0, 1, true},
		{BuildMap, "BUILD_MAP", 1, OperandRaw, 0, 1, true},
		{Call, "CALL", 1, OperandRaw, 0, 1, true},
		{CompareOp, "COMPARE_OP", 1, OperandRaw, 2, 1, false},
		{Copy, "COPY", 1, OperandRaw, 0, 1, false},
		{False, "FALSE", 0, OperandNone, 0, 1, false},
		{Halt, "HALT", 0, OperandNone, 0, 0, false},
		{Import, "IMPORT", 1, OperandConst, 0, 1, false},
		{JumpBackward, "JUMP_BACKWARD", 1, OperandJump, 0, 0, false},
		{JumpForward, "JUMP_FORWARD", 1, OperandJump, 0, 0, false},
		{Length, "LENGTH", 0, OperandNone, 1, 1, false},
		{LoadAttr, "LOAD_ATTR", 1, OperandName, 1, 1, false},
		{LoadClosure, "LOAD_CLOSURE", 2, OperandConst, 0, 1, true},
		{LoadConst, "LOAD_CONST", 1, OperandConst, 0, 1, false},
		{LoadFast, "LOAD_FAST", 1, OperandLocal, 0, 1, false},
		{LoadFree, "LOAD_FREE", 1, OperandFree, 0, 1, false},
		{LoadGlobal, "LOAD_GLOBAL", 1, OperandGlobal, 0, 1, false},
		{MakeCell, "MAKE_CELL", 2, OperandLocal, 0, 1, false},
		{Nil, "NIL", 0, OperandNone, 0, 1, false},
		{Nop, "NOP", 0, OperandNone, 0, 0, false},
		{PopJumpForwardIfFalse, "POP_JUMP_FORWARD_IF_FALSE", 1, OperandJump, 1, 0, false},
		{PopJumpForwardIfTrue, "POP_JUMP_FORWARD_IF_TRUE", 1, OperandJump, 1, 0, false},
		{PopTop, "POP_TOP", 0, OperandNone, 1, 0, false},
		{ReturnValue, "RETURN_VALUE", 0, OperandNone, 1, 0, false},
		{Rotate, "ROTATE", 1, OperandRaw, 0, 0, false},
		{StoreAttr, "STORE_ATTR", 1, OperandName, 2, 0, false},
		{StoreFast, "STORE_FAST", 1, OperandLocal, 1, 0, false},
		{StoreFree, "STORE_FREE", 1, OperandFree, 1, 0, false},
		{StoreGlobal, "STORE_GLOBAL", 1, OperandGlobal, 1, 0, false},
		{StoreSubscr, "STORE_SUBSCR", 0, OperandNone, 3, 0, false},
		{Swap, "SWAP", 1, OperandRaw, 0, 0, false},
		{True, "TRUE", 0, OperandNone, 0, 1, false},
		{UnaryNegative, "UNARY_NEGATIVE", 0, OperandNone, 1, 1, false},
		{UnaryNot, "UNARY_NOT", 0, OperandNone, 1, 1, false},
		{UnaryPositive, "UNARY_POSITIVE", 0, OperandNone, 1, 1, false},
		{Unpack, "UNPACK", 1, OperandRaw, 1, 0, true},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
			Kind:         o.kind,
			Pop:          o.pop,
			Push:         o.push,
			Variable:     o.variable,
		}
		byName[o.name] = o.op
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	if int(op) >= len(infos) {
		return Info{}
	}
	return infos[op]
}

// Lookup returns the opcode with the given name, e.g. "ROTATE".
func Lookup(name string) (Code, bool) {
	code, ok := byName[name]
	return code, ok
}

// Names returns the names of all opcodes in opcode order.
func Names() []string {
	names := make([]string, 0, len(byName))
	for _, info := range infos {
		if info.Name != "" {
			names = append(names, info.Name)
		}
	}
	return names
}

// String returns the opcode name.
func (c Code) String() string {
	if name := GetInfo(c).Name; name != "" {
		return name
	}
	return "INVALID"
}

// StackEffect returns the net change in stack depth caused by executing the
// opcode with the given operands.
func StackEffect(code Code, operands ...int) int {
	info := GetInfo(code)
	if !info.Variable {
		return info.Push - info.Pop
	}
	arg := 0
	if len(operands) > 0 {
		arg = operands[0]
	}
	switch code {
	case Call:
		// callee plus arguments in, result out
		return 1 - (arg + 1)
	case BuildList:
		return 1 - arg
	case BuildMap:
		return 1 - 2*arg
	case Unpack:
		return arg - 1
	case LoadClosure:
		free := 0
		if len(operands) > 1 {
			free = operands[1]
		}
		return 1 - free
	}
	return info.Push - info.Pop
}

// IsJump returns true if the opcode transfers control to a relative offset.
func IsJump(code Code) bool {
	return GetInfo(code).Kind == OperandJump
}
