// Package dis converts compiled bytecode to and from an editable listing.
//
// Disassemble resolves pool indices to the values they refer to and turns
// relative jump offsets into labels, so instructions can be inserted or
// removed freely. Assemble reverses the process, recomputing offsets and
// appending any constants or names introduced by the edit.
package dis

import (
	"fmt"
	"math"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/op"
)

// Disassemble returns an editable listing for the given code.
func Disassemble(code *bytecode.Code) (*Listing, error) {
	params := code.Params()
	listing := NewListing(params)
	instructions := params.Instructions

	type decoded struct {
		offset int
		instr  Instruction
		target int // absolute jump target, or -1
	}
	var items []decoded
	boundaries := map[int]bool{}

	for offset := 0; offset < len(instructions); {
		opcode := instructions[offset]
		info := op.GetInfo(opcode)
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode %d at offset %d", opcode, offset)
		}
		if offset+info.OperandCount >= len(instructions) {
			return nil, fmt.Errorf("truncated %s at offset %d", info.Name, offset)
		}
		boundaries[offset] = true
		instr := Instruction{Opcode: opcode, Location: code.LocationAt(offset)}
		item := decoded{offset: offset, target: -1}
		if info.OperandCount > 0 {
			operand := int(instructions[offset+1])
			switch info.Kind {
			case op.OperandConst:
				if operand >= code.ConstantCount() {
					return nil, fmt.Errorf("constant index out of range: %d", operand)
				}
				instr.Arg = code.ConstantAt(operand)
			case op.OperandName:
				if operand >= code.NameCount() {
					return nil, fmt.Errorf("name index out of range: %d", operand)
				}
				instr.Arg = code.NameAt(operand)
			case op.OperandJump:
				if opcode == op.JumpBackward {
					item.target = offset - operand
				} else {
					item.target = offset + operand
				}
			default:
				instr.Arg = operand
			}
			if info.OperandCount > 1 {
				instr.Extra = int(instructions[offset+2])
			}
		}
		item.instr = instr
		items = append(items, item)
		offset += 1 + info.OperandCount
	}
	boundaries[len(instructions)] = true

	labels := map[int]*Label{}
	for i, item := range items {
		if item.target < 0 {
			continue
		}
		if !boundaries[item.target] {
			return nil, fmt.Errorf("%s at offset %d targets offset %d, which is not an instruction boundary",
				item.instr.Opcode, item.offset, item.target)
		}
		label, ok := labels[item.target]
		if !ok {
			label = listing.NewLabel()
			labels[item.target] = label
		}
		items[i].instr.Arg = label
	}

	for _, item := range items {
		if label, ok := labels[item.offset]; ok {
			listing.Mark(label)
		}
		listing.Instructions = append(listing.Instructions, item.instr)
	}
	if label, ok := labels[len(instructions)]; ok {
		listing.Mark(label)
	}
	return listing, nil
}

// Offsets returns the instruction word offset of every entry in the listing.
// A label marker shares the offset of the instruction that follows it.
func (l *Listing) Offsets() []int {
	offsets := make([]int, len(l.Instructions))
	offset := 0
	for i, instr := range l.Instructions {
		offsets[i] = offset
		if !instr.IsLabel() {
			offset += 1 + op.GetInfo(instr.Opcode).OperandCount
		}
	}
	return offsets
}

// Assemble builds compiled code from the listing.
func Assemble(l *Listing) (*bytecode.Code, error) {
	params := l.Params
	params.Constants = append([]any(nil), l.Params.Constants...)
	params.Names = append([]string(nil), l.Params.Names...)

	offsets := l.Offsets()
	targets := map[*Label]int{}
	size := 0
	for i, instr := range l.Instructions {
		if instr.IsLabel() {
			targets[instr.Label] = offsets[i]
			continue
		}
		info := op.GetInfo(instr.Opcode)
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode %d at entry %d", instr.Opcode, i)
		}
		size = offsets[i] + 1 + info.OperandCount
	}

	words := make([]op.Code, 0, size)
	locations := make([]bytecode.SourceLocation, 0, size)
	maxCallArgs := params.MaxCallArgs

	for i, instr := range l.Instructions {
		if instr.IsLabel() {
			continue
		}
		info := op.GetInfo(instr.Opcode)
		operands := make([]int, 0, 2)
		if info.OperandCount > 0 {
			var operand int
			switch info.Kind {
			case op.OperandConst:
				operand = constantIndex(&params.Constants, instr.Arg)
			case op.OperandName:
				name, ok := instr.Arg.(string)
				if !ok {
					return nil, fmt.Errorf("%s expects a name argument (got %T)", info.Name, instr.Arg)
				}
				operand = nameIndex(&params.Names, name)
			case op.OperandJump:
				label, ok := instr.Target()
				if !ok {
					return nil, fmt.Errorf("%s expects a label argument (got %T)", info.Name, instr.Arg)
				}
				target, ok := targets[label]
				if !ok {
					return nil, fmt.Errorf("%s targets %s, which is not marked", info.Name, label)
				}
				if instr.Opcode == op.JumpBackward {
					operand = offsets[i] - target
				} else {
					operand = target - offsets[i]
				}
				if operand < 0 {
					return nil, fmt.Errorf("%s at offset %d cannot reach offset %d", info.Name, offsets[i], target)
				}
			default:
				n, ok := instr.Arg.(int)
				if !ok {
					return nil, fmt.Errorf("%s expects an integer argument (got %T)", info.Name, instr.Arg)
				}
				operand = n
			}
			operands = append(operands, operand)
			if info.OperandCount > 1 {
				operands = append(operands, instr.Extra)
			}
		}
		if instr.Opcode == op.Call && operands[0] > maxCallArgs {
			maxCallArgs = operands[0]
		}
		words = append(words, instr.Opcode)
		for _, operand := range operands {
			if operand < 0 || operand > math.MaxUint16 {
				return nil, fmt.Errorf("%s operand out of range: %d", info.Name, operand)
			}
			words = append(words, op.Code(operand))
		}
		for j := 0; j <= len(operands); j++ {
			locations = append(locations, instr.Location)
		}
	}

	params.Instructions = words
	params.Locations = locations
	params.MaxCallArgs = maxCallArgs
	return bytecode.NewCode(params), nil
}

func constantIndex(pool *[]any, value any) int {
	for i, c := range *pool {
		if sameConstant(c, value) {
			return i
		}
	}
	*pool = append(*pool, value)
	return len(*pool) - 1
}

func nameIndex(pool *[]string, name string) int {
	for i, n := range *pool {
		if n == name {
			return i
		}
	}
	*pool = append(*pool, name)
	return len(*pool) - 1
}
