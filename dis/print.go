package dis

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/op"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	italic  = color.New(color.Italic).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
	cyan    = color.New(color.FgHiCyan).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)

// Print writes a table of the listing's instructions to the given writer.
// Colors follow color.NoColor.
func Print(writer io.Writer, l *Listing) error {
	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tLINE\tOPCODE\tOPERANDS\tINFO")
	offsets := l.Offsets()
	for i, instr := range l.Instructions {
		if instr.IsLabel() {
			fmt.Fprintf(tw, "\t\t%s\t\t\n", faint(instr.String()))
			continue
		}
		line := ""
		if instr.Location.Line > 0 {
			line = fmt.Sprintf("%d", instr.Location.Line)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			offsets[i], line, bold(instr.Opcode.String()), operands(instr), l.annotate(instr))
	}
	return tw.Flush()
}

func operands(instr Instruction) string {
	info := op.GetInfo(instr.Opcode)
	switch {
	case info.OperandCount == 0:
		return ""
	case info.Kind == op.OperandJump:
		return fmt.Sprintf("%v", instr.Arg)
	case info.Kind == op.OperandConst || info.Kind == op.OperandName:
		if info.OperandCount > 1 {
			return fmt.Sprintf("%d", instr.Extra)
		}
		return ""
	case info.OperandCount > 1:
		return fmt.Sprintf("%d, %d", instr.IntArg(), instr.Extra)
	default:
		return fmt.Sprintf("%d", instr.IntArg())
	}
}

func (l *Listing) annotate(instr Instruction) string {
	info := op.GetInfo(instr.Opcode)
	switch info.Kind {
	case op.OperandConst:
		switch c := instr.Arg.(type) {
		case int64, int, float64:
			return yellow(formatConstant(c))
		case string:
			return green(formatConstant(c))
		case *bytecode.Function:
			if c.Name() == "" {
				return magenta("func:") + italic("<anonymous>")
			}
			return magenta(formatConstant(c))
		default:
			return bold(formatConstant(c))
		}
	case op.OperandName:
		return cyan(instr.Arg)
	case op.OperandLocal:
		if name := l.LocalName(instr.IntArg()); name != "" {
			return cyan(name)
		}
		return cyan(fmt.Sprintf("local_%d", instr.IntArg()))
	case op.OperandGlobal:
		if idx := instr.IntArg(); idx < len(l.Params.GlobalNames) {
			return cyan(l.Params.GlobalNames[idx])
		}
	}
	switch instr.Opcode {
	case op.BinaryOp:
		return cyan(op.BinaryOpType(instr.IntArg()).String())
	case op.CompareOp:
		return cyan(op.CompareOpType(instr.IntArg()).String())
	}
	return ""
}
