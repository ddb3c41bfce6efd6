// Package rewrite replaces pairs of same-polarity unary operators with
// in-place increments and decrements.
//
// In source, ++x and --x compile to two UNARY_POSITIVE or two UNARY_NEGATIVE
// instructions, which leave the operand unchanged. The rewriter turns each
// such pair into an update of the operand's storage location whose result
// is also left on the stack as the value of the expression.
package rewrite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/dis"
	"github.com/cloudcmds/plusplus/errz"
	"github.com/cloudcmds/plusplus/op"
)

// Config controls a Rewriter.
type Config struct {
	// InstructionSet is the host the rewritten code will run on. The zero
	// value means op.Standard.
	InstructionSet op.InstructionSet

	// Strict makes unassignable operands a syntax error instead of leaving
	// them unrewritten.
	Strict bool

	// IntrospectionPrefix names the locals used by assertion introspection.
	IntrospectionPrefix string

	Logger *zerolog.Logger
}

// Event records one match and what was done with it.
type Event struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Polarity string `json:"polarity"`
	Kind     string `json:"kind,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Rewriter rewrites the listing of a single unit.
type Rewriter struct {
	detector *Detector
	set      op.InstructionSet
	strict   bool
	logger   zerolog.Logger
}

// New returns a Rewriter for the given configuration.
func New(cfg Config) *Rewriter {
	set := cfg.InstructionSet
	if set.Name == "" {
		set = op.Standard
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Rewriter{
		detector: NewDetector(cfg.IntrospectionPrefix),
		set:      set,
		strict:   cfg.Strict,
		logger:   logger,
	}
}

// Rewrite returns a new listing with every classifiable match replaced. The
// input listing is not modified.
func (r *Rewriter) Rewrite(l *dis.Listing) (*dis.Listing, UnitReport, error) {
	unit := unitName(l.Params.Name)
	report := UnitReport{Name: unit}
	matches := r.detector.Find(l)
	if len(matches) == 0 {
		return l.WithInstructions(append([]dis.Instruction(nil), l.Instructions...)), report, nil
	}
	out := make([]dis.Instruction, 0, l.Len()+8*len(matches))
	pos := 0
	for _, m := range matches {
		first := l.Get(m.First)
		event := Event{
			Line:     first.Location.Line,
			Column:   first.Location.Column,
			Polarity: m.Polarity.String(),
		}
		loc, err := Classify(l, m)
		if err != nil {
			if r.strict {
				return nil, report, r.syntaxError(l, first, m.Polarity, err)
			}
			event.Reason = err.Error()
			report.Skipped = append(report.Skipped, event)
			r.logger.Debug().
				Str("unit", unit).
				Int("line", event.Line).
				Str("polarity", event.Polarity).
				Str("reason", event.Reason).
				Msg("left unary pair unrewritten")
			continue
		}
		load := l.Get(m.Load)
		replacement := r.replacement(loc, m.Polarity)
		for i := range replacement {
			replacement[i].Location = load.Location
		}
		if err := checkStackEffect(l.Instructions[m.Start():m.End()], replacement); err != nil {
			return nil, report, fmt.Errorf("%s: %s at line %d: %w", unit, loc.Kind(), event.Line, err)
		}
		out = append(out, l.Instructions[pos:m.Start()]...)
		out = append(out, replacement...)
		pos = m.End()

		event.Kind = loc.Kind()
		report.Applied = append(report.Applied, event)
		r.logger.Debug().
			Str("unit", unit).
			Int("line", event.Line).
			Str("kind", event.Kind).
			Str("polarity", event.Polarity).
			Msg("rewrote unary pair")
	}
	out = append(out, l.Instructions[pos:]...)
	return l.WithInstructions(out), report, nil
}

// replacement returns the instructions that update the given location and
// leave the new value on the stack.
func (r *Rewriter) replacement(loc Location, polarity Polarity) []dis.Instruction {
	update := []dis.Instruction{
		dis.Instr(op.LoadConst, int64(1)),
		dis.Instr(op.BinaryOp, int(polarity.Operator())),
		dis.Instr(op.Copy, 0),
	}
	var instrs []dis.Instruction
	switch loc := loc.(type) {
	case PlainSlot:
		instrs = append(instrs, dis.Instr(loc.Load.Opcode, loc.Load.Arg))
		instrs = append(instrs, update...)
		instrs = append(instrs, dis.Instr(loc.Store, loc.Load.Arg))
	case Attribute:
		instrs = append(instrs,
			dis.Instr(op.Copy, 0),
			dis.Instr(op.LoadAttr, loc.Name))
		instrs = append(instrs, update...)
		instrs = append(instrs, sinkOne()...)
		instrs = append(instrs, dis.Instr(op.StoreAttr, loc.Name))
	case Subscript:
		instrs = append(instrs,
			dis.Instr(op.Copy, 1),
			dis.Instr(op.Copy, 1),
			dis.Instr(op.BinarySubscr))
		instrs = append(instrs, update...)
		instrs = append(instrs, sinkPair(r.set)...)
		instrs = append(instrs, dis.Instr(op.StoreSubscr))
	default:
		panic(fmt.Sprintf("unexpected location type %T", loc))
	}
	return instrs
}

var errStackEffect = errors.New("replacement changes the stack depth")

// checkStackEffect verifies a replacement leaves the stack exactly as the
// instructions it replaces do.
func checkStackEffect(original, replacement []dis.Instruction) error {
	want, got := 0, 0
	for _, instr := range original {
		want += instr.StackEffect()
	}
	for _, instr := range replacement {
		got += instr.StackEffect()
	}
	if want != got {
		return fmt.Errorf("%w: %d != %d", errStackEffect, got, want)
	}
	return nil
}

func (r *Rewriter) syntaxError(l *dis.Listing, at dis.Instruction, polarity Polarity, cause error) error {
	operator := "++"
	if polarity == Decrement {
		operator = "--"
	}
	loc := errz.SourceLocation{
		Filename: l.Params.Filename,
		Line:     at.Location.Line,
		Column:   at.Location.Column,
		Source:   sourceLine(l.Params.Source, at.Location.Line),
	}
	return errz.NewStructuredErrorf(errz.ErrSyntax, loc, nil,
		"cannot apply %s in %s: %v", operator, unitName(l.Params.Name), cause).WithCause(cause)
}

func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func unitName(name string) string {
	if name == "" {
		return "<main>"
	}
	return name
}

// Transform disassembles, rewrites and reassembles a single unit without
// descending into its children.
func (r *Rewriter) Transform(code *bytecode.Code) (*bytecode.Code, UnitReport, error) {
	listing, err := dis.Disassemble(code)
	if err != nil {
		return nil, UnitReport{Name: unitName(code.Name())}, err
	}
	return r.assemble(listing)
}

func (r *Rewriter) assemble(listing *dis.Listing) (*bytecode.Code, UnitReport, error) {
	rewritten, report, err := r.Rewrite(listing)
	if err != nil {
		return nil, report, err
	}
	rewritten.Params.Flags |= bytecode.FlagIncrements
	out, err := dis.Assemble(rewritten)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}
