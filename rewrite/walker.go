package rewrite

import (
	"github.com/rs/zerolog"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/dis"
)

// UnitReport summarizes the rewrite of one unit.
type UnitReport struct {
	Name             string  `json:"name"`
	AlreadyRewritten bool    `json:"already_rewritten,omitempty"`
	Applied          []Event `json:"applied,omitempty"`
	Skipped          []Event `json:"skipped,omitempty"`
}

// Report summarizes the rewrite of a unit tree. Units are listed children
// first.
type Report struct {
	Units []UnitReport `json:"units"`
}

// AppliedCount returns the number of rewritten pairs across all units.
func (r *Report) AppliedCount() int {
	count := 0
	for _, unit := range r.Units {
		count += len(unit.Applied)
	}
	return count
}

// SkippedCount returns the number of pairs left unrewritten across all units.
func (r *Report) SkippedCount() int {
	count := 0
	for _, unit := range r.Units {
		count += len(unit.Skipped)
	}
	return count
}

// Walker applies a Rewriter to a unit and every unit nested inside it.
type Walker struct {
	rewriter *Rewriter
	logger   zerolog.Logger
}

// NewWalker returns a Walker for the given configuration.
func NewWalker(cfg Config) *Walker {
	rewriter := New(cfg)
	return &Walker{rewriter: rewriter, logger: rewriter.logger}
}

type node struct {
	code     *bytecode.Code
	children []int
}

// arena holds a unit tree flattened so that every unit comes after the units
// nested inside it.
type arena struct {
	nodes []node
	index map[*bytecode.Code]int
}

func newArena(root *bytecode.Code) *arena {
	a := &arena{index: map[*bytecode.Code]int{}}
	a.add(root)
	return a
}

func (a *arena) add(code *bytecode.Code) int {
	if i, ok := a.index[code]; ok {
		return i
	}
	var children []int
	if !code.Flags().Has(bytecode.FlagIncrements) {
		for _, child := range nested(code) {
			children = append(children, a.add(child))
		}
	}
	a.nodes = append(a.nodes, node{code: code, children: children})
	a.index[code] = len(a.nodes) - 1
	return len(a.nodes) - 1
}

// nested returns the child units of code and the bodies of its function
// constants, without duplicates.
func nested(code *bytecode.Code) []*bytecode.Code {
	var units []*bytecode.Code
	seen := map[*bytecode.Code]bool{}
	add := func(c *bytecode.Code) {
		if c != nil && !seen[c] {
			seen[c] = true
			units = append(units, c)
		}
	}
	for i := 0; i < code.ChildCount(); i++ {
		add(code.ChildAt(i))
	}
	for i := 0; i < code.ConstantCount(); i++ {
		if fn, ok := code.ConstantAt(i).(*bytecode.Function); ok {
			add(fn.Code())
		}
	}
	return units
}

// Transform returns a rewritten copy of the unit tree rooted at code. Units
// already carrying bytecode.FlagIncrements are returned as they are.
func (w *Walker) Transform(code *bytecode.Code) (*bytecode.Code, *Report, error) {
	report := &Report{}
	a := newArena(code)
	results := make([]*bytecode.Code, len(a.nodes))
	for i, n := range a.nodes {
		if n.code.Flags().Has(bytecode.FlagIncrements) {
			results[i] = n.code
			report.Units = append(report.Units, UnitReport{
				Name:             unitName(n.code.Name()),
				AlreadyRewritten: true,
			})
			continue
		}
		listing, err := dis.Disassemble(n.code)
		if err != nil {
			return nil, report, err
		}
		for _, c := range n.children {
			if old, updated := a.nodes[c].code, results[c]; old != updated {
				replaceUnit(listing, old, updated)
			}
		}
		out, unit, err := w.rewriter.assemble(listing)
		if err != nil {
			return nil, report, err
		}
		w.logger.Debug().
			Str("unit", unit.Name).
			Int("instructions_before", n.code.Stats().InstructionCount).
			Int("instructions_after", out.Stats().InstructionCount).
			Int("applied", len(unit.Applied)).
			Int("skipped", len(unit.Skipped)).
			Msg("rewrote unit")
		results[i] = out
		report.Units = append(report.Units, unit)
	}
	return results[len(results)-1], report, nil
}

// replaceUnit points the listing's children and function constants at the
// rewritten version of a nested unit.
func replaceUnit(l *dis.Listing, old, updated *bytecode.Code) {
	l.ReplaceChild(old, updated)
	for _, c := range l.Params.Constants {
		if fn, ok := c.(*bytecode.Function); ok && fn.Code() == old {
			l.ReplaceConstant(fn, fn.WithCode(updated))
		}
	}
}
