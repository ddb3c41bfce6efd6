// Package errz defines the structured errors reported by the rewriter, the
// virtual machine and the engine configuration.
package errz

import (
	"fmt"
	"strings"
)

// SourceLocation points at the instruction an error was raised for.
// Line and Column are 1-based; Source holds the text of that line when the
// unit carried its source.
type SourceLocation struct {
	Filename string
	Line     int
	Column   int
	Source   string
}

func (s SourceLocation) String() string {
	pos := fmt.Sprintf("%d:%d", s.Line, s.Column)
	if s.Filename == "" {
		return pos
	}
	return s.Filename + ":" + pos
}

// IsZero reports whether no position was recorded.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// StackFrame is one active call at the time of an error. Function is empty
// for the top-level unit.
type StackFrame struct {
	Function string
	Location SourceLocation
}

func (f StackFrame) String() string {
	if f.Function == "" {
		return "at " + f.Location.String()
	}
	return fmt.Sprintf("at %s (%s)", f.Function, f.Location)
}

// FormatStackTrace renders frames innermost first, one per line.
func FormatStackTrace(frames []StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	lines := make([]string, 0, len(frames)+1)
	lines = append(lines, "Stack trace:")
	for _, frame := range frames {
		lines = append(lines, "  "+frame.String())
	}
	return strings.Join(lines, "\n") + "\n"
}
