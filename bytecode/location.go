package bytecode

import "strconv"

// SourceLocation is the line and column an instruction was compiled from.
// The filename and source text live on the Code that owns the instruction.
type SourceLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// IsZero reports whether no position was recorded.
func (s SourceLocation) IsZero() bool {
	return s == SourceLocation{}
}

func (s SourceLocation) String() string {
	if s.IsZero() {
		return "-"
	}
	return strconv.Itoa(s.Line) + ":" + strconv.Itoa(s.Column)
}
