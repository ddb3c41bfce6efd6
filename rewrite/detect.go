package rewrite

import (
	"strings"

	"github.com/cloudcmds/plusplus/dis"
	"github.com/cloudcmds/plusplus/op"
)

// DefaultIntrospectionPrefix is the local name prefix of the temporaries that
// assertion introspection stores intermediate values in.
const DefaultIntrospectionPrefix = "@assert"

// Polarity is the direction of an update.
type Polarity int

const (
	Increment Polarity = iota
	Decrement
)

func (p Polarity) String() string {
	if p == Decrement {
		return "decrement"
	}
	return "increment"
}

// Operator returns the binary operator that applies the update.
func (p Polarity) Operator() op.BinaryOpType {
	if p == Decrement {
		return op.Subtract
	}
	return op.Add
}

func polarityOf(code op.Code) (Polarity, bool) {
	switch code {
	case op.UnaryPositive:
		return Increment, true
	case op.UnaryNegative:
		return Decrement, true
	}
	return 0, false
}

// Match is one pair of same-polarity unary operators. Indices refer to
// entries of the scanned listing.
type Match struct {
	Load     int // producer of the operand, or -1 if there is none
	First    int
	Second   int
	Captures []int // STORE_FAST entries of removed capture pairs
	Polarity Polarity
}

// Start returns the index of the first entry replaced by a rewrite.
func (m Match) Start() int {
	if m.Load >= 0 {
		return m.Load
	}
	return m.First
}

// End returns one past the last entry replaced by a rewrite.
func (m Match) End() int {
	return m.Second + 1
}

// Detector finds increment and decrement candidates in a listing.
type Detector struct {
	prefix string
}

// NewDetector returns a detector that tolerates capture pairs on locals whose
// names start with prefix.
func NewDetector(prefix string) *Detector {
	if prefix == "" {
		prefix = DefaultIntrospectionPrefix
	}
	return &Detector{prefix: prefix}
}

// Find returns the non-overlapping matches in the listing, left to right.
// A run of more than two unaries is consumed pairwise.
func (d *Detector) Find(l *dis.Listing) []Match {
	var matches []Match
	instrs := l.Instructions
	last := -1
	for i := 0; i < len(instrs); i++ {
		polarity, ok := polarityOf(instrs[i].Opcode)
		if !ok || instrs[i].IsLabel() {
			continue
		}
		var captures []int
		second := i + 1
		if d.isCapture(l, second) {
			captures = append(captures, second)
			second += 2
		}
		if second >= len(instrs) || instrs[second].IsLabel() {
			continue
		}
		if p, ok := polarityOf(instrs[second].Opcode); !ok || p != polarity {
			continue
		}
		// A capture of the loaded value may precede the first unary as well.
		load := i - 1
		if i-2 > last && d.isCapture(l, i-2) {
			captures = append([]int{i - 2}, captures...)
			load = i - 3
		}
		if load <= last || (load >= 0 && instrs[load].IsLabel()) {
			load = -1
		}
		matches = append(matches, Match{
			Load:     load,
			First:    i,
			Second:   second,
			Captures: captures,
			Polarity: polarity,
		})
		i, last = second, second
	}
	return matches
}

// isCapture reports whether entries i and i+1 are STORE_FAST k; LOAD_FAST k
// on an introspection temporary.
func (d *Detector) isCapture(l *dis.Listing, i int) bool {
	if i < 0 || i+1 >= l.Len() {
		return false
	}
	store, load := l.Get(i), l.Get(i+1)
	if !store.Is(op.StoreFast) || !load.Is(op.LoadFast) {
		return false
	}
	if store.IntArg() != load.IntArg() {
		return false
	}
	return strings.HasPrefix(l.LocalName(store.IntArg()), d.prefix)
}
