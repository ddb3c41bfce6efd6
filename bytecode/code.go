package bytecode

import (
	"slices"
	"strings"

	"github.com/cloudcmds/plusplus/op"
)

// Flags holds per-unit markers that travel with a compiled code block.
type Flags uint32

const (
	// FlagIncrements marks code whose increment and decrement expressions
	// have already been rewritten. Rewriting marked code is a no-op.
	FlagIncrements Flags = 1 << 0
)

// Has returns true if all bits in f are set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// Code represents a compiled code block (module, function body, etc.).
// It is immutable after creation and safe for concurrent use.
type Code struct {
	id       string
	name     string
	isNamed  bool
	children []*Code

	instructions []op.Code
	constants    []any
	names        []string
	source       string
	filename     string
	functionID   string
	flags        Flags

	// Source map: one location per instruction word for error reporting
	locations []SourceLocation

	maxCallArgs int
	localCount  int
	globalCount int

	// Global variable names (only set on root code)
	globalNames []string

	// Local variable names (for debugging/disassembly)
	localNames []string
}

// CodeParams contains parameters for creating a new Code.
type CodeParams struct {
	ID           string
	Name         string
	IsNamed      bool
	Children     []*Code // Pre-built child code blocks
	Instructions []op.Code
	Constants    []any
	Names        []string
	Source       string
	Filename     string
	FunctionID   string
	Flags        Flags
	Locations    []SourceLocation
	MaxCallArgs  int
	LocalCount   int
	GlobalCount  int
	GlobalNames  []string
	LocalNames   []string
}

// NewCode creates a new immutable Code from the given parameters.
// Input slices are copied to ensure immutability.
func NewCode(params CodeParams) *Code {
	var children []*Code
	if len(params.Children) > 0 {
		children = make([]*Code, len(params.Children))
		copy(children, params.Children)
	}
	return &Code{
		id:           params.ID,
		name:         params.Name,
		isNamed:      params.IsNamed,
		children:     children,
		instructions: slices.Clone(params.Instructions),
		constants:    slices.Clone(params.Constants),
		names:        slices.Clone(params.Names),
		source:       params.Source,
		filename:     params.Filename,
		functionID:   params.FunctionID,
		flags:        params.Flags,
		locations:    slices.Clone(params.Locations),
		maxCallArgs:  params.MaxCallArgs,
		localCount:   params.LocalCount,
		globalCount:  params.GlobalCount,
		globalNames:  slices.Clone(params.GlobalNames),
		localNames:   slices.Clone(params.LocalNames),
	}
}

// Params returns the parameters this Code was built from. The returned
// slices are copies, so the result may be modified and passed to NewCode
// to derive a new Code.
func (c *Code) Params() CodeParams {
	var children []*Code
	if len(c.children) > 0 {
		children = make([]*Code, len(c.children))
		copy(children, c.children)
	}
	return CodeParams{
		ID:           c.id,
		Name:         c.name,
		IsNamed:      c.isNamed,
		Children:     children,
		Instructions: slices.Clone(c.instructions),
		Constants:    slices.Clone(c.constants),
		Names:        slices.Clone(c.names),
		Source:       c.source,
		Filename:     c.filename,
		FunctionID:   c.functionID,
		Flags:        c.flags,
		Locations:    slices.Clone(c.locations),
		MaxCallArgs:  c.maxCallArgs,
		LocalCount:   c.localCount,
		GlobalCount:  c.globalCount,
		GlobalNames:  slices.Clone(c.globalNames),
		LocalNames:   slices.Clone(c.localNames),
	}
}

// ID returns the unique identifier for this code block.
func (c *Code) ID() string {
	return c.id
}

// Name returns the name of this code block.
func (c *Code) Name() string {
	return c.name
}

// IsNamed returns true if this is a named function.
func (c *Code) IsNamed() bool {
	return c.isNamed
}

// FunctionID returns the function ID if this code belongs to a function.
func (c *Code) FunctionID() string {
	return c.functionID
}

// Flags returns the markers carried by this code block.
func (c *Code) Flags() Flags {
	return c.flags
}

// ChildCount returns the number of child code blocks.
func (c *Code) ChildCount() int {
	return len(c.children)
}

// ChildAt returns the child code block at the given index.
func (c *Code) ChildAt(index int) *Code {
	return c.children[index]
}

// InstructionCount returns the number of instruction words.
func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// InstructionAt returns the instruction word at the given index.
func (c *Code) InstructionAt(index int) op.Code {
	return c.instructions[index]
}

// ConstantCount returns the number of constants.
func (c *Code) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Code) ConstantAt(index int) any {
	return c.constants[index]
}

// NameCount returns the number of names (attribute names used in this code).
func (c *Code) NameCount() int {
	return len(c.names)
}

// NameAt returns the attribute name at the given index.
func (c *Code) NameAt(index int) string {
	return c.names[index]
}

// Source returns the source code for this block.
func (c *Code) Source() string {
	return c.source
}

// Filename returns the source filename.
func (c *Code) Filename() string {
	return c.filename
}

// LocalCount returns the number of local variables.
func (c *Code) LocalCount() int {
	return c.localCount
}

// GlobalCount returns the number of global variables.
func (c *Code) GlobalCount() int {
	return c.globalCount
}

// MaxCallArgs returns the maximum argument count from any Call opcode.
func (c *Code) MaxCallArgs() int {
	return c.maxCallArgs
}

// LocationAt returns the source location for the instruction at the given index.
func (c *Code) LocationAt(ip int) SourceLocation {
	if ip < 0 || ip >= len(c.locations) {
		return SourceLocation{}
	}
	return c.locations[ip]
}

// LocationCount returns the number of recorded source locations.
func (c *Code) LocationCount() int {
	return len(c.locations)
}

// GlobalNameCount returns the number of global variable names.
func (c *Code) GlobalNameCount() int {
	return len(c.globalNames)
}

// GlobalNameAt returns the global variable name at the given index.
// Returns an empty string if the index is out of range.
func (c *Code) GlobalNameAt(index int) string {
	if index < 0 || index >= len(c.globalNames) {
		return ""
	}
	return c.globalNames[index]
}

// LocalNameCount returns the number of local variable names.
func (c *Code) LocalNameCount() int {
	return len(c.localNames)
}

// LocalNameAt returns the local variable name at the given index.
// Returns an empty string if the index is out of range.
func (c *Code) LocalNameAt(index int) string {
	if index < 0 || index >= len(c.localNames) {
		return ""
	}
	return c.localNames[index]
}

// Units returns this code and every unit reachable from it through children
// or function constants, each once, nested units before the units that
// reference them. The receiver is always last.
func (c *Code) Units() []*Code {
	var units []*Code
	seen := map[*Code]bool{}
	var visit func(code *Code)
	visit = func(code *Code) {
		if code == nil || seen[code] {
			return
		}
		seen[code] = true
		for _, child := range code.children {
			visit(child)
		}
		for _, constant := range code.constants {
			if fn, ok := constant.(*Function); ok {
				visit(fn.Code())
			}
		}
		units = append(units, code)
	}
	visit(c)
	return units
}

// GetSourceLine returns the source code line at the given 1-based line number.
func (c *Code) GetSourceLine(lineNum int) string {
	if c.source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(c.source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// Stats returns statistics about this code block.
func (c *Code) Stats() Stats {
	functionCount := 0
	for i := 0; i < c.ConstantCount(); i++ {
		if _, ok := c.ConstantAt(i).(*Function); ok {
			functionCount++
		}
	}
	return Stats{
		InstructionCount: c.InstructionCount(),
		ConstantCount:    c.ConstantCount(),
		GlobalCount:      c.GlobalCount(),
		FunctionCount:    functionCount,
		SourceBytes:      len(c.source),
	}
}

// GlobalNames returns a copy of all global variable names.
func (c *Code) GlobalNames() []string {
	if len(c.globalNames) == 0 {
		return nil
	}
	names := make([]string, len(c.globalNames))
	copy(names, c.globalNames)
	return names
}

// FunctionNames returns the names of the named functions defined in this
// code and its descendants, without duplicates.
func (c *Code) FunctionNames() []string {
	var names []string
	seen := map[string]bool{}
	for _, fn := range c.functions() {
		if name := fn.Name(); name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// FindFunction returns the first function constant with the given name,
// searching this code and then its descendants.
func (c *Code) FindFunction(name string) (*Function, bool) {
	for _, fn := range c.functions() {
		if fn.Name() == name {
			return fn, true
		}
	}
	return nil, false
}

// functions lists function constants depth first. Bodies reachable only
// through a function constant are searched too.
func (c *Code) functions() []*Function {
	var fns []*Function
	seen := map[*Code]bool{}
	var walk func(code *Code)
	walk = func(code *Code) {
		if code == nil || seen[code] {
			return
		}
		seen[code] = true
		for i := 0; i < code.ConstantCount(); i++ {
			if fn, ok := code.ConstantAt(i).(*Function); ok {
				fns = append(fns, fn)
				walk(fn.Code())
			}
		}
		for _, child := range code.children {
			walk(child)
		}
	}
	walk(c)
	return fns
}
