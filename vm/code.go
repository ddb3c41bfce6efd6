package vm

import (
	"fmt"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/errz"
	"github.com/cloudcmds/plusplus/object"
	"github.com/cloudcmds/plusplus/op"
)

// code is a *bytecode.Code prepared for execution. Units loaded together
// share one globals slice.
type code struct {
	*bytecode.Code
	Instructions []op.Code
	Constants    []object.Object
	Globals      []object.Object
	Names        []string
}

func wrapCode(cc *bytecode.Code, globals []object.Object) *code {
	c := &code{
		Code:         cc,
		Instructions: make([]op.Code, cc.InstructionCount()),
		Constants:    make([]object.Object, cc.ConstantCount()),
		Names:        make([]string, cc.NameCount()),
		Globals:      globals,
	}
	for i := 0; i < cc.InstructionCount(); i++ {
		c.Instructions[i] = cc.InstructionAt(i)
	}
	for i := 0; i < cc.NameCount(); i++ {
		c.Names[i] = cc.NameAt(i)
	}
	for i := 0; i < cc.ConstantCount(); i++ {
		constant := cc.ConstantAt(i)
		switch constant := constant.(type) {
		case int:
			c.Constants[i] = object.NewInt(int64(constant))
		case int64:
			c.Constants[i] = object.NewInt(constant)
		case float64:
			c.Constants[i] = object.NewFloat(constant)
		case string:
			c.Constants[i] = object.NewString(constant)
		case bool:
			c.Constants[i] = object.NewBool(constant)
		case *bytecode.Function:
			c.Constants[i] = object.NewClosure(constant, nil)
		case nil:
			c.Constants[i] = object.Nil
		default:
			panic(fmt.Sprintf("unsupported constant type: %T", constant))
		}
	}
	return c
}

// LocationAt returns the source location for the instruction at the given index.
func (c *code) LocationAt(ip int) errz.SourceLocation {
	loc := c.Code.LocationAt(ip)
	if loc.IsZero() {
		return errz.SourceLocation{}
	}
	return errz.SourceLocation{
		Filename: c.Filename(),
		Line:     loc.Line,
		Column:   loc.Column,
		Source:   c.GetSourceLine(loc.Line),
	}
}

// CodeName returns the unit name, or a placeholder for the main unit.
func (c *code) CodeName() string {
	if name := c.Name(); name != "" {
		return name
	}
	return "<main>"
}
