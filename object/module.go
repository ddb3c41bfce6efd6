package object

import (
	"fmt"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/op"
)

// Module is an imported unit. Its attributes are the unit's globals once the
// unit has been evaluated.
type Module struct {
	name         string
	code         *bytecode.Code
	globals      []Object
	globalsIndex map[string]int
}

func (m *Module) Type() Type {
	return MODULE
}

func (m *Module) Name() string {
	return m.name
}

// Code returns the unit the module was created from.
func (m *Module) Code() *bytecode.Code {
	return m.code
}

func (m *Module) Inspect() string {
	return fmt.Sprintf("module(%s)", m.name)
}

func (m *Module) String() string {
	return m.Inspect()
}

func (m *Module) Interface() interface{} {
	return nil
}

func (m *Module) Equals(other Object) bool {
	return m == other
}

func (m *Module) IsTruthy() bool {
	return true
}

func (m *Module) GetAttr(name string) (Object, bool) {
	if name == "__name__" {
		return NewString(m.name), true
	}
	idx, found := m.globalsIndex[name]
	if !found || idx >= len(m.globals) {
		return nil, false
	}
	value := m.globals[idx]
	if value == nil {
		return Nil, true
	}
	return value, true
}

func (m *Module) SetAttr(name string, value Object) error {
	idx, found := m.globalsIndex[name]
	if !found || idx >= len(m.globals) {
		return TypeErrorf("module %s has no attribute %q", m.name, name)
	}
	m.globals[idx] = value
	return nil
}

// UseGlobals binds the module to the globals produced by evaluating its code.
func (m *Module) UseGlobals(globals []Object) {
	m.globals = globals
}

func (m *Module) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupported(MODULE, opType, right)
}

func NewModule(name string, code *bytecode.Code) *Module {
	globalsIndex := map[string]int{}
	for i, name := range code.GlobalNames() {
		globalsIndex[name] = i
	}
	return &Module{
		name:         name,
		code:         code,
		globalsIndex: globalsIndex,
	}
}
