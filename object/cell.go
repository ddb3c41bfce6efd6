package object

import "github.com/cloudcmds/plusplus/op"

// Cell shares a local variable slot between a frame and the closures that
// capture it. Writes through either side are seen by both.
type Cell struct {
	*base
	slot *Object
}

func NewCell(slot *Object) *Cell { return &Cell{slot: slot} }

// Value returns the current content of the slot, or nil if it is unset.
func (c *Cell) Value() Object {
	if c.slot == nil {
		return nil
	}
	return *c.slot
}

func (c *Cell) Set(value Object) { *c.slot = value }

func (c *Cell) Type() Type { return CELL }

func (c *Cell) Inspect() string {
	if v := c.Value(); v != nil {
		return "cell(" + v.Inspect() + ")"
	}
	return "cell()"
}

func (c *Cell) String() string { return c.Inspect() }

func (c *Cell) Interface() interface{} {
	if v := c.Value(); v != nil {
		return v.Interface()
	}
	return nil
}

func (c *Cell) Equals(other Object) bool { return c == other }

func (c *Cell) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupported(CELL, opType, right)
}
