package object

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/cloudcmds/plusplus/op"
)

// List is a mutable sequence indexed by Int. Negative indexes count from
// the end.
type List struct {
	*base
	items []Object
}

func NewList(items []Object) *List { return &List{items: items} }

func (ls *List) Type() Type      { return LIST }
func (ls *List) Value() []Object { return ls.items }
func (ls *List) Items() []Object { return ls.items }
func (ls *List) String() string  { return ls.Inspect() }
func (ls *List) IsTruthy() bool  { return len(ls.items) > 0 }
func (ls *List) Len() *Int       { return NewInt(int64(len(ls.items))) }

func (ls *List) Inspect() string {
	parts := make([]string, len(ls.items))
	for i, item := range ls.items {
		parts[i] = item.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (ls *List) Interface() interface{} {
	out := make([]interface{}, len(ls.items))
	for i, item := range ls.items {
		out[i] = item.Interface()
	}
	return out
}

func (ls *List) Equals(other Object) bool {
	o, ok := other.(*List)
	return ok && slices.EqualFunc(ls.items, o.items, func(a, b Object) bool { return a.Equals(b) })
}

func (ls *List) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	if o, ok := right.(*List); ok && opType == op.Add {
		return NewList(slices.Concat(ls.items, o.items)), nil
	}
	return nil, unsupported(LIST, opType, right)
}

func (ls *List) offset(key Object) (int, error) {
	n, ok := key.(*Int)
	if !ok {
		return 0, TypeErrorf("list index must be an int (got %s)", key.Type())
	}
	i := int(n.value)
	if i < 0 {
		i += len(ls.items)
	}
	if i < 0 || i >= len(ls.items) {
		return 0, ValueErrorf("index %d out of range for list of length %d", n.value, len(ls.items))
	}
	return i, nil
}

func (ls *List) GetItem(key Object) (Object, error) {
	i, err := ls.offset(key)
	if err != nil {
		return nil, err
	}
	return ls.items[i], nil
}

func (ls *List) SetItem(key, value Object) error {
	i, err := ls.offset(key)
	if err != nil {
		return err
	}
	ls.items[i] = value
	return nil
}

func (ls *List) MarshalJSON() ([]byte, error) {
	if ls.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(ls.items)
}
