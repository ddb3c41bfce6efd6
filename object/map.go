package object

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cloudcmds/plusplus/op"
)

// Map is a mutable map with string keys. Subscript increments read and
// write it through GetItem and SetItem.
type Map struct {
	*base
	items map[string]Object
}

// NewMap wraps items without copying. A nil map starts empty.
func NewMap(items map[string]Object) *Map {
	if items == nil {
		items = map[string]Object{}
	}
	return &Map{items: items}
}

func (m *Map) Type() Type                   { return MAP }
func (m *Map) Value() map[string]Object     { return m.items }
func (m *Map) String() string               { return m.Inspect() }
func (m *Map) IsTruthy() bool               { return len(m.items) > 0 }
func (m *Map) Len() *Int                    { return NewInt(int64(len(m.items))) }
func (m *Map) MarshalJSON() ([]byte, error) { return json.Marshal(m.items) }

func (m *Map) Inspect() string {
	entries := make([]string, 0, len(m.items))
	for _, k := range Keys(m.items) {
		entries = append(entries, strconv.Quote(k)+": "+m.items[k].Inspect())
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

func (m *Map) Interface() interface{} {
	out := make(map[string]interface{}, len(m.items))
	for k, v := range m.items {
		out[k] = v.Interface()
	}
	return out
}

func (m *Map) Equals(other Object) bool {
	o, ok := other.(*Map)
	if !ok || len(o.items) != len(m.items) {
		return false
	}
	for k, v := range m.items {
		if ov, found := o.items[k]; !found || !v.Equals(ov) {
			return false
		}
	}
	return true
}

func (m *Map) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupported(MAP, opType, right)
}

// Get returns the value stored under key, or Nil.
func (m *Map) Get(key string) Object {
	if value, ok := m.items[key]; ok {
		return value
	}
	return Nil
}

func (m *Map) Set(key string, value Object) { m.items[key] = value }

func (m *Map) key(k Object) (string, error) {
	s, ok := k.(*String)
	if !ok {
		return "", TypeErrorf("map key must be a string (got %s)", k.Type())
	}
	return s.value, nil
}

func (m *Map) GetItem(key Object) (Object, error) {
	k, err := m.key(key)
	if err != nil {
		return nil, err
	}
	value, ok := m.items[k]
	if !ok {
		return nil, ValueErrorf("key error: %q", k)
	}
	return value, nil
}

func (m *Map) SetItem(key, value Object) error {
	k, err := m.key(key)
	if err != nil {
		return err
	}
	m.items[k] = value
	return nil
}

// Items returns the values ordered by key.
func (m *Map) Items() []Object {
	keys := Keys(m.items)
	values := make([]Object, len(keys))
	for i, k := range keys {
		values[i] = m.items[k]
	}
	return values
}
