package object

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cloudcmds/plusplus/op"
)

// String is an immutable string. Only + is defined on it, so incrementing a
// string fails with a type error.
type String struct {
	*base
	value string
}

func NewString(s string) *String { return &String{value: s} }

func (s *String) Type() Type                   { return STRING }
func (s *String) Value() string                { return s.value }
func (s *String) Inspect() string              { return strconv.Quote(s.value) }
func (s *String) String() string               { return s.value }
func (s *String) Interface() interface{}       { return s.value }
func (s *String) IsTruthy() bool               { return s.value != "" }
func (s *String) MarshalJSON() ([]byte, error) { return json.Marshal(s.value) }

func (s *String) Equals(other Object) bool {
	o, ok := other.(*String)
	return ok && o.value == s.value
}

func (s *String) Compare(other Object) (int, error) {
	if o, ok := other.(*String); ok {
		return strings.Compare(s.value, o.value), nil
	}
	return 0, TypeErrorf("cannot order string and %s", other.Type())
}

func (s *String) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	if o, ok := right.(*String); ok && opType == op.Add {
		return NewString(s.value + o.value), nil
	}
	return nil, unsupported(STRING, opType, right)
}
