package object

import (
	"fmt"

	"github.com/cloudcmds/plusplus/op"
)

// Property is a computed attribute. A nil Setter makes the attribute read-only.
type Property struct {
	Getter func() Object
	Setter func(value Object) error
}

// Instance is an object with named attributes, some of which may be
// computed by a Property.
type Instance struct {
	class      string
	attrs      map[string]Object
	properties map[string]*Property
}

func (i *Instance) Type() Type {
	return INSTANCE
}

// Class returns the name the instance was created with.
func (i *Instance) Class() string {
	return i.class
}

func (i *Instance) Inspect() string {
	return fmt.Sprintf("%s(%s)", i.class, NewMap(i.attrs).Inspect())
}

func (i *Instance) String() string {
	return i.Inspect()
}

func (i *Instance) Interface() interface{} {
	return NewMap(i.attrs).Interface()
}

func (i *Instance) Equals(other Object) bool {
	return i == other
}

func (i *Instance) IsTruthy() bool {
	return true
}

func (i *Instance) GetAttr(name string) (Object, bool) {
	if prop, ok := i.properties[name]; ok {
		return prop.Getter(), true
	}
	value, ok := i.attrs[name]
	return value, ok
}

func (i *Instance) SetAttr(name string, value Object) error {
	if prop, ok := i.properties[name]; ok {
		if prop.Setter == nil {
			return TypeErrorf("attribute %q of %s is read-only", name, i.class)
		}
		return prop.Setter(value)
	}
	i.attrs[name] = value
	return nil
}

// DefineProperty installs a computed attribute.
func (i *Instance) DefineProperty(name string, prop *Property) {
	i.properties[name] = prop
}

func (i *Instance) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupported(INSTANCE, opType, right)
}

func NewInstance(class string, attrs map[string]Object) *Instance {
	copied := make(map[string]Object, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	return &Instance{
		class:      class,
		attrs:      copied,
		properties: map[string]*Property{},
	}
}
