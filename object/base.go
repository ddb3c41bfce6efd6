package object

// base supplies the attribute and truthiness defaults of values that have no
// attributes of their own. It is embedded as a nil pointer.
type base struct{}

func (*base) GetAttr(string) (Object, bool) { return nil, false }

func (*base) SetAttr(name string, _ Object) error {
	return TypeErrorf("cannot set attribute %q on a value without attributes", name)
}

func (*base) IsTruthy() bool { return true }
