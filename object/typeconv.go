package object

import (
	"fmt"

	"github.com/cloudcmds/plusplus/bytecode"
)

func AsInt(obj Object) (int64, error) {
	i, ok := obj.(*Int)
	if !ok {
		return 0, TypeErrorf("expected an integer (%s given)", obj.Type())
	}
	return i.value, nil
}

func AsString(obj Object) (string, error) {
	s, ok := obj.(*String)
	if !ok {
		return "", TypeErrorf("expected a string (%s given)", obj.Type())
	}
	return s.value, nil
}

// FromGoType converts a constant or a plain Go value to an Object. Values
// that are already objects are returned as they are. Unsupported types
// produce nil.
func FromGoType(value interface{}) Object {
	obj, err := AsObject(value)
	if err != nil {
		return nil
	}
	return obj
}

// AsObject converts a Go value to an Object.
func AsObject(value interface{}) (Object, error) {
	switch value := value.(type) {
	case nil:
		return Nil, nil
	case Object:
		return value, nil
	case bool:
		return NewBool(value), nil
	case int:
		return NewInt(int64(value)), nil
	case int64:
		return NewInt(value), nil
	case float64:
		return NewFloat(value), nil
	case string:
		return NewString(value), nil
	case *bytecode.Function:
		return NewClosure(value, nil), nil
	case []interface{}:
		items := make([]Object, 0, len(value))
		for _, item := range value {
			obj, err := AsObject(item)
			if err != nil {
				return nil, err
			}
			items = append(items, obj)
		}
		return NewList(items), nil
	case map[string]interface{}:
		items := make(map[string]Object, len(value))
		for k, v := range value {
			obj, err := AsObject(v)
			if err != nil {
				return nil, err
			}
			items[k] = obj
		}
		return NewMap(items), nil
	default:
		return nil, fmt.Errorf("type error: unsupported type: %T", value)
	}
}

// AsObjects converts a map of Go values to a map of Objects.
func AsObjects(m map[string]interface{}) (map[string]Object, error) {
	result := make(map[string]Object, len(m))
	for k, v := range m {
		obj, err := AsObject(v)
		if err != nil {
			return nil, err
		}
		result[k] = obj
	}
	return result, nil
}
