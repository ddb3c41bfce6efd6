package bytecode

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudcmds/plusplus/op"
)

// The serialized form of a unit tree is a flat list of units. Units refer to
// each other by position, and a unit only refers to units listed before it,
// so the root is the last entry.
type unitFile struct {
	Units []unitDef `json:"units"`
}

type unitDef struct {
	ID           string           `json:"id"`
	Name         string           `json:"name,omitempty"`
	IsNamed      bool             `json:"is_named,omitempty"`
	Children     []int            `json:"children,omitempty"`
	FunctionID   string           `json:"function_id,omitempty"`
	Flags        Flags            `json:"flags,omitempty"`
	Instructions []op.Code        `json:"instructions"`
	Constants    []constDef       `json:"constants,omitempty"`
	Names        []string         `json:"names,omitempty"`
	Source       string           `json:"source,omitempty"`
	Filename     string           `json:"filename,omitempty"`
	Locations    []SourceLocation `json:"locations,omitempty"`
	MaxCallArgs  int              `json:"max_call_args,omitempty"`
	LocalCount   int              `json:"local_count,omitempty"`
	GlobalCount  int              `json:"global_count,omitempty"`
	GlobalNames  []string         `json:"global_names,omitempty"`
	LocalNames   []string         `json:"local_names,omitempty"`
}

// constDef is a tagged constant. Value is absent for nil.
type constDef struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

type funcDef struct {
	ID         string     `json:"id,omitempty"`
	Name       string     `json:"name,omitempty"`
	Parameters []string   `json:"parameters,omitempty"`
	Defaults   []constDef `json:"defaults,omitempty"`
	Body       int        `json:"body"` // unit index, -1 without a body
}

// Marshal encodes a unit and everything reachable from it as JSON.
func Marshal(code *Code) ([]byte, error) {
	units := code.Units()
	index := make(map[*Code]int, len(units))
	for i, unit := range units {
		index[unit] = i
	}
	file := unitFile{Units: make([]unitDef, len(units))}
	for i, unit := range units {
		def, err := encodeUnit(unit, index)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", unit.ID(), err)
		}
		file.Units[i] = def
	}
	return json.Marshal(file)
}

func encodeUnit(unit *Code, index map[*Code]int) (unitDef, error) {
	p := unit.Params()
	def := unitDef{
		ID:           p.ID,
		Name:         p.Name,
		IsNamed:      p.IsNamed,
		FunctionID:   p.FunctionID,
		Flags:        p.Flags,
		Instructions: p.Instructions,
		Names:        p.Names,
		Source:       p.Source,
		Filename:     p.Filename,
		Locations:    p.Locations,
		MaxCallArgs:  p.MaxCallArgs,
		LocalCount:   p.LocalCount,
		GlobalCount:  p.GlobalCount,
		GlobalNames:  p.GlobalNames,
		LocalNames:   p.LocalNames,
	}
	for _, child := range p.Children {
		def.Children = append(def.Children, index[child])
	}
	for _, c := range p.Constants {
		cd, err := encodeConst(c, index)
		if err != nil {
			return unitDef{}, err
		}
		def.Constants = append(def.Constants, cd)
	}
	return def, nil
}

func encodeConst(c any, index map[*Code]int) (constDef, error) {
	var kind string
	value := c
	switch v := c.(type) {
	case nil:
		return constDef{Type: "nil"}, nil
	case bool:
		kind = "bool"
	case int:
		kind, value = "int", int64(v)
	case int64:
		kind = "int"
	case float32:
		kind, value = "float", float64(v)
	case float64:
		kind = "float"
	case string:
		kind = "string"
	case *Function:
		fd := funcDef{ID: v.ID(), Name: v.Name(), Body: -1}
		if i, ok := index[v.Code()]; ok {
			fd.Body = i
		}
		for i := 0; i < v.ParameterCount(); i++ {
			fd.Parameters = append(fd.Parameters, v.Parameter(i))
		}
		for i := 0; i < v.DefaultCount(); i++ {
			d, err := encodeConst(v.Default(i), nil)
			if err != nil {
				return constDef{}, err
			}
			fd.Defaults = append(fd.Defaults, d)
		}
		kind, value = "function", fd
	default:
		return constDef{}, fmt.Errorf("unsupported constant type %T", c)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return constDef{}, err
	}
	return constDef{Type: kind, Value: data}, nil
}

// Unmarshal decodes the output of Marshal and returns the root unit.
func Unmarshal(data []byte) (*Code, error) {
	var file unitFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Units) == 0 {
		return nil, errors.New("no units found")
	}
	units := make([]*Code, len(file.Units))
	for i, def := range file.Units {
		unit, err := decodeUnit(def, units[:i])
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", def.ID, err)
		}
		units[i] = unit
	}
	return units[len(units)-1], nil
}

// decodeUnit builds a unit from its definition. built holds the units listed
// before it, the only ones it may refer to.
func decodeUnit(def unitDef, built []*Code) (*Code, error) {
	ref := func(i int) (*Code, error) {
		if i < 0 || i >= len(built) {
			return nil, fmt.Errorf("invalid unit reference %d", i)
		}
		return built[i], nil
	}
	var children []*Code
	for _, i := range def.Children {
		child, err := ref(i)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	var constants []any
	for _, cd := range def.Constants {
		c, err := decodeConst(cd, ref)
		if err != nil {
			return nil, err
		}
		constants = append(constants, c)
	}
	return NewCode(CodeParams{
		ID:           def.ID,
		Name:         def.Name,
		IsNamed:      def.IsNamed,
		Children:     children,
		FunctionID:   def.FunctionID,
		Flags:        def.Flags,
		Instructions: def.Instructions,
		Constants:    constants,
		Names:        def.Names,
		Source:       def.Source,
		Filename:     def.Filename,
		Locations:    def.Locations,
		MaxCallArgs:  def.MaxCallArgs,
		LocalCount:   def.LocalCount,
		GlobalCount:  def.GlobalCount,
		GlobalNames:  def.GlobalNames,
		LocalNames:   def.LocalNames,
	}), nil
}

func decodeConst(cd constDef, ref func(int) (*Code, error)) (any, error) {
	switch cd.Type {
	case "nil":
		return nil, nil
	case "bool":
		return decodeValue[bool](cd.Value)
	case "int":
		return decodeValue[int64](cd.Value)
	case "float":
		return decodeValue[float64](cd.Value)
	case "string":
		return decodeValue[string](cd.Value)
	case "function":
		var fd funcDef
		if err := json.Unmarshal(cd.Value, &fd); err != nil {
			return nil, err
		}
		var body *Code
		if fd.Body >= 0 {
			var err error
			if body, err = ref(fd.Body); err != nil {
				return nil, err
			}
		}
		defaults := make([]any, len(fd.Defaults))
		for i, d := range fd.Defaults {
			if d.Type == "function" {
				return nil, errors.New("function defaults must be scalar constants")
			}
			var err error
			if defaults[i], err = decodeConst(d, ref); err != nil {
				return nil, err
			}
		}
		return NewFunction(FunctionParams{
			ID:         fd.ID,
			Name:       fd.Name,
			Parameters: fd.Parameters,
			Defaults:   defaults,
			Code:       body,
		}), nil
	}
	return nil, fmt.Errorf("unknown constant type %q", cd.Type)
}

func decodeValue[T any](data json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
