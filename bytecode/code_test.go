package bytecode

import (
	"testing"

	"github.com/cloudcmds/plusplus/op"
	"github.com/stretchr/testify/require"
)

func TestNewCodeImmutability(t *testing.T) {
	instructions := []op.Code{op.LoadConst, 0, op.ReturnValue}
	constants := []any{int64(42), "hello"}
	names := []string{"foo", "bar"}
	locations := []SourceLocation{{Line: 1, Column: 1}, {Line: 1, Column: 5}}
	globalNames := []string{"global1"}

	code := NewCode(CodeParams{
		ID:           "test",
		Name:         "test_code",
		Instructions: instructions,
		Constants:    constants,
		Names:        names,
		Locations:    locations,
		GlobalNames:  globalNames,
		LocalCount:   2,
		GlobalCount:  1,
	})

	instructions[0] = op.Nil
	constants[0] = 99
	names[0] = "modified"
	locations[0] = SourceLocation{Line: 999, Column: 999}
	globalNames[0] = "modified_global"

	require.Equal(t, op.LoadConst, code.InstructionAt(0))
	require.Equal(t, int64(42), code.ConstantAt(0))
	require.Equal(t, "foo", code.NameAt(0))
	require.Equal(t, 1, code.LocationAt(0).Line)
	require.Equal(t, "global1", code.GlobalNameAt(0))
}

func TestCodeAccessors(t *testing.T) {
	code := NewCode(CodeParams{
		ID:           "test-id",
		Name:         "test_name",
		IsNamed:      true,
		Instructions: []op.Code{op.LoadConst, 0, op.ReturnValue},
		Constants:    []any{int64(42), "hello", true},
		Names:        []string{"attr1", "attr2"},
		Source:       "x = 42\nreturn x",
		Filename:     "test.pp",
		LocalCount:   5,
		GlobalCount:  2,
		MaxCallArgs:  3,
		LocalNames:   []string{"a"},
	})

	require.Equal(t, "test-id", code.ID())
	require.Equal(t, "test_name", code.Name())
	require.True(t, code.IsNamed())
	require.Equal(t, "test.pp", code.Filename())
	require.Equal(t, 5, code.LocalCount())
	require.Equal(t, 2, code.GlobalCount())
	require.Equal(t, 3, code.MaxCallArgs())
	require.Equal(t, 3, code.InstructionCount())
	require.Equal(t, 3, code.ConstantCount())
	require.Equal(t, 2, code.NameCount())
	require.Equal(t, "return x", code.GetSourceLine(2))
	require.Equal(t, "", code.GetSourceLine(3))
	require.Equal(t, "a", code.LocalNameAt(0))
	require.Equal(t, "", code.LocalNameAt(7))
	require.Equal(t, SourceLocation{}, code.LocationAt(-1))
	require.False(t, code.Flags().Has(FlagIncrements))
}

func TestCodeParamsRoundTrip(t *testing.T) {
	child := NewCode(CodeParams{ID: "root.0", Name: "inner"})
	code := NewCode(CodeParams{
		ID:           "root",
		Name:         "main",
		Children:     []*Code{child},
		Instructions: []op.Code{op.Nil, op.ReturnValue},
		LocalNames:   []string{"x"},
		LocalCount:   1,
	})

	params := code.Params()
	params.Flags |= FlagIncrements
	params.Instructions[0] = op.True
	derived := NewCode(params)

	require.True(t, derived.Flags().Has(FlagIncrements))
	require.False(t, code.Flags().Has(FlagIncrements))
	require.Equal(t, op.Nil, code.InstructionAt(0))
	require.Equal(t, op.True, derived.InstructionAt(0))
	require.Same(t, child, derived.ChildAt(0))
	require.Equal(t, "x", derived.LocalNameAt(0))
}

func TestCodeUnitsAndFindFunction(t *testing.T) {
	grandchild := NewCode(CodeParams{ID: "main.0.0", Name: "inner"})
	innerFn := NewFunction(FunctionParams{ID: "f2", Name: "inner", Code: grandchild})
	child := NewCode(CodeParams{
		ID:        "main.0",
		Name:      "outer",
		Children:  []*Code{grandchild},
		Constants: []any{innerFn},
	})
	outerFn := NewFunction(FunctionParams{ID: "f1", Name: "outer", Code: child})
	root := NewCode(CodeParams{
		ID:        "main",
		Children:  []*Code{child},
		Constants: []any{outerFn, int64(1)},
	})

	units := root.Units()
	require.Len(t, units, 3)
	require.Same(t, grandchild, units[0])
	require.Same(t, child, units[1])
	require.Same(t, root, units[2])

	fn, ok := root.FindFunction("inner")
	require.True(t, ok)
	require.Same(t, innerFn, fn)
	_, ok = root.FindFunction("missing")
	require.False(t, ok)

	require.Equal(t, []string{"outer", "inner"}, root.FunctionNames())
	stats := root.Stats()
	require.Equal(t, 1, stats.FunctionCount)
	require.Equal(t, 2, stats.ConstantCount)
}

func TestFunction(t *testing.T) {
	params := []string{"a", "b"}
	defaults := []any{nil, int64(10)}
	code := NewCode(CodeParams{ID: "body", LocalCount: 3, Source: "a + b"})
	fn := NewFunction(FunctionParams{
		ID:         "fn",
		Name:       "add",
		Parameters: params,
		Defaults:   defaults,
		Code:       code,
	})
	params[0] = "changed"

	require.Equal(t, "a", fn.Parameter(0))
	require.Equal(t, 2, fn.ParameterCount())
	require.Equal(t, 1, fn.RequiredArgsCount())
	require.Equal(t, "func add(a, b=10)", fn.String())

	other := NewCode(CodeParams{ID: "body2"})
	moved := fn.WithCode(other)
	require.Same(t, other, moved.Code())
	require.Same(t, code, fn.Code())
	require.Equal(t, "add", moved.Name())
	require.Equal(t, int64(10), moved.Default(1))
}
