package plusplus

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/dis"
	"github.com/cloudcmds/plusplus/errz"
	"github.com/cloudcmds/plusplus/importer"
	"github.com/cloudcmds/plusplus/object"
	"github.com/cloudcmds/plusplus/op"
)

func assemble(t *testing.T, l *dis.Listing) *bytecode.Code {
	t.Helper()
	code, err := dis.Assemble(l)
	require.NoError(t, err)
	return code
}

func function(t *testing.T, name string, body *dis.Listing) *bytecode.Function {
	t.Helper()
	body.Params.Name = name
	return bytecode.NewFunction(bytecode.FunctionParams{Name: name, Code: assemble(t, body)})
}

func body(locals ...string) *dis.Listing {
	return dis.NewListing(bytecode.CodeParams{LocalCount: len(locals), LocalNames: locals})
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	engine, err := New(opts...)
	require.NoError(t, err)
	return engine
}

// call runs a main unit that calls fn with no arguments and returns the result.
func call(t *testing.T, fn *bytecode.Function, globals []string, opts ...Option) (any, error) {
	t.Helper()
	main := dis.NewListing(bytecode.CodeParams{GlobalCount: len(globals), GlobalNames: globals})
	main.Emit(op.LoadConst, fn).Emit(op.Call, 0)
	return Run(context.Background(), assemble(t, main), opts...)
}

func requireKind(t *testing.T, err error, kind errz.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	got, ok := errz.KindOf(err)
	require.True(t, ok, "expected a structured error, got %v", err)
	require.Equal(t, kind, got)
}

// x := 5; y := ++x; return [x, y]
func incrementLocal(t *testing.T, unary op.Code) *bytecode.Function {
	l := body("x", "y")
	l.At(1, 1).Emit(op.LoadConst, int64(5)).Emit(op.StoreFast, 0)
	l.At(2, 6).Emit(op.LoadFast, 0).Emit(unary).Emit(unary).Emit(op.StoreFast, 1)
	l.At(3, 1).Emit(op.LoadFast, 0).Emit(op.LoadFast, 1).Emit(op.BuildList, 2).Emit(op.ReturnValue)
	return function(t, "incrementLocal", l)
}

func TestIncrementLocal(t *testing.T) {
	fn := incrementLocal(t, op.UnaryPositive)

	result, err := call(t, fn, nil)
	require.NoError(t, err)
	require.Equal(t, []any{int64(5), int64(5)}, result)

	enabled, err := newEngine(t).Enable(fn)
	require.NoError(t, err)
	result, err = call(t, enabled, nil)
	require.NoError(t, err)
	require.Equal(t, []any{int64(6), int64(6)}, result)
}

func TestDecrementLocal(t *testing.T) {
	enabled, err := newEngine(t).Enable(incrementLocal(t, op.UnaryNegative))
	require.NoError(t, err)
	result, err := call(t, enabled, nil)
	require.NoError(t, err)
	require.Equal(t, []any{int64(4), int64(4)}, result)
}

// y := ++d["k"]; return [d["k"], y]
func TestIncrementMapItem(t *testing.T) {
	l := body("y")
	l.Emit(op.LoadGlobal, 0).Emit(op.LoadConst, "k").Emit(op.BinarySubscr).
		Emit(op.UnaryPositive).Emit(op.UnaryPositive).Emit(op.StoreFast, 0)
	l.Emit(op.LoadGlobal, 0).Emit(op.LoadConst, "k").Emit(op.BinarySubscr).
		Emit(op.LoadFast, 0).Emit(op.BuildList, 2).Emit(op.ReturnValue)
	fn := function(t, "incrementMapItem", l)

	for _, set := range []op.InstructionSet{op.Standard, op.Legacy} {
		t.Run(set.Name, func(t *testing.T) {
			d := object.NewMap(map[string]object.Object{"k": object.NewInt(42)})
			enabled, err := newEngine(t, WithInstructionSet(set)).Enable(fn)
			require.NoError(t, err)
			result, err := call(t, enabled, []string{"d"},
				WithInstructionSet(set),
				WithGlobals(map[string]any{"d": d}))
			require.NoError(t, err)
			require.Equal(t, []any{int64(43), int64(43)}, result)
			require.Equal(t, object.NewInt(43), d.Get("k"))
		})
	}
}

func TestLegacyHostRejectsNativeRotation(t *testing.T) {
	l := body()
	l.Emit(op.LoadGlobal, 0).Emit(op.LoadConst, "k").Emit(op.BinarySubscr).
		Emit(op.UnaryPositive).Emit(op.UnaryPositive).Emit(op.ReturnValue)
	fn := function(t, "f", l)

	// Code rewritten for the standard host uses ROTATE 4, which a legacy VM
	// refuses to load.
	enabled, err := newEngine(t).Enable(fn)
	require.NoError(t, err)
	_, err = call(t, enabled, []string{"d"},
		WithInstructionSet(op.Legacy),
		WithGlobals(map[string]any{"d": map[string]any{"k": 1}}))
	requireKind(t, err, errz.ErrConfig)
}

// return ++obj.value
func TestIncrementAttribute(t *testing.T) {
	stored := object.Object(object.NewInt(42))
	var gets, sets int
	obj := object.NewInstance("Counter", nil)
	obj.DefineProperty("value", &object.Property{
		Getter: func() object.Object {
			gets++
			return stored
		},
		Setter: func(value object.Object) error {
			sets++
			stored = value
			return nil
		},
	})

	l := body()
	l.Emit(op.LoadGlobal, 0).Emit(op.LoadAttr, "value").
		Emit(op.UnaryPositive).Emit(op.UnaryPositive).Emit(op.ReturnValue)
	enabled, err := newEngine(t).Enable(function(t, "incrementAttribute", l))
	require.NoError(t, err)

	result, err := call(t, enabled, []string{"obj"}, WithGlobals(map[string]any{"obj": obj}))
	require.NoError(t, err)
	require.Equal(t, int64(43), result)
	require.Equal(t, 1, gets)
	require.Equal(t, 1, sets)
	require.Equal(t, object.NewInt(43), stored)
}

func TestReadOnlyAttribute(t *testing.T) {
	obj := object.NewInstance("Point", nil)
	obj.DefineProperty("x", &object.Property{Getter: func() object.Object { return object.NewInt(1) }})

	l := body()
	l.Emit(op.LoadGlobal, 0).Emit(op.LoadAttr, "x").
		Emit(op.UnaryPositive).Emit(op.UnaryPositive).Emit(op.ReturnValue)
	enabled, err := newEngine(t).Enable(function(t, "f", l))
	require.NoError(t, err)
	_, err = call(t, enabled, []string{"obj"}, WithGlobals(map[string]any{"obj": obj}))
	requireKind(t, err, errz.ErrType)
	require.Contains(t, err.Error(), "read-only")
}

// arr[++index] = value
func TestIncrementedIndex(t *testing.T) {
	main := dis.NewListing(bytecode.CodeParams{
		GlobalCount: 3,
		GlobalNames: []string{"arr", "index", "value"},
	})
	main.Emit(op.LoadGlobal, 2).Emit(op.LoadGlobal, 0).
		Emit(op.LoadGlobal, 1).Emit(op.UnaryPositive).Emit(op.UnaryPositive).
		Emit(op.StoreSubscr)
	main.Emit(op.LoadGlobal, 1)

	code, report, err := newEngine(t).EnableCode(assemble(t, main))
	require.NoError(t, err)
	require.Equal(t, 1, report.AppliedCount())

	arr := object.NewList([]object.Object{object.NewInt(0), object.NewInt(0), object.NewInt(0)})
	result, err := Run(context.Background(), code, WithGlobals(map[string]any{
		"arr":   arr,
		"index": 0,
		"value": "v",
	}))
	require.NoError(t, err)
	require.Equal(t, int64(1), result)
	require.Equal(t, `[0, "v", 0]`, arr.Inspect())
}

func TestNotAdjacent(t *testing.T) {
	l := body("x")
	l.Emit(op.LoadConst, int64(5)).Emit(op.StoreFast, 0).
		Emit(op.LoadFast, 0).Emit(op.UnaryPositive).Emit(op.Nop).Emit(op.UnaryPositive).
		Emit(op.PopTop).Emit(op.LoadFast, 0).Emit(op.ReturnValue)
	enabled, err := newEngine(t).Enable(function(t, "f", l))
	require.NoError(t, err)
	result, err := call(t, enabled, nil)
	require.NoError(t, err)
	require.Equal(t, int64(5), result)
}

// x := 5; ++++x; return x
func TestLongRun(t *testing.T) {
	l := body("x")
	l.Emit(op.LoadConst, int64(5)).Emit(op.StoreFast, 0).Emit(op.LoadFast, 0)
	for i := 0; i < 4; i++ {
		l.Emit(op.UnaryPositive)
	}
	l.Emit(op.PopTop).Emit(op.LoadFast, 0).Emit(op.ReturnValue)
	enabled, err := newEngine(t).Enable(function(t, "f", l))
	require.NoError(t, err)
	result, err := call(t, enabled, nil)
	require.NoError(t, err)
	require.Equal(t, int64(6), result)
}

func TestIntrospectionCapture(t *testing.T) {
	l := body("x", "@assert0")
	l.Emit(op.LoadConst, int64(5)).Emit(op.StoreFast, 0).
		Emit(op.LoadFast, 0).Emit(op.UnaryPositive).
		Emit(op.StoreFast, 1).Emit(op.LoadFast, 1).
		Emit(op.UnaryPositive).Emit(op.PopTop).
		Emit(op.LoadFast, 0).Emit(op.ReturnValue)
	enabled, err := newEngine(t).Enable(function(t, "f", l))
	require.NoError(t, err)
	result, err := call(t, enabled, nil)
	require.NoError(t, err)
	require.Equal(t, int64(6), result)
}

// assert ++d["k"] == 43, with the subscript result and the first unary
// result both captured into assertion temporaries
func TestIntrospectionCapturesBothSides(t *testing.T) {
	l := body("@assert0", "@assert1")
	l.Emit(op.LoadGlobal, 0).Emit(op.LoadConst, "k").Emit(op.BinarySubscr).
		Emit(op.StoreFast, 0).Emit(op.LoadFast, 0).
		Emit(op.UnaryPositive).
		Emit(op.StoreFast, 1).Emit(op.LoadFast, 1).
		Emit(op.UnaryPositive).Emit(op.ReturnValue)
	enabled, err := newEngine(t).Enable(function(t, "assertIncrement", l))
	require.NoError(t, err)

	d := object.NewMap(map[string]object.Object{"k": object.NewInt(42)})
	result, err := call(t, enabled, []string{"d"}, WithGlobals(map[string]any{"d": d}))
	require.NoError(t, err)
	require.Equal(t, int64(43), result)
	require.Equal(t, object.NewInt(43), d.Get("k"))
}

// x = 0; while x < 3 { ++x }; x
func TestLoop(t *testing.T) {
	main := dis.NewListing(bytecode.CodeParams{GlobalCount: 1, GlobalNames: []string{"x"}})
	top := main.NewLabel()
	done := main.NewLabel()
	main.Emit(op.LoadConst, int64(0)).Emit(op.StoreGlobal, 0)
	main.Mark(top)
	main.Emit(op.LoadGlobal, 0).Emit(op.LoadConst, int64(3)).
		Emit(op.CompareOp, int(op.LessThan)).
		Emit(op.PopJumpForwardIfFalse, done)
	main.Emit(op.LoadGlobal, 0).Emit(op.UnaryPositive).Emit(op.UnaryPositive).Emit(op.PopTop).
		Emit(op.JumpBackward, top)
	main.Mark(done)
	main.Emit(op.LoadGlobal, 0)

	code, _, err := newEngine(t).EnableCode(assemble(t, main))
	require.NoError(t, err)
	result, err := Run(context.Background(), code)
	require.NoError(t, err)
	require.Equal(t, int64(3), result)
}

// func outer() { x := 5; inner := func() { return --x }; return [inner(), x] }
func TestClosure(t *testing.T) {
	inner := body()
	inner.Emit(op.LoadFree, 0).Emit(op.UnaryNegative).Emit(op.UnaryNegative).Emit(op.ReturnValue)
	innerFn := function(t, "inner", inner)

	outer := body("x")
	outer.Params.Children = []*bytecode.Code{innerFn.Code()}
	outer.Emit(op.LoadConst, int64(5)).Emit(op.StoreFast, 0).
		Emit(op.MakeCell, 0, 0).Emit(op.LoadClosure, innerFn, 1).Emit(op.Call, 0).
		Emit(op.LoadFast, 0).Emit(op.BuildList, 2).Emit(op.ReturnValue)
	outerFn := function(t, "outer", outer)

	enabled, err := newEngine(t).Enable(outerFn)
	require.NoError(t, err)
	result, err := call(t, enabled, nil)
	require.NoError(t, err)
	require.Equal(t, []any{int64(4), int64(4)}, result)
}

func TestIdempotent(t *testing.T) {
	engine := newEngine(t)
	fn := incrementLocal(t, op.UnaryPositive)

	once, err := engine.Enable(fn)
	require.NoError(t, err)
	again, err := engine.Enable(fn)
	require.NoError(t, err)
	require.Same(t, once, again)
	twice, err := engine.Enable(once)
	require.NoError(t, err)
	require.Same(t, once, twice)

	// A different engine recognizes the marker
	other, err := newEngine(t).Enable(once)
	require.NoError(t, err)
	require.Same(t, once, other)

	result, err := call(t, twice, nil)
	require.NoError(t, err)
	require.Equal(t, []any{int64(6), int64(6)}, result)

	code, report, err := engine.EnableCode(once.Code())
	require.NoError(t, err)
	require.Same(t, once.Code(), code)
	require.True(t, report.Units[0].AlreadyRewritten)
}

func TestEnableConcurrent(t *testing.T) {
	engine := newEngine(t)
	fn := incrementLocal(t, op.UnaryPositive)
	results := make([]*bytecode.Function, 8)
	errs := make([]error, len(results))
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Enable(fn)
		}(i)
	}
	wg.Wait()
	require.NotNil(t, results[0])
	for i, result := range results {
		require.NoError(t, errs[i])
		require.Same(t, results[0], result)
	}
}

func TestEnableValue(t *testing.T) {
	engine := newEngine(t)
	fn := incrementLocal(t, op.UnaryPositive)

	enabled, err := engine.EnableValue(fn)
	require.NoError(t, err)
	require.IsType(t, &bytecode.Function{}, enabled)

	closure := object.NewClosure(fn, nil)
	enabledClosure, err := engine.EnableValue(closure)
	require.NoError(t, err)
	require.Same(t, enabled, enabledClosure.(*object.Closure).Function())

	_, err = engine.EnableValue(object.NewInt(3))
	requireKind(t, err, errz.ErrType)
	require.Contains(t, err.Error(), "cannot enable increments on int: expected a function")

	_, err = engine.EnableValue("text")
	requireKind(t, err, errz.ErrType)
	require.Contains(t, err.Error(), "cannot enable increments on string")
}

func TestStrict(t *testing.T) {
	l := body()
	l.At(7, 12).Emit(op.LoadConst, int64(1)).Emit(op.UnaryPositive).Emit(op.UnaryPositive).Emit(op.ReturnValue)
	fn := function(t, "constant", l)

	enabled, err := newEngine(t).Enable(fn)
	require.NoError(t, err)
	result, err := call(t, enabled, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), result)

	_, err = newEngine(t, WithStrict(true)).Enable(fn)
	requireKind(t, err, errz.ErrSyntax)
	require.Contains(t, err.Error(), "cannot apply ++ in constant")
}

func TestCustomIntrospectionPrefix(t *testing.T) {
	l := body("x", "$tmp0")
	l.Emit(op.LoadConst, int64(5)).Emit(op.StoreFast, 0).
		Emit(op.LoadFast, 0).Emit(op.UnaryNegative).
		Emit(op.StoreFast, 1).Emit(op.LoadFast, 1).
		Emit(op.UnaryNegative).Emit(op.ReturnValue)
	fn := function(t, "f", l)

	enabled, err := newEngine(t, WithIntrospectionPrefix("$tmp")).Enable(fn)
	require.NoError(t, err)
	result, err := call(t, enabled, nil)
	require.NoError(t, err)
	require.Equal(t, int64(4), result)
}

func TestInstructionSetErrors(t *testing.T) {
	tests := []struct {
		name string
		set  op.InstructionSet
		msg  string
	}{
		{
			name: "missing opcodes",
			set:  op.InstructionSet{Name: "bare", MaxRotate: 4, Unsupported: []string{"COPY", "STORE_SUBSCR"}},
			msg:  `instruction set "bare" cannot run rewritten code: missing COPY; missing STORE_SUBSCR`,
		},
		{
			name: "no shim",
			set:  op.InstructionSet{Name: "tiny", MaxRotate: 3, Unsupported: []string{"UNPACK"}},
			msg:  `instruction set "tiny" cannot run rewritten code: missing UNPACK`,
		},
		{
			name: "short rotation",
			set:  op.InstructionSet{Name: "old", MaxRotate: 2},
			msg:  "ROTATE is limited to 2 slots, 3 are required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithInstructionSet(tt.set))
			requireKind(t, err, errz.ErrConfig)
			require.Contains(t, err.Error(), tt.msg)
		})
	}

	engine := newEngine(t, WithInstructionSet(op.Legacy))
	require.Equal(t, op.Legacy, engine.InstructionSet())
}

func TestHook(t *testing.T) {
	module := func(name string) *bytecode.Code {
		l := dis.NewListing(bytecode.CodeParams{Name: name, GlobalCount: 1, GlobalNames: []string{"count"}})
		l.Emit(op.LoadConst, int64(1)).Emit(op.StoreGlobal, 0).
			Emit(op.LoadGlobal, 0).Emit(op.UnaryPositive).Emit(op.UnaryPositive).Emit(op.PopTop)
		return assemble(t, l)
	}
	base := importer.NewMapImporter(map[string]*bytecode.Code{
		"app/counter": module("app/counter"),
		"vendor/lib":  module("vendor/lib"),
	})
	hook := newEngine(t).Hook(base)
	hook.Install("app")

	count := func(name string) any {
		main := dis.NewListing(bytecode.CodeParams{})
		main.Emit(op.Import, name).Emit(op.LoadAttr, "count")
		result, err := Run(context.Background(), assemble(t, main), WithImporter(hook))
		require.NoError(t, err)
		return result
	}
	require.Equal(t, int64(2), count("app/counter"))
	require.Equal(t, int64(1), count("vendor/lib"))

	hook.Uninstall("app")
	require.Equal(t, int64(1), count("app/counter"))
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	engine := newEngine(t, WithLogger(logger))
	_, err := engine.Enable(incrementLocal(t, op.UnaryPositive))
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, `"message":"rewrote unary pair"`)
	require.Contains(t, out, `"message":"transformed unit tree"`)
	require.Contains(t, out, `"applied":1`)
	require.Contains(t, out, `"run":"`)
}

func TestRunResultConversion(t *testing.T) {
	main := dis.NewListing(bytecode.CodeParams{})
	main.Emit(op.LoadConst, incrementLocal(t, op.UnaryPositive))
	result, err := Run(context.Background(), assemble(t, main))
	require.NoError(t, err)
	require.Equal(t, "func incrementLocal() { ... }", result)

	result, err = Run(context.Background(), assemble(t, dis.NewListing(bytecode.CodeParams{})))
	require.NoError(t, err)
	require.Nil(t, result)
}
