package rewrite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/plusplus/dis"
	"github.com/cloudcmds/plusplus/op"
)

func classify(t *testing.T, l *dis.Listing) (Location, error) {
	t.Helper()
	matches := NewDetector("").Find(l)
	require.Len(t, matches, 1)
	return Classify(l, matches[0])
}

func TestClassifySlots(t *testing.T) {
	tests := []struct {
		load  op.Code
		store op.Code
	}{
		{op.LoadFast, op.StoreFast},
		{op.LoadFree, op.StoreFree},
		{op.LoadGlobal, op.StoreGlobal},
	}
	for _, tt := range tests {
		t.Run(tt.load.String(), func(t *testing.T) {
			l := listing("y")
			l.Emit(tt.load, 0).Emit(op.UnaryPositive).Emit(op.UnaryPositive)
			loc, err := classify(t, l)
			require.NoError(t, err)
			slot, ok := loc.(PlainSlot)
			require.True(t, ok)
			require.Equal(t, tt.store, slot.Store)
			require.Equal(t, tt.load, slot.Load.Opcode)
			require.Equal(t, "slot", loc.Kind())
		})
	}
}

func TestClassifyAttribute(t *testing.T) {
	l := listing()
	l.Emit(op.LoadGlobal, 0).Emit(op.LoadAttr, "count").Emit(op.UnaryNegative).Emit(op.UnaryNegative)
	loc, err := classify(t, l)
	require.NoError(t, err)
	require.Equal(t, Attribute{Name: "count", Base: Span{Start: 0, End: 1, Known: true}}, loc)
	require.Equal(t, "attribute", loc.Kind())
}

func TestClassifySubscript(t *testing.T) {
	// d[x + 1]
	l := listing()
	l.Emit(op.LoadGlobal, 1).
		Emit(op.LoadGlobal, 0).Emit(op.LoadConst, int64(1)).Emit(op.BinaryOp, int(op.Add)).
		Emit(op.BinarySubscr).
		Emit(op.UnaryPositive).Emit(op.UnaryPositive)
	loc, err := classify(t, l)
	require.NoError(t, err)
	require.Equal(t, Subscript{
		Container: Span{Start: 0, End: 1, Known: true},
		Key:       Span{Start: 1, End: 4, Known: true},
	}, loc)
	require.Equal(t, "subscript", loc.Kind())
}

func TestClassifyNestedSubscript(t *testing.T) {
	// d["a"]["b"]
	l := listing()
	l.Emit(op.LoadGlobal, 1).Emit(op.LoadConst, "a").Emit(op.BinarySubscr).
		Emit(op.LoadConst, "b").Emit(op.BinarySubscr).
		Emit(op.UnaryPositive).Emit(op.UnaryPositive)
	loc, err := classify(t, l)
	require.NoError(t, err)
	require.Equal(t, Subscript{
		Container: Span{Start: 0, End: 3, Known: true},
		Key:       Span{Start: 3, End: 4, Known: true},
	}, loc)
}

func TestClassifyUnknownSpan(t *testing.T) {
	l := listing()
	l.Emit(op.LoadGlobal, 1).Mark(l.NewLabel()).Emit(op.LoadConst, "k").Emit(op.BinarySubscr).
		Emit(op.UnaryPositive).Emit(op.UnaryPositive)
	loc, err := classify(t, l)
	require.NoError(t, err)
	sub := loc.(Subscript)
	require.True(t, sub.Key.Known)
	require.False(t, sub.Container.Known)
	require.Equal(t, "unknown", sub.Container.String())
	require.Equal(t, "[2:3]", sub.Key.String())
}

func TestClassifyUnpackProducer(t *testing.T) {
	l := listing()
	l.Emit(op.LoadGlobal, 1).Emit(op.Unpack, 2).Emit(op.BinarySubscr).
		Emit(op.UnaryPositive).Emit(op.UnaryPositive)
	loc, err := classify(t, l)
	require.NoError(t, err)
	sub := loc.(Subscript)
	require.False(t, sub.Key.Known)
}

func TestClassifyUnassignable(t *testing.T) {
	tests := []struct {
		name  string
		build func(l *dis.Listing)
		msg   string
	}{
		{
			name: "constant",
			build: func(l *dis.Listing) {
				l.Emit(op.LoadConst, int64(1))
			},
			msg: "operand produced by LOAD_CONST is not assignable",
		},
		{
			name: "call",
			build: func(l *dis.Listing) {
				l.Emit(op.LoadGlobal, 0).Emit(op.Call, 0)
			},
			msg: "operand produced by CALL is not assignable",
		},
		{
			name: "arithmetic",
			build: func(l *dis.Listing) {
				l.Emit(op.LoadGlobal, 0).Emit(op.LoadConst, int64(2)).Emit(op.BinaryOp, int(op.Multiply))
			},
			msg: "operand produced by BINARY_OP is not assignable",
		},
		{
			name: "label",
			build: func(l *dis.Listing) {
				l.Emit(op.LoadGlobal, 0).Mark(l.NewLabel())
			},
			msg: "operand has no producing instruction",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := listing()
			tt.build(l)
			l.Emit(op.UnaryPositive).Emit(op.UnaryPositive)
			_, err := classify(t, l)
			var unclassifiable *UnclassifiableError
			require.ErrorAs(t, err, &unclassifiable)
			require.EqualError(t, err, tt.msg)
		})
	}
}
