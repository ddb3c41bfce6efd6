package errz

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStructuredError(t *testing.T) {
	err := NewStructuredErrorf(ErrSyntax,
		SourceLocation{Filename: "counter.pp", Line: 3, Column: 5, Source: "x = ++f()"},
		nil, "cannot increment a non-assignable expression")
	require.Equal(t, "syntax error: cannot increment a non-assignable expression (counter.pp:3:5)", err.Error())

	report := err.Report()
	require.Contains(t, report, " | x = ++f()\n")
	require.Contains(t, report, " |     ^\n")
}

func TestStructuredErrorStack(t *testing.T) {
	stack := []StackFrame{
		{Function: "inc", Location: SourceLocation{Line: 2, Column: 3}},
		{Function: "<main>", Location: SourceLocation{Line: 7, Column: 1}},
	}
	err := NewStructuredError(ErrRuntime, "boom", SourceLocation{}, stack)
	require.Equal(t, "runtime error: boom", err.Error())
	require.Equal(t, stack, err.Stack)
	require.Contains(t, err.Report(), "Stack trace:\n  at inc (2:3)\n  at <main> (7:1)\n")
}

func TestKindOf(t *testing.T) {
	cause := fmt.Errorf("missing ROTATE")
	err := NewStructuredError(ErrConfig, "unsupported host", SourceLocation{}, nil).WithCause(cause)
	wrapped := fmt.Errorf("engine: %w", err)

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	require.Equal(t, ErrConfig, kind)
	require.Equal(t, "config error", kind.String())
	require.ErrorIs(t, wrapped, cause)

	_, ok = KindOf(cause)
	require.False(t, ok)
}

func TestErrorKindNames(t *testing.T) {
	require.Equal(t, "args error", ErrArgs.String())
	require.Equal(t, "error", ErrorKind(99).String())

	err := NewStructuredErrorf(ErrArgs, SourceLocation{}, nil, "function %q takes %d arguments (%d given)", "inc", 1, 2)
	require.EqualError(t, err, `args error: function "inc" takes 1 arguments (2 given)`)
	require.Equal(t, "at <main> (7:1)", StackFrame{Function: "<main>", Location: SourceLocation{Line: 7, Column: 1}}.String())
	require.Equal(t, "at 7:1", StackFrame{Location: SourceLocation{Line: 7, Column: 1}}.String())
}

func TestSuggestSimilar(t *testing.T) {
	candidates := []string{"ROTATE", "COPY", "SWAP", "UNPACK"}
	require.Equal(t, []string{"ROTATE"}, SuggestSimilar("rotat", candidates))
	require.Equal(t, []string{"COPY"}, SuggestSimilar("COP", candidates))
	require.Empty(t, SuggestSimilar("ROTATE", candidates))
	require.Empty(t, SuggestSimilar("", candidates))

	require.Equal(t, " (did you mean SWAP?)", DidYouMean("SWAPP", candidates))
	require.Equal(t, "", DidYouMean("BUILD_LIST", candidates))
}
