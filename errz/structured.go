package errz

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a StructuredError.
type ErrorKind int

const (
	ErrSyntax  ErrorKind = iota // an increment of something that is not assignable
	ErrType                     // an operation the operand types do not support
	ErrName                     // an unbound name
	ErrValue                    // a bad value such as a missing key
	ErrRuntime                  // any other failure while running code
	ErrImport                   // a module that could not be loaded
	ErrConfig                   // a host that cannot run the rewritten code
	ErrArgs                     // a call with the wrong number of arguments
)

var kindNames = map[ErrorKind]string{
	ErrSyntax:  "syntax error",
	ErrType:    "type error",
	ErrName:    "name error",
	ErrValue:   "value error",
	ErrRuntime: "runtime error",
	ErrImport:  "import error",
	ErrConfig:  "config error",
	ErrArgs:    "args error",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "error"
}

// StructuredError carries a kind, the location it was raised at and the call
// stack, so callers can branch with KindOf and users get a readable report.
type StructuredError struct {
	Message  string
	Kind     ErrorKind
	Location SourceLocation
	Stack    []StackFrame
	Cause    error
}

// NewStructuredError returns an error of the given kind.
func NewStructuredError(kind ErrorKind, message string, loc SourceLocation, stack []StackFrame) *StructuredError {
	return &StructuredError{Message: message, Kind: kind, Location: loc, Stack: stack}
}

// NewStructuredErrorf is NewStructuredError with a formatted message.
func NewStructuredErrorf(kind ErrorKind, loc SourceLocation, stack []StackFrame, format string, args ...any) *StructuredError {
	return NewStructuredError(kind, fmt.Sprintf(format, args...), loc, stack)
}

func (e *StructuredError) Error() string {
	msg := e.Kind.String() + ": " + e.Message
	if e.Location.IsZero() {
		return msg
	}
	return msg + " (" + e.Location.String() + ")"
}

func (e *StructuredError) Unwrap() error { return e.Cause }

// WithCause sets the error unwrapped by errors.Is and errors.As.
func (e *StructuredError) WithCause(cause error) *StructuredError {
	e.Cause = cause
	return e
}

// Report renders the error with the offending source line, a caret under
// the column and the stack trace.
func (e *StructuredError) Report() string {
	var b strings.Builder
	b.WriteString(e.Error() + "\n")
	if src := e.Location.Source; src != "" {
		b.WriteString(" | " + src + "\n")
		if e.Location.Column > 0 {
			b.WriteString(" | " + strings.Repeat(" ", e.Location.Column-1) + "^\n")
		}
	}
	if len(e.Stack) > 0 {
		b.WriteString("\n" + FormatStackTrace(e.Stack))
	}
	return b.String()
}

// KindOf returns the kind of the first StructuredError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var structured *StructuredError
	if errors.As(err, &structured) {
		return structured.Kind, true
	}
	return 0, false
}
