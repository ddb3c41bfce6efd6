// Package plusplus adds working ++ and -- operators to compiled bytecode.
//
// Source such as ++x compiles to two UNARY_POSITIVE instructions, which leave
// x unchanged. An Engine rewrites those pairs so that the operand is updated
// in place and the new value is the result of the expression:
//
//	engine, err := plusplus.New()
//	if err != nil {
//		return err
//	}
//	fn, err = engine.Enable(fn)
//
// Modules can be rewritten as they are imported with Engine.Hook.
package plusplus

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/errz"
	"github.com/cloudcmds/plusplus/importer"
	"github.com/cloudcmds/plusplus/object"
	"github.com/cloudcmds/plusplus/op"
	"github.com/cloudcmds/plusplus/rewrite"
)

// Engine rewrites functions and unit trees for one host instruction set. It
// is safe for concurrent use.
type Engine struct {
	cfg    *config
	walker *rewrite.Walker
	logger zerolog.Logger

	mutex   sync.Mutex
	enabled map[*bytecode.Function]*bytecode.Function
}

// New returns an Engine. It fails with an errz.ErrConfig error listing every
// capability the configured instruction set lacks.
func New(opts ...Option) (*Engine, error) {
	cfg := newConfig(opts...)
	if err := checkInstructionSet(cfg.set); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     cfg,
		walker:  rewrite.NewWalker(cfg.rewriteConfig()),
		logger:  cfg.logger,
		enabled: map[*bytecode.Function]*bytecode.Function{},
	}, nil
}

func checkInstructionSet(set op.InstructionSet) error {
	required := append([]op.Code{op.UnaryPositive, op.UnaryNegative}, rewrite.Requirements(set)...)
	var result *multierror.Error
	for _, code := range required {
		if !set.Supports(code) {
			result = multierror.Append(result, fmt.Errorf("missing %s", code))
		}
	}
	if set.Supports(op.Rotate) && !set.SupportsRotate(3) {
		result = multierror.Append(result,
			fmt.Errorf("ROTATE is limited to %d slots, 3 are required", set.MaxRotate))
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		parts := make([]string, len(errs))
		for i, err := range errs {
			parts[i] = err.Error()
		}
		return strings.Join(parts, "; ")
	}
	return errz.NewStructuredErrorf(errz.ErrConfig, errz.SourceLocation{}, nil,
		"instruction set %q cannot run rewritten code: %s", set.Name, result.Error()).WithCause(result)
}

// InstructionSet returns the host the engine rewrites for.
func (e *Engine) InstructionSet() op.InstructionSet {
	return e.cfg.set
}

// Enable returns a copy of fn whose body, and every unit nested in it,
// performs increments and decrements. Enabling the same function again
// returns the same result, as does enabling a result.
func (e *Engine) Enable(fn *bytecode.Function) (*bytecode.Function, error) {
	if fn == nil {
		return nil, errz.NewStructuredErrorf(errz.ErrType, errz.SourceLocation{}, nil,
			"cannot enable increments on nil")
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if enabled, ok := e.enabled[fn]; ok {
		return enabled, nil
	}
	if fn.Code() == nil || fn.Code().Flags().Has(bytecode.FlagIncrements) {
		e.enabled[fn] = fn
		return fn, nil
	}
	code, _, err := e.transform(fn.Code())
	if err != nil {
		return nil, err
	}
	enabled := fn.WithCode(code)
	e.enabled[fn] = enabled
	e.enabled[enabled] = enabled
	return enabled, nil
}

// EnableValue enables increments on a function value: a *bytecode.Function
// or an *object.Closure. A closure keeps its captured variables. Any other
// value is a type error.
func (e *Engine) EnableValue(value any) (any, error) {
	switch value := value.(type) {
	case *bytecode.Function:
		return e.Enable(value)
	case *object.Closure:
		fn, err := e.Enable(value.Function())
		if err != nil {
			return nil, err
		}
		if fn == value.Function() {
			return value, nil
		}
		free := make([]*object.Cell, value.FreeVarCount())
		for i := range free {
			free[i] = value.FreeVar(i)
		}
		return object.NewClosure(fn, free), nil
	default:
		return nil, errz.NewStructuredErrorf(errz.ErrType, errz.SourceLocation{}, nil,
			"cannot enable increments on %s: expected a function", typeName(value))
	}
}

// EnableCode rewrites a whole unit tree, such as a module.
func (e *Engine) EnableCode(code *bytecode.Code) (*bytecode.Code, *rewrite.Report, error) {
	return e.transform(code)
}

// Transform implements importer.Transformer.
func (e *Engine) Transform(code *bytecode.Code) (*bytecode.Code, error) {
	out, _, err := e.transform(code)
	return out, err
}

// Hook returns an import hook that rewrites the modules of installed
// packages with this engine.
func (e *Engine) Hook(base importer.Importer) *importer.Hook {
	return importer.NewHook(base, e, importer.WithHookLogger(e.logger))
}

func (e *Engine) transform(code *bytecode.Code) (*bytecode.Code, *rewrite.Report, error) {
	runID := uuid.Must(uuid.NewV4()).String()
	logger := e.logger.With().Str("run", runID).Logger()
	out, report, err := e.walker.Transform(code)
	if err != nil {
		logger.Debug().Err(err).Str("unit", unitName(code)).Msg("transform failed")
		return nil, report, err
	}
	logger.Info().
		Str("unit", unitName(code)).
		Str("host", e.cfg.set.Name).
		Int("units", len(report.Units)).
		Int("applied", report.AppliedCount()).
		Int("skipped", report.SkippedCount()).
		Msg("transformed unit tree")
	return out, report, nil
}

func unitName(code *bytecode.Code) string {
	if name := code.Name(); name != "" {
		return name
	}
	return "<main>"
}

func typeName(value any) string {
	if obj, ok := value.(object.Object); ok {
		return string(obj.Type())
	}
	return fmt.Sprintf("%T", value)
}
