package plusplus

import (
	"github.com/rs/zerolog"

	"github.com/cloudcmds/plusplus/importer"
	"github.com/cloudcmds/plusplus/op"
	"github.com/cloudcmds/plusplus/rewrite"
	"github.com/cloudcmds/plusplus/vm"
)

// Option configures an Engine or a call to Run.
type Option func(*config)

type config struct {
	set      op.InstructionSet
	logger   zerolog.Logger
	strict   bool
	prefix   string
	globals  map[string]any
	importer importer.Importer
	observer vm.Observer
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		set:     op.Standard,
		logger:  zerolog.Nop(),
		prefix:  rewrite.DefaultIntrospectionPrefix,
		globals: map[string]any{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *config) rewriteConfig() rewrite.Config {
	logger := c.logger
	return rewrite.Config{
		InstructionSet:      c.set,
		Strict:              c.strict,
		IntrospectionPrefix: c.prefix,
		Logger:              &logger,
	}
}

func (c *config) vmOpts() []vm.Option {
	opts := []vm.Option{vm.WithInstructionSet(c.set)}
	if len(c.globals) > 0 {
		opts = append(opts, vm.WithGlobals(c.globals))
	}
	if c.importer != nil {
		opts = append(opts, vm.WithImporter(c.importer))
	}
	if c.observer != nil {
		opts = append(opts, vm.WithObserver(c.observer))
	}
	return opts
}

// WithInstructionSet sets the host the rewritten code runs on. The default
// is op.Standard.
func WithInstructionSet(set op.InstructionSet) Option {
	return func(cfg *config) {
		cfg.set = set
	}
}

// WithLogger sets the logger. Rewrites are logged at debug level and each
// transformed unit tree at info level.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithStrict makes an increment or decrement of an unassignable operand a
// syntax error. By default such operands are left unrewritten.
func WithStrict(strict bool) Option {
	return func(cfg *config) {
		cfg.strict = strict
	}
}

// WithIntrospectionPrefix sets the local name prefix of assertion
// introspection temporaries. The default is "@assert".
func WithIntrospectionPrefix(prefix string) Option {
	return func(cfg *config) {
		cfg.prefix = prefix
	}
}

// WithGlobals provides global variables to Run. This option is additive. If
// the same key is supplied multiple times, the last value wins.
func WithGlobals(globals map[string]any) Option {
	return func(cfg *config) {
		for k, v := range globals {
			cfg.globals[k] = v
		}
	}
}

// WithImporter supplies the Importer used by Run for IMPORT instructions.
func WithImporter(i importer.Importer) Option {
	return func(cfg *config) {
		cfg.importer = i
	}
}

// WithObserver sets an observer for VM execution events in Run.
func WithObserver(observer vm.Observer) Option {
	return func(cfg *config) {
		cfg.observer = observer
	}
}
