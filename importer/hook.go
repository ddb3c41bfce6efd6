package importer

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cloudcmds/plusplus/bytecode"
)

// Transformer rewrites a compiled unit tree.
type Transformer interface {
	Transform(code *bytecode.Code) (*bytecode.Code, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(code *bytecode.Code) (*bytecode.Code, error)

func (f TransformerFunc) Transform(code *bytecode.Code) (*bytecode.Code, error) {
	return f(code)
}

// Hook wraps an Importer and transforms the modules of installed packages as
// they are imported. A module belongs to package "pkg" when it is named "pkg"
// or "pkg/...". VMs cache the modules they import, so installing or
// uninstalling a package does not affect modules a VM has already imported.
type Hook struct {
	base        Importer
	transformer Transformer
	logger      zerolog.Logger

	mutex    sync.Mutex
	packages map[string]bool
	cache    map[string]*bytecode.Code
}

// HookOption configures a Hook.
type HookOption func(*Hook)

// WithHookLogger sets the logger used to report transformed imports.
func WithHookLogger(logger zerolog.Logger) HookOption {
	return func(h *Hook) {
		h.logger = logger
	}
}

// NewHook returns a Hook that imports through base and transforms with t.
func NewHook(base Importer, t Transformer, opts ...HookOption) *Hook {
	h := &Hook{
		base:        base,
		transformer: t,
		logger:      zerolog.Nop(),
		packages:    map[string]bool{},
		cache:       map[string]*bytecode.Code{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Install enables transformation for the given package.
func (h *Hook) Install(pkg string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.packages[strings.TrimSuffix(pkg, "/")] = true
}

// Uninstall disables transformation for the given package. Later imports of
// its modules return them untransformed.
func (h *Hook) Uninstall(pkg string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	pkg = strings.TrimSuffix(pkg, "/")
	delete(h.packages, pkg)
	for name := range h.cache {
		if inPackage(name, pkg) {
			delete(h.cache, name)
		}
	}
}

// Packages returns the installed packages in sorted order.
func (h *Hook) Packages() []string {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	packages := make([]string, 0, len(h.packages))
	for pkg := range h.packages {
		packages = append(packages, pkg)
	}
	sort.Strings(packages)
	return packages
}

func (h *Hook) Import(ctx context.Context, name string) (*bytecode.Code, error) {
	code, err := h.base.Import(ctx, name)
	if err != nil {
		return nil, err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	pkg, ok := h.match(name)
	if !ok {
		return code, nil
	}
	if cached, ok := h.cache[name]; ok {
		return cached, nil
	}
	transformed, err := h.transformer.Transform(code)
	if err != nil {
		return nil, err
	}
	h.cache[name] = transformed
	h.logger.Info().Str("module", name).Str("package", pkg).Msg("transformed import")
	return transformed, nil
}

func (h *Hook) match(name string) (string, bool) {
	for pkg := range h.packages {
		if inPackage(name, pkg) {
			return pkg, true
		}
	}
	return "", false
}

func inPackage(name, pkg string) bool {
	return name == pkg || strings.HasPrefix(name, pkg+"/")
}
