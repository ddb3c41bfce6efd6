// Package importer resolves module names to compiled units for the VM.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cloudcmds/plusplus/bytecode"
)

// Importer is an interface used to import modules.
type Importer interface {
	// Import returns the compiled unit of the module with the given name.
	Import(ctx context.Context, name string) (*bytecode.Code, error)
}

// MapImporter serves modules from an in-memory map.
type MapImporter struct {
	units map[string]*bytecode.Code
}

// NewMapImporter returns an importer for the given modules.
func NewMapImporter(units map[string]*bytecode.Code) *MapImporter {
	copied := make(map[string]*bytecode.Code, len(units))
	for name, code := range units {
		copied[name] = code
	}
	return &MapImporter{units: copied}
}

func (m *MapImporter) Import(ctx context.Context, name string) (*bytecode.Code, error) {
	code, ok := m.units[name]
	if !ok {
		return nil, fmt.Errorf("module %q not found", name)
	}
	return code, nil
}

// DirImporter reads modules serialized with bytecode.Marshal from a
// directory. The module "a/b" is read from <dir>/a/b.json.
type DirImporter struct {
	dir   string
	mutex sync.Mutex
	cache map[string]*bytecode.Code
}

// NewDirImporter returns an importer that reads modules from dir.
func NewDirImporter(dir string) *DirImporter {
	return &DirImporter{dir: dir, cache: map[string]*bytecode.Code{}}
}

func (d *DirImporter) Import(ctx context.Context, name string) (*bytecode.Code, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if code, ok := d.cache[name]; ok {
		return code, nil
	}
	if name == "" || strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid module name %q", name)
	}
	path := filepath.Join(d.dir, filepath.FromSlash(name)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("module %q not found", name)
		}
		return nil, err
	}
	code, err := bytecode.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", name, err)
	}
	d.cache[name] = code
	return code, nil
}
