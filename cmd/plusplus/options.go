package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/cloudcmds/plusplus"
	"github.com/cloudcmds/plusplus/bytecode"
	"github.com/cloudcmds/plusplus/errz"
	"github.com/cloudcmds/plusplus/op"
)

// Returns the instruction set named by --host. Names that are not built-in
// profiles are read as TOML files.
func (a *app) host() (op.InstructionSet, error) {
	name := a.config.GetString("host")
	if set, ok := op.LookupInstructionSet(name); ok {
		return set, nil
	}
	if !strings.HasSuffix(name, ".toml") {
		if hint := errz.DidYouMean(name, op.InstructionSetNames()); hint != "" {
			return op.InstructionSet{}, fmt.Errorf("unknown host %q%s", name, hint)
		}
		return op.InstructionSet{}, fmt.Errorf("unknown host %q (expected one of %s, or a .toml file)",
			name, strings.Join(op.InstructionSetNames(), ", "))
	}
	path, err := homedir.Expand(name)
	if err != nil {
		return op.InstructionSet{}, err
	}
	return op.LoadInstructionSet(path)
}

func (a *app) options() ([]plusplus.Option, error) {
	set, err := a.host()
	if err != nil {
		return nil, err
	}
	return []plusplus.Option{
		plusplus.WithInstructionSet(set),
		plusplus.WithLogger(a.logger),
		plusplus.WithStrict(a.config.GetBool("strict")),
		plusplus.WithIntrospectionPrefix(a.config.GetString("introspection-prefix")),
	}, nil
}

func (a *app) engine() (*plusplus.Engine, []plusplus.Option, error) {
	opts, err := a.options()
	if err != nil {
		return nil, nil, err
	}
	engine, err := plusplus.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return engine, opts, nil
}

func readCode(path string) (*bytecode.Code, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	code, err := bytecode.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return code, nil
}
