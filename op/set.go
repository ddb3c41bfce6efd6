package op

import (
	"fmt"
	"io"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/cloudcmds/plusplus/errz"
)

// InstructionSet describes the opcodes a host virtual machine can execute.
// Every opcode in this package is available unless it is listed in
// Unsupported. ROTATE is further limited to MaxRotate slots.
type InstructionSet struct {
	Name        string   `toml:"name"`
	MaxRotate   int      `toml:"max_rotate"`
	Unsupported []string `toml:"unsupported"`
}

var (
	// Standard is the instruction set of the current VM.
	Standard = InstructionSet{Name: "standard", MaxRotate: 4}

	// Legacy mirrors hosts that only rotate up to three stack slots.
	Legacy = InstructionSet{Name: "legacy", MaxRotate: 3}
)

var builtinSets = map[string]InstructionSet{
	Standard.Name: Standard,
	Legacy.Name:   Legacy,
}

// LookupInstructionSet returns a built-in instruction set by name.
func LookupInstructionSet(name string) (InstructionSet, bool) {
	set, ok := builtinSets[name]
	return set, ok
}

// InstructionSetNames returns the names of the built-in instruction sets.
func InstructionSetNames() []string {
	names := make([]string, 0, len(builtinSets))
	for name := range builtinSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeInstructionSet reads an instruction set description in TOML format:
//
//	name = "embedded"
//	max_rotate = 3
//	unsupported = ["UNPACK"]
func DecodeInstructionSet(r io.Reader) (InstructionSet, error) {
	var set InstructionSet
	if _, err := toml.NewDecoder(r).Decode(&set); err != nil {
		return InstructionSet{}, fmt.Errorf("invalid instruction set: %w", err)
	}
	if err := set.validate(); err != nil {
		return InstructionSet{}, err
	}
	return set, nil
}

// LoadInstructionSet reads a TOML instruction set description from a file.
func LoadInstructionSet(path string) (InstructionSet, error) {
	var set InstructionSet
	if _, err := toml.DecodeFile(path, &set); err != nil {
		return InstructionSet{}, fmt.Errorf("invalid instruction set %s: %w", path, err)
	}
	if err := set.validate(); err != nil {
		return InstructionSet{}, err
	}
	return set, nil
}

func (s InstructionSet) validate() error {
	if s.MaxRotate < 0 {
		return fmt.Errorf("instruction set %q: max_rotate must not be negative", s.Name)
	}
	for _, name := range s.Unsupported {
		if _, ok := Lookup(name); !ok {
			return fmt.Errorf("instruction set %q: unknown opcode %q%s", s.Name, name, errz.DidYouMean(name, Names()))
		}
	}
	return nil
}

// Supports returns true if the host can execute the given opcode.
func (s InstructionSet) Supports(code Code) bool {
	if GetInfo(code).Name == "" {
		return false
	}
	for _, name := range s.Unsupported {
		if c, ok := Lookup(name); ok && c == code {
			return false
		}
	}
	return true
}

// SupportsRotate returns true if the host can natively rotate n stack slots.
func (s InstructionSet) SupportsRotate(n int) bool {
	return n >= 2 && n <= s.MaxRotate && s.Supports(Rotate)
}

func (s InstructionSet) String() string {
	return s.Name
}
