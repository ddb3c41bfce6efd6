// Package bytecode provides immutable representations of compiled code.
//
// A [Code] is one compiled unit: a module body or a function body. It owns
// its instruction words, its constant pool and its child units. Function
// templates ([Function]) are stored as constants and reference one of the
// child units as their body, so a module and everything nested in it form a
// tree.
//
// All types in this package are immutable after construction:
//
//   - All fields are unexported
//   - Constructors copy input slices to prevent caller mutation
//   - Index-based accessors are used for all collections
//
// Deriving a modified unit goes through [Code.Params]:
//
//	params := code.Params()
//	params.Flags |= bytecode.FlagIncrements
//	marked := bytecode.NewCode(params)
//
// Units can be serialized to JSON with [Marshal] and read back with
// [Unmarshal].
package bytecode
