package vm

import "github.com/malphas-lang/malphas-lang/internal/program"

// KnownElements caches the ids of built-in declarations the runtime needs
// to reach by name at arbitrary points (the array/string class shapes, the
// Option enum, the `assert` intrinsic, ...), grounded on
// original_source/dora-frontend/src/language/sem_analysis/known.rs.
// Each field defaults to program.NoId; Resolve* methods panic on the
// uninitialized case the same way the original's accessors do via
// Option::expect("uninitialized") — a missing well-known declaration is a
// program-assembly bug, never a condition user code can trigger.
type KnownElements struct {
	Classes KnownClasses
	Structs KnownStructs
	Traits  KnownTraits
	Enums   KnownEnums
}

type KnownClasses struct {
	Array  program.Id
	String program.Id
	Thread program.Id
	Lambda program.Id
}

type KnownStructs struct {
	Bool    program.Id
	UInt8   program.Id
	Char    program.Id
	Int32   program.Id
	Int64   program.Id
	Float32 program.Id
	Float64 program.Id
}

type KnownTraits struct {
	Equals     program.Id
	Comparable program.Id
	Stringable program.Id
	Iterator   program.Id
}

type KnownEnums struct {
	Option program.Id
}

func newKnownElements() KnownElements {
	noId := program.NoId
	return KnownElements{
		Classes: KnownClasses{Array: noId, String: noId, Thread: noId, Lambda: noId},
		Structs: KnownStructs{Bool: noId, UInt8: noId, Char: noId, Int32: noId, Int64: noId, Float32: noId, Float64: noId},
		Traits:  KnownTraits{Equals: noId, Comparable: noId, Stringable: noId, Iterator: noId},
		Enums:   KnownEnums{Option: noId},
	}
}

// ResolveArrayClass returns the well-known Array class id, panicking if the
// assembled program never registered one.
func (k KnownElements) ResolveArrayClass() program.Id { return mustKnown(k.Classes.Array, "Array class") }

func (k KnownElements) ResolveStringClass() program.Id {
	return mustKnown(k.Classes.String, "String class")
}

func (k KnownElements) ResolveOptionEnum() program.Id {
	return mustKnown(k.Enums.Option, "Option enum")
}

func mustKnown(id program.Id, what string) program.Id {
	if id == program.NoId {
		panic("vm: well-known " + what + " was never registered with this program")
	}
	return id
}

// resolveKnownElements scans prog's declaration tables by well-known name
// and populates whichever KnownElements fields the assembled program
// actually declares, leaving the rest at program.NoId. Called once from
// New/NewWithLogger after Program assembly, grounded on the same
// known.rs lookup-by-name the original performs during stdlib loading —
// this bridge has no separate stdlib source pass, so it resolves directly
// against whatever the caller's single source file (plus the synthetic
// stdlib/program packages assemble.go always creates) declared.
func resolveKnownElements(prog *program.Program) KnownElements {
	k := newKnownElements()

	for id, c := range prog.Classes {
		switch c.Name {
		case "Array":
			k.Classes.Array = program.Id(id)
		case "String":
			k.Classes.String = program.Id(id)
		case "Thread":
			k.Classes.Thread = program.Id(id)
		case "Lambda":
			k.Classes.Lambda = program.Id(id)
		}
	}

	for id, s := range prog.Structs {
		switch s.Name {
		case "Bool":
			k.Structs.Bool = program.Id(id)
		case "UInt8":
			k.Structs.UInt8 = program.Id(id)
		case "Char":
			k.Structs.Char = program.Id(id)
		case "Int32":
			k.Structs.Int32 = program.Id(id)
		case "Int64":
			k.Structs.Int64 = program.Id(id)
		case "Float32":
			k.Structs.Float32 = program.Id(id)
		case "Float64":
			k.Structs.Float64 = program.Id(id)
		}
	}

	for id, t := range prog.Traits {
		switch t.Name {
		case "Equals":
			k.Traits.Equals = program.Id(id)
		case "Comparable":
			k.Traits.Comparable = program.Id(id)
		case "Stringable":
			k.Traits.Stringable = program.Id(id)
		case "Iterator":
			k.Traits.Iterator = program.Id(id)
		}
	}

	for id, e := range prog.Enums {
		if e.Name == "Option" {
			k.Enums.Option = program.Id(id)
		}
	}

	return k
}
