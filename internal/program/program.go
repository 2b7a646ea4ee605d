// Package program models the read-only snapshot of user-defined entities
// produced by the front-end (spec.md §3 "Program"): packages, modules,
// classes, structs, enums, traits, functions, and globals, each keyed by a
// stable dense id.
package program

import (
	"github.com/malphas-lang/malphas-lang/internal/bcty"
	"github.com/malphas-lang/malphas-lang/internal/bytecode"
)

// Id is a dense, stable index into one of a Program's entity tables.
type Id = bcty.Id

const NoId Id = ^Id(0)

// Package is one of the program's three distinguished roots (stdlib,
// program, boots) or a library package.
type Package struct {
	Name       string
	RootModule Id
}

// Module is a namespace: a set of declarations, possibly nested.
type Module struct {
	Name   string
	Parent Id // NoId for the root module of a package
}

// Field describes one field of a struct or class.
type Field struct {
	Name string
	Type bcty.BytecodeType
}

// TraitBound restricts a type parameter to implementors of a trait.
type TraitBound struct {
	TraitId  Id
	TypeArgs bcty.TypeArray
}

// TypeParam is one generic parameter of a class/struct/enum/trait/function.
type TypeParam struct {
	Name   string
	Bounds []TraitBound
}

// ClassDef is a nominal class: a heap-allocated reference type with fields
// and virtual methods.
type ClassDef struct {
	Name       string
	ModuleId   Id
	TypeParams []TypeParam
	Fields     []Field
	IsAbstract bool
	// IsArray and IsStr mark the two built-in variable-length class shapes
	// the shape layer lays out specially (spec.md §4.2's array/string
	// InstanceSize variants) instead of walking Fields.
	IsArray bool
	IsStr   bool
	// Methods lists the ids of functions declared directly on this class,
	// in declaration order (used to build its VTable, spec.md §4.2).
	Methods []Id
}

// StructDef is a nominal value type: an inline aggregate with fields.
type StructDef struct {
	Name       string
	ModuleId   Id
	TypeParams []TypeParam
	Fields     []Field
}

// Variant is one constructor of an EnumDef.
type Variant struct {
	Name    string
	Payload []bcty.BytecodeType
}

// EnumDef is a nominal sum type.
type EnumDef struct {
	Name       string
	ModuleId   Id
	TypeParams []TypeParam
	Variants   []Variant
}

// TraitMethod is one method signature declared by a trait, in declaration
// order — that order fixes VTable slot assignment (spec.md §3 "VTable").
type TraitMethod struct {
	Name   string
	Params []bcty.BytecodeType
	Return bcty.BytecodeType
}

// TraitDef is a nominal interface.
type TraitDef struct {
	Name       string
	ModuleId   Id
	TypeParams []TypeParam
	Methods    []TraitMethod
}

// Impl records that a (possibly generic) type implements a trait, binding
// each trait method name to the concrete function that implements it.
// Extensions (plain `impl Type { ... }` blocks with no trait) reuse this
// table with TraitId == NoId (SPEC_FULL "extensions", grounded on Dora's
// vm/extensions.rs).
type Impl struct {
	TraitId    Id // NoId for a trait-less extension
	ForType    bcty.BytecodeType
	TypeParams []TypeParam
	Methods    map[string]Id // trait/extension method name -> FunctionDef id
}

// FunctionFlags are the per-function attribute bits named in spec.md §3.
type FunctionFlags uint8

const (
	FlagInternal FunctionFlags = 1 << iota
	FlagTest
	FlagOptimizeImmediately
)

// FunctionDef is one function, method, or lambda body.
type FunctionDef struct {
	Name       string
	ModuleId   Id
	Params     []bcty.BytecodeType
	Return     bcty.BytecodeType
	TypeParams []TypeParam
	Flags      FunctionFlags
	// Body is nil for declarations without a body (trait method
	// signatures); present after the front-end (or, in this repo, the
	// thin translation layer in assemble.go) has lowered it.
	Body *bytecode.Function
}

// GlobalDef is a module-level variable.
type GlobalDef struct {
	Name        string
	ModuleId    Id
	Type        bcty.BytecodeType
	HasInitExpr bool
	// InitInt32 is the global's constant initial value when both Type is
	// Int32 and its initializer is a literal this bridge can evaluate
	// ahead of time (assemble.go's narrow constant-folding subset); nil
	// otherwise, leaving the global at its zero value the same way a
	// declaration with no initializer would. A real lazy-initializer
	// (spec.md §4.6's per-global first-touch init call) belongs to the
	// JIT driver's LoadGlobal lowering, which does not exist in this
	// baseline (see internal/jit/visitor.go's visitLoadGlobal); this field
	// is this bridge's narrower, eager stand-in for the literal case an
	// end-to-end CLI run actually needs.
	InitInt32 *int32
}

// Program is the read-only snapshot consumed by the shape layer and the
// JIT driver. Tables are append-only; ids are stable for the VM's
// lifetime (spec.md §3).
type Program struct {
	Packages  []Package
	Modules   []Module
	Classes   []ClassDef
	Structs   []StructDef
	Enums     []EnumDef
	Traits    []TraitDef
	Functions []FunctionDef
	Globals   []GlobalDef
	Impls     []Impl

	StdlibPackage Id
	ProgramPackage Id
	BootsPackage   Id // NoId if no self-hosting compiler package is present
}

func New() *Program {
	return &Program{StdlibPackage: NoId, ProgramPackage: NoId, BootsPackage: NoId}
}

func (p *Program) AddModule(m Module) Id {
	id := Id(len(p.Modules))
	p.Modules = append(p.Modules, m)
	return id
}

func (p *Program) AddClass(c ClassDef) Id {
	id := Id(len(p.Classes))
	p.Classes = append(p.Classes, c)
	return id
}

func (p *Program) AddStruct(s StructDef) Id {
	id := Id(len(p.Structs))
	p.Structs = append(p.Structs, s)
	return id
}

func (p *Program) AddEnum(e EnumDef) Id {
	id := Id(len(p.Enums))
	p.Enums = append(p.Enums, e)
	return id
}

func (p *Program) AddTrait(t TraitDef) Id {
	id := Id(len(p.Traits))
	p.Traits = append(p.Traits, t)
	return id
}

func (p *Program) AddFunction(f FunctionDef) Id {
	id := Id(len(p.Functions))
	p.Functions = append(p.Functions, f)
	return id
}

func (p *Program) AddGlobal(g GlobalDef) Id {
	id := Id(len(p.Globals))
	p.Globals = append(p.Globals, g)
	return id
}

func (p *Program) AddImpl(impl Impl) Id {
	id := Id(len(p.Impls))
	p.Impls = append(p.Impls, impl)
	return id
}

// FindMainFunction implements spec.md §6 "Main discovery": a function
// named main in the program package's root module, with no parameters, no
// type parameters, and return type Unit or Int32.
func (p *Program) FindMainFunction() (Id, error) {
	if p.ProgramPackage == NoId {
		return NoId, errNoProgramPackage
	}
	rootModule := p.Packages[p.ProgramPackage].RootModule
	for idx, fn := range p.Functions {
		if fn.Name != "main" || fn.ModuleId != rootModule {
			continue
		}
		if len(fn.Params) != 0 || len(fn.TypeParams) != 0 {
			return NoId, errWrongMainDefinition
		}
		if !(fn.Return.Kind == bcty.KindUnit || fn.Return.Kind == bcty.KindInt32) {
			return NoId, errWrongMainDefinition
		}
		return Id(idx), nil
	}
	return NoId, errNoMainFunction
}

// FindTestFunctions implements spec.md §6 "Test discovery": every
// FlagTest function in the program package with no parameters and no type
// parameters, filtered by a substring match on name.
func (p *Program) FindTestFunctions(filter string) []Id {
	if p.ProgramPackage == NoId {
		return nil
	}
	rootModule := p.Packages[p.ProgramPackage].RootModule
	var out []Id
	for idx, fn := range p.Functions {
		if fn.ModuleId != rootModule {
			continue
		}
		if fn.Flags&FlagTest == 0 {
			continue
		}
		if len(fn.Params) != 0 || len(fn.TypeParams) != 0 {
			continue
		}
		if filter != "" && !containsSubstring(fn.Name, filter) {
			continue
		}
		out = append(out, Id(idx))
	}
	return out
}

func containsSubstring(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

// FindExtensionMethod looks up a method by name among the impls that widen
// ty (trait impls and trait-less extensions alike), the mechanism
// SPEC_FULL's "extensions" supplement describes for resolving a call whose
// receiver type has no directly-declared method.
func (p *Program) FindExtensionMethod(ty bcty.BytecodeType, method string) (Id, bool) {
	for _, impl := range p.Impls {
		if !impl.ForType.Equal(ty) {
			continue
		}
		if id, ok := impl.Methods[method]; ok {
			return id, true
		}
	}
	return NoId, false
}

// TraitImplMethod looks up the function implementing traitId's method for
// a concrete object type — the lookup the shape layer performs while
// building a trait object's VTable (spec.md §4.2).
func (p *Program) TraitImplMethod(traitId Id, objectTy bcty.BytecodeType, method string) (Id, bool) {
	for _, impl := range p.Impls {
		if impl.TraitId != traitId {
			continue
		}
		if !impl.ForType.Equal(objectTy) {
			continue
		}
		if id, ok := impl.Methods[method]; ok {
			return id, true
		}
	}
	return NoId, false
}
