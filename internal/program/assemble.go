package program

import (
	"fmt"
	"strings"

	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/bcty"
)

// nominalKind tags which of Program's nominal-declaration tables a name
// resolved through typeResolver belongs to.
type nominalKind int

const (
	nominalStruct nominalKind = iota
	nominalEnum
	nominalTrait
	nominalClass
)

type nominalRef struct {
	kind nominalKind
	id   Id
}

// typeResolver maps a type expression from the raw AST to a
// bcty.BytecodeType: built-in primitives, the enclosing declaration's own
// generic parameters, or one of the nominal struct/enum/trait/class names
// registered earlier in Assemble's declaration pass (so a struct can
// reference another struct regardless of which one appears first in the
// file, including itself for a recursive shape).
type typeResolver struct {
	typeParams map[string]int
	nominals   map[string]nominalRef
}

func (r *typeResolver) resolve(t ast.TypeExpr) (bcty.BytecodeType, error) {
	switch nt := t.(type) {
	case *ast.NamedType:
		return r.resolveName(nt.Name.Name, nil)
	case *ast.GenericType:
		named, ok := nt.Base.(*ast.NamedType)
		if !ok {
			return bcty.BytecodeType{}, fmt.Errorf("program: unsupported generic type base %T", nt.Base)
		}
		return r.resolveName(named.Name.Name, nt.Args)
	default:
		return bcty.BytecodeType{}, fmt.Errorf("program: unsupported type expression %T", t)
	}
}

func (r *typeResolver) resolveName(name string, argExprs []ast.TypeExpr) (bcty.BytecodeType, error) {
	if len(argExprs) == 0 {
		if idx, ok := r.typeParams[name]; ok {
			return bcty.TypeParam(uint32(idx)), nil
		}
		if ty, ok := primitiveBytecodeType(name); ok {
			return ty, nil
		}
	}
	ref, ok := r.nominals[name]
	if !ok {
		return bcty.BytecodeType{}, fmt.Errorf("program: unresolved named type %q", name)
	}
	args := make([]bcty.BytecodeType, len(argExprs))
	for i, a := range argExprs {
		ty, err := r.resolve(a)
		if err != nil {
			return bcty.BytecodeType{}, fmt.Errorf("program: type argument %d of %q: %w", i, name, err)
		}
		args[i] = ty
	}
	typeArgs := bcty.New(args)
	switch ref.kind {
	case nominalStruct:
		return bcty.Struct(ref.id, typeArgs), nil
	case nominalEnum:
		return bcty.Enum(ref.id, typeArgs), nil
	case nominalTrait:
		return bcty.Trait(ref.id, typeArgs), nil
	case nominalClass:
		return bcty.Class(ref.id, typeArgs), nil
	default:
		return bcty.BytecodeType{}, fmt.Errorf("program: unresolved named type %q", name)
	}
}

// primitiveBytecodeType maps a name to one of BytecodeType's scalar
// variants; false for anything that must instead resolve through a
// typeResolver's type-parameter or nominal-declaration tables. Shared with
// Compiler's own generic-instantiation call sites (compiler.go).
func primitiveBytecodeType(name string) (bcty.BytecodeType, bool) {
	switch name {
	case "Unit":
		return bcty.Unit(), true
	case "Bool":
		return bcty.Bool(), true
	case "Int32":
		return bcty.Int32(), true
	case "Int64":
		return bcty.Int64(), true
	case "Float32":
		return bcty.Float32(), true
	case "Float64":
		return bcty.Float64(), true
	case "String":
		return bcty.Ptr(), true
	default:
		return bcty.BytecodeType{}, false
	}
}

func buildTypeParamIndex(params []ast.GenericParam) ([]TypeParam, map[string]int) {
	out := make([]TypeParam, len(params))
	idx := make(map[string]int, len(params))
	for i, p := range params {
		name := typeParamName(p)
		out[i] = TypeParam{Name: name}
		if name != "" {
			idx[name] = i
		}
	}
	return out, idx
}

func typeParamName(p ast.GenericParam) string {
	if tp, ok := p.(*ast.TypeParam); ok && tp.Name != nil {
		return tp.Name.Name
	}
	return ""
}

// Assemble builds a Program's program package from a single parsed file,
// the thin translation layer SPEC_FULL's package-mapping table promises
// between the front end's AST and this package's bytecode tables.
//
// Struct/enum/trait/impl declarations and top-level const globals are all
// registered into their respective Program tables (spec.md §2.3), so the
// shape layer and the JIT driver see every nominal declaration a real
// source file names, not just the ones internal/jit's and internal/shape's
// own hand-built test fixtures construct. What remains out of scope is
// compiling *bodies* that construct or pattern-match those shapes: struct
// literals, enum variant construction, and method calls routed through a
// trait object all require expression forms (StructLiteral lowering,
// FieldExpr-as-method-call lowering, match-expression lowering) this
// bridge's Compiler does not implement, the same boundary that already
// excludes class literal lowering from CompileFunction — only function
// bodies built from arithmetic, comparisons, let/if/while, and
// direct/generic-direct calls are ever lowered to bytecode. A generic
// function's own body still compiles to unspecialized bytecode (its
// registers carry bcty.TypeParam types wherever a parameter referenced one
// of the function's type parameters); internal/jit's driver specializes it
// per call site via bytecode.Function.Specialize, not this bridge.
//
// Functions named test_* are marked FlagTest, mirroring the convention the
// teacher's cmd/malphas/test.go discovery already used before this runtime
// existed — the front end has no @Test annotation syntax yet, so this is
// the grounded stand-in rather than an invented one.
func Assemble(file *ast.File) (*Program, error) {
	prog := New()

	stdlibPkg := prog.AddModule(Module{Name: "stdlib", Parent: NoId})
	prog.Packages = append(prog.Packages, Package{Name: "stdlib", RootModule: stdlibPkg})
	prog.StdlibPackage = Id(len(prog.Packages) - 1)

	rootModule := prog.AddModule(Module{Name: "main", Parent: NoId})
	prog.Packages = append(prog.Packages, Package{Name: "program", RootModule: rootModule})
	prog.ProgramPackage = Id(len(prog.Packages) - 1)

	var fnDecls []*ast.FnDecl
	var structDecls []*ast.StructDecl
	var enumDecls []*ast.EnumDecl
	var traitDecls []*ast.TraitDecl
	var implDecls []*ast.ImplDecl
	var constDecls []*ast.ConstDecl
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FnDecl:
			fnDecls = append(fnDecls, d)
		case *ast.StructDecl:
			structDecls = append(structDecls, d)
		case *ast.EnumDecl:
			enumDecls = append(enumDecls, d)
		case *ast.TraitDecl:
			traitDecls = append(traitDecls, d)
		case *ast.ImplDecl:
			implDecls = append(implDecls, d)
		case *ast.ConstDecl:
			constDecls = append(constDecls, d)
		}
		// ModDecl/UseDecl/TypeAliasDecl carry no runtime entity of their
		// own (modules/imports are a front-end namespacing concern, a type
		// alias erases to its target), so they are not matched above and
		// fall through with no effect.
	}

	// Phase 1: reserve an id for every struct/enum/trait up front, so a
	// field, variant payload, or method signature below can name any of
	// them regardless of declaration order, including itself.
	nominals := map[string]nominalRef{}
	for _, d := range structDecls {
		id := prog.AddStruct(StructDef{Name: d.Name.Name, ModuleId: rootModule})
		nominals[d.Name.Name] = nominalRef{kind: nominalStruct, id: id}
	}
	for _, d := range enumDecls {
		id := prog.AddEnum(EnumDef{Name: d.Name.Name, ModuleId: rootModule})
		nominals[d.Name.Name] = nominalRef{kind: nominalEnum, id: id}
	}
	for _, d := range traitDecls {
		id := prog.AddTrait(TraitDef{Name: d.Name.Name, ModuleId: rootModule})
		nominals[d.Name.Name] = nominalRef{kind: nominalTrait, id: id}
	}

	// Phase 2: resolve fields, variant payloads, and trait method
	// signatures now that every nominal name is known.
	for _, d := range structDecls {
		typeParams, tpIdx := buildTypeParamIndex(d.TypeParams)
		r := &typeResolver{typeParams: tpIdx, nominals: nominals}
		fields := make([]Field, len(d.Fields))
		for i, f := range d.Fields {
			ty, err := r.resolve(f.Type)
			if err != nil {
				return nil, fmt.Errorf("program: field %q of struct %q: %w", f.Name.Name, d.Name.Name, err)
			}
			fields[i] = Field{Name: f.Name.Name, Type: ty}
		}
		id := nominals[d.Name.Name].id
		def := prog.Structs[id]
		def.TypeParams = typeParams
		def.Fields = fields
		prog.Structs[id] = def
	}
	for _, d := range enumDecls {
		typeParams, tpIdx := buildTypeParamIndex(d.TypeParams)
		r := &typeResolver{typeParams: tpIdx, nominals: nominals}
		variants := make([]Variant, len(d.Variants))
		for i, v := range d.Variants {
			payload := make([]bcty.BytecodeType, len(v.Payloads))
			for j, p := range v.Payloads {
				ty, err := r.resolve(p)
				if err != nil {
					return nil, fmt.Errorf("program: variant %q of enum %q: %w", v.Name.Name, d.Name.Name, err)
				}
				payload[j] = ty
			}
			variants[i] = Variant{Name: v.Name.Name, Payload: payload}
		}
		id := nominals[d.Name.Name].id
		def := prog.Enums[id]
		def.TypeParams = typeParams
		def.Variants = variants
		prog.Enums[id] = def
	}
	for _, d := range traitDecls {
		typeParams, tpIdx := buildTypeParamIndex(d.TypeParams)
		r := &typeResolver{typeParams: tpIdx, nominals: nominals}
		methods := make([]TraitMethod, len(d.Methods))
		for i, m := range d.Methods {
			params := make([]bcty.BytecodeType, len(m.Params))
			for j, p := range m.Params {
				ty, err := r.resolve(p.Type)
				if err != nil {
					return nil, fmt.Errorf("program: parameter %q of trait method %q: %w", p.Name.Name, m.Name.Name, err)
				}
				params[j] = ty
			}
			ret := bcty.Unit()
			if m.ReturnType != nil {
				ty, err := r.resolve(m.ReturnType)
				if err != nil {
					return nil, fmt.Errorf("program: return type of trait method %q: %w", m.Name.Name, err)
				}
				ret = ty
			}
			methods[i] = TraitMethod{Name: m.Name.Name, Params: params, Return: ret}
		}
		id := nominals[d.Name.Name].id
		def := prog.Traits[id]
		def.TypeParams = typeParams
		def.Methods = methods
		prog.Traits[id] = def
	}

	// Phase 3: impls. Method *bodies* declared inside an impl block are not
	// compiled by this bridge (same scope boundary as struct/enum literal
	// lowering above) — only the Impl record itself (which trait, which
	// target type, which method names it promises) is registered, so the
	// shape layer's extension/trait-impl lookups (FindExtensionMethod,
	// TraitImplMethod) have real data to search instead of an empty table.
	for _, d := range implDecls {
		typeParams, tpIdx := buildTypeParamIndex(d.TypeParams)
		r := &typeResolver{typeParams: tpIdx, nominals: nominals}
		target, err := r.resolve(d.Target)
		if err != nil {
			return nil, fmt.Errorf("program: impl target: %w", err)
		}
		traitId := NoId
		if d.Trait != nil {
			traitNamed, ok := d.Trait.(*ast.NamedType)
			if !ok {
				return nil, fmt.Errorf("program: unsupported trait reference %T", d.Trait)
			}
			ref, ok := nominals[traitNamed.Name.Name]
			if !ok || ref.kind != nominalTrait {
				return nil, fmt.Errorf("program: impl of unresolved trait %q", traitNamed.Name.Name)
			}
			traitId = ref.id
		}
		methods := map[string]Id{}
		for _, m := range d.Methods {
			methods[m.Name.Name] = NoId
		}
		prog.AddImpl(Impl{TraitId: traitId, ForType: target, TypeParams: typeParams, Methods: methods})
	}

	// Phase 4: register every function's signature before compiling any
	// body, so forward references resolve regardless of declaration order.
	fns := make(map[string]Id, len(fnDecls))
	paramTypes := make(map[string][]bcty.BytecodeType, len(fnDecls))
	returnTypes := make(map[string]bcty.BytecodeType, len(fnDecls))

	for _, fn := range fnDecls {
		typeParams, tpIdx := buildTypeParamIndex(fn.TypeParams)
		r := &typeResolver{typeParams: tpIdx, nominals: nominals}

		params := make([]bcty.BytecodeType, len(fn.Params))
		for i, p := range fn.Params {
			ty, err := r.resolve(p.Type)
			if err != nil {
				return nil, fmt.Errorf("program: parameter %q of %q: %w", p.Name.Name, fn.Name.Name, err)
			}
			params[i] = ty
		}
		ret := bcty.Unit()
		if fn.ReturnType != nil {
			ty, err := r.resolve(fn.ReturnType)
			if err != nil {
				return nil, fmt.Errorf("program: return type of %q: %w", fn.Name.Name, err)
			}
			ret = ty
		}

		var flags FunctionFlags
		if strings.HasPrefix(fn.Name.Name, "test_") {
			flags |= FlagTest
		}

		id := prog.AddFunction(FunctionDef{
			Name:       fn.Name.Name,
			ModuleId:   rootModule,
			Params:     params,
			Return:     ret,
			TypeParams: typeParams,
			Flags:      flags,
		})
		fns[fn.Name.Name] = id
		paramTypes[fn.Name.Name] = params
		returnTypes[fn.Name.Name] = ret
	}

	// Phase 5: top-level const globals. Only a literal Int32 initializer is
	// constant-folded ahead of time (GlobalDef.InitInt32's doc comment
	// explains why); any other initializer still registers the global (so
	// name lookups and LoadGlobal/StoreGlobal bytecode compile) but leaves
	// it at its zero value, the same as a declaration with no initializer.
	globals := map[string]Id{}
	for _, d := range constDecls {
		r := &typeResolver{typeParams: map[string]int{}, nominals: nominals}
		var ty bcty.BytecodeType
		var err error
		if d.Type != nil {
			ty, err = r.resolve(d.Type)
			if err != nil {
				return nil, fmt.Errorf("program: global %q: %w", d.Name.Name, err)
			}
		} else {
			ty = bcty.Int32() // the only literal kind this bridge folds
		}

		global := GlobalDef{Name: d.Name.Name, ModuleId: rootModule, Type: ty, HasInitExpr: d.Value != nil}
		if lit, ok := d.Value.(*ast.IntegerLit); ok && ty.Kind == bcty.KindInt32 {
			var v int64
			if _, scanErr := fmt.Sscanf(lit.Text, "%d", &v); scanErr == nil {
				folded := int32(v)
				global.InitInt32 = &folded
			}
		}

		id := prog.AddGlobal(global)
		globals[d.Name.Name] = id
	}

	// Phase 6: compile bodies. Generic functions are compiled too — their
	// bytecode carries bcty.TypeParam-typed registers wherever a
	// parameter/return/local referenced a type parameter, left
	// unspecialized for internal/jit's driver to specialize per call site.
	for _, fn := range fnDecls {
		id := fns[fn.Name.Name]
		_, tpIdx := buildTypeParamIndex(fn.TypeParams)
		compiler := NewCompiler(prog, globals, fns)
		compiler.typeParams = tpIdx
		body, err := compiler.CompileFunction(fn, paramTypes[fn.Name.Name], returnTypes[fn.Name.Name])
		if err != nil {
			return nil, fmt.Errorf("program: compiling %q: %w", fn.Name.Name, err)
		}
		def := prog.Functions[id]
		def.Body = body
		prog.Functions[id] = def
	}

	return prog, nil
}
