package shape

import (
	"fmt"
	"sync"

	"github.com/malphas-lang/malphas-lang/internal/bcty"
	"github.com/malphas-lang/malphas-lang/internal/program"
)

// Cache is the VM-owned specialization cache: it computes a ClassInstance/
// StructInstance/EnumInstance/ConcreteTuple for a (definition, concrete
// TypeArray) pair on first use and memoizes it, matching spec.md §4.2's
// caching contract and original_source/dora/src/vm/specialize.rs's
// read-lock-then-upgrade-to-write-lock pattern (here: RLock probe, then a
// second check immediately after taking the Lock, since two goroutines can
// race between the RUnlock and the Lock).
type Cache struct {
	prog *program.Program

	mu                    sync.RWMutex
	structSpecializations map[key]StructInstanceId
	structInstances       []*StructInstance
	enumSpecializations   map[key]EnumInstanceId
	enumInstances         []*EnumInstance
	classSpecializations  map[key]ClassInstanceId
	classInstances        []*ClassInstance
	traitVtables          map[key]ClassInstanceId
	tupleCache            map[string]*ConcreteTuple
}

type key struct {
	defId program.Id
	args  string
}

func newKey(defId program.Id, args bcty.TypeArray) key {
	return key{defId: defId, args: args.Key()}
}

// NewCache creates a Cache backed by prog's class/struct/enum/trait tables.
func NewCache(prog *program.Program) *Cache {
	return &Cache{
		prog:                  prog,
		structSpecializations: make(map[key]StructInstanceId),
		enumSpecializations:   make(map[key]EnumInstanceId),
		classSpecializations:  make(map[key]ClassInstanceId),
		traitVtables:          make(map[key]ClassInstanceId),
		tupleCache:            make(map[string]*ConcreteTuple),
	}
}

// EnsureStructInstance returns the cached specialization of structId under
// typeArgs, computing and storing it on first use.
func (c *Cache) EnsureStructInstance(structId program.Id, typeArgs bcty.TypeArray) *StructInstance {
	k := newKey(structId, typeArgs)

	c.mu.RLock()
	if id, ok := c.structSpecializations[k]; ok {
		inst := c.structInstances[id]
		c.mu.RUnlock()
		return inst
	}
	c.mu.RUnlock()

	inst := c.buildStructInstance(structId, typeArgs)

	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.structSpecializations[k]; ok {
		return c.structInstances[id]
	}
	id := len(c.structInstances)
	c.structInstances = append(c.structInstances, inst)
	c.structSpecializations[k] = id
	return inst
}

func (c *Cache) buildStructInstance(structId program.Id, typeArgs bcty.TypeArray) *StructInstance {
	def := c.prog.Structs[structId]
	inst := &StructInstance{}
	var size, align int32

	for _, f := range def.Fields {
		ty := f.Type.Specialize(typeArgs)
		if !ty.IsConcrete() {
			panic(fmt.Sprintf("shape: field %q of struct %q did not specialize to a concrete type", f.Name, def.Name))
		}
		fieldSize := SizeOf(c, ty)
		fieldAlign := AlignOf(c, ty)
		offset := AlignI32(size, fieldAlign)

		inst.Fields = append(inst.Fields, StructInstanceField{Offset: offset, Type: ty})
		size = offset + fieldSize
		if fieldAlign > align {
			align = fieldAlign
		}
		c.addRefFields(&inst.RefFields, offset, ty)
	}

	inst.Size = AlignI32(size, align)
	inst.Align = align
	return inst
}

// EnsureEnumInstance returns the cached specialization of enumId under
// typeArgs, selecting its layout on first use per spec.md §4.2's rule:
// Int when every variant is payload-free, Ptr when the enum is a
// two-variant option shape whose payload is itself a reference type,
// Tagged otherwise.
func (c *Cache) EnsureEnumInstance(enumId program.Id, typeArgs bcty.TypeArray) *EnumInstance {
	k := newKey(enumId, typeArgs)

	c.mu.RLock()
	if id, ok := c.enumSpecializations[k]; ok {
		inst := c.enumInstances[id]
		c.mu.RUnlock()
		return inst
	}
	c.mu.RUnlock()

	def := c.prog.Enums[enumId]
	layout := c.selectEnumLayout(def, typeArgs)

	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.enumSpecializations[k]; ok {
		return c.enumInstances[id]
	}

	inst := &EnumInstance{EnumId: enumId, TypeParams: typeArgs, Layout: layout}
	if layout == EnumLayoutTagged {
		inst.Variants = make([]ClassInstanceId, len(def.Variants))
		for i := range inst.Variants {
			inst.Variants[i] = NoClassInstance
		}
	}

	id := len(c.enumInstances)
	c.enumInstances = append(c.enumInstances, inst)
	c.enumSpecializations[k] = id
	return inst
}

func (c *Cache) selectEnumLayout(def program.EnumDef, typeArgs bcty.TypeArray) EnumLayout {
	allEmpty := true
	for _, v := range def.Variants {
		if len(v.Payload) != 0 {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return EnumLayoutInt
	}

	if len(def.Variants) == 2 {
		v1, v2 := def.Variants[0], def.Variants[1]
		var empty, payload program.Variant
		switch {
		case len(v1.Payload) == 0:
			empty, payload = v1, v2
		case len(v2.Payload) == 0:
			empty, payload = v2, v1
		}
		if len(empty.Payload) == 0 && len(payload.Payload) == 1 {
			ty := payload.Payload[0].Specialize(typeArgs)
			if ty.IsReference() {
				return EnumLayoutPtr
			}
		}
	}

	return EnumLayoutTagged
}

// EnsureClassInstanceForEnumVariant computes (and caches inside the enum
// instance itself) the synthetic boxed-class layout for one
// payload-carrying variant of a Tagged enum — original_source's
// ensure_class_instance_for_enum_variant. The variant's tag is stored as
// field 0 so the generic "load field 0 as Int32" sequence the JIT emits to
// read a tag works uniformly.
func (c *Cache) EnsureClassInstanceForEnumVariant(enumId program.Id, typeArgs bcty.TypeArray, variantIdx int) *ClassInstance {
	einst := c.EnsureEnumInstance(enumId, typeArgs)
	if einst.Layout != EnumLayoutTagged {
		panic("shape: EnsureClassInstanceForEnumVariant called on a non-Tagged enum")
	}

	einst.mu.Lock()
	defer einst.mu.Unlock()
	if id := einst.Variants[variantIdx]; id != NoClassInstance {
		return c.classInstances[id]
	}

	def := c.prog.Enums[enumId]
	variant := def.Variants[variantIdx]

	size := HeaderSize + 4
	fields := []FieldInstance{{Offset: HeaderSize, Type: bcty.Int32()}}
	var refFields []int32

	for _, payloadTy := range variant.Payload {
		ty := payloadTy.Specialize(typeArgs)
		if !ty.IsConcrete() {
			panic("shape: enum variant payload did not specialize to a concrete type")
		}
		fieldSize := SizeOf(c, ty)
		fieldAlign := AlignOf(c, ty)
		offset := AlignI32(int32(size), fieldAlign)
		fields = append(fields, FieldInstance{Offset: offset, Type: ty})
		size = int(offset) + int(fieldSize)
		c.addRefFields(&refFields, offset, ty)
	}

	instSize := InstanceSize{Kind: InstanceSizeFixed, FixedSize: AlignI32(int32(size), PtrWidth)}
	kind := ShapeKind{Tag: ShapeKindEnumVariant, EnumId: enumId, VariantIdx: variantIdx, TypeArgs: typeArgs}

	id := c.storeClassInstanceLocked(kind, instSize, fields, refFields, 0)
	einst.Variants[variantIdx] = id
	return c.classInstances[id]
}

// EnsureClassInstance returns the cached specialization of clsId under
// typeArgs, choosing the fixed-field layout or one of the variable-length
// array/string layouts depending on the class definition.
func (c *Cache) EnsureClassInstance(clsId program.Id, typeArgs bcty.TypeArray) *ClassInstance {
	k := newKey(clsId, typeArgs)

	c.mu.RLock()
	if id, ok := c.classSpecializations[k]; ok {
		inst := c.classInstances[id]
		c.mu.RUnlock()
		return inst
	}
	c.mu.RUnlock()

	def := c.prog.Classes[clsId]
	if def.IsArray || def.IsStr {
		return c.buildArrayOrStrClassInstance(clsId, def, typeArgs, k)
	}
	return c.buildRegularClassInstance(clsId, def, typeArgs, k)
}

func (c *Cache) buildRegularClassInstance(clsId program.Id, def program.ClassDef, typeArgs bcty.TypeArray, k key) *ClassInstance {
	size := int32(HeaderSize)
	var fields []FieldInstance
	var refFields []int32

	for _, f := range def.Fields {
		ty := f.Type.Specialize(typeArgs)
		if !ty.IsConcrete() {
			panic(fmt.Sprintf("shape: field %q of class %q did not specialize to a concrete type", f.Name, def.Name))
		}
		fieldSize := SizeOf(c, ty)
		fieldAlign := AlignOf(c, ty)
		offset := AlignI32(size, fieldAlign)
		fields = append(fields, FieldInstance{Offset: offset, Type: ty})
		size = offset + fieldSize
		c.addRefFields(&refFields, offset, ty)
	}

	instSize := InstanceSize{Kind: InstanceSizeFixed, FixedSize: AlignI32(size, PtrWidth)}
	kind := ShapeKind{Tag: ShapeKindClass, ClassId: clsId, TypeArgs: typeArgs}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.classSpecializations[k]; ok {
		return c.classInstances[id]
	}
	id := c.storeClassInstanceLocked(kind, instSize, fields, refFields, len(def.Methods))
	c.classSpecializations[k] = id
	return c.classInstances[id]
}

func (c *Cache) buildArrayOrStrClassInstance(clsId program.Id, def program.ClassDef, typeArgs bcty.TypeArray, k key) *ClassInstance {
	var instSize InstanceSize
	if def.IsStr {
		instSize = InstanceSize{Kind: InstanceSizeStr}
	} else {
		elemTy := typeArgs.Get(0)
		switch elemTy.Kind {
		case bcty.KindUnit:
			instSize = InstanceSize{Kind: InstanceSizeUnitArray}
		case bcty.KindPtr, bcty.KindClass, bcty.KindTrait, bcty.KindLambda:
			instSize = InstanceSize{Kind: InstanceSizeObjArray}
		case bcty.KindTuple:
			t := c.EnsureConcreteTuple(elemTy.TupleArgs)
			instSize = InstanceSize{Kind: InstanceSizeStructArray, ElementSize: t.Size}
		case bcty.KindStruct:
			s := c.EnsureStructInstance(elemTy.DefId, elemTy.TypeArgs)
			instSize = InstanceSize{Kind: InstanceSizeStructArray, ElementSize: s.Size}
		case bcty.KindEnum:
			e := c.EnsureEnumInstance(elemTy.DefId, elemTy.TypeArgs)
			if e.Layout == EnumLayoutInt {
				instSize = InstanceSize{Kind: InstanceSizePrimitiveArray, ElementSize: 4}
			} else {
				instSize = InstanceSize{Kind: InstanceSizeObjArray}
			}
		default:
			instSize = InstanceSize{Kind: InstanceSizePrimitiveArray, ElementSize: SizeOf(c, elemTy)}
		}
	}

	kind := ShapeKind{Tag: ShapeKindClass, ClassId: clsId, TypeArgs: typeArgs}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.classSpecializations[k]; ok {
		return c.classInstances[id]
	}
	id := c.storeClassInstanceLocked(kind, instSize, nil, nil, len(def.Methods))
	c.classSpecializations[k] = id
	return c.classInstances[id]
}

// EnsureClassInstanceForLambda builds the (uncached beyond its own
// lifetime; lambdas are keyed by creation site in practice, so this always
// allocates a fresh entry) closure-object layout for a lambda capturing
// fctId — a single Ptr-typed context field, as original_source's comment
// notes is presently all a lambda object carries.
func (c *Cache) EnsureClassInstanceForLambda(fctId program.Id, typeArgs bcty.TypeArray) *ClassInstance {
	instSize := InstanceSize{Kind: InstanceSizeFixed, FixedSize: HeaderSize + PtrWidth}
	fields := []FieldInstance{{Offset: HeaderSize, Type: bcty.Ptr()}}
	kind := ShapeKind{Tag: ShapeKindLambda, LambdaFctId: fctId, TypeArgs: typeArgs}

	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.storeClassInstanceLocked(kind, instSize, fields, []int32{HeaderSize}, 1)
	return c.classInstances[id]
}

// EnsureClassInstanceForTraitObject returns the cached wrapper class for a
// trait object boxing objectType behind traitId, keyed on
// traitTypeParams appended with objectType (original_source's
// combined_type_params), so that two different concrete objects widened to
// the same trait get distinct vtables while syntactically identical
// widenings share one.
func (c *Cache) EnsureClassInstanceForTraitObject(traitId program.Id, traitTypeParams bcty.TypeArray, objectType bcty.BytecodeType) *ClassInstance {
	combined := traitTypeParams.Append(objectType)
	k := newKey(traitId, combined)

	c.mu.RLock()
	if id, ok := c.traitVtables[k]; ok {
		inst := c.classInstances[id]
		c.mu.RUnlock()
		return inst
	}
	c.mu.RUnlock()

	if !objectType.IsConcrete() {
		panic("shape: trait object's concrete type must be concrete")
	}
	fieldSize := SizeOf(c, objectType)
	fieldAlign := AlignOf(c, objectType)
	offset := AlignI32(HeaderSize, fieldAlign)
	fields := []FieldInstance{{Offset: offset, Type: objectType}}
	var refFields []int32
	c.addRefFields(&refFields, offset, objectType)
	size := AlignI32(offset+fieldSize, PtrWidth)

	trait := c.prog.Traits[traitId]
	instSize := InstanceSize{Kind: InstanceSizeFixed, FixedSize: size}
	kind := ShapeKind{Tag: ShapeKindTraitObject, TraitId: traitId, ObjectTy: objectType, TypeArgs: combined}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.traitVtables[k]; ok {
		return c.classInstances[id]
	}
	id := c.storeClassInstanceLocked(kind, instSize, fields, refFields, len(trait.Methods))
	c.traitVtables[k] = id
	return c.classInstances[id]
}

// storeClassInstanceLocked appends a new ClassInstance and its VTable
// (vtableSlots entries, each initially unresolved). Callers must hold c.mu
// for writing.
func (c *Cache) storeClassInstanceLocked(kind ShapeKind, size InstanceSize, fields []FieldInstance, refFields []int32, vtableSlots int) ClassInstanceId {
	id := len(c.classInstances)
	vt := &VTable{
		ClassInstanceId: id,
		InstanceSize:    size,
		RefFields:       refFields,
		Entries:         make([]uintptr, vtableSlots),
	}
	inst := &ClassInstance{Kind: kind, Size: size, Fields: fields, RefFields: refFields, VTable: vt}
	c.classInstances = append(c.classInstances, inst)
	return id
}

// ClassInstanceByID looks up a previously stored ClassInstance by id.
func (c *Cache) ClassInstanceByID(id ClassInstanceId) *ClassInstance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.classInstances[id]
}

// EnsureConcreteTuple returns the cached layout of a tuple type with the
// given (concrete) element types, recursing into nested tuples/enums/
// structs exactly as original_source's determine_tuple_size does.
func (c *Cache) EnsureConcreteTuple(elems bcty.TypeArray) *ConcreteTuple {
	k := elems.Key()

	c.mu.RLock()
	if t, ok := c.tupleCache[k]; ok {
		c.mu.RUnlock()
		return t
	}
	c.mu.RUnlock()

	t := c.buildConcreteTuple(elems)

	c.mu.Lock()
	defer c.mu.Unlock()
	if t2, ok := c.tupleCache[k]; ok {
		return t2
	}
	c.tupleCache[k] = t
	return t
}

func (c *Cache) buildConcreteTuple(elems bcty.TypeArray) *ConcreteTuple {
	var size, align int32
	t := &ConcreteTuple{}

	elems.Iter(func(_ int, ty bcty.BytecodeType) {
		if !ty.IsConcrete() {
			panic("shape: tuple element is not a concrete type")
		}

		if ty.Kind == bcty.KindTuple {
			nested := c.EnsureConcreteTuple(ty.TupleArgs)
			offset := AlignI32(size, nested.Align)
			t.Offsets = append(t.Offsets, offset)
			for _, refOff := range nested.References {
				t.References = append(t.References, offset+refOff)
			}
			size = offset + nested.Size
			if nested.Align > align {
				align = nested.Align
			}
			return
		}

		fieldSize := SizeOf(c, ty)
		fieldAlign := AlignOf(c, ty)
		offset := AlignI32(size, fieldAlign)
		t.Offsets = append(t.Offsets, offset)
		if ty.IsReference() {
			t.References = append(t.References, offset)
		} else if ty.Kind == bcty.KindEnum {
			einst := c.EnsureEnumInstance(ty.DefId, ty.TypeArgs)
			if einst.Layout != EnumLayoutInt {
				t.References = append(t.References, offset)
			}
		}
		size = offset + fieldSize
		if fieldAlign > align {
			align = fieldAlign
		}
	})

	t.Size = AlignI32(size, align)
	t.Align = align
	return t
}

// addRefFields appends the GC-traced byte offsets contributed by one field
// of type ty at offset, recursing into structs/enums/tuples so every
// pointer-shaped slot nested inside an inline aggregate is accounted for —
// the invariant spec.md §4.2 calls the "GC reference-bitmap coverage
// invariant".
func (c *Cache) addRefFields(out *[]int32, offset int32, ty bcty.BytecodeType) {
	switch ty.Kind {
	case bcty.KindTuple:
		t := c.EnsureConcreteTuple(ty.TupleArgs)
		for _, refOff := range t.References {
			*out = append(*out, offset+refOff)
		}
	case bcty.KindEnum:
		einst := c.EnsureEnumInstance(ty.DefId, ty.TypeArgs)
		if einst.Layout != EnumLayoutInt {
			*out = append(*out, offset)
		}
	case bcty.KindStruct:
		sinst := c.EnsureStructInstance(ty.DefId, ty.TypeArgs)
		for _, refOff := range sinst.RefFields {
			*out = append(*out, offset+refOff)
		}
	case bcty.KindPtr, bcty.KindClass, bcty.KindLambda, bcty.KindTrait:
		*out = append(*out, offset)
	case bcty.KindTypeParam:
		panic("shape: addRefFields reached an unconcretized type parameter")
	}
}
