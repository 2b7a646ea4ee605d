package bytecode

import (
	"fmt"
	"strings"
)

// Dump renders fn in the deterministic, test-oriented textual format
// described by spec.md §6: one line per instruction, then Registers:,
// Constants:, and Locations: sections.
func Dump(name string, fn *Function) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", name)

	NewReader(fn.Code).Decode(VisitorFunc(func(offset Offset, inst Instruction) {
		fmt.Fprintf(&sb, "  %d: %s%s\n", offset, inst.Op, formatOperands(inst))
	}))

	sb.WriteString("  Registers:\n")
	for idx, ty := range fn.Registers {
		fmt.Fprintf(&sb, "    %d => %s\n", idx, ty)
	}

	sb.WriteString("  Constants:\n")
	for idx, e := range fn.ConstPool {
		fmt.Fprintf(&sb, "    %d => %s\n", idx, formatConstPoolEntry(e))
	}

	sb.WriteString("  Locations:\n")
	for _, loc := range fn.Locations {
		fmt.Fprintf(&sb, "    %d => %d\n", loc.Offset, loc.Line)
	}

	return sb.String()
}

func formatOperands(inst Instruction) string {
	if inst.OperandCount() == 0 {
		return ""
	}
	parts := make([]string, inst.OperandCount())
	for idx, k := range inst.Kinds() {
		v := inst.Operand(idx)
		switch k {
		case OperandOffset:
			parts[idx] = fmt.Sprintf("%+d", v)
		default:
			parts[idx] = fmt.Sprintf("%d", v)
		}
	}
	return " " + strings.Join(parts, ", ")
}

func formatConstPoolEntry(e ConstPoolEntry) string {
	switch e.Kind {
	case CPString:
		return fmt.Sprintf("String %q", e.Str)
	case CPInt32:
		return fmt.Sprintf("Int32 %d", e.I32)
	case CPInt64:
		return fmt.Sprintf("Int64 %d", e.I64)
	case CPFloat32:
		return fmt.Sprintf("Float32 %g", e.F32)
	case CPFloat64:
		return fmt.Sprintf("Float64 %g", e.F64)
	case CPChar:
		return fmt.Sprintf("Char %q", e.Ch)
	case CPClass:
		return fmt.Sprintf("Class %d %s", e.DefId, e.TypeArgs)
	case CPStruct:
		return fmt.Sprintf("Struct %d %s", e.DefId, e.TypeArgs)
	case CPStructField:
		return fmt.Sprintf("StructField %d %s #%d", e.DefId, e.TypeArgs, e.FieldIdx)
	case CPEnum:
		return fmt.Sprintf("Enum %d %s", e.DefId, e.TypeArgs)
	case CPEnumVariant:
		return fmt.Sprintf("EnumVariant %d %s #%d", e.DefId, e.TypeArgs, e.VariantIdx)
	case CPEnumElement:
		return fmt.Sprintf("EnumElement %d %s #%d.%d", e.DefId, e.TypeArgs, e.VariantIdx, e.ElementIdx)
	case CPField:
		return fmt.Sprintf("Field %d %s #%d", e.DefId, e.TypeArgs, e.FieldIdx)
	case CPFct:
		return fmt.Sprintf("Fct %d %s", e.DefId, e.TypeArgs)
	case CPGeneric:
		return fmt.Sprintf("Generic tp=%d fct=%d %s", e.TypeParamId, e.FctId, e.TypeArgs)
	case CPTrait:
		return fmt.Sprintf("Trait %d %s object=%s", e.DefId, e.TypeArgs, e.ObjectTy)
	case CPTuple:
		return fmt.Sprintf("Tuple %s", e.TypeArgs)
	case CPTupleElement:
		return fmt.Sprintf("TupleElement %s #%d", e.TupleTy, e.ElementIdx)
	case CPLambda:
		return fmt.Sprintf("Lambda %s -> %s", e.LambdaParams, e.LambdaReturn)
	default:
		return "?"
	}
}
