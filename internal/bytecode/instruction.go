package bytecode

// Instruction is the in-memory, decoded form of one bytecode instruction —
// the shape the Builder assembles and Reader.Decode() produces. Writer.Emit
// turns each of these into the opaque Function.Code bytes.
type Instruction struct {
	Op   Opcode
	Regs []Register // not filled by NewInstruction or Reader; read register operands via Operand
	// ConstIdx, GlobalIdx, Offset, Imm8, KindByte, etc. are looked up by
	// position too; kept in parallel slices indexed the same way as
	// operandKinds so a single operand list can mix operand kinds.
	operands []operandValue
}

type operandValue struct {
	kind OperandKind
	v    int64 // reg index, const idx, global idx, signed offset, or imm byte
}

// NewInstruction builds an Instruction from raw operand values in the
// order operandKinds(op) expects. Callers (Builder) are responsible for
// matching arity; Reader constructs instructions the same way while
// decoding.
func NewInstruction(op Opcode, operands ...int64) Instruction {
	kinds := operandKinds(op)
	if len(operands) != len(kinds) {
		panic("bytecode: operand count mismatch for " + op.String())
	}
	inst := Instruction{Op: op}
	for i, k := range kinds {
		inst.operands = append(inst.operands, operandValue{kind: k, v: operands[i]})
	}
	return inst
}

// Operand returns the raw value of the i-th operand.
func (inst Instruction) Operand(i int) int64 { return inst.operands[i].v }

// OperandCount returns how many operands inst carries.
func (inst Instruction) OperandCount() int { return len(inst.operands) }

// Kinds exposes the per-operand encoding kind, used by Writer/Reader/dump.
func (inst Instruction) Kinds() []OperandKind {
	kinds := make([]OperandKind, len(inst.operands))
	for i, o := range inst.operands {
		kinds[i] = o.kind
	}
	return kinds
}

// Visitor receives one callback per decoded instruction, in stream order.
// Offset is the byte offset of the instruction's first byte; Reader.Decode
// walks the whole stream calling Visit for each (spec.md §4.1 "Reader
// walks the stream calling a visitor method per opcode").
type Visitor interface {
	Visit(offset Offset, inst Instruction)
}

// VisitorFunc adapts a plain function to the Visitor interface.
type VisitorFunc func(offset Offset, inst Instruction)

func (f VisitorFunc) Visit(offset Offset, inst Instruction) { f(offset, inst) }
