package jit

import "fmt"

// notLoweredError reports that Generate reached a bytecode opcode this
// driver does not yet compile. Every occurrence is deliberate: the opcode
// either constructs a heap value (NewObject and the other New* opcodes,
// which need a real allocator wired behind the same native-code-calls-Go
// boundary internal/stub's package doc already documents as outside this
// module's pure-Go scope) or touches a register whose value spans more
// than one machine word (Struct/Tuple/Tagged-Enum field and element
// access), which this baseline's one-slot-per-register allocator has no
// representation for.
type notLoweredError struct {
	Op     string
	Offset uint32
}

func (e *notLoweredError) Error() string {
	return fmt.Sprintf("jit: %s at offset %d is not yet lowered by this driver", e.Op, e.Offset)
}

func notLowered(op fmt.Stringer, offset uint32) error {
	return &notLoweredError{Op: op.String(), Offset: offset}
}
