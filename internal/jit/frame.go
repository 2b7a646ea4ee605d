package jit

import (
	"github.com/malphas-lang/malphas-lang/internal/bcty"
	"github.com/malphas-lang/malphas-lang/internal/bytecode"
)

// frameLayout assigns every bytecode register a fixed 8-byte stack slot
// below the saved frame pointer — the "spill everywhere" allocator spec.md
// §4.6 step 4 calls for, grounded on dora_compile.rs's register allocation
// (every bytecode register gets a stable stack location; no attempt is
// made to keep hot values in machine registers across instructions).
//
// Every slot is 8 bytes regardless of the register's concrete type. That
// is exact for Bool/UInt8/Char/Int32/Int64/Float32/Float64/Ptr/Class/
// Lambda/Trait and for an Int-layout Enum, all of which fit in one
// machine word; it does not hold for Struct, Tuple, or a Tagged-layout
// Enum, whose values span more than one word. The visitor rejects any
// instruction touching a register of one of those wider kinds rather than
// truncating or misencoding it (see notLowered in errors.go).
type frameLayout struct {
	slots     map[bytecode.Register]int32
	frameSize int32
}

func layoutFrame(fn *bytecode.Function) *frameLayout {
	slots := make(map[bytecode.Register]int32, len(fn.Registers))
	var size int32
	for i := range fn.Registers {
		size += 8
		slots[bytecode.Register(i)] = -size
	}
	return &frameLayout{slots: slots, frameSize: alignFrame(size)}
}

// alignFrame rounds size up to a 16-byte boundary, matching the System V
// AMD64 stack-alignment requirement at a call instruction.
func alignFrame(size int32) int32 {
	return (size + 15) &^ 15
}

func (l *frameLayout) offset(r bytecode.Register) int32 {
	off, ok := l.slots[r]
	if !ok {
		panic("jit: register out of frame layout range")
	}
	return off
}

// fitsOneSlot reports whether ty's runtime representation is a single
// 8-byte machine word — the precondition every opcode handler in this
// package's visitor checks before touching a register's frame slot.
func fitsOneSlot(ty bcty.BytecodeType) bool {
	switch ty.Kind {
	case bcty.KindUnit, bcty.KindBool, bcty.KindUInt8, bcty.KindChar,
		bcty.KindInt32, bcty.KindInt64, bcty.KindFloat32, bcty.KindFloat64,
		bcty.KindPtr, bcty.KindClass, bcty.KindTrait, bcty.KindLambda:
		return true
	default:
		// Struct, Tuple, Enum (of any layout; the enum's layout is not
		// consulted here, so an Int-layout Enum is rejected too) and
		// TypeParam (un-specialized) land here; the caller handles these
		// via notLowered.
		return false
	}
}
