// Package masm implements the x86-64 macro-assembler spec.md §4.3
// describes: a byte-buffer encoder with labels, a RIP-relative constant
// pool, and the call/safepoint/write-barrier/stack-check sequences the JIT
// driver composes function bodies from.
//
// Grounded on original_source/dora-runtime/src/masm/x64.rs (the
// higher-level macro op set: prolog, safepoint, direct_call, emit_barrier,
// trap, ...) and original_source/dora/src/cpu/x64/asm.rs (the lower-level
// REX/ModRM byte encoder beneath it). The byte-buffer-plus-label-table
// shape is also grounded on other_examples' wazero amd64 backend
// (reference only, not imported).
package masm

// Reg is an x86-64 general-purpose register, numbered the way the ModRM/
// REX encoding expects (0-7 for the legacy set, 8-15 needing REX.B/.R/.X).
type Reg uint8

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

func (r Reg) lowBits() uint8 { return uint8(r) & 0x7 }
func (r Reg) needsRex() bool { return r >= R8 }

// Calling-convention registers (System V AMD64), grounded on
// original_source's REG_PARAMS/REG_RESULT/REG_THREAD constants.
const (
	RegResult = RAX
	RegThread = R14 // reserved for the per-thread ThreadLocalData pointer
)

// RegParams is the integer argument-passing register order.
var RegParams = []Reg{RDI, RSI, RDX, RCX, R8, R9}

// XmmReg is an SSE register used for Float32/Float64 values.
type XmmReg uint8

const (
	XMM0 XmmReg = iota
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
)

// Condition is a jcc/setcc condition code.
type Condition uint8

const (
	CondEqual Condition = iota
	CondNotEqual
	CondLess
	CondLessEqual
	CondGreater
	CondGreaterEqual
	CondAbove
	CondAboveEqual
	CondBelow
	CondBelowEqual
	CondOverflow
	CondNoOverflow
)

// ccBits is the condition code's low nibble in a Jcc/SETcc opcode (0x80+cc
// / 0x90+cc), per the x86-64 manual's Jcc table.
func (c Condition) ccBits() byte {
	switch c {
	case CondOverflow:
		return 0x0
	case CondNoOverflow:
		return 0x1
	case CondBelow:
		return 0x2
	case CondAboveEqual:
		return 0x3
	case CondEqual:
		return 0x4
	case CondNotEqual:
		return 0x5
	case CondBelowEqual:
		return 0x6
	case CondAbove:
		return 0x7
	case CondLess:
		return 0xC
	case CondGreaterEqual:
		return 0xD
	case CondLessEqual:
		return 0xE
	case CondGreater:
		return 0xF
	default:
		panic("masm: unhandled condition code")
	}
}
