package program

import (
	"testing"

	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/bcty"
	"github.com/malphas-lang/malphas-lang/internal/bytecode"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
)

func sp() lexer.Span { return lexer.Span{} }

func ident(name string) *ast.Ident { return ast.NewIdent(name, sp()) }

// buildAdd constructs the AST for `fn add(a: Int32, b: Int32) -> Int32 { a + b }`.
func buildAdd() *ast.FnDecl {
	a := ast.NewParam(ident("a"), nil, sp())
	b := ast.NewParam(ident("b"), nil, sp())
	tail := ast.NewInfixExpr(lexer.PLUS, ident("a"), ident("b"), sp())
	body := ast.NewBlockExpr(nil, tail, sp())
	return ast.NewFnDecl(true, false, ident("add"), nil, []*ast.Param{a, b}, nil, nil, nil, body, sp())
}

func TestCompileSimpleFunction(t *testing.T) {
	prog := New()
	c := NewCompiler(prog, map[string]Id{}, map[string]Id{})

	fn, err := c.CompileFunction(buildAdd(), []bcty.BytecodeType{bcty.Int32(), bcty.Int32()}, bcty.Int32())
	if err != nil {
		t.Fatalf("CompileFunction failed: %v", err)
	}
	if fn.Arguments != 2 {
		t.Fatalf("expected 2 arguments, got %d", fn.Arguments)
	}

	var ops []bytecode.Opcode
	bytecode.NewReader(fn.Code).Decode(bytecode.VisitorFunc(func(_ bytecode.Offset, inst bytecode.Instruction) {
		ops = append(ops, inst.Op)
	}))
	if len(ops) != 2 || ops[0] != bytecode.OpAdd || ops[1] != bytecode.OpRet {
		t.Fatalf("unexpected instruction sequence: %v", ops)
	}
}

// buildAbs constructs `fn abs(x: Int32) -> Int32 { if x < 0 { -x } else { x } }`.
func buildAbs() *ast.FnDecl {
	x := ast.NewParam(ident("x"), nil, sp())
	zero := ast.NewIntegerLit("0", sp())
	cond := ast.NewInfixExpr(lexer.LT, ident("x"), zero, sp())
	thenBlock := ast.NewBlockExpr(nil, ast.NewPrefixExpr(lexer.MINUS, ident("x"), sp()), sp())
	elseBlock := ast.NewBlockExpr(nil, ident("x"), sp())
	clause := ast.NewIfClause(cond, thenBlock, sp())
	ifExpr := ast.NewIfExpr([]*ast.IfClause{clause}, elseBlock, sp())
	body := ast.NewBlockExpr(nil, ifExpr, sp())
	return ast.NewFnDecl(true, false, ident("abs"), nil, []*ast.Param{x}, nil, nil, nil, body, sp())
}

func TestCompileIfExpression(t *testing.T) {
	prog := New()
	c := NewCompiler(prog, map[string]Id{}, map[string]Id{})

	fn, err := c.CompileFunction(buildAbs(), []bcty.BytecodeType{bcty.Int32()}, bcty.Int32())
	if err != nil {
		t.Fatalf("CompileFunction failed: %v", err)
	}

	var sawNeg, sawJumpIfFalse, sawRet bool
	bytecode.NewReader(fn.Code).Decode(bytecode.VisitorFunc(func(_ bytecode.Offset, inst bytecode.Instruction) {
		switch inst.Op {
		case bytecode.OpNeg:
			sawNeg = true
		case bytecode.OpJumpIfFalse:
			sawJumpIfFalse = true
		case bytecode.OpRet:
			sawRet = true
		}
	}))
	if !sawNeg || !sawJumpIfFalse || !sawRet {
		t.Fatalf("expected Neg, JumpIfFalse and Ret in compiled abs(), got none/some missing")
	}
}

// buildLoop constructs `fn countdown(n: Int32) { while n > 0 { break } }`
// using only the subset this compiler supports (no assignment, so the loop
// body is a lone break that ends it on the first iteration) — exercised
// purely to walk the while/break lowering paths, not as a realistic
// program.
func buildLoop() *ast.FnDecl {
	n := ast.NewParam(ident("n"), nil, sp())
	cond := ast.NewInfixExpr(lexer.GT, ident("n"), ast.NewIntegerLit("0", sp()), sp())
	breakStmt := ast.NewBreakStmt(sp())
	whileBody := ast.NewBlockExpr([]ast.Stmt{breakStmt}, nil, sp())
	whileStmt := ast.NewWhileStmt(cond, whileBody, sp())
	body := ast.NewBlockExpr([]ast.Stmt{whileStmt}, nil, sp())
	return ast.NewFnDecl(true, false, ident("countdown"), nil, []*ast.Param{n}, nil, nil, nil, body, sp())
}

func TestCompileWhileWithBreak(t *testing.T) {
	prog := New()
	c := NewCompiler(prog, map[string]Id{}, map[string]Id{})

	fn, err := c.CompileFunction(buildLoop(), []bcty.BytecodeType{bcty.Int32()}, bcty.Unit())
	if err != nil {
		t.Fatalf("CompileFunction failed: %v", err)
	}

	var sawLoopStart, sawJump, sawRet bool
	bytecode.NewReader(fn.Code).Decode(bytecode.VisitorFunc(func(_ bytecode.Offset, inst bytecode.Instruction) {
		switch inst.Op {
		case bytecode.OpLoopStart:
			sawLoopStart = true
		case bytecode.OpJump:
			sawJump = true
		case bytecode.OpRet:
			sawRet = true
		}
	}))
	if !sawLoopStart || !sawJump || !sawRet {
		t.Fatalf("expected LoopStart, Jump (break) and Ret in compiled countdown(), got none/some missing")
	}
}
