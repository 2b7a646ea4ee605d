package program

import (
	"fmt"

	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/bcty"
	"github.com/malphas-lang/malphas-lang/internal/bytecode"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
)

// Compiler lowers a type-checked function body straight to bytecode: a
// running Builder, a scope of named locals, and a loop-context stack for
// break/continue, targeting the register-based bytecode IR directly
// instead of an intermediate SSA form.
//
// This bridges only the subset of the language needed to exercise the
// runtime end to end (arithmetic, comparisons, let/if/while, direct and
// generic-direct calls, return) — full class/struct/enum/trait literal
// lowering is out of this compiler's scope the same way lexing and parsing
// are out of the runtime's scope (spec.md §1); those shapes are exercised
// directly against the shape layer and the JIT driver in their own tests
// instead of by routing source text through this compiler.
type Compiler struct {
	prog    *Program
	b       *bytecode.Builder
	locals  map[string]bytecode.Register
	loops   []loopCtx
	globals map[string]Id
	fns     map[string]Id
	// typeParams names the enclosing function's own generic parameters, so
	// a generic-instantiation call's type argument (e.g. id[T](x) inside a
	// generic caller) can resolve to a bcty.TypeParam instead of only ever
	// resolving primitive type names. Populated by CompileFunction, empty
	// for a non-generic function.
	typeParams map[string]int
}

type loopCtx struct {
	continueLbl *bytecode.Label
	breakLbl    *bytecode.Label
}

// NewCompiler creates a Compiler targeting prog; globals and fns map
// declared names to their already-registered program ids so calls and
// global accesses can be resolved while lowering.
func NewCompiler(prog *Program, globals, fns map[string]Id) *Compiler {
	return &Compiler{
		prog:    prog,
		globals: globals,
		fns:     fns,
	}
}

// CompileFunction lowers fn's body to a bytecode.Function. paramTypes must
// line up with fn.Params in order.
func (c *Compiler) CompileFunction(fn *ast.FnDecl, paramTypes []bcty.BytecodeType, retType bcty.BytecodeType) (*bytecode.Function, error) {
	c.b = bytecode.NewBuilder()
	c.locals = make(map[string]bytecode.Register)
	c.loops = nil
	if c.typeParams == nil {
		c.typeParams = map[string]int{}
		for idx, tp := range fn.TypeParams {
			if name := typeParamName(tp); name != "" {
				c.typeParams[name] = idx
			}
		}
	}

	for idx, p := range fn.Params {
		reg := c.b.AddRegister(paramTypes[idx])
		c.locals[p.Name.Name] = reg
	}
	c.b.SetArguments(uint32(len(fn.Params)))

	result, ok, err := c.compileBlock(fn.Body)
	if err != nil {
		return nil, err
	}
	if retType.Kind == bcty.KindUnit {
		c.b.EmitRet(c.unitRegister())
	} else if ok {
		c.b.EmitRet(result)
	}
	return c.b.Generate(), nil
}

func (c *Compiler) unitRegister() bytecode.Register {
	r := c.b.AddRegister(bcty.Unit())
	c.b.EmitConstZero(r, bcty.KindUnit)
	return r
}

// compileBlock lowers every statement of blk, returning the register
// holding the block's tail value (if any) and whether a value is present.
func (c *Compiler) compileBlock(blk *ast.BlockExpr) (bytecode.Register, bool, error) {
	if blk == nil {
		return 0, false, nil
	}
	for _, stmt := range blk.Stmts {
		if err := c.compileStmt(stmt); err != nil {
			return 0, false, err
		}
	}
	if blk.Tail != nil {
		r, err := c.compileExpr(blk.Tail)
		if err != nil {
			return 0, false, err
		}
		return r, true, nil
	}
	return 0, false, nil
}

func (c *Compiler) compileStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		reg, err := c.compileExpr(s.Value)
		if err != nil {
			return err
		}
		c.locals[s.Name.Name] = reg
		return nil

	case *ast.ExprStmt:
		_, err := c.compileExpr(s.Expr)
		return err

	case *ast.ReturnStmt:
		if s.Value == nil {
			c.b.EmitRet(c.unitRegister())
			return nil
		}
		reg, err := c.compileExpr(s.Value)
		if err != nil {
			return err
		}
		c.b.EmitRet(reg)
		return nil

	case *ast.IfStmt:
		return c.compileIf(s.Clauses, s.Else)

	case *ast.WhileStmt:
		return c.compileWhile(s.Condition, s.Body)

	case *ast.BreakStmt:
		if len(c.loops) == 0 {
			return fmt.Errorf("program: break outside loop")
		}
		c.b.EmitJump(c.loops[len(c.loops)-1].breakLbl)
		return nil

	case *ast.ContinueStmt:
		if len(c.loops) == 0 {
			return fmt.Errorf("program: continue outside loop")
		}
		c.b.EmitJump(c.loops[len(c.loops)-1].continueLbl)
		return nil

	default:
		return fmt.Errorf("program: unsupported statement %T", stmt)
	}
}

func (c *Compiler) compileIf(clauses []*ast.IfClause, elseBlock *ast.BlockExpr) error {
	if len(clauses) == 0 {
		if elseBlock != nil {
			_, _, err := c.compileBlock(elseBlock)
			return err
		}
		return nil
	}
	clause := clauses[0]
	cond, err := c.compileExpr(clause.Condition)
	if err != nil {
		return err
	}
	elseLbl := c.b.CreateLabel()
	endLbl := c.b.CreateLabel()
	c.b.EmitJumpIfFalse(cond, elseLbl)
	if _, _, err := c.compileBlock(clause.Body); err != nil {
		return err
	}
	c.b.EmitJump(endLbl)
	c.b.BindLabel(elseLbl)
	if err := c.compileIf(clauses[1:], elseBlock); err != nil {
		return err
	}
	c.b.BindLabel(endLbl)
	return nil
}

func (c *Compiler) compileWhile(cond ast.Expr, body *ast.BlockExpr) error {
	startLbl := c.b.CreateLabel()
	endLbl := c.b.CreateLabel()

	c.b.BindLabel(startLbl)
	c.b.EmitLoopStart()
	condReg, err := c.compileExpr(cond)
	if err != nil {
		return err
	}
	c.b.EmitJumpIfFalse(condReg, endLbl)

	c.loops = append(c.loops, loopCtx{continueLbl: startLbl, breakLbl: endLbl})
	if _, _, err := c.compileBlock(body); err != nil {
		c.loops = c.loops[:len(c.loops)-1]
		return err
	}
	c.loops = c.loops[:len(c.loops)-1]

	c.b.EmitJumpLoop(startLbl)
	c.b.BindLabel(endLbl)
	return nil
}

func (c *Compiler) compileExpr(expr ast.Expr) (bytecode.Register, error) {
	switch e := expr.(type) {
	case *ast.IntegerLit:
		return c.compileIntLit(e)
	case *ast.FloatLit:
		return c.compileFloatLit(e)
	case *ast.BoolLit:
		r := c.b.AddRegister(bcty.Bool())
		if e.Value {
			c.b.EmitConstTrue(r)
		} else {
			c.b.EmitConstFalse(r)
		}
		return r, nil
	case *ast.StringLit:
		r := c.b.AddRegister(bcty.Ptr())
		c.b.EmitConstString(r, e.Value)
		return r, nil
	case *ast.Ident:
		if reg, ok := c.locals[e.Name]; ok {
			return reg, nil
		}
		if gid, ok := c.globals[e.Name]; ok {
			g := c.prog.Globals[gid]
			r := c.b.AddRegister(g.Type)
			c.b.EmitLoadGlobal(r, uint32(gid))
			return r, nil
		}
		return 0, fmt.Errorf("program: unresolved identifier %q", e.Name)
	case *ast.InfixExpr:
		return c.compileInfix(e)
	case *ast.PrefixExpr:
		return c.compilePrefix(e)
	case *ast.BlockExpr:
		r, ok, err := c.compileBlock(e)
		if err != nil {
			return 0, err
		}
		if !ok {
			return c.unitRegister(), nil
		}
		return r, nil
	case *ast.IfExpr:
		return c.compileIfExpr(e)
	case *ast.CallExpr:
		return c.compileCall(e)
	default:
		return 0, fmt.Errorf("program: unsupported expression %T", expr)
	}
}

func (c *Compiler) compileIntLit(lit *ast.IntegerLit) (bytecode.Register, error) {
	var v int64
	if _, err := fmt.Sscanf(lit.Text, "%d", &v); err != nil {
		return 0, fmt.Errorf("program: malformed integer literal %q: %w", lit.Text, err)
	}
	r := c.b.AddRegister(bcty.Int32())
	c.b.EmitConstInt32(r, int32(v))
	return r, nil
}

func (c *Compiler) compileFloatLit(lit *ast.FloatLit) (bytecode.Register, error) {
	var v float64
	if _, err := fmt.Sscanf(lit.Text, "%g", &v); err != nil {
		return 0, fmt.Errorf("program: malformed float literal %q: %w", lit.Text, err)
	}
	r := c.b.AddRegister(bcty.Float64())
	c.b.EmitConstFloat64(r, v)
	return r, nil
}

func (c *Compiler) compileIfExpr(e *ast.IfExpr) (bytecode.Register, error) {
	result := c.b.AddRegister(bcty.Int32())
	if err := c.compileIfExprRec(e.Clauses, e.Else, result); err != nil {
		return 0, err
	}
	return result, nil
}

func (c *Compiler) compileIfExprRec(clauses []*ast.IfClause, elseBlock *ast.BlockExpr, result bytecode.Register) error {
	if len(clauses) == 0 {
		if elseBlock != nil {
			r, ok, err := c.compileBlock(elseBlock)
			if err != nil {
				return err
			}
			if ok {
				c.b.EmitMov(result, r)
			}
		}
		return nil
	}
	clause := clauses[0]
	cond, err := c.compileExpr(clause.Condition)
	if err != nil {
		return err
	}
	elseLbl := c.b.CreateLabel()
	endLbl := c.b.CreateLabel()
	c.b.EmitJumpIfFalse(cond, elseLbl)
	r, ok, err := c.compileBlock(clause.Body)
	if err != nil {
		return err
	}
	if ok {
		c.b.EmitMov(result, r)
	}
	c.b.EmitJump(endLbl)
	c.b.BindLabel(elseLbl)
	if err := c.compileIfExprRec(clauses[1:], elseBlock, result); err != nil {
		return err
	}
	c.b.BindLabel(endLbl)
	return nil
}

func (c *Compiler) compilePrefix(e *ast.PrefixExpr) (bytecode.Register, error) {
	src, err := c.compileExpr(e.Expr)
	if err != nil {
		return 0, err
	}
	switch e.Op {
	case lexer.MINUS:
		dst := c.b.AddRegister(bcty.Int32())
		c.b.EmitNeg(dst, src)
		return dst, nil
	case lexer.BANG:
		dst := c.b.AddRegister(bcty.Bool())
		c.b.EmitNot(dst, src)
		return dst, nil
	default:
		return 0, fmt.Errorf("program: unsupported prefix operator %s", e.Op)
	}
}

func (c *Compiler) compileInfix(e *ast.InfixExpr) (bytecode.Register, error) {
	lhs, err := c.compileExpr(e.Left)
	if err != nil {
		return 0, err
	}
	rhs, err := c.compileExpr(e.Right)
	if err != nil {
		return 0, err
	}

	arith := func(op bytecode.Opcode) bytecode.Register {
		dst := c.b.AddRegister(bcty.Int32())
		emitArith(c.b, op, dst, lhs, rhs)
		return dst
	}
	test := func(op bytecode.Opcode) bytecode.Register {
		dst := c.b.AddRegister(bcty.Bool())
		emitTest(c.b, op, dst, lhs, rhs)
		return dst
	}

	switch e.Op {
	case lexer.PLUS:
		return arith(bytecode.OpAdd), nil
	case lexer.MINUS:
		return arith(bytecode.OpSub), nil
	case lexer.ASTERISK:
		return arith(bytecode.OpMul), nil
	case lexer.SLASH:
		return arith(bytecode.OpDiv), nil
	case lexer.EQ:
		return test(bytecode.OpTestEq), nil
	case lexer.NOT_EQ:
		return test(bytecode.OpTestNe), nil
	case lexer.LT:
		return test(bytecode.OpTestLt), nil
	case lexer.LE:
		return test(bytecode.OpTestLe), nil
	case lexer.GT:
		return test(bytecode.OpTestGt), nil
	case lexer.GE:
		return test(bytecode.OpTestGe), nil
	case lexer.AND:
		return arith(bytecode.OpAnd), nil
	case lexer.OR:
		return arith(bytecode.OpOr), nil
	default:
		return 0, fmt.Errorf("program: unsupported infix operator %s", e.Op)
	}
}

func emitArith(b *bytecode.Builder, op bytecode.Opcode, dst, lhs, rhs bytecode.Register) {
	switch op {
	case bytecode.OpAdd:
		b.EmitAdd(dst, lhs, rhs)
	case bytecode.OpSub:
		b.EmitSub(dst, lhs, rhs)
	case bytecode.OpMul:
		b.EmitMul(dst, lhs, rhs)
	case bytecode.OpDiv:
		b.EmitDiv(dst, lhs, rhs)
	case bytecode.OpAnd:
		b.EmitAnd(dst, lhs, rhs)
	case bytecode.OpOr:
		b.EmitOr(dst, lhs, rhs)
	}
}

func emitTest(b *bytecode.Builder, op bytecode.Opcode, dst, lhs, rhs bytecode.Register) {
	switch op {
	case bytecode.OpTestEq:
		b.EmitTestEq(dst, lhs, rhs)
	case bytecode.OpTestNe:
		b.EmitTestNe(dst, lhs, rhs)
	case bytecode.OpTestLt:
		b.EmitTestLt(dst, lhs, rhs)
	case bytecode.OpTestLe:
		b.EmitTestLe(dst, lhs, rhs)
	case bytecode.OpTestGt:
		b.EmitTestGt(dst, lhs, rhs)
	case bytecode.OpTestGe:
		b.EmitTestGe(dst, lhs, rhs)
	}
}

// compileCall lowers a direct call, recognizing two callee shapes: a plain
// name (fn(args)) and an explicit generic instantiation (fn[T, ...](args),
// parsed by this front end as a CallExpr whose Callee is an IndexExpr —
// ast.NamedType has no exprNode() method, so a type name in index position
// parses as a bare *ast.Ident rather than a type expression).
func (c *Compiler) compileCall(e *ast.CallExpr) (bytecode.Register, error) {
	name, typeArgExprs, err := calleeParts(e.Callee)
	if err != nil {
		return 0, err
	}
	fnId, ok := c.fns[name]
	if !ok {
		return 0, fmt.Errorf("program: call to unresolved function %q", name)
	}
	fn := c.prog.Functions[fnId]

	typeArgs := bcty.Empty()
	if len(typeArgExprs) > 0 {
		args := make([]bcty.BytecodeType, len(typeArgExprs))
		for i, argName := range typeArgExprs {
			ty, err := c.resolveCallTypeArg(argName)
			if err != nil {
				return 0, fmt.Errorf("program: type argument %d of call to %q: %w", i, name, err)
			}
			args[i] = ty
		}
		typeArgs = bcty.New(args)
	}

	for _, arg := range e.Args {
		reg, err := c.compileExpr(arg)
		if err != nil {
			return 0, err
		}
		c.b.EmitPushRegister(reg)
	}

	constIdx := c.b.InternRaw(bytecode.CPEFct(fnId, typeArgs))
	dst := c.b.AddRegister(fn.Return)
	if typeArgs.Len() > 0 {
		c.b.EmitInvokeGenericDirect(dst, constIdx)
	} else {
		c.b.EmitInvokeDirect(dst, constIdx)
	}
	return dst, nil
}

// calleeParts splits a call's callee into the called name and, for an
// explicit generic instantiation, the names of its type arguments.
func calleeParts(callee ast.Expr) (string, []string, error) {
	switch c := callee.(type) {
	case *ast.Ident:
		return c.Name, nil, nil
	case *ast.IndexExpr:
		target, ok := c.Target.(*ast.Ident)
		if !ok {
			return "", nil, fmt.Errorf("program: only direct calls by name are supported")
		}
		names := make([]string, len(c.Indices))
		for i, idx := range c.Indices {
			argIdent, ok := idx.(*ast.Ident)
			if !ok {
				return "", nil, fmt.Errorf("program: unsupported type argument expression %T", idx)
			}
			names[i] = argIdent.Name
		}
		return target.Name, names, nil
	default:
		return "", nil, fmt.Errorf("program: only direct calls by name are supported")
	}
}

// resolveCallTypeArg resolves one type-argument name at a call site: a
// primitive name, or one of the enclosing function's own type parameters.
// Nominal struct/enum/class/trait names are not supported here since a call
// site has no nominals table of its own — CompileFunction's caller never
// threads one in, matching this compiler's existing narrower scope.
func (c *Compiler) resolveCallTypeArg(name string) (bcty.BytecodeType, error) {
	if idx, ok := c.typeParams[name]; ok {
		return bcty.TypeParam(uint32(idx)), nil
	}
	if ty, ok := primitiveBytecodeType(name); ok {
		return ty, nil
	}
	return bcty.BytecodeType{}, fmt.Errorf("program: unresolved type argument %q", name)
}
