// Package compiler implements the bytecode compiler (C5): it lowers a
// type-checked AST into per-function internal/bytecode.Chunk instruction
// streams, using internal/register for local/temporary register assignment,
// internal/scope for break/continue/loop bookkeeping, and internal/module to
// publish the compiled unit's export table.
package compiler

import (
	"github.com/jordyorel/orus-lang-sub001/internal/ast"
	"github.com/jordyorel/orus-lang-sub001/internal/bytecode"
	"github.com/jordyorel/orus-lang-sub001/internal/diag"
	"github.com/jordyorel/orus-lang-sub001/internal/module"
	"github.com/jordyorel/orus-lang-sub001/internal/natives"
	"github.com/jordyorel/orus-lang-sub001/internal/register"
	"github.com/jordyorel/orus-lang-sub001/internal/scope"
	"github.com/jordyorel/orus-lang-sub001/internal/token"
	"github.com/jordyorel/orus-lang-sub001/internal/types"
	"github.com/jordyorel/orus-lang-sub001/internal/value"
)

// Register file layout (SPEC_FULL.md §3): locals and the compiler's own
// temporaries share the low range, globals a fixed middle band, and
// typed-span spills the top of the frame.
//
// SpanRegStart..RegisterCount is reserved for typed-span spills (trampoline
// argument/result registers are fixed at 0/1 within their own chunk and
// never touch this band). Typed spans must land here rather than in the
// local/temp band: register.BankI32 (and its numeric siblings) is a free-list
// independent of BankLocal, so a typed span's PhysicalStart and a
// allocLocalReg id both start counting from 0 — mapping both onto the same
// FrameRegStart-based physical range would let a span alias a body temp.
const (
	FrameRegStart  = 0
	LocalRegEnd    = 224 // locals/temps occupy [0,224)
	GlobalRegStart = 224
	GlobalRegEnd   = 248 // globals occupy [224,248)
	SpanRegStart   = GlobalRegEnd
	RegisterCount  = 256 // span spills occupy [248,256)
)

// Program is the output of a full compile: the top-level chunk plus one
// chunk per declared function, and the module export table a module.Manager
// can resolve symbols against.
type Program struct {
	Main          *bytecode.Chunk
	Functions     map[string]*bytecode.Chunk
	FunctionOrder []string
	Module        *module.Module
	Globals       map[string]int
}

// Compiler holds the state shared across an entire compilation unit: the
// checked program's type information, the intrinsic registry @[core(...)]
// declarations resolve against, and the global/function name tables.
type Compiler struct {
	checker  *types.Checker
	natives  *natives.Registry
	reporter *diag.Reporter
	mod      *module.Module

	globalNames map[string]int
	nextGlobal  int

	functionIndex map[string]int
	functionOrder []string
}

// Compile lowers prog (already checked by checker) into a Program. Diagnostics
// are accumulated into reporter rather than aborting at the first failure,
// matching the front end's error-collection style.
func Compile(prog *ast.Program, checker *types.Checker, nativeReg *natives.Registry, reporter *diag.Reporter, moduleName string) *Program {
	mgr := module.New()
	mod, err := mgr.LoadModule(moduleName)
	if err != nil {
		reporter.Add(diag.Internal, token.Position{}, "compiler: %v", err)
		return nil
	}

	c := &Compiler{
		checker:       checker,
		natives:       nativeReg,
		reporter:      reporter,
		mod:           mod,
		globalNames:   make(map[string]int),
		nextGlobal:    GlobalRegStart,
		functionIndex: make(map[string]int),
	}

	fnsByName := make(map[string]*ast.FnDecl)
	for _, decl := range prog.Declarations {
		if fn, ok := decl.(*ast.FnDecl); ok {
			c.functionIndex[fn.Name] = len(c.functionOrder)
			c.functionOrder = append(c.functionOrder, fn.Name)
			fnsByName[fn.Name] = fn
		}
	}

	// Export declarations go in before any body is compiled so a call to a
	// not-yet-compiled function (forward reference) still resolves.
	for _, name := range c.functionOrder {
		fn := fnsByName[name]
		mod.DeclareExport(&module.Export{
			Name:            fn.Name,
			Kind:            module.ExportFunction,
			IntrinsicSymbol: fn.CoreSymbol,
			FunctionIndex:   c.functionIndex[fn.Name],
			Type:            fn.ReturnType,
		})
	}

	// Globals get their register ids assigned up front too, for the same
	// forward-reference reason: a function body compiled below may read a
	// global whose initializer hasn't been emitted into the main chunk yet.
	var globalLets []*ast.LetStmt
	for _, decl := range prog.Declarations {
		if let, ok := decl.(*ast.LetStmt); ok {
			c.declareGlobal(let.Name.Value, let.Token.Pos)
			globalLets = append(globalLets, let)
		}
	}

	functions := make(map[string]*bytecode.Chunk, len(c.functionOrder))
	for _, name := range c.functionOrder {
		fn := fnsByName[name]
		if fn.CoreSymbol != "" {
			functions[name] = c.compileIntrinsicTrampoline(fn)
		} else {
			functions[name] = c.compileFunction(fn)
		}
	}

	main := bytecode.NewChunk(moduleName)
	mainFC := newFnCompiler(c, main)
	mainFC.pushLexicalScope()
	for _, let := range globalLets {
		valReg := mainFC.compileExpr(let.Value)
		globalReg := c.globalNames[let.Name.Value]
		main.EmitOpcode(bytecode.OpMove)
		main.EmitByte(byte(globalReg))
		main.EmitByte(byte(valReg))
		mainFC.freeIfTemp(valReg)
		mod.DeclareExport(&module.Export{
			Name:       let.Name.Value,
			Kind:       module.ExportValue,
			RegisterID: globalReg,
			Type:       let.Type,
		})
	}
	mainFC.popScope()
	main.EmitOpcode(bytecode.OpHalt)
	if err := main.Seal(); err != nil {
		reporter.Add(diag.Internal, token.Position{File: moduleName}, "%v", err)
	}

	return &Program{
		Main:          main,
		Functions:     functions,
		FunctionOrder: c.functionOrder,
		Module:        mod,
		Globals:       c.globalNames,
	}
}

func (c *Compiler) declareGlobal(name string, pos token.Position) int {
	if existing, ok := c.globalNames[name]; ok {
		return existing
	}
	if c.nextGlobal >= GlobalRegEnd {
		c.reporter.Add(diag.Internal, pos, "compiler: exceeded global register band declaring %q", name)
		return c.nextGlobal
	}
	reg := c.nextGlobal
	c.nextGlobal++
	c.globalNames[name] = reg
	return reg
}

// compileFunction lowers a user-defined function body into its own chunk.
// Parameters occupy the first len(Params) local registers in declaration
// order; the chunk always ends with an explicit RETURN_R, covering functions
// whose every source-level path already returned (the trailing one is then
// unreachable, which the dispatch loop never visits) as well as ones that
// fall off the end.
func (c *Compiler) compileFunction(fn *ast.FnDecl) *bytecode.Chunk {
	chunk := bytecode.NewChunk(fn.Name)
	fc := newFnCompiler(c, chunk)
	fc.pushLexicalScope()
	for _, p := range fn.Params {
		fc.allocLocal(p.Name)
	}
	for _, stmt := range fn.Body.Statements {
		fc.compileStmt(stmt)
	}
	finalReg := fc.allocTemp()
	chunk.EmitOpcode(bytecode.OpLoadNil)
	chunk.EmitByte(byte(finalReg))
	chunk.EmitOpcode(bytecode.OpReturnR)
	chunk.EmitByte(byte(finalReg))
	fc.freeIfTemp(finalReg)
	fc.popScope()
	if err := chunk.Seal(); err != nil {
		c.reporter.Add(diag.Internal, fn.Token.Pos, "%v", err)
	}
	return chunk
}

// compileIntrinsicTrampoline emits the fixed CALL_NATIVE_R + RETURN_R shape
// every @[core("symbol")] declaration compiles to (spec.md §6): CALL_NATIVE_R
// at offset 0, RETURN_R at offset 5, guaranteed by OpCallNativeR's fixed
// 4-byte operand width since every registered intrinsic is unary.
func (c *Compiler) compileIntrinsicTrampoline(fn *ast.FnDecl) *bytecode.Chunk {
	chunk := bytecode.NewChunk(fn.Name)
	var idx uint16
	if d, ok := c.natives.Lookup(fn.CoreSymbol); ok {
		idx = d.Index
	} else {
		c.reporter.Add(diag.Name, fn.Token.Pos, "unknown intrinsic symbol %q", fn.CoreSymbol)
	}
	chunk.EmitOpcode(bytecode.OpCallNativeR)
	chunk.EmitU16(idx)
	chunk.EmitByte(0) // argument register, by calling convention
	chunk.EmitByte(1) // result register
	chunk.EmitOpcode(bytecode.OpReturnR)
	chunk.EmitByte(1)
	if err := chunk.Seal(); err != nil {
		c.reporter.Add(diag.Internal, fn.Token.Pos, "%v", err)
	}
	return chunk
}

// fnCompiler lowers one function body (or the top-level script) into chunk.
type fnCompiler struct {
	c     *Compiler
	chunk *bytecode.Chunk

	regs   *register.Allocator
	scopes *scope.Stack

	localScopes []map[string]int
	temps       map[int]bool
}

func newFnCompiler(c *Compiler, chunk *bytecode.Chunk) *fnCompiler {
	return &fnCompiler{
		c:      c,
		chunk:  chunk,
		regs:   register.New(),
		scopes: scope.New(),
		temps:  make(map[int]bool),
	}
}

func (fc *fnCompiler) pushNames() {
	fc.localScopes = append(fc.localScopes, map[string]int{})
	fc.regs.EnterScope()
}

func (fc *fnCompiler) popNames() {
	top := fc.localScopes[len(fc.localScopes)-1]
	for _, reg := range top {
		fc.regs.Free(register.Allocation{Bank: register.BankLocal, ID: reg - FrameRegStart})
	}
	fc.localScopes = fc.localScopes[:len(fc.localScopes)-1]
	fc.regs.ExitScope()
}

func (fc *fnCompiler) pushLexicalScope() {
	fc.scopes.PushLexical()
	fc.pushNames()
}

func (fc *fnCompiler) pushLoopScope() *scope.Frame {
	f := fc.scopes.PushLoop()
	fc.pushNames()
	return f
}

func (fc *fnCompiler) popScope() {
	fc.scopes.Pop()
	fc.popNames()
}

func (fc *fnCompiler) bind(name string, reg int) {
	fc.localScopes[len(fc.localScopes)-1][name] = reg
}

func (fc *fnCompiler) allocLocal(name string) int {
	reg := fc.allocLocalReg()
	fc.bind(name, reg)
	return reg
}

func (fc *fnCompiler) allocTemp() int {
	reg := fc.allocLocalReg()
	fc.temps[reg] = true
	return reg
}

// allocLocalReg draws the next physical id from the local/temp bank,
// reporting an internal error (rather than silently handing out a register
// that would alias the global band) if a single frame ever needs more than
// LocalRegEnd-FrameRegStart live locals and temporaries at once.
func (fc *fnCompiler) allocLocalReg() int {
	alloc := fc.regs.AllocTyped(register.BankLocal)
	reg := FrameRegStart + alloc.ID
	if reg >= LocalRegEnd {
		fc.c.reporter.Add(diag.Internal, token.Position{File: fc.chunk.File}, "compiler: exceeded local register band (id %d)", reg)
	}
	return reg
}

func (fc *fnCompiler) freeIfTemp(reg int) {
	if fc.temps[reg] {
		delete(fc.temps, reg)
		fc.regs.Free(register.Allocation{Bank: register.BankLocal, ID: reg - FrameRegStart})
	}
}

func (fc *fnCompiler) resolveVar(name string) (reg int, isGlobal bool, ok bool) {
	for i := len(fc.localScopes) - 1; i >= 0; i-- {
		if r, found := fc.localScopes[i][name]; found {
			return r, false, true
		}
	}
	if r, found := fc.c.globalNames[name]; found {
		return r, true, true
	}
	return 0, false, false
}

// --- Statements --------------------------------------------------------

func (fc *fnCompiler) compileStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		valReg := fc.compileExpr(s.Value)
		reg := fc.allocLocal(s.Name.Value)
		fc.chunk.EmitOpcode(bytecode.OpMove)
		fc.chunk.EmitByte(byte(reg))
		fc.chunk.EmitByte(byte(valReg))
		fc.freeIfTemp(valReg)
	case *ast.ForStmt:
		fc.compileFor(s)
	case *ast.IfStmt:
		fc.compileIf(s)
	case *ast.BreakStmt:
		fc.compileBreak(s)
	case *ast.ContinueStmt:
		fc.compileContinue(s)
	case *ast.ReturnStmt:
		fc.compileReturn(s)
	case *ast.ExprStmt:
		reg := fc.compileExpr(s.Expression)
		fc.freeIfTemp(reg)
	}
}

func (fc *fnCompiler) compileReturn(s *ast.ReturnStmt) {
	var reg int
	if s.Value != nil {
		reg = fc.compileExpr(s.Value)
	} else {
		reg = fc.allocTemp()
		fc.chunk.EmitOpcode(bytecode.OpLoadNil)
		fc.chunk.EmitByte(byte(reg))
	}
	fc.chunk.EmitOpcode(bytecode.OpReturnR)
	fc.chunk.EmitByte(byte(reg))
	fc.freeIfTemp(reg)
}

func (fc *fnCompiler) compileBreak(s *ast.BreakStmt) {
	frame := fc.scopes.CurrentLoop()
	if frame == nil {
		fc.c.reporter.Add(diag.Compile, s.Token.Pos, "break outside a loop")
		return
	}
	pid := fc.chunk.EmitJumpPlaceholder(bytecode.PatchJumpPlain)
	frame.BreakPatches = append(frame.BreakPatches, pid)
}

func (fc *fnCompiler) compileContinue(s *ast.ContinueStmt) {
	frame := fc.scopes.CurrentLoop()
	if frame == nil {
		fc.c.reporter.Add(diag.Compile, s.Token.Pos, "continue outside a loop")
		return
	}
	pid := fc.chunk.EmitJumpPlaceholder(bytecode.PatchJumpPlain)
	frame.ContinuePatches = append(frame.ContinuePatches, pid)
}

func (fc *fnCompiler) compileIf(s *ast.IfStmt) {
	condReg := fc.compileExpr(s.Condition)
	guardPid := fc.chunk.EmitJumpPlaceholder(bytecode.PatchJumpIfNotR, byte(condReg))
	fc.freeIfTemp(condReg)

	fc.pushLexicalScope()
	for _, stmt := range s.Consequence.Statements {
		fc.compileStmt(stmt)
	}
	fc.popScope()

	if s.Alternative == nil {
		fc.chunk.PatchJump(guardPid, fc.chunk.Len())
		return
	}

	skipElsePid := fc.chunk.EmitJumpPlaceholder(bytecode.PatchJumpPlain)
	fc.chunk.PatchJump(guardPid, fc.chunk.Len())
	switch alt := s.Alternative.(type) {
	case *ast.Block:
		fc.pushLexicalScope()
		for _, stmt := range alt.Statements {
			fc.compileStmt(stmt)
		}
		fc.popScope()
	case *ast.IfStmt:
		fc.compileIf(alt)
	}
	fc.chunk.PatchJump(skipElsePid, fc.chunk.Len())
}

// compileFor lowers `for binding in start..end[..step] { body }` exactly per
// spec.md §4.4: a typed guard, the body, an in-place increment, and a
// backward edge to the guard — never a fused branch-and-increment op.
//
// The loop variable and its end bound share a two-register typed span
// (internal/register's BeginTypedSpan), by convention adjacent: endReg is
// always iReg+1. JUMP_IF_NOT_I32_TYPED's encoding carries only the loop
// variable's register and the step-sign discriminator, so the comparison
// bound has to live somewhere the guard can find it without an operand for
// it; this convention is that place.
//
// The span is mapped into SpanRegStart's reserved band, not the
// FrameRegStart/local band: register.BankI32 is a free-list independent of
// BankLocal (both start counting at 0), so offsetting the span by
// FrameRegStart would let its physical registers collide with the very
// body temporaries allocLocalReg hands out for the loop body.
func (fc *fnCompiler) compileFor(s *ast.ForStmt) {
	span := fc.regs.BeginTypedSpan(register.BankI32, 2, true)
	iReg := SpanRegStart + span.PhysicalStart
	endReg := iReg + 1
	if endReg >= RegisterCount {
		fc.c.reporter.Add(diag.Internal, token.Position{File: fc.chunk.File}, "compiler: exceeded span-spill register band (id %d)", endReg)
	}

	fc.pushNames()
	fc.bind(s.Binding.Value, iReg)

	startReg := fc.compileExpr(s.Start)
	fc.chunk.EmitOpcode(bytecode.OpMove)
	fc.chunk.EmitByte(byte(iReg))
	fc.chunk.EmitByte(byte(startReg))
	fc.freeIfTemp(startReg)

	endValReg := fc.compileExpr(s.End)
	fc.chunk.EmitOpcode(bytecode.OpMove)
	fc.chunk.EmitByte(byte(endReg))
	fc.chunk.EmitByte(byte(endValReg))
	fc.freeIfTemp(endValReg)

	stepVal := int64(1)
	if s.Step != nil {
		if lit, ok := s.Step.(*ast.IntLiteral); ok {
			stepVal = lit.Value
		}
	}
	auxSign := byte(0)
	if stepVal < 0 {
		auxSign = 1
	}

	frame := fc.pushLoopScope()
	guardOffset := fc.chunk.Len()
	frame.StartOffset = guardOffset
	guardPid := fc.chunk.EmitJumpPlaceholder(bytecode.PatchJumpIfNotI32Typed, byte(iReg), auxSign)

	fc.pushLexicalScope()
	for _, stmt := range s.Body.Statements {
		fc.compileStmt(stmt)
	}
	fc.popScope()

	incrementOffset := fc.chunk.Len()
	frame.ContinueOffset = incrementOffset
	for _, pid := range frame.ContinuePatches {
		fc.chunk.PatchJump(pid, incrementOffset)
	}

	switch stepVal {
	case 1:
		fc.chunk.EmitOpcode(bytecode.OpIncI32R)
		fc.chunk.EmitByte(byte(iReg))
	case -1:
		fc.chunk.EmitOpcode(bytecode.OpDecI32R)
		fc.chunk.EmitByte(byte(iReg))
	default:
		stepReg := fc.allocTemp()
		fc.chunk.EmitOpcode(bytecode.OpLoadConst)
		fc.chunk.EmitByte(byte(stepReg))
		fc.chunk.EmitU16(fc.chunk.AddConstant(value.I32(int32(stepVal))))
		fc.chunk.EmitOpcode(bytecode.OpAddI32Typed)
		fc.chunk.EmitByte(byte(iReg))
		fc.chunk.EmitByte(byte(iReg))
		fc.chunk.EmitByte(byte(stepReg))
		fc.freeIfTemp(stepReg)
	}

	backPid := fc.chunk.EmitJumpPlaceholder(bytecode.PatchJumpPlain)
	fc.chunk.PatchJump(backPid, guardOffset)

	loopEndOffset := fc.chunk.Len()
	frame.EndOffset = loopEndOffset
	fc.chunk.PatchJump(guardPid, loopEndOffset)
	for _, pid := range frame.BreakPatches {
		fc.chunk.PatchJump(pid, loopEndOffset)
	}

	fc.scopes.Pop()
	fc.popNames()

	fc.regs.ReleaseTypedSpan(span)
	for _, res := range fc.regs.CollectPendingReconciliations() {
		for id := res.PhysicalStart; id < res.PhysicalStart+res.Length; id++ {
			fc.chunk.EmitOpcode(bytecode.OpReconcileR)
			fc.chunk.EmitByte(byte(SpanRegStart + id))
		}
	}
}

// --- Expressions --------------------------------------------------------

func (fc *fnCompiler) compileExpr(expr ast.Expression) int {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		dst := fc.allocTemp()
		idx := fc.chunk.AddConstant(value.I32(int32(e.Value)))
		fc.chunk.EmitOpcode(bytecode.OpLoadConst)
		fc.chunk.EmitByte(byte(dst))
		fc.chunk.EmitU16(idx)
		return dst
	case *ast.FloatLiteral:
		dst := fc.allocTemp()
		idx := fc.chunk.AddConstant(value.F64(e.Value))
		fc.chunk.EmitOpcode(bytecode.OpLoadConst)
		fc.chunk.EmitByte(byte(dst))
		fc.chunk.EmitU16(idx)
		return dst
	case *ast.StringLiteral:
		dst := fc.allocTemp()
		idx := fc.chunk.AddConstant(value.Str(&value.Object{Kind: value.KindString, Str: e.Value}))
		fc.chunk.EmitOpcode(bytecode.OpLoadConst)
		fc.chunk.EmitByte(byte(dst))
		fc.chunk.EmitU16(idx)
		return dst
	case *ast.BoolLiteral:
		dst := fc.allocTemp()
		if e.Value {
			fc.chunk.EmitOpcode(bytecode.OpLoadTrue)
		} else {
			fc.chunk.EmitOpcode(bytecode.OpLoadFalse)
		}
		fc.chunk.EmitByte(byte(dst))
		return dst
	case *ast.Ident:
		return fc.compileIdent(e)
	case *ast.PrefixExpr:
		return fc.compilePrefix(e)
	case *ast.InfixExpr:
		return fc.compileInfix(e)
	case *ast.AssignExpr:
		return fc.compileAssign(e)
	case *ast.CallExpr:
		return fc.compileCall(e)
	case *ast.ResultExpr:
		return fc.compileResult(e)
	default:
		fc.c.reporter.Add(diag.Internal, token.Position{}, "compiler: unhandled expression node %T", expr)
		return fc.allocTemp()
	}
}

func (fc *fnCompiler) compileIdent(e *ast.Ident) int {
	reg, isGlobal, ok := fc.resolveVar(e.Value)
	if !ok {
		fc.c.reporter.Add(diag.Name, e.Token.Pos, "undeclared identifier %q", e.Value)
		return fc.allocTemp()
	}
	if !isGlobal {
		return reg
	}
	// Reading a global always goes through LOAD_GLOBAL so a prior INC/DEC
	// against this register's typed cache is reconciled before anything
	// else observes it (spec.md §4.3/§8 scenario 5).
	dst := fc.allocTemp()
	fc.chunk.EmitOpcode(bytecode.OpLoadGlobal)
	fc.chunk.EmitByte(byte(dst))
	fc.chunk.EmitByte(byte(reg - GlobalRegStart))
	return dst
}

func (fc *fnCompiler) compilePrefix(e *ast.PrefixExpr) int {
	operand := fc.compileExpr(e.Right)
	dst := fc.allocTemp()
	switch e.Operator {
	case "!":
		fc.chunk.EmitOpcode(bytecode.OpNotR)
	case "-":
		fc.chunk.EmitOpcode(bytecode.OpNegR)
	}
	fc.chunk.EmitByte(byte(dst))
	fc.chunk.EmitByte(byte(operand))
	fc.freeIfTemp(operand)
	return dst
}

func (fc *fnCompiler) compileInfix(e *ast.InfixExpr) int {
	switch e.Operator {
	case "&&":
		return fc.compileLogicalAnd(e)
	case "||":
		return fc.compileLogicalOr(e)
	}

	leftType := fc.c.checker.TypeOf(e.Left)
	rightType := fc.c.checker.TypeOf(e.Right)
	isI32 := leftType != nil && rightType != nil && leftType.Kind() == types.KindI32 && rightType.Kind() == types.KindI32

	switch e.Operator {
	case "+":
		if isI32 {
			lhs := fc.compileExpr(e.Left)
			rhs := fc.compileExpr(e.Right)
			dst := fc.allocTemp()
			fc.chunk.EmitOpcode(bytecode.OpAddI32Typed)
			fc.chunk.EmitByte(byte(dst))
			fc.chunk.EmitByte(byte(lhs))
			fc.chunk.EmitByte(byte(rhs))
			fc.freeIfTemp(lhs)
			fc.freeIfTemp(rhs)
			return dst
		}
		return fc.emitGenericBinary(bytecode.OpAddR, e.Left, e.Right)
	case "*":
		if isI32 {
			if lit, ok := e.Right.(*ast.IntLiteral); ok {
				lhs := fc.compileExpr(e.Left)
				dst := fc.allocTemp()
				fc.chunk.EmitOpcode(bytecode.OpMulI32Imm)
				fc.chunk.EmitByte(byte(dst))
				fc.chunk.EmitByte(byte(lhs))
				fc.chunk.EmitI32(int32(lit.Value))
				fc.freeIfTemp(lhs)
				return dst
			}
		}
		return fc.emitGenericBinary(bytecode.OpMulR, e.Left, e.Right)
	case "-":
		return fc.emitGenericBinary(bytecode.OpSubR, e.Left, e.Right)
	case "/":
		return fc.emitGenericBinary(bytecode.OpDivR, e.Left, e.Right)
	case "%":
		return fc.emitGenericBinary(bytecode.OpModR, e.Left, e.Right)
	case "==":
		return fc.emitGenericBinary(bytecode.OpEqR, e.Left, e.Right)
	case "!=":
		return fc.emitGenericBinary(bytecode.OpNeqR, e.Left, e.Right)
	case "<":
		return fc.emitGenericBinary(bytecode.OpLtR, e.Left, e.Right)
	case "<=":
		return fc.emitGenericBinary(bytecode.OpLteR, e.Left, e.Right)
	case ">":
		return fc.emitGenericBinary(bytecode.OpGtR, e.Left, e.Right)
	case ">=":
		return fc.emitGenericBinary(bytecode.OpGteR, e.Left, e.Right)
	default:
		fc.c.reporter.Add(diag.Internal, e.Token.Pos, "compiler: unhandled operator %q", e.Operator)
		return fc.allocTemp()
	}
}

func (fc *fnCompiler) emitGenericBinary(op bytecode.Opcode, left, right ast.Expression) int {
	lhs := fc.compileExpr(left)
	rhs := fc.compileExpr(right)
	dst := fc.allocTemp()
	fc.chunk.EmitOpcode(op)
	fc.chunk.EmitByte(byte(dst))
	fc.chunk.EmitByte(byte(lhs))
	fc.chunk.EmitByte(byte(rhs))
	fc.freeIfTemp(lhs)
	fc.freeIfTemp(rhs)
	return dst
}

// compileLogicalAnd short-circuits: rhs is only evaluated when lhs is true.
func (fc *fnCompiler) compileLogicalAnd(e *ast.InfixExpr) int {
	dst := fc.allocTemp()
	lhs := fc.compileExpr(e.Left)
	fc.chunk.EmitOpcode(bytecode.OpMove)
	fc.chunk.EmitByte(byte(dst))
	fc.chunk.EmitByte(byte(lhs))
	fc.freeIfTemp(lhs)

	pid := fc.chunk.EmitJumpPlaceholder(bytecode.PatchJumpIfNotR, byte(dst))
	rhs := fc.compileExpr(e.Right)
	fc.chunk.EmitOpcode(bytecode.OpMove)
	fc.chunk.EmitByte(byte(dst))
	fc.chunk.EmitByte(byte(rhs))
	fc.freeIfTemp(rhs)
	fc.chunk.PatchJump(pid, fc.chunk.Len())
	return dst
}

// compileLogicalOr short-circuits: rhs is only evaluated when lhs is false.
// The ISA has no JUMP_IF_R (only JUMP_IF_NOT_R), so "skip when dst is true"
// is expressed as "negate dst into a scratch register, then jump when that
// scratch is false."
func (fc *fnCompiler) compileLogicalOr(e *ast.InfixExpr) int {
	dst := fc.allocTemp()
	lhs := fc.compileExpr(e.Left)
	fc.chunk.EmitOpcode(bytecode.OpMove)
	fc.chunk.EmitByte(byte(dst))
	fc.chunk.EmitByte(byte(lhs))
	fc.freeIfTemp(lhs)

	scratch := fc.allocTemp()
	fc.chunk.EmitOpcode(bytecode.OpNotR)
	fc.chunk.EmitByte(byte(scratch))
	fc.chunk.EmitByte(byte(dst))
	pid := fc.chunk.EmitJumpPlaceholder(bytecode.PatchJumpIfNotR, byte(scratch))
	fc.freeIfTemp(scratch)

	rhs := fc.compileExpr(e.Right)
	fc.chunk.EmitOpcode(bytecode.OpMove)
	fc.chunk.EmitByte(byte(dst))
	fc.chunk.EmitByte(byte(rhs))
	fc.freeIfTemp(rhs)
	fc.chunk.PatchJump(pid, fc.chunk.Len())
	return dst
}

func (fc *fnCompiler) compileAssign(e *ast.AssignExpr) int {
	reg, isGlobal, ok := fc.resolveVar(e.Target.Value)
	if !ok {
		fc.c.reporter.Add(diag.Name, e.Token.Pos, "undeclared identifier %q", e.Target.Value)
		return fc.compileExpr(e.Value)
	}
	valReg := fc.compileExpr(e.Value)
	if isGlobal {
		// Mirrors compileIdent's LOAD_GLOBAL-on-read rule: writes to a global
		// go through STORE_GLOBAL rather than a bare MOVE into its physical
		// register, so the typed cache is kept in the loop on both ends.
		fc.chunk.EmitOpcode(bytecode.OpStoreGlobal)
		fc.chunk.EmitByte(byte(valReg))
		fc.chunk.EmitByte(byte(reg - GlobalRegStart))
		return valReg
	}
	fc.chunk.EmitOpcode(bytecode.OpMove)
	fc.chunk.EmitByte(byte(reg))
	fc.chunk.EmitByte(byte(valReg))
	fc.freeIfTemp(valReg)
	return reg
}

func (fc *fnCompiler) compileCall(e *ast.CallExpr) int {
	argRegs := make([]int, len(e.Arguments))
	for i, a := range e.Arguments {
		argRegs[i] = fc.compileExpr(a)
	}

	if exp, ok := fc.c.mod.Exports[e.Function.Value]; ok && exp.IntrinsicSymbol != "" {
		dst := fc.allocTemp()
		var idx uint16
		if d, ok := fc.c.natives.Lookup(exp.IntrinsicSymbol); ok {
			idx = d.Index
		}
		var argReg int
		if len(argRegs) > 0 {
			argReg = argRegs[0]
		}
		fc.chunk.EmitOpcode(bytecode.OpCallNativeR)
		fc.chunk.EmitU16(idx)
		fc.chunk.EmitByte(byte(argReg))
		fc.chunk.EmitByte(byte(dst))
		for _, r := range argRegs {
			fc.freeIfTemp(r)
		}
		return dst
	}

	fnIdx, ok := fc.c.functionIndex[e.Function.Value]
	if !ok {
		fc.c.reporter.Add(diag.Name, e.Token.Pos, "call to undeclared function %q", e.Function.Value)
	}
	dst := fc.allocTemp()
	fc.chunk.EmitOpcode(bytecode.OpCallR)
	fc.chunk.EmitU16(uint16(fnIdx))
	fc.chunk.EmitByte(byte(len(argRegs)))
	for _, r := range argRegs {
		fc.chunk.EmitByte(byte(r))
	}
	fc.chunk.EmitByte(byte(dst))
	for _, r := range argRegs {
		fc.freeIfTemp(r)
	}
	return dst
}

// compileResult lowers Result.Ok(v)/Result.Err(v) to MAKE_ENUM. The
// constructor's actual allocation happens at runtime (it needs a live heap);
// the compiler only emits the instruction and its constant-pool operands.
func (fc *fnCompiler) compileResult(e *ast.ResultExpr) int {
	valReg := fc.compileExpr(e.Value)
	dst := fc.allocTemp()
	typeIdx := fc.chunk.AddConstant(value.Str(&value.Object{Kind: value.KindString, Str: "Result"}))
	variantIdx := fc.chunk.AddConstant(value.Str(&value.Object{Kind: value.KindString, Str: e.Variant}))
	var variantNum byte
	if e.Variant == "Err" {
		variantNum = 1
	}
	fc.chunk.EmitOpcode(bytecode.OpMakeEnum)
	fc.chunk.EmitByte(byte(dst))
	fc.chunk.EmitU16(typeIdx)
	fc.chunk.EmitU16(variantIdx)
	fc.chunk.EmitByte(variantNum)
	fc.chunk.EmitByte(1)
	fc.chunk.EmitByte(byte(valReg))
	fc.freeIfTemp(valReg)
	return dst
}
