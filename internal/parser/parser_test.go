package parser_test

import (
	"testing"

	"github.com/jordyorel/orus-lang-sub001/internal/ast"
	"github.com/jordyorel/orus-lang-sub001/internal/diag"
	"github.com/jordyorel/orus-lang-sub001/internal/parser"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) (*ast.Program, *diag.Reporter) {
	t.Helper()
	r := diag.NewReporter()
	prog := parser.Parse("test.orus", src, r)
	return prog, r
}

func TestParse_SimpleFunction(t *testing.T) {
	src := `pub fn add(a: i32, b: i32) -> i32 { return a + b; }`
	prog, r := parse(t, src)
	require.False(t, r.Failed(), "unexpected errors: %v", r.Errors())
	require.Len(t, prog.Declarations, 1)

	fn, ok := prog.Declarations[0].(*ast.FnDecl)
	require.True(t, ok)
	require.True(t, fn.Public)
	require.Equal(t, "add", fn.Name)
	require.Equal(t, "i32", fn.ReturnType)
	require.Len(t, fn.Params, 2)
	require.Equal(t, "a", fn.Params[0].Name)
	require.Equal(t, "i32", fn.Params[0].Type)

	require.Len(t, fn.Body.Statements, 1)
	ret, ok := fn.Body.Statements[0].(*ast.ReturnStmt)
	require.True(t, ok)
	infix, ok := ret.Value.(*ast.InfixExpr)
	require.True(t, ok)
	require.Equal(t, "+", infix.Operator)
}

func TestParse_CoreIntrinsic(t *testing.T) {
	src := `@[core("sin")] fn sin(x: f64) -> f64;`
	prog, r := parse(t, src)
	require.False(t, r.Failed(), "unexpected errors: %v", r.Errors())
	require.Len(t, prog.Declarations, 1)

	fn := prog.Declarations[0].(*ast.FnDecl)
	require.Equal(t, "sin", fn.CoreSymbol)
	require.Equal(t, "sin", fn.Name)
	require.Empty(t, fn.Body.Statements)
}

func TestParse_ForLoopWithStep(t *testing.T) {
	src := `fn main() {
		for i in 0..10..2 {
			continue;
		}
	}`
	prog, r := parse(t, src)
	require.False(t, r.Failed(), "unexpected errors: %v", r.Errors())

	fn := prog.Declarations[0].(*ast.FnDecl)
	forStmt := fn.Body.Statements[0].(*ast.ForStmt)
	require.Equal(t, "i", forStmt.Binding.Value)
	require.NotNil(t, forStmt.Step)
	step, ok := forStmt.Step.(*ast.IntLiteral)
	require.True(t, ok)
	require.Equal(t, int64(2), step.Value)
}

func TestParse_IfElseChain(t *testing.T) {
	src := `fn classify(x: i32) -> i32 {
		if x < 0 {
			return 0;
		} else if x == 0 {
			return 1;
		} else {
			return 2;
		}
	}`
	prog, r := parse(t, src)
	require.False(t, r.Failed(), "unexpected errors: %v", r.Errors())

	fn := prog.Declarations[0].(*ast.FnDecl)
	ifStmt := fn.Body.Statements[0].(*ast.IfStmt)
	require.NotNil(t, ifStmt.Alternative)
	_, ok := ifStmt.Alternative.(*ast.IfStmt)
	require.True(t, ok)
}

func TestParse_ResultConstructors(t *testing.T) {
	src := `fn safe_div(a: i32, b: i32) -> i32 {
		mut r: i32 = Result.Ok(a);
		return r;
	}`
	prog, r := parse(t, src)
	require.False(t, r.Failed(), "unexpected errors: %v", r.Errors())

	fn := prog.Declarations[0].(*ast.FnDecl)
	let := fn.Body.Statements[0].(*ast.LetStmt)
	result, ok := let.Value.(*ast.ResultExpr)
	require.True(t, ok)
	require.Equal(t, "Ok", result.Variant)
}

func TestParse_AssignmentAndCall(t *testing.T) {
	src := `fn main() {
		mut total = 0;
		total = add(total, 1);
	}`
	prog, r := parse(t, src)
	require.False(t, r.Failed(), "unexpected errors: %v", r.Errors())

	fn := prog.Declarations[0].(*ast.FnDecl)
	exprStmt := fn.Body.Statements[1].(*ast.ExprStmt)
	assign, ok := exprStmt.Expression.(*ast.AssignExpr)
	require.True(t, ok)
	require.Equal(t, "total", assign.Target.Value)
	call, ok := assign.Value.(*ast.CallExpr)
	require.True(t, ok)
	require.Equal(t, "add", call.Function.Value)
	require.Len(t, call.Arguments, 2)
}

func TestParse_MissingSemicolonRecovers(t *testing.T) {
	src := `fn main() {
		let x = 1
		let y = 2;
	}`
	_, r := parse(t, src)
	require.True(t, r.Failed())
}

func TestParse_OperatorPrecedence(t *testing.T) {
	src := `fn main() { let x = 1 + 2 * 3 == 7 && true; }`
	prog, r := parse(t, src)
	require.False(t, r.Failed(), "unexpected errors: %v", r.Errors())

	fn := prog.Declarations[0].(*ast.FnDecl)
	let := fn.Body.Statements[0].(*ast.LetStmt)
	and, ok := let.Value.(*ast.InfixExpr)
	require.True(t, ok)
	require.Equal(t, "&&", and.Operator)
	eq, ok := and.Left.(*ast.InfixExpr)
	require.True(t, ok)
	require.Equal(t, "==", eq.Operator)
}
