package types

import (
	"strconv"

	"github.com/jordyorel/orus-lang-sub001/internal/ast"
	"github.com/jordyorel/orus-lang-sub001/internal/diag"
	"github.com/jordyorel/orus-lang-sub001/internal/token"
)

// Checker is the minimal type checker that stands in for the spec's "typed
// AST taken as given" external oracle: it assigns a Type to every expression
// node, rejects undeclared identifiers, and enforces the grammar subset's
// literal-step loop rule. It is not a full inference engine: a let binding
// without a declared type takes the type of its initializer, and nothing
// else is inferred.
type Checker struct {
	reporter *diag.Reporter
	types    map[ast.Expression]Type
	scopes   []map[string]Type
	fns      map[string]*FnType
}

// NewChecker returns a Checker reporting into r.
func NewChecker(r *diag.Reporter) *Checker {
	return &Checker{
		reporter: r,
		types:    make(map[ast.Expression]Type),
		fns:      make(map[string]*FnType),
	}
}

// TypeOf returns the Type previously assigned to expr, or nil if expr was
// never visited (e.g. the program failed to check).
func (c *Checker) TypeOf(expr ast.Expression) Type {
	return c.types[expr]
}

func (c *Checker) pushScope() { c.scopes = append(c.scopes, map[string]Type{}) }
func (c *Checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) declare(name string, t Type) {
	c.scopes[len(c.scopes)-1][name] = t
}

func (c *Checker) lookup(name string) (Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Check walks prog, registering function signatures first (so forward calls
// resolve), then checking every function body.
func (c *Checker) Check(prog *ast.Program) {
	for _, decl := range prog.Declarations {
		if fn, ok := decl.(*ast.FnDecl); ok {
			c.registerSignature(fn)
		}
	}
	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case *ast.FnDecl:
			c.checkFn(d)
		case *ast.LetStmt:
			c.pushScope()
			c.checkLet(d)
			c.popScope()
		}
	}
}

func (c *Checker) registerSignature(fn *ast.FnDecl) {
	params := make([]Type, len(fn.Params))
	for i, p := range fn.Params {
		t, ok := FromName(p.Type)
		if !ok {
			c.reporter.Add(diag.Type, fn.Token.Pos, "unknown parameter type %q in %s", p.Type, fn.Name)
			t = Void
		}
		params[i] = t
	}
	var ret Type
	if fn.ReturnType != "" {
		t, ok := FromName(fn.ReturnType)
		if !ok {
			c.reporter.Add(diag.Type, fn.Token.Pos, "unknown return type %q in %s", fn.ReturnType, fn.Name)
			t = Void
		}
		ret = t
	}
	c.fns[fn.Name] = &FnType{Params: params, Return: ret}
}

func (c *Checker) checkFn(fn *ast.FnDecl) {
	c.pushScope()
	defer c.popScope()

	sig := c.fns[fn.Name]
	for i, p := range fn.Params {
		c.declare(p.Name, sig.Params[i])
	}
	if fn.CoreSymbol != "" {
		// Intrinsic-backed declarations have no compiled body to check.
		return
	}
	c.checkBlock(fn.Body)
}

func (c *Checker) checkBlock(b *ast.Block) {
	c.pushScope()
	defer c.popScope()
	for _, stmt := range b.Statements {
		c.checkStmt(stmt)
	}
}

func (c *Checker) checkStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		c.checkLet(s)
	case *ast.ForStmt:
		c.checkFor(s)
	case *ast.IfStmt:
		c.checkIf(s)
	case *ast.BreakStmt, *ast.ContinueStmt:
		// No type obligations.
	case *ast.ReturnStmt:
		if s.Value != nil {
			c.checkExpr(s.Value)
		}
	case *ast.ExprStmt:
		c.checkExpr(s.Expression)
	}
}

func (c *Checker) checkLet(s *ast.LetStmt) {
	valType := c.checkExpr(s.Value)
	declared := valType
	if s.Type != "" {
		t, ok := FromName(s.Type)
		if !ok {
			c.reporter.Add(diag.Type, s.Token.Pos, "unknown type %q in let binding %s", s.Type, s.Name.Value)
			t = valType
		} else if valType != nil && !t.Equals(valType) {
			c.reporter.Add(diag.Type, s.Token.Pos, "cannot assign %s to %s binding %s", valType, t, s.Name.Value)
		}
		declared = t
	}
	c.declare(s.Name.Value, declared)
}

// checkFor enforces the grammar's literal-step rule: a for loop's step
// expression (when present) must be a compile-time integer literal so the
// compiler can resolve JUMP_IF_NOT_I32_TYPED's step-sign discriminator
// without a dynamic check.
func (c *Checker) checkFor(s *ast.ForStmt) {
	c.checkExpr(s.Start)
	c.checkExpr(s.End)
	if s.Step != nil {
		if _, ok := s.Step.(*ast.IntLiteral); !ok {
			c.reporter.Add(diag.Compile, s.Token.Pos, "for loop step must be an integer literal")
		} else {
			c.checkExpr(s.Step)
		}
	}

	c.pushScope()
	c.declare(s.Binding.Value, I32)
	for _, stmt := range s.Body.Statements {
		c.checkStmt(stmt)
	}
	c.popScope()
}

func (c *Checker) checkIf(s *ast.IfStmt) {
	condType := c.checkExpr(s.Condition)
	if condType != nil && condType.Kind() != KindBool {
		c.reporter.Add(diag.Type, s.Token.Pos, "if condition must be bool, got %s", condType)
	}
	c.checkBlock(s.Consequence)
	switch alt := s.Alternative.(type) {
	case *ast.Block:
		c.checkBlock(alt)
	case *ast.IfStmt:
		c.checkIf(alt)
	}
}

func (c *Checker) checkExpr(expr ast.Expression) Type {
	var result Type
	switch e := expr.(type) {
	case *ast.IntLiteral:
		result = I32
	case *ast.FloatLiteral:
		result = F64
	case *ast.BoolLiteral:
		result = Bool
	case *ast.StringLiteral:
		result = String
	case *ast.Ident:
		if t, ok := c.lookup(e.Value); ok {
			result = t
		} else {
			c.reporter.Add(diag.Name, e.Token.Pos, "undeclared identifier %q", e.Value)
			result = Void
		}
	case *ast.PrefixExpr:
		result = c.checkPrefix(e)
	case *ast.InfixExpr:
		result = c.checkInfix(e)
	case *ast.AssignExpr:
		targetType, ok := c.lookup(e.Target.Value)
		if !ok {
			c.reporter.Add(diag.Name, e.Token.Pos, "undeclared identifier %q", e.Target.Value)
		}
		valType := c.checkExpr(e.Value)
		if ok && valType != nil && !targetType.Equals(valType) {
			c.reporter.Add(diag.Type, e.Token.Pos, "cannot assign %s to %s variable %s", valType, targetType, e.Target.Value)
		}
		result = targetType
	case *ast.CallExpr:
		result = c.checkCall(e)
	case *ast.ResultExpr:
		payload := c.checkExpr(e.Value)
		result = Result(payload)
	default:
		result = Void
	}
	c.types[expr] = result
	return result
}

func (c *Checker) checkPrefix(e *ast.PrefixExpr) Type {
	right := c.checkExpr(e.Right)
	switch e.Operator {
	case "!":
		if right != nil && right.Kind() != KindBool {
			c.reporter.Add(diag.Type, e.Token.Pos, "operator ! requires bool, got %s", right)
		}
		return Bool
	case "-":
		if right != nil && !right.Kind().IsNumeric() {
			c.reporter.Add(diag.Type, e.Token.Pos, "operator unary - requires a numeric type, got %s", right)
		}
		return right
	default:
		return Void
	}
}

func (c *Checker) checkInfix(e *ast.InfixExpr) Type {
	left := c.checkExpr(e.Left)
	right := c.checkExpr(e.Right)
	switch e.Operator {
	case "&&", "||":
		if left != nil && left.Kind() != KindBool {
			c.reporter.Add(diag.Type, e.Token.Pos, "operator %s requires bool operands, got %s", e.Operator, left)
		}
		return Bool
	case "==", "!=", "<", ">", "<=", ">=":
		if left != nil && right != nil && !left.Equals(right) {
			c.reporter.Add(diag.Type, e.Token.Pos, "cannot compare %s with %s", left, right)
		}
		return Bool
	case "+", "-", "*", "/", "%":
		if left != nil && !left.Kind().IsNumeric() {
			c.reporter.Add(diag.Type, e.Token.Pos, "operator %s requires numeric operands, got %s", e.Operator, left)
		}
		if left != nil && right != nil && !left.Equals(right) {
			c.reporter.Add(diag.Type, e.Token.Pos, "mismatched operand types %s and %s for %s", left, right, e.Operator)
		}
		return left
	default:
		return Void
	}
}

func (c *Checker) checkCall(e *ast.CallExpr) Type {
	sig, ok := c.fns[e.Function.Value]
	if !ok {
		c.reporter.Add(diag.Name, e.Token.Pos, "call to undeclared function %q", e.Function.Value)
		for _, a := range e.Arguments {
			c.checkExpr(a)
		}
		return Void
	}
	if len(e.Arguments) != len(sig.Params) {
		c.reporter.Add(diag.Type, e.Token.Pos, "%s expects %d arguments, got %d", e.Function.Value, len(sig.Params), len(e.Arguments))
	}
	for i, a := range e.Arguments {
		argType := c.checkExpr(a)
		if i < len(sig.Params) && argType != nil && !argType.Equals(sig.Params[i]) {
			c.reporter.Add(diag.Type, e.Token.Pos, "argument %d of %s: expected %s, got %s", i, e.Function.Value, sig.Params[i], argType)
		}
	}
	return sig.Return
}

// ParseIntLiteral converts a lexed INT literal's text into its int64 value,
// with the same base-10, 64-bit parse the parser applies to INT tokens.
func ParseIntLiteral(tok token.Token) (int64, error) {
	return strconv.ParseInt(tok.Literal, 10, 64)
}
