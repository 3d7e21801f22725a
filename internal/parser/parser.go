// Package parser implements a recursive-descent / Pratt parser producing the
// typed-AST input the compiler (C5) expects, over the grammar subset
// documented as the front end's supported surface syntax.
//
// Design overview:
//
//   - Declarations are parsed with straightforward recursive descent.
//   - Expressions are parsed with a Pratt (top-down operator precedence) table.
//   - Errors are collected rather than aborting; the parser recovers by
//     skipping to the next statement boundary so later declarations can
//     still be parsed and reported on in the same pass.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jordyorel/orus-lang-sub001/internal/ast"
	"github.com/jordyorel/orus-lang-sub001/internal/diag"
	"github.com/jordyorel/orus-lang-sub001/internal/lexer"
	"github.com/jordyorel/orus-lang-sub001/internal/token"
)

// ---------------------------------------------------------------------------
// Precedence levels (Pratt)
// ---------------------------------------------------------------------------

type precedence int

const (
	precLowest precedence = iota
	precOr                // ||
	precAnd               // &&
	precCmp               // == != < > <= >=
	precAdd               // + -
	precMul               // * / %
	precPrefix            // -x !x
	precCall              // f(...)
)

var infixPrecedence = map[token.Type]precedence{
	token.OR:      precOr,
	token.AND:     precAnd,
	token.EQ:      precCmp,
	token.NEQ:     precCmp,
	token.LT:      precCmp,
	token.GT:      precCmp,
	token.LTE:     precCmp,
	token.GTE:     precCmp,
	token.PLUS:    precAdd,
	token.MINUS:   precAdd,
	token.STAR:    precMul,
	token.SLASH:   precMul,
	token.PERCENT: precMul,
	token.LPAREN:  precCall,
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parser holds the mutable state for a single parse run.
type Parser struct {
	lex      *lexer.Lexer
	reporter *diag.Reporter
	cur      token.Token
	peek     token.Token
}

func newParser(filename, source string, r *diag.Reporter) *Parser {
	p := &Parser{
		lex:      lexer.New(filename, source),
		reporter: r,
	}
	p.advance()
	p.advance()
	return p
}

// Parse is the public entry point. It tokenizes source, runs the parser, and
// returns the program AST; any diagnostics are recorded in r.
func Parse(filename, source string, r *diag.Reporter) *ast.Program {
	p := newParser(filename, source, r)
	return p.parseProgram()
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) curIs(t token.Type) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peek.Type == t }

func (p *Parser) expect(t token.Type) token.Token {
	if !p.curIs(t) {
		p.errorf("expected %s, got %s (%q)", t, p.cur.Type, p.cur.Literal)
		return p.cur
	}
	tok := p.cur
	p.advance()
	return tok
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.reporter.Add(diag.Parse, p.cur.Pos, format, args...)
}

// syncToStatement skips tokens until a semicolon, a closing brace, or EOF, so
// parsing can resume after an error without a cascade of spurious diagnostics.
func (p *Parser) syncToStatement() {
	for !p.curIs(token.EOF) && !p.curIs(token.RBRACE) {
		if p.curIs(token.SEMICOLON) {
			p.advance()
			return
		}
		p.advance()
	}
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		before := p.cur
		decl := p.parseDeclaration()
		if decl != nil {
			prog.Declarations = append(prog.Declarations, decl)
		}
		if p.cur == before {
			// Parser made no progress; force advancement to avoid looping.
			p.advance()
		}
	}
	return prog
}

func (p *Parser) parseDeclaration() ast.Declaration {
	switch {
	case p.curIs(token.AT):
		return p.parseFnDecl()
	case p.curIs(token.PUB), p.curIs(token.FN):
		return p.parseFnDecl()
	case p.curIs(token.LET), p.curIs(token.MUT):
		s := p.parseLetStmt()
		return s
	default:
		p.errorf("expected a declaration, got %s", p.cur.Type)
		p.syncToStatement()
		return nil
	}
}

// parseFnDecl parses [@[core("symbol")]] [pub] fn name(params) [-> type] block.
func (p *Parser) parseFnDecl() *ast.FnDecl {
	fn := &ast.FnDecl{}

	if p.curIs(token.AT) {
		fn.Token = p.cur
		p.advance()
		p.expect(token.LBRACKET)
		p.expect(token.CORE)
		p.expect(token.LPAREN)
		sym := p.expect(token.STRING)
		fn.CoreSymbol = decodeString(sym.Literal)
		p.expect(token.RPAREN)
		p.expect(token.RBRACKET)
	}

	if p.curIs(token.PUB) {
		fn.Public = true
		p.advance()
	}

	fnTok := p.expect(token.FN)
	if fn.Token.Type == 0 && fn.Token.Literal == "" {
		fn.Token = fnTok
	}

	nameTok := p.expect(token.IDENT)
	fn.Name = nameTok.Literal

	p.expect(token.LPAREN)
	fn.Params = p.parseParams()
	p.expect(token.RPAREN)

	if p.curIs(token.ARROW) {
		p.advance()
		fn.ReturnType = p.parseTypeName()
	}

	if fn.CoreSymbol != "" && p.curIs(token.SEMICOLON) {
		// Intrinsic declarations may omit a body entirely.
		p.advance()
		fn.Body = &ast.Block{}
		return fn
	}

	fn.Body = p.parseBlock()
	return fn
}

func (p *Parser) parseParams() []ast.Param {
	var params []ast.Param
	if p.curIs(token.RPAREN) {
		return params
	}
	for {
		nameTok := p.expect(token.IDENT)
		p.expect(token.COLON)
		typ := p.parseTypeName()
		params = append(params, ast.Param{Token: nameTok, Name: nameTok.Literal, Type: typ})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return params
}

func (p *Parser) parseTypeName() string {
	if !p.curIs(token.IDENT) {
		p.errorf("expected a type name, got %s", p.cur.Type)
		return ""
	}
	name := p.cur.Literal
	p.advance()
	return name
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseBlock() *ast.Block {
	b := &ast.Block{Token: p.expect(token.LBRACE)}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		before := p.cur
		stmt := p.parseStatement()
		if stmt != nil {
			b.Statements = append(b.Statements, stmt)
		}
		if p.cur == before {
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	return b
}

func (p *Parser) parseStatement() ast.Statement {
	switch {
	case p.curIs(token.LET), p.curIs(token.MUT):
		return p.parseLetStmt()
	case p.curIs(token.FOR):
		return p.parseForStmt()
	case p.curIs(token.IF):
		return p.parseIfStmt()
	case p.curIs(token.BREAK):
		return p.parseBreakStmt()
	case p.curIs(token.CONTINUE):
		return p.parseContinueStmt()
	case p.curIs(token.RETURN):
		return p.parseReturnStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseLetStmt() *ast.LetStmt {
	s := &ast.LetStmt{Token: p.cur, Mutable: p.curIs(token.MUT)}
	p.advance() // consume 'let'/'mut'

	nameTok := p.expect(token.IDENT)
	s.Name = &ast.Ident{Token: nameTok, Value: nameTok.Literal}

	if p.curIs(token.COLON) {
		p.advance()
		s.Type = p.parseTypeName()
	}

	p.expect(token.ASSIGN)
	s.Value = p.parseExpr(precLowest)
	p.expect(token.SEMICOLON)
	return s
}

// parseForStmt parses "for" IDENT "in" expr ".." expr [ ".." expr ] block.
func (p *Parser) parseForStmt() *ast.ForStmt {
	s := &ast.ForStmt{Token: p.expect(token.FOR)}

	nameTok := p.expect(token.IDENT)
	s.Binding = &ast.Ident{Token: nameTok, Value: nameTok.Literal}

	p.expect(token.IN)
	s.Start = p.parseExpr(precCmp)
	p.expect(token.DOTDOT)
	s.End = p.parseExpr(precCmp)
	if p.curIs(token.DOTDOT) {
		p.advance()
		s.Step = p.parseExpr(precCmp)
	}

	s.Body = p.parseBlock()
	return s
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	s := &ast.IfStmt{Token: p.expect(token.IF)}
	s.Condition = p.parseExpr(precLowest)
	s.Consequence = p.parseBlock()
	if p.curIs(token.ELSE) {
		p.advance()
		if p.curIs(token.IF) {
			s.Alternative = p.parseIfStmt()
		} else {
			s.Alternative = p.parseBlock()
		}
	}
	return s
}

func (p *Parser) parseBreakStmt() *ast.BreakStmt {
	s := &ast.BreakStmt{Token: p.expect(token.BREAK)}
	p.expect(token.SEMICOLON)
	return s
}

func (p *Parser) parseContinueStmt() *ast.ContinueStmt {
	s := &ast.ContinueStmt{Token: p.expect(token.CONTINUE)}
	p.expect(token.SEMICOLON)
	return s
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	s := &ast.ReturnStmt{Token: p.expect(token.RETURN)}
	if !p.curIs(token.SEMICOLON) {
		s.Value = p.parseExpr(precLowest)
	}
	p.expect(token.SEMICOLON)
	return s
}

func (p *Parser) parseExprStmt() *ast.ExprStmt {
	tok := p.cur
	expr := p.parseExpr(precLowest)
	p.expect(token.SEMICOLON)
	return &ast.ExprStmt{Token: tok, Expression: expr}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *Parser) parseExpr(min precedence) ast.Expression {
	if p.curIs(token.IDENT) && p.peekIs(token.ASSIGN) {
		return p.parseAssignExpr()
	}

	left := p.parsePrefix()
	for !p.curIs(token.SEMICOLON) {
		prec, ok := infixPrecedence[p.cur.Type]
		if !ok || prec <= min {
			break
		}
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parseAssignExpr() *ast.AssignExpr {
	nameTok := p.cur
	target := &ast.Ident{Token: nameTok, Value: nameTok.Literal}
	p.advance()
	tok := p.expect(token.ASSIGN)
	value := p.parseExpr(precLowest)
	return &ast.AssignExpr{Token: tok, Target: target, Value: value}
}

func (p *Parser) parsePrefix() ast.Expression {
	switch p.cur.Type {
	case token.MINUS, token.BANG:
		tok := p.cur
		op := p.cur.Literal
		p.advance()
		right := p.parseExpr(precPrefix)
		return &ast.PrefixExpr{Token: tok, Operator: op, Right: right}
	case token.INT:
		return p.parseIntLiteral()
	case token.FLOAT:
		return p.parseFloatLiteral()
	case token.TRUE, token.FALSE:
		return p.parseBoolLiteral()
	case token.STRING:
		return p.parseStringLiteral()
	case token.RESULT:
		return p.parseResultExpr()
	case token.LPAREN:
		p.advance()
		expr := p.parseExpr(precLowest)
		p.expect(token.RPAREN)
		return expr
	case token.IDENT:
		return p.parseIdentOrCall()
	default:
		p.errorf("unexpected token %s (%q) in expression", p.cur.Type, p.cur.Literal)
		tok := p.cur
		p.advance()
		return &ast.Ident{Token: tok, Value: tok.Literal}
	}
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	tok := p.cur
	prec := infixPrecedence[tok.Type]
	if tok.Type == token.LPAREN {
		// Only reachable for call-like postfix parsing of bare idents handled
		// in parseIdentOrCall; a stray '(' here is a malformed expression.
		p.errorf("unexpected %q", tok.Literal)
		p.advance()
		return left
	}
	op := tok.Literal
	p.advance()
	right := p.parseExpr(prec)
	return &ast.InfixExpr{Token: tok, Left: left, Operator: op, Right: right}
}

func (p *Parser) parseIdentOrCall() ast.Expression {
	tok := p.cur
	ident := &ast.Ident{Token: tok, Value: tok.Literal}
	p.advance()
	if !p.curIs(token.LPAREN) {
		return ident
	}
	call := &ast.CallExpr{Token: p.cur, Function: ident}
	p.advance() // consume '('
	if !p.curIs(token.RPAREN) {
		call.Arguments = append(call.Arguments, p.parseExpr(precLowest))
		for p.curIs(token.COMMA) {
			p.advance()
			call.Arguments = append(call.Arguments, p.parseExpr(precLowest))
		}
	}
	p.expect(token.RPAREN)
	return call
}

func (p *Parser) parseResultExpr() ast.Expression {
	tok := p.expect(token.RESULT)
	p.expect(token.DOT)
	variantTok := p.expect(token.IDENT)
	if variantTok.Literal != "Ok" && variantTok.Literal != "Err" {
		p.reporter.Add(diag.Parse, variantTok.Pos, "expected Ok or Err, got %q", variantTok.Literal)
	}
	p.expect(token.LPAREN)
	value := p.parseExpr(precLowest)
	p.expect(token.RPAREN)
	return &ast.ResultExpr{Token: tok, Variant: variantTok.Literal, Value: value}
}

func (p *Parser) parseIntLiteral() ast.Expression {
	tok := p.cur
	v, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.reporter.Add(diag.Parse, tok.Pos, "invalid integer literal %q: %v", tok.Literal, err)
	}
	p.advance()
	return &ast.IntLiteral{Token: tok, Value: v}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	tok := p.cur
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.reporter.Add(diag.Parse, tok.Pos, "invalid float literal %q: %v", tok.Literal, err)
	}
	p.advance()
	return &ast.FloatLiteral{Token: tok, Value: v}
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.BoolLiteral{Token: tok, Value: tok.Type == token.TRUE}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.StringLiteral{Token: tok, Value: decodeString(tok.Literal)}
}

// decodeString strips the surrounding quotes from a lexed STRING literal and
// resolves backslash escape sequences.
func decodeString(raw string) string {
	if len(raw) < 2 {
		return ""
	}
	body := raw[1 : len(raw)-1]
	var out strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' || i+1 >= len(body) {
			out.WriteByte(body[i])
			continue
		}
		i++
		switch body[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case '"':
			out.WriteByte('"')
		case '\\':
			out.WriteByte('\\')
		default:
			out.WriteString(fmt.Sprintf("\\%c", body[i]))
		}
	}
	return out.String()
}
