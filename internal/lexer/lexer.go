// Package lexer implements a single-pass, no-backtracking lexer for Orus
// source text.
//
// Design principles:
//   - ASCII-only input
//   - single pass, no backtracking
//   - // line comments and /* */ block comments are discarded, not tokenized
//   - string literals ("...") keep escape sequences verbatim; decoding
//     happens in the parser
package lexer

import (
	"github.com/jordyorel/orus-lang-sub001/internal/token"
)

// Lexer holds the state for a single-pass tokenization run.
type Lexer struct {
	filename string
	input    []byte

	// pos is the index into input of the next byte to be loaded into ch.
	// After advance(), ch == input[pos-1] and pos points one past it.
	pos  int
	line int // 1-based current line number
	col  int // 1-based current column number

	ch byte // current character; 0 when past end
}

// New creates a new Lexer for the given filename and input string.
func New(filename, input string) *Lexer {
	l := &Lexer{
		filename: filename,
		input:    []byte(input),
		line:     1,
		col:      0,
	}
	l.advance() // prime l.ch with the first byte
	return l
}

// advance moves to the next byte in the input, updating line/column tracking.
// When the end of input is reached, ch is set to 0.
func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	if l.pos >= len(l.input) {
		l.ch = 0
		return
	}
	l.ch = l.input[l.pos]
	l.pos++
}

// peek returns the byte after the current character without consuming it.
// Returns 0 if at or past end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// currentPos returns a token.Position capturing the lexer's state right now.
// Call this before consuming the first character of a token.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		File:   l.filename,
		Line:   l.line,
		Column: l.col,
		Offset: l.pos - 1,
	}
}

func makeToken(typ token.Type, literal string, pos token.Position) token.Token {
	return token.Token{Type: typ, Literal: literal, Pos: pos}
}

// skipWhitespaceAndComments consumes spaces, tabs, newlines, and // and /* */
// comments, leaving l.ch on the first byte of the next real token. It
// returns false if a block comment runs off the end of input unterminated.
func (l *Lexer) skipWhitespaceAndComments() bool {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.advance()
		case l.ch == '/' && l.peek() == '/':
			l.advance()
			l.advance()
			for l.ch != '\n' && l.ch != 0 {
				l.advance()
			}
		case l.ch == '/' && l.peek() == '*':
			l.advance()
			l.advance()
			closed := false
			for l.ch != 0 {
				if l.ch == '*' && l.peek() == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return false
			}
		default:
			return true
		}
	}
}

// NextToken scans and returns the next token from the input.
// After EOF is reached, subsequent calls continue returning EOF tokens.
func (l *Lexer) NextToken() token.Token {
	if !l.skipWhitespaceAndComments() {
		pos := l.currentPos()
		return makeToken(token.ILLEGAL, "unterminated block comment", pos)
	}

	pos := l.currentPos()
	ch := l.ch

	if ch == 0 {
		return makeToken(token.EOF, "", pos)
	}

	l.advance() // consume ch; from here on, l.ch is the character AFTER ch

	switch {
	case isIdentStart(ch):
		lit := l.readIdentFromFirst(ch)
		typ := token.LookupIdent(lit)
		return makeToken(typ, lit, pos)

	case isDigit(ch):
		typ, lit := l.readNumberFromFirst(ch)
		return makeToken(typ, lit, pos)

	case ch == '"':
		lit, ok := l.readStringBody()
		if !ok {
			return makeToken(token.ILLEGAL, lit, pos)
		}
		return makeToken(token.STRING, lit, pos)

	case ch == '+':
		return makeToken(token.PLUS, "+", pos)

	case ch == '-':
		if l.ch == '>' {
			l.advance()
			return makeToken(token.ARROW, "->", pos)
		}
		return makeToken(token.MINUS, "-", pos)

	case ch == '*':
		return makeToken(token.STAR, "*", pos)

	case ch == '/':
		return makeToken(token.SLASH, "/", pos)

	case ch == '%':
		return makeToken(token.PERCENT, "%", pos)

	case ch == '!':
		if l.ch == '=' {
			l.advance()
			return makeToken(token.NEQ, "!=", pos)
		}
		return makeToken(token.BANG, "!", pos)

	case ch == '=':
		if l.ch == '=' {
			l.advance()
			return makeToken(token.EQ, "==", pos)
		}
		return makeToken(token.ASSIGN, "=", pos)

	case ch == '<':
		if l.ch == '=' {
			l.advance()
			return makeToken(token.LTE, "<=", pos)
		}
		return makeToken(token.LT, "<", pos)

	case ch == '>':
		if l.ch == '=' {
			l.advance()
			return makeToken(token.GTE, ">=", pos)
		}
		return makeToken(token.GT, ">", pos)

	case ch == '&':
		if l.ch == '&' {
			l.advance()
			return makeToken(token.AND, "&&", pos)
		}
		return makeToken(token.ILLEGAL, "&", pos)

	case ch == '|':
		if l.ch == '|' {
			l.advance()
			return makeToken(token.OR, "||", pos)
		}
		return makeToken(token.ILLEGAL, "|", pos)

	case ch == '.':
		if l.ch == '.' {
			l.advance()
			return makeToken(token.DOTDOT, "..", pos)
		}
		return makeToken(token.DOT, ".", pos)

	case ch == ':':
		return makeToken(token.COLON, ":", pos)
	case ch == '@':
		return makeToken(token.AT, "@", pos)
	case ch == '(':
		return makeToken(token.LPAREN, "(", pos)
	case ch == ')':
		return makeToken(token.RPAREN, ")", pos)
	case ch == '[':
		return makeToken(token.LBRACKET, "[", pos)
	case ch == ']':
		return makeToken(token.RBRACKET, "]", pos)
	case ch == '{':
		return makeToken(token.LBRACE, "{", pos)
	case ch == '}':
		return makeToken(token.RBRACE, "}", pos)
	case ch == ',':
		return makeToken(token.COMMA, ",", pos)
	case ch == ';':
		return makeToken(token.SEMICOLON, ";", pos)
	}

	return makeToken(token.ILLEGAL, string([]byte{ch}), pos)
}

// Tokenize returns all tokens (including the final EOF) produced by repeated
// calls to NextToken.
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF || tok.Type == token.ILLEGAL {
			if tok.Type == token.ILLEGAL {
				toks = append(toks, makeToken(token.EOF, "", tok.Pos))
			}
			break
		}
	}
	return toks
}

// ---------------------------------------------------------------------------
// Internal readers — each assumes the first character has already been
// consumed by the advance() call inside NextToken.
// ---------------------------------------------------------------------------

func (l *Lexer) readIdentFromFirst(first byte) string {
	buf := make([]byte, 1, 16)
	buf[0] = first
	for isIdentContinue(l.ch) {
		buf = append(buf, l.ch)
		l.advance()
	}
	return string(buf)
}

// readNumberFromFirst parses an integer or float literal given the
// already-consumed first digit `first`.
//
//   - digits "." digits  →  FLOAT  (with optional exponent)
//   - digits             →  INT
func (l *Lexer) readNumberFromFirst(first byte) (token.Type, string) {
	buf := make([]byte, 1, 24)
	buf[0] = first

	for isDigit(l.ch) {
		buf = append(buf, l.ch)
		l.advance()
	}

	if l.ch == '.' && isDigit(l.peek()) {
		buf = append(buf, '.')
		l.advance()
		for isDigit(l.ch) {
			buf = append(buf, l.ch)
			l.advance()
		}
		if l.ch == 'e' || l.ch == 'E' {
			buf = append(buf, l.ch)
			l.advance()
			if l.ch == '+' || l.ch == '-' {
				buf = append(buf, l.ch)
				l.advance()
			}
			for isDigit(l.ch) {
				buf = append(buf, l.ch)
				l.advance()
			}
		}
		return token.FLOAT, string(buf)
	}

	return token.INT, string(buf)
}

// readStringBody reads the content of a string literal after the opening '"'
// has been consumed. It returns the full literal — including both quote
// characters — and a bool that is false when the string was unterminated.
// Escape sequences are preserved verbatim; no decoding happens here.
func (l *Lexer) readStringBody() (string, bool) {
	buf := make([]byte, 1, 32)
	buf[0] = '"'
	for {
		switch l.ch {
		case 0, '\n':
			return string(buf), false
		case '\\':
			buf = append(buf, '\\')
			l.advance()
			if l.ch == 0 {
				return string(buf), false
			}
			buf = append(buf, l.ch)
			l.advance()
		case '"':
			buf = append(buf, '"')
			l.advance()
			return string(buf), true
		default:
			buf = append(buf, l.ch)
			l.advance()
		}
	}
}

// ---------------------------------------------------------------------------
// Character classification helpers
// ---------------------------------------------------------------------------

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
