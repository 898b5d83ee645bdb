package parser

import (
	"io"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/novalang/nova/novaerr"
)

// traceEnabled gates the per-token log.Printf calls below, toggled by
// SetTrace from the driver's --log-level=trace flag. Off by default so a
// normal run produces no diagnostic output.
var traceEnabled bool

// SetTrace turns the lexer's per-token and the parser's per-statement trace
// logging on or off.
func SetTrace(enabled bool) { traceEnabled = enabled }

// Lexer turns a UTF-8 source string into Token values, one at a time,
// using a rune-aware scanner: byte offset plus a line/column cursor, with
// mark/restore for one-rune lookahead.
type Lexer struct {
	src    string
	pos    int
	line   int
	column int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, column: 1}
}

type runeState struct {
	pos    int
	line   int
	column int
}

func (lx *Lexer) mark() runeState {
	return runeState{pos: lx.pos, line: lx.line, column: lx.column}
}

func (lx *Lexer) restore(s runeState) {
	lx.pos, lx.line, lx.column = s.pos, s.line, s.column
}

func (lx *Lexer) readRune() (rune, runeState, error) {
	if lx.pos >= len(lx.src) {
		return 0, lx.mark(), io.EOF
	}
	state := lx.mark()
	r, w := utf8.DecodeRuneInString(lx.src[lx.pos:])
	if r == utf8.RuneError && w == 1 {
		return 0, state, novaerr.Lexerf(lx.posFromState(state), "invalid UTF-8 encoding")
	}
	lx.pos += w
	if r == '\n' {
		lx.line++
		lx.column = 1
	} else {
		lx.column++
	}
	return r, state, nil
}

func (lx *Lexer) unread(s runeState) { lx.restore(s) }

func (lx *Lexer) posFromState(s runeState) Position {
	return Position{Line: s.line, Column: s.column, Offset: s.pos}
}

func (lx *Lexer) skipWhitespaceAndComments() error {
	for {
		r, state, err := lx.readRune()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch {
		case unicode.IsSpace(r):
			continue
		case r == '/':
			next, nextState, err := lx.readRune()
			if err == io.EOF {
				lx.unread(state)
				return nil
			}
			if err != nil {
				return err
			}
			if next == '/' {
				if err := lx.skipLineComment(); err != nil {
					if err == io.EOF {
						return nil
					}
					return err
				}
				continue
			}
			lx.unread(nextState)
			lx.unread(state)
			return nil
		default:
			lx.unread(state)
			return nil
		}
	}
}

func (lx *Lexer) skipLineComment() error {
	for {
		r, _, err := lx.readRune()
		if err != nil {
			return err
		}
		if r == '\n' {
			return nil
		}
	}
}

// Next scans and returns the next token in the stream. On reaching the end
// of input it returns an EOF token forever after.
func (lx *Lexer) Next() (Token, error) {
	tok, err := lx.next()
	if err == nil && traceEnabled {
		log.Printf("lexer: %s %q at %s", tok.Kind, tok.Lexeme, tok.Pos)
	}
	return tok, err
}

func (lx *Lexer) next() (Token, error) {
	if err := lx.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}

	start := lx.mark()
	r, _, err := lx.readRune()
	if err == io.EOF {
		return Token{Kind: EOF, Pos: lx.posFromState(start)}, nil
	}
	if err != nil {
		return Token{}, err
	}

	switch {
	case isIdentStart(r):
		lexeme, err := lx.scanIdentifier(r)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: lookupIdent(lexeme), Lexeme: lexeme, Pos: lx.posFromState(start)}, nil
	case unicode.IsDigit(r):
		lexeme, err := lx.scanNumber(r)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: Number, Lexeme: lexeme, Pos: lx.posFromState(start)}, nil
	case r == '"':
		str, err := lx.scanString(start)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: String, Str: str, Pos: lx.posFromState(start)}, nil
	}

	var tok Token
	switch r {
	case '(':
		tok = lx.simple(LParen, start)
	case ')':
		tok = lx.simple(RParen, start)
	case '{':
		tok = lx.simple(LBrace, start)
	case '}':
		tok = lx.simple(RBrace, start)
	case '[':
		tok = lx.simple(LBracket, start)
	case ']':
		tok = lx.simple(RBracket, start)
	case ',':
		tok = lx.simple(Comma, start)
	case ';':
		tok = lx.simple(Semi, start)
	case '.':
		tok = lx.simple(Dot, start)
	case '+':
		tok = lx.simple(Plus, start)
	case '-':
		tok = lx.simple(Minus, start)
	case '*':
		tok = lx.simple(Star, start)
	case '/':
		tok = lx.simple(Slash, start)
	case '%':
		tok = lx.simple(Percent, start)
	case '=':
		if lx.match('=') {
			tok = lx.simple(EqEq, start)
		} else {
			tok = lx.simple(Assign, start)
		}
	case '!':
		if lx.match('=') {
			tok = lx.simple(NotEq, start)
		} else {
			tok = lx.simple(Bang, start)
		}
	case '<':
		if lx.match('=') {
			tok = lx.simple(LtEq, start)
		} else {
			tok = lx.simple(Lt, start)
		}
	case '>':
		if lx.match('=') {
			tok = lx.simple(GtEq, start)
		} else {
			tok = lx.simple(Gt, start)
		}
	default:
		return Token{Kind: Illegal, Pos: lx.posFromState(start)},
			novaerr.Lexerf(lx.posFromState(start), "unexpected character %q", r)
	}
	return tok, nil
}

func (lx *Lexer) simple(kind TokenKind, start runeState) Token {
	return Token{Kind: kind, Pos: lx.posFromState(start)}
}

func (lx *Lexer) match(expected rune) bool {
	state := lx.mark()
	r, _, err := lx.readRune()
	if err != nil || r != expected {
		lx.unread(state)
		return false
	}
	return true
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentPart(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

func (lx *Lexer) scanIdentifier(initial rune) (string, error) {
	var b strings.Builder
	b.WriteRune(initial)
	for {
		r, state, err := lx.readRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if !isIdentPart(r) {
			lx.unread(state)
			break
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// scanNumber scans one or more digits, optionally with a
// single '.' and further digits. A unary '-' is a separate token.
func (lx *Lexer) scanNumber(initial rune) (string, error) {
	var b strings.Builder
	b.WriteRune(initial)
	seenDot := false
	for {
		r, state, err := lx.readRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '.' && !seenDot {
			// Don't consume a '.' that belongs to a following method call
			// on an integer-valued literal, e.g. `3.len()` is invalid Nova
			// anyway, but `for x in 0` followed by `.` would be ambiguous;
			// a digit must follow for this to be a fractional part.
			peekState := lx.mark()
			next, nextState, err2 := lx.readRune()
			lx.unread(peekState)
			if err2 == nil && unicode.IsDigit(next) {
				seenDot = true
				b.WriteRune(r)
				_ = nextState
				continue
			}
			lx.unread(state)
			break
		}
		lx.unread(state)
		break
	}
	return b.String(), nil
}

// scanString scans a double-quoted string literal with escapes
// \n \t \\ \". An unterminated string is a lexical error.
func (lx *Lexer) scanString(start runeState) (string, error) {
	var b strings.Builder
	for {
		r, _, err := lx.readRune()
		if err == io.EOF {
			return "", novaerr.Lexerf(lx.posFromState(start), "unterminated string literal")
		}
		if err != nil {
			return "", err
		}
		if r == '"' {
			return b.String(), nil
		}
		if r == '\\' {
			esc, escState, err := lx.readRune()
			if err == io.EOF {
				return "", novaerr.Lexerf(lx.posFromState(start), "unterminated string literal")
			}
			if err != nil {
				return "", err
			}
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case '\\':
				b.WriteRune('\\')
			case '"':
				b.WriteRune('"')
			default:
				return "", novaerr.Lexerf(lx.posFromState(escState), "unknown escape sequence \\%c", esc)
			}
			continue
		}
		b.WriteRune(r)
	}
}
