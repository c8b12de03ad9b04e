package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNewline
	tokenNumber
	tokenString
	tokenIdent
	tokenKeyword
	tokenAssign
	tokenOperator
	tokenLParen
	tokenRParen
	tokenLBrace
	tokenRBrace
	tokenLBracket
	tokenRBracket
	tokenComma
	tokenSemicolon
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of input"
	case tokenNewline:
		return "newline"
	case tokenNumber:
		return "number"
	case tokenString:
		return "string"
	case tokenIdent:
		return "identifier"
	case tokenKeyword:
		return "keyword"
	case tokenAssign:
		return "'<-'"
	case tokenOperator:
		return "operator"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenLBrace:
		return "'{'"
	case tokenRBrace:
		return "'}'"
	case tokenLBracket:
		return "'['"
	case tokenRBracket:
		return "']'"
	case tokenComma:
		return "','"
	case tokenSemicolon:
		return "';'"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

var keywords = map[string]struct{}{
	"energy": {}, "stable": {}, "stabilize": {}, "declare": {}, "fn": {},
	"pure": {}, "unstable": {}, "return": {}, "if": {}, "else": {},
	"while": {}, "for": {}, "in": {}, "print": {}, "inspect": {},
	"query": {}, "invariant": {}, "assert": {}, "remove": {},
	"and": {}, "or": {}, "not": {},
}

type token struct {
	kind   tokenKind
	text   string
	line   int
	column int
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

func (t token) describe() string {
	switch t.kind {
	case tokenEOF, tokenNewline:
		return t.kind.String()
	case tokenString:
		return fmt.Sprintf("string %q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

type lexer struct {
	src    string
	pos    int
	line   int
	column int
	// newlines are insignificant inside () and []
	nesting int
	tokens  []token
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src, line: 1, column: 1}
	for {
		ch, ok := lx.peek()
		if !ok {
			break
		}
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			lx.advance()
		case ch == '#':
			for ch, ok := lx.peek(); ok && ch != '\n'; ch, ok = lx.peek() {
				lx.advance()
			}
		case ch == '\n':
			if lx.nesting == 0 {
				lx.emit(tokenNewline, "\n", lx.line, lx.column)
			}
			lx.advance()
		case unicode.IsDigit(ch):
			if err := lx.readNumber(); err != nil {
				return nil, err
			}
		case ch == '_' || unicode.IsLetter(ch):
			lx.readIdentifier()
		case ch == '"' || ch == '\'':
			if err := lx.readString(ch); err != nil {
				return nil, err
			}
		default:
			if err := lx.readPunctuation(ch); err != nil {
				return nil, err
			}
		}
	}
	lx.emit(tokenEOF, "", lx.line, lx.column)
	return lx.tokens, nil
}

func (lx *lexer) peek() (rune, bool) {
	if lx.pos >= len(lx.src) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
	return r, true
}

func (lx *lexer) peekAt(offset int) (rune, bool) {
	pos := lx.pos
	for ; offset > 0 && pos < len(lx.src); offset-- {
		_, size := utf8.DecodeRuneInString(lx.src[pos:])
		pos += size
	}
	if pos >= len(lx.src) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(lx.src[pos:])
	return r, true
}

func (lx *lexer) advance() {
	r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.pos += size
	if r == '\n' {
		lx.line++
		lx.column = 1
	} else {
		lx.column++
	}
}

func (lx *lexer) emit(kind tokenKind, text string, line, column int) {
	lx.tokens = append(lx.tokens, token{kind: kind, text: text, line: line, column: column})
}

func (lx *lexer) errorf(line, column int, incomplete bool, format string, args ...any) error {
	return &SyntaxError{Line: line, Column: column, Message: fmt.Sprintf(format, args...), Incomplete: incomplete}
}

func (lx *lexer) readNumber() error {
	line, column := lx.line, lx.column
	start := lx.pos
	seenDot := false
	for {
		ch, ok := lx.peek()
		if !ok {
			break
		}
		if ch == '.' && !seenDot {
			next, ok := lx.peekAt(1)
			if !ok || !unicode.IsDigit(next) {
				return lx.errorf(line, column, false, "malformed number %q", lx.src[start:lx.pos]+".")
			}
			seenDot = true
			lx.advance()
			continue
		}
		if !unicode.IsDigit(ch) {
			break
		}
		lx.advance()
	}
	lx.emit(tokenNumber, lx.src[start:lx.pos], line, column)
	return nil
}

func (lx *lexer) readIdentifier() {
	line, column := lx.line, lx.column
	start := lx.pos
	for ch, ok := lx.peek(); ok && (ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)); ch, ok = lx.peek() {
		lx.advance()
	}
	text := lx.src[start:lx.pos]
	kind := tokenIdent
	if _, ok := keywords[text]; ok {
		kind = tokenKeyword
	}
	lx.emit(kind, text, line, column)
}

func (lx *lexer) readString(quote rune) error {
	line, column := lx.line, lx.column
	lx.advance()
	var b strings.Builder
	for {
		ch, ok := lx.peek()
		if !ok {
			return lx.errorf(line, column, true, "unterminated string")
		}
		lx.advance()
		if ch == quote {
			break
		}
		if ch != '\\' {
			b.WriteRune(ch)
			continue
		}
		esc, ok := lx.peek()
		if !ok {
			return lx.errorf(line, column, true, "unterminated string")
		}
		lx.advance()
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\', '"', '\'':
			b.WriteRune(esc)
		default:
			return lx.errorf(lx.line, lx.column-2, false, "unknown escape sequence \\%c", esc)
		}
	}
	lx.emit(tokenString, b.String(), line, column)
	return nil
}

func (lx *lexer) readPunctuation(ch rune) error {
	line, column := lx.line, lx.column
	next, _ := lx.peekAt(1)
	two := string(ch) + string(next)
	switch two {
	case "<-":
		lx.advance()
		lx.advance()
		lx.emit(tokenAssign, two, line, column)
		return nil
	case "==", "!=", "<=", ">=":
		lx.advance()
		lx.advance()
		lx.emit(tokenOperator, two, line, column)
		return nil
	}
	kind := tokenOperator
	switch ch {
	case '+', '-', '*', '/', '%', '<', '>':
	case '(':
		kind = tokenLParen
		lx.nesting++
	case ')':
		kind = tokenRParen
		lx.nesting = max(0, lx.nesting-1)
	case '[':
		kind = tokenLBracket
		lx.nesting++
	case ']':
		kind = tokenRBracket
		lx.nesting = max(0, lx.nesting-1)
	case '{':
		kind = tokenLBrace
	case '}':
		kind = tokenRBrace
	case ',':
		kind = tokenComma
	case ';':
		kind = tokenSemicolon
	default:
		return lx.errorf(line, column, false, "unexpected character %q", ch)
	}
	lx.advance()
	lx.emit(kind, string(ch), line, column)
	return nil
}
