package parser

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"hiesenoether/interpreter-go/pkg/ast"
)

// SyntaxError reports a parse failure at a source position. Incomplete is set
// when the input ended before the construct did, so an interactive reader can
// ask for more lines.
type SyntaxError struct {
	Line       int
	Column     int
	Message    string
	Incomplete bool
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parser: %d:%d: %s", e.Line, e.Column, e.Message)
}

// IsIncomplete reports whether err is a SyntaxError caused by running out of
// input.
func IsIncomplete(err error) bool {
	var syn *SyntaxError
	return errors.As(err, &syn) && syn.Incomplete
}

// Parse turns Hiesenoether source into a program tree.
func Parse(source []byte) (*ast.Program, error) {
	tokens, err := tokenize(string(source))
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseProgram()
}

// ParseFile reads and parses a source file.
func ParseFile(path string) (*ast.Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parser: read %s: %w", path, err)
	}
	program, err := Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) current() token {
	return p.tokens[p.pos]
}

func (p *parser) peek() token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// errorAt builds a SyntaxError at tok. Hitting the end of input while a
// bracket, brace, or paren is still open marks the error incomplete.
func (p *parser) errorAt(tok token, format string, args ...any) error {
	return &SyntaxError{
		Line:       tok.line,
		Column:     tok.column,
		Message:    fmt.Sprintf(format, args...),
		Incomplete: tok.kind == tokenEOF && p.unclosed() > 0,
	}
}

func (p *parser) unclosed() int {
	open := 0
	for _, tok := range p.tokens[:p.pos] {
		switch tok.kind {
		case tokenLParen, tokenLBrace, tokenLBracket:
			open++
		case tokenRParen, tokenRBrace, tokenRBracket:
			open--
		}
	}
	return open
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok := p.current()
	if tok.kind != kind {
		return tok, p.errorAt(tok, "expected %s, got %s", what, tok.describe())
	}
	return p.advance(), nil
}

func (p *parser) expectKeyword(word string) error {
	tok := p.current()
	if !tok.is(tokenKeyword, word) {
		return p.errorAt(tok, "expected '%s', got %s", word, tok.describe())
	}
	p.advance()
	return nil
}

func (p *parser) skipSeparators() {
	for k := p.current().kind; k == tokenNewline || k == tokenSemicolon; k = p.current().kind {
		p.advance()
	}
}

func (p *parser) parseProgram() (*ast.Program, error) {
	var stmts []ast.Statement
	p.skipSeparators()
	for p.current().kind != tokenEOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if err := p.endStatement(false); err != nil {
			return nil, err
		}
		p.skipSeparators()
	}
	return ast.NewProgram(stmts), nil
}

// endStatement requires a separator after a statement. Inside a block the
// closing brace also terminates it.
func (p *parser) endStatement(inBlock bool) error {
	switch tok := p.current(); tok.kind {
	case tokenNewline, tokenSemicolon, tokenEOF:
		return nil
	case tokenRBrace:
		if inBlock {
			return nil
		}
		return p.errorAt(tok, "unexpected '}'")
	default:
		return p.errorAt(tok, "expected end of statement, got %s", tok.describe())
	}
}

func (p *parser) parseBlock() ([]ast.Statement, error) {
	if _, err := p.expect(tokenLBrace, "'{'"); err != nil {
		return nil, err
	}
	stmts := []ast.Statement{}
	p.skipSeparators()
	for p.current().kind != tokenRBrace {
		if p.current().kind == tokenEOF {
			return nil, p.errorAt(p.current(), "expected '}' to close block")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if err := p.endStatement(true); err != nil {
			return nil, err
		}
		p.skipSeparators()
	}
	p.advance()
	return stmts, nil
}

func (p *parser) parseStatement() (ast.Statement, error) {
	tok := p.current()
	switch tok.kind {
	case tokenKeyword:
		switch tok.text {
		case "energy":
			return p.parseEnergyDeclaration()
		case "stable":
			if p.peek().is(tokenKeyword, "if") {
				p.advance()
				return p.parseIf(true)
			}
			p.advance()
			return p.parseAssignment(true)
		case "stabilize":
			p.advance()
			name, err := p.expect(tokenIdent, "variable name")
			if err != nil {
				return nil, err
			}
			return ast.NewStabilizeStatement(name.text), nil
		case "declare":
			return p.parseFunctionDeclaration()
		case "return":
			p.advance()
			switch p.current().kind {
			case tokenNewline, tokenSemicolon, tokenRBrace, tokenEOF:
				return ast.NewReturnStatement(nil), nil
			}
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return ast.NewReturnStatement(value), nil
		case "print":
			p.advance()
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return ast.NewPrintStatement(value), nil
		case "inspect":
			p.advance()
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return ast.NewInspectStatement(value), nil
		case "query":
			p.advance()
			if err := p.expectKeyword("energy"); err != nil {
				return nil, err
			}
			return ast.NewQueryEnergy(), nil
		case "invariant":
			p.advance()
			cond, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return ast.NewInvariantStatement(cond), nil
		case "assert":
			p.advance()
			cond, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return ast.NewAssertStatement(cond), nil
		case "if":
			return p.parseIf(false)
		case "while":
			return p.parseWhile()
		case "for":
			return p.parseFor()
		case "remove":
			return p.parseRemoveCapability()
		}
	case tokenIdent:
		switch p.peek().kind {
		case tokenAssign:
			return p.parseAssignment(false)
		case tokenLParen:
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call, ok := expr.(*ast.FunctionCall)
			if !ok {
				return nil, p.errorAt(tok, "only function calls can be used as statements")
			}
			return call, nil
		}
		return nil, p.errorAt(tok, "unexpected identifier %s, expected '<-' or '('", tok.describe())
	}
	return nil, p.errorAt(tok, "unexpected %s", tok.describe())
}

func (p *parser) parseEnergyDeclaration() (ast.Statement, error) {
	p.advance()
	if _, err := p.expect(tokenLBracket, "'['"); err != nil {
		return nil, err
	}
	amount, err := p.expect(tokenNumber, "energy amount")
	if err != nil {
		return nil, err
	}
	n, convErr := strconv.Atoi(amount.text)
	if convErr != nil {
		return nil, p.errorAt(amount, "energy amount must be an integer, got %s", amount.text)
	}
	if _, err := p.expect(tokenRBracket, "']'"); err != nil {
		return nil, err
	}
	return ast.NewEnergyDeclaration(n), nil
}

func (p *parser) parseAssignment(stable bool) (ast.Statement, error) {
	name, err := p.expect(tokenIdent, "variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenAssign, "'<-'"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.NewAssignment(name.text, value, stable), nil
}

func (p *parser) parseFunctionDeclaration() (ast.Statement, error) {
	p.advance()
	var isPure, isUnstable bool
	switch tok := p.current(); {
	case tok.is(tokenKeyword, "pure"):
		isPure = true
		p.advance()
	case tok.is(tokenKeyword, "unstable"):
		isUnstable = true
		p.advance()
	}
	if err := p.expectKeyword("fn"); err != nil {
		return nil, err
	}
	name, err := p.expect(tokenIdent, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenLParen, "'('"); err != nil {
		return nil, err
	}
	params := []string{}
	seen := make(map[string]struct{})
	for p.current().kind != tokenRParen {
		param, err := p.expect(tokenIdent, "parameter name")
		if err != nil {
			return nil, err
		}
		if _, dup := seen[param.text]; dup {
			return nil, p.errorAt(param, "duplicate parameter %s", param.text)
		}
		seen[param.text] = struct{}{}
		params = append(params, param.text)
		if p.current().kind != tokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokenRParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewFunctionDeclaration(name.text, params, body, isPure, isUnstable), nil
}

func (p *parser) parseIf(stable bool) (ast.Statement, error) {
	if err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var els []ast.Statement
	if p.current().is(tokenKeyword, "else") {
		p.advance()
		if p.current().is(tokenKeyword, "if") {
			nested, err := p.parseIf(false)
			if err != nil {
				return nil, err
			}
			els = []ast.Statement{nested}
		} else if els, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	return ast.NewIfStatement(cond, then, els, stable), nil
}

func (p *parser) parseWhile() (ast.Statement, error) {
	p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewWhileLoop(cond, body), nil
}

func (p *parser) parseFor() (ast.Statement, error) {
	p.advance()
	variable, err := p.expect(tokenIdent, "loop variable")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewForLoop(variable.text, iterable, body), nil
}

func (p *parser) parseRemoveCapability() (ast.Statement, error) {
	p.advance()
	if _, err := p.expect(tokenLBracket, "'['"); err != nil {
		return nil, err
	}
	capability, err := p.expect(tokenIdent, "capability name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRBracket, "']'"); err != nil {
		return nil, err
	}
	return ast.NewRemoveCapability(capability.text), nil
}

//-----------------------------------------------------------------------------
// Expressions, lowest precedence first
//-----------------------------------------------------------------------------

func (p *parser) parseExpression() (ast.Expression, error) {
	return p.parseOr()
}

func (p *parser) parseBinaryLevel(next func() (ast.Expression, error), match func(token) bool) (ast.Expression, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for match(p.current()) {
		op := p.advance().text
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpression(op, left, right)
	}
	return left, nil
}

func (p *parser) parseOr() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseAnd, func(t token) bool { return t.is(tokenKeyword, "or") })
}

func (p *parser) parseAnd() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseComparison, func(t token) bool { return t.is(tokenKeyword, "and") })
}

func (p *parser) parseComparison() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseAdditive, func(t token) bool {
		if t.kind != tokenOperator {
			return false
		}
		switch t.text {
		case "==", "!=", "<", ">", "<=", ">=":
			return true
		}
		return false
	})
}

func (p *parser) parseAdditive() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseMultiplicative, func(t token) bool {
		return t.is(tokenOperator, "+") || t.is(tokenOperator, "-")
	})
}

func (p *parser) parseMultiplicative() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseUnary, func(t token) bool {
		return t.is(tokenOperator, "*") || t.is(tokenOperator, "/") || t.is(tokenOperator, "%")
	})
}

func (p *parser) parseUnary() (ast.Expression, error) {
	tok := p.current()
	var op ast.UnaryOperator
	switch {
	case tok.is(tokenOperator, "-"):
		op = ast.UnaryOperatorNegate
	case tok.is(tokenKeyword, "not"):
		op = ast.UnaryOperatorNot
	default:
		return p.parsePrimary()
	}
	p.advance()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return ast.NewUnaryExpression(op, operand), nil
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	tok := p.current()
	switch tok.kind {
	case tokenNumber:
		p.advance()
		val, err := strconv.ParseFloat(tok.text, 64)
		if err != nil || math.IsInf(val, 0) {
			return nil, p.errorAt(tok, "invalid number %s", tok.text)
		}
		return ast.NewNumberLiteral(val), nil
	case tokenString:
		p.advance()
		return ast.NewStringLiteral(tok.text), nil
	case tokenIdent:
		p.advance()
		if p.current().kind != tokenLParen {
			return ast.NewIdentifier(tok.text), nil
		}
		args, err := p.parseList(tokenLParen, tokenRParen, "')'")
		if err != nil {
			return nil, err
		}
		if tok.text == "range" {
			return p.rangeFromArgs(tok, args)
		}
		return ast.NewFunctionCall(tok.text, args), nil
	case tokenLBracket:
		elements, err := p.parseList(tokenLBracket, tokenRBracket, "']'")
		if err != nil {
			return nil, err
		}
		return ast.NewSequenceLiteral(elements), nil
	case tokenLParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, p.errorAt(tok, "expected expression, got %s", tok.describe())
	}
}

// parseList reads a comma separated expression list between open and close.
// A trailing comma is accepted.
func (p *parser) parseList(open, close tokenKind, closeDesc string) ([]ast.Expression, error) {
	if _, err := p.expect(open, open.String()); err != nil {
		return nil, err
	}
	items := []ast.Expression{}
	for p.current().kind != close {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, expr)
		if p.current().kind != tokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(close, closeDesc); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *parser) rangeFromArgs(tok token, args []ast.Expression) (ast.Expression, error) {
	switch len(args) {
	case 2:
		return ast.NewRangeExpression(args[0], args[1], nil), nil
	case 3:
		return ast.NewRangeExpression(args[0], args[1], args[2]), nil
	default:
		return nil, p.errorAt(tok, "range expects 2 or 3 arguments, got %d", len(args))
	}
}
