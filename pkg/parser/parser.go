// Package parser turns a token stream into an ast.Program. It is an
// external collaborator of the runtime core: the only interface the
// compiler depends on is the ast.Node tree this package produces.
package parser

import (
	"fmt"

	"github.com/xnacly/purple-garden-go/pkg/ast"
	"github.com/xnacly/purple-garden-go/pkg/lexer"
)

// Error reports a parse failure with its source location.
type Error struct {
	Line, Column int
	Msg          string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

// Parser is a recursive-descent reader over a lexer.Lexer.
type Parser struct {
	l    *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token
}

// New returns a Parser ready to read the first form of src.
func New(src string) *Parser {
	p := &Parser{l: lexer.New(src)}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...any) *Error {
	return &Error{Line: p.cur.Line, Column: p.cur.Column, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(tt lexer.TokenType) error {
	if p.cur.Type != tt {
		return p.errorf("expected %s, got %s %q", tt, p.cur.Type, p.cur.Literal)
	}
	p.advance()
	return nil
}

// Parse reads every top-level form until EOF.
func Parse(src string) (*ast.Program, error) {
	p := New(src)
	prog := &ast.Program{}
	for p.cur.Type != lexer.EOF {
		n, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, n)
	}
	return prog, nil
}

func (p *Parser) parseForm() (ast.Node, error) {
	switch p.cur.Type {
	case lexer.LPAREN:
		return p.parseList()
	case lexer.LBRACKET:
		return p.parseArray()
	case lexer.LBRACE:
		return p.parseObject()
	case lexer.STRING:
		lit := p.cur.Literal
		p.advance()
		return ast.Atom{AtomKind: ast.AtomString, Str: lit}, nil
	case lexer.INT:
		var v int64
		fmt.Sscanf(p.cur.Literal, "%d", &v)
		p.advance()
		return ast.Atom{AtomKind: ast.AtomInt, Int: v}, nil
	case lexer.DOUBLE:
		var v float64
		fmt.Sscanf(p.cur.Literal, "%g", &v)
		p.advance()
		return ast.Atom{AtomKind: ast.AtomDouble, Double: v}, nil
	case lexer.TRUE:
		p.advance()
		return ast.Atom{AtomKind: ast.AtomBool, Bool: true}, nil
	case lexer.FALSE:
		p.advance()
		return ast.Atom{AtomKind: ast.AtomBool, Bool: false}, nil
	case lexer.IDENT:
		name := p.cur.Literal
		p.advance()
		return ast.Ident{Name: name}, nil
	default:
		return nil, p.errorf("unexpected token %s %q", p.cur.Type, p.cur.Literal)
	}
}

func binOpName(tt lexer.TokenType) (string, bool) {
	switch tt {
	case lexer.PLUS:
		return "+", true
	case lexer.MINUS:
		return "-", true
	case lexer.STAR:
		return "*", true
	case lexer.SLASH:
		return "/", true
	case lexer.EQUAL:
		return "=", true
	case lexer.LESS:
		return "<", true
	case lexer.GREATER:
		return ">", true
	default:
		return "", false
	}
}

// parseList reads `( ... )`, dispatching on the head token to a binary
// operator, a builtin call (including the @let/@fn/@match special
// forms) or a user function call.
func (p *Parser) parseList() (ast.Node, error) {
	if err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}

	if op, ok := binOpName(p.cur.Type); ok {
		p.advance()
		lhs, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		rhs, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return ast.BinOp{Op: op, LHS: lhs, RHS: rhs}, nil
	}

	if p.cur.Type == lexer.BUILTIN {
		name := p.cur.Literal
		p.advance()
		switch name {
		case "let":
			return p.finishLet()
		case "fn":
			return p.finishFuncDef()
		case "match":
			return p.finishMatch()
		case "idx":
			return p.finishIndex()
		default:
			return p.finishBuiltinCall(name)
		}
	}

	if p.cur.Type == lexer.IDENT {
		name := p.cur.Literal
		p.advance()
		args, err := p.parseArgsUntilRParen()
		if err != nil {
			return nil, err
		}
		return ast.Call{Name: name, Args: args}, nil
	}

	return nil, p.errorf("unexpected list head %s %q", p.cur.Type, p.cur.Literal)
}

func (p *Parser) parseArgsUntilRParen() ([]ast.Node, error) {
	var args []ast.Node
	for p.cur.Type != lexer.RPAREN {
		if p.cur.Type == lexer.EOF {
			return nil, p.errorf("unexpected EOF, expected )")
		}
		n, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		args = append(args, n)
	}
	p.advance() // consume )
	return args, nil
}

func (p *Parser) finishBuiltinCall(name string) (ast.Node, error) {
	args, err := p.parseArgsUntilRParen()
	if err != nil {
		return nil, err
	}
	return ast.BuiltinCall{Name: name, Args: args}, nil
}

func (p *Parser) finishLet() (ast.Node, error) {
	if p.cur.Type != lexer.IDENT {
		return nil, p.errorf("@let expects a name, got %s", p.cur.Type)
	}
	name := p.cur.Literal
	p.advance()
	val, err := p.parseForm()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return ast.Let{Name: name, Value: val}, nil
}

// finishFuncDef parses `name[param, param...] body...)` — the @fn token
// has already been consumed.
func (p *Parser) finishFuncDef() (ast.Node, error) {
	if p.cur.Type != lexer.IDENT {
		return nil, p.errorf("@fn expects a name, got %s", p.cur.Type)
	}
	name := p.cur.Literal
	p.advance()
	if err := p.expect(lexer.LBRACKET); err != nil {
		return nil, err
	}
	var params []string
	for p.cur.Type != lexer.RBRACKET {
		if p.cur.Type != lexer.IDENT {
			return nil, p.errorf("expected parameter name, got %s", p.cur.Type)
		}
		params = append(params, p.cur.Literal)
		p.advance()
		if p.cur.Type == lexer.COMMA {
			p.advance()
		}
	}
	p.advance() // consume ]

	var body []ast.Node
	for p.cur.Type != lexer.RPAREN {
		if p.cur.Type == lexer.EOF {
			return nil, p.errorf("unexpected EOF in function body")
		}
		n, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		body = append(body, n)
	}
	p.advance() // consume )
	return ast.FuncDef{Name: name, Params: params, Body: body}, nil
}

// finishMatch parses `cond (cond1 body1...) (cond2 body2...) (@else body...)?)`.
func (p *Parser) finishMatch() (ast.Node, error) {
	cond, err := p.parseForm()
	if err != nil {
		return nil, err
	}
	m := ast.Match{Cond: cond}
	for p.cur.Type != lexer.RPAREN {
		if p.cur.Type == lexer.EOF {
			return nil, p.errorf("unexpected EOF in @match")
		}
		if err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		if p.cur.Type == lexer.BUILTIN && p.cur.Literal == "else" {
			p.advance()
			body, err := p.parseArgsUntilRParen()
			if err != nil {
				return nil, err
			}
			m.Default = body
			continue
		}
		armCond, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		body, err := p.parseArgsUntilRParen()
		if err != nil {
			return nil, err
		}
		m.Arms = append(m.Arms, ast.MatchArm{Cond: armCond, Body: body})
	}
	p.advance() // consume final )
	return m, nil
}

// finishIndex parses `target key)` — the @idx token has already been
// consumed.
func (p *Parser) finishIndex() (ast.Node, error) {
	target, err := p.parseForm()
	if err != nil {
		return nil, err
	}
	key, err := p.parseForm()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return ast.Index{Target: target, Key: key}, nil
}

func (p *Parser) parseArray() (ast.Node, error) {
	if err := p.expect(lexer.LBRACKET); err != nil {
		return nil, err
	}
	var elems []ast.Node
	for p.cur.Type != lexer.RBRACKET {
		if p.cur.Type == lexer.EOF {
			return nil, p.errorf("unexpected EOF in array literal")
		}
		n, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		elems = append(elems, n)
		if p.cur.Type == lexer.COMMA {
			p.advance()
		}
	}
	p.advance() // consume ]
	return ast.ArrayLit{Elems: elems}, nil
}

func (p *Parser) parseObject() (ast.Node, error) {
	if err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	obj := ast.ObjectLit{}
	for p.cur.Type != lexer.RBRACE {
		if p.cur.Type == lexer.EOF {
			return nil, p.errorf("unexpected EOF in object literal")
		}
		key, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		val, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		obj.Keys = append(obj.Keys, key)
		obj.Vals = append(obj.Vals, val)
		if p.cur.Type == lexer.COMMA {
			p.advance()
		}
	}
	p.advance() // consume }
	return obj, nil
}
