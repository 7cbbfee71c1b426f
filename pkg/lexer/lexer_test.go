package lexer

import "testing"

func collect(input string) []Token {
	l := New(input)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks
		}
	}
}

func assertTokens(t *testing.T, input string, want []Token) {
	t.Helper()
	got := collect(input)
	if len(got) != len(want) {
		t.Fatalf("%q: got %d tokens, want %d: %+v", input, len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Type != w.Type || got[i].Literal != w.Literal {
			t.Errorf("%q: token %d = {%v %q}, want {%v %q}",
				input, i, got[i].Type, got[i].Literal, w.Type, w.Literal)
		}
	}
}

func TestNextTokenDelimiters(t *testing.T) {
	assertTokens(t, "( ) [ ] { } : ,", []Token{
		{Type: LPAREN, Literal: ""},
		{Type: RPAREN, Literal: ""},
		{Type: LBRACKET, Literal: ""},
		{Type: RBRACKET, Literal: ""},
		{Type: LBRACE, Literal: ""},
		{Type: RBRACE, Literal: ""},
		{Type: COLON, Literal: ""},
		{Type: COMMA, Literal: ""},
		{Type: EOF, Literal: ""},
	})
}

func TestNextTokenOperators(t *testing.T) {
	assertTokens(t, "+ - * / = < >", []Token{
		{Type: PLUS}, {Type: MINUS}, {Type: STAR}, {Type: SLASH},
		{Type: EQUAL}, {Type: LESS}, {Type: GREATER}, {Type: EOF},
	})
}

func TestNextTokenNumbers(t *testing.T) {
	assertTokens(t, "42 3.14 -17 -2.5", []Token{
		{Type: INT, Literal: "42"},
		{Type: DOUBLE, Literal: "3.14"},
		{Type: INT, Literal: "-17"},
		{Type: DOUBLE, Literal: "-2.5"},
		{Type: EOF},
	})
}

func TestNextTokenMinusIsOperatorBeforeNonDigit(t *testing.T) {
	assertTokens(t, "(- x 1)", []Token{
		{Type: LPAREN}, {Type: MINUS}, {Type: IDENT, Literal: "x"},
		{Type: INT, Literal: "1"}, {Type: RPAREN}, {Type: EOF},
	})
}

func TestNextTokenString(t *testing.T) {
	assertTokens(t, `"hello, world" ""`, []Token{
		{Type: STRING, Literal: "hello, world"},
		{Type: STRING, Literal: ""},
		{Type: EOF},
	})
}

func TestNextTokenKeywords(t *testing.T) {
	assertTokens(t, "true false", []Token{
		{Type: TRUE, Literal: "true"},
		{Type: FALSE, Literal: "false"},
		{Type: EOF},
	})
}

func TestNextTokenIdentifiers(t *testing.T) {
	assertTokens(t, "x count is-even? foo-bar", []Token{
		{Type: IDENT, Literal: "x"},
		{Type: IDENT, Literal: "count"},
		{Type: IDENT, Literal: "is-even"},
		{Type: ILLEGAL, Literal: "?"},
		{Type: IDENT, Literal: "foo-bar"},
		{Type: EOF},
	})
}

func TestNextTokenBuiltin(t *testing.T) {
	assertTokens(t, "@let @println @idx", []Token{
		{Type: BUILTIN, Literal: "let"},
		{Type: BUILTIN, Literal: "println"},
		{Type: BUILTIN, Literal: "idx"},
		{Type: EOF},
	})
}

func TestNextTokenComment(t *testing.T) {
	assertTokens(t, "x ; a trailing comment\ny", []Token{
		{Type: IDENT, Literal: "x"},
		{Type: IDENT, Literal: "y"},
		{Type: EOF},
	})
}

func TestNextTokenIllegal(t *testing.T) {
	assertTokens(t, "#", []Token{
		{Type: ILLEGAL, Literal: "#"},
		{Type: EOF},
	})
}

func TestLineAndColumnTracking(t *testing.T) {
	l := New("x\ny\nz")

	tok1 := l.NextToken()
	if tok1.Line != 1 {
		t.Errorf("expected line 1, got %d", tok1.Line)
	}
	tok2 := l.NextToken()
	if tok2.Line != 2 {
		t.Errorf("expected line 2, got %d", tok2.Line)
	}
	tok3 := l.NextToken()
	if tok3.Line != 3 {
		t.Errorf("expected line 3, got %d", tok3.Line)
	}
}

func TestTokenTypeStringUnknownIsBounded(t *testing.T) {
	if got := TokenType(999).String(); got != "UNKNOWN" {
		t.Errorf("expected UNKNOWN for an out-of-range TokenType, got %q", got)
	}
	if got := PLUS.String(); got != "PLUS" {
		t.Errorf("expected PLUS, got %q", got)
	}
}
