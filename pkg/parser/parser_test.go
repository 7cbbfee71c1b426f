package parser

import (
	"testing"

	"github.com/xnacly/purple-garden-go/pkg/ast"
)

func TestParseAtoms(t *testing.T) {
	prog, err := Parse(`42 3.14 "hi" true false`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(prog.Stmts) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(prog.Stmts))
	}

	i, ok := prog.Stmts[0].(ast.Atom)
	if !ok || i.AtomKind != ast.AtomInt || i.Int != 42 {
		t.Fatalf("expected int atom 42, got %#v", prog.Stmts[0])
	}

	f, ok := prog.Stmts[1].(ast.Atom)
	if !ok || f.AtomKind != ast.AtomDouble || f.Double != 3.14 {
		t.Fatalf("expected double atom 3.14, got %#v", prog.Stmts[1])
	}

	s, ok := prog.Stmts[2].(ast.Atom)
	if !ok || s.AtomKind != ast.AtomString || s.Str != "hi" {
		t.Fatalf("expected string atom hi, got %#v", prog.Stmts[2])
	}

	b, ok := prog.Stmts[3].(ast.Atom)
	if !ok || b.AtomKind != ast.AtomBool || b.Bool != true {
		t.Fatalf("expected bool atom true, got %#v", prog.Stmts[3])
	}
}

func TestParseBinOp(t *testing.T) {
	prog, err := Parse(`(+ 2 2)`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	bin, ok := prog.Stmts[0].(ast.BinOp)
	if !ok {
		t.Fatalf("expected BinOp, got %#v", prog.Stmts[0])
	}
	if bin.Op != "+" {
		t.Fatalf("expected op +, got %s", bin.Op)
	}
	lhs, ok := bin.LHS.(ast.Atom)
	if !ok || lhs.Int != 2 {
		t.Fatalf("expected lhs atom 2, got %#v", bin.LHS)
	}
}

func TestParseLet(t *testing.T) {
	prog, err := Parse(`(@let x 10)`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	let, ok := prog.Stmts[0].(ast.Let)
	if !ok {
		t.Fatalf("expected Let, got %#v", prog.Stmts[0])
	}
	if let.Name != "x" {
		t.Fatalf("expected name x, got %s", let.Name)
	}
	val, ok := let.Value.(ast.Atom)
	if !ok || val.Int != 10 {
		t.Fatalf("expected value atom 10, got %#v", let.Value)
	}
}

func TestParseFuncDef(t *testing.T) {
	prog, err := Parse(`(@fn add[a, b] (+ a b))`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	fn, ok := prog.Stmts[0].(ast.FuncDef)
	if !ok {
		t.Fatalf("expected FuncDef, got %#v", prog.Stmts[0])
	}
	if fn.Name != "add" {
		t.Fatalf("expected name add, got %s", fn.Name)
	}
	if len(fn.Params) != 2 || fn.Params[0] != "a" || fn.Params[1] != "b" {
		t.Fatalf("expected params [a b], got %v", fn.Params)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fn.Body))
	}
}

func TestParseMatch(t *testing.T) {
	prog, err := Parse(`(@match x (1 "one") (2 "two") (@else "other"))`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	m, ok := prog.Stmts[0].(ast.Match)
	if !ok {
		t.Fatalf("expected Match, got %#v", prog.Stmts[0])
	}
	if len(m.Arms) != 2 {
		t.Fatalf("expected 2 arms, got %d", len(m.Arms))
	}
	if len(m.Default) != 1 {
		t.Fatalf("expected default clause, got %v", m.Default)
	}
}

func TestParseCallAndBuiltin(t *testing.T) {
	prog, err := Parse(`(foo 1 2) (@println "hi")`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	call, ok := prog.Stmts[0].(ast.Call)
	if !ok || call.Name != "foo" || len(call.Args) != 2 {
		t.Fatalf("expected Call foo(1,2), got %#v", prog.Stmts[0])
	}
	b, ok := prog.Stmts[1].(ast.BuiltinCall)
	if !ok || b.Name != "println" || len(b.Args) != 1 {
		t.Fatalf("expected BuiltinCall println, got %#v", prog.Stmts[1])
	}
}

func TestParseArrayAndObjectLit(t *testing.T) {
	prog, err := Parse(`[1, 2, 3] {"a": 1, "b": 2}`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	arr, ok := prog.Stmts[0].(ast.ArrayLit)
	if !ok || len(arr.Elems) != 3 {
		t.Fatalf("expected ArrayLit of 3, got %#v", prog.Stmts[0])
	}
	obj, ok := prog.Stmts[1].(ast.ObjectLit)
	if !ok || len(obj.Keys) != 2 {
		t.Fatalf("expected ObjectLit of 2, got %#v", prog.Stmts[1])
	}
}

func TestParseIndex(t *testing.T) {
	prog, err := Parse(`(@idx a 1)`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	idx, ok := prog.Stmts[0].(ast.Index)
	if !ok {
		t.Fatalf("expected Index, got %#v", prog.Stmts[0])
	}
	if _, ok := idx.Target.(ast.Ident); !ok {
		t.Fatalf("expected ident target, got %#v", idx.Target)
	}
	key, ok := idx.Key.(ast.Atom)
	if !ok || key.Int != 1 {
		t.Fatalf("expected key atom 1, got %#v", idx.Key)
	}
}

func TestParseErrorOnUnbalancedParen(t *testing.T) {
	_, err := Parse(`(+ 1 2`)
	if err == nil {
		t.Fatalf("expected error on unbalanced paren")
	}
}
