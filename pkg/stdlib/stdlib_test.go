package stdlib

import (
	"bytes"
	"testing"

	"github.com/xnacly/purple-garden-go/pkg/compiler"
	"github.com/xnacly/purple-garden-go/pkg/gc"
	"github.com/xnacly/purple-garden-go/pkg/parser"
	"github.com/xnacly/purple-garden-go/pkg/value"
	"github.com/xnacly/purple-garden-go/pkg/vm"
)

func run(t *testing.T, reg *Registry, src string) value.Value {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	c := compiler.New(reg.Names)
	bc, err := c.Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	machine := vm.New(bc, reg.Funcs, gc.New(0))
	result, err := machine.Run()
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	return result
}

func TestNamesAndFuncsStayIndexAligned(t *testing.T) {
	r := New(nil)
	for name, idx := range r.Names {
		if idx < 0 || idx >= len(r.Funcs) {
			t.Fatalf("name %q points at out-of-range index %d (len %d)", name, idx, len(r.Funcs))
		}
	}
}

func TestPrintlnWritesToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	run(t, r, `(@println "hello")`)
	if buf.String() != "hello\n" {
		t.Errorf("expected \"hello\\n\", got %q", buf.String())
	}
}

func TestPrintJoinsMultipleArgsWithSpace(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	run(t, r, `(@fmt.print 1 2 3)`)
	if buf.String() != "1 2 3" {
		t.Errorf("expected \"1 2 3\", got %q", buf.String())
	}
}

func TestRuntimeTypeReportsTag(t *testing.T) {
	r := New(nil)
	got := run(t, r, `(@runtime.type 1)`)
	if got.Tag != value.STR || string(got.Str.Bytes()) != "number" {
		t.Errorf("expected \"number\", got %+v", got)
	}
}

func TestAssertPassesOnTrue(t *testing.T) {
	r := New(nil)
	// must not panic
	run(t, r, `(@assert true)`)
}

func TestAssertPanicsSurfaceAsRuntimeError(t *testing.T) {
	prog, err := parser.Parse(`(@assert false)`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	r := New(nil)
	c := compiler.New(r.Names)
	bc, err := c.Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	machine := vm.New(bc, r.Funcs, gc.New(0))
	if _, err := machine.Run(); err == nil {
		t.Fatal("expected a failing assertion to surface as a runtime error, not a panic")
	}
}

func TestSomeAndNoneRoundTrip(t *testing.T) {
	r := New(nil)
	some := run(t, r, `(@Some 5)`)
	if !some.IsSome || some.Int != 5 {
		t.Errorf("expected Some(5), got %+v", some)
	}
	none := run(t, r, `(@None)`)
	if none.Tag != value.NONE {
		t.Errorf("expected None, got %+v", none)
	}
}

func TestLenOverStringArrayAndObject(t *testing.T) {
	r := New(nil)
	if got := run(t, r, `(@len "abcd")`); got.Int != 4 {
		t.Errorf("expected len 4 for a string, got %d", got.Int)
	}
	if got := run(t, r, `(@len [1 2 3])`); got.Int != 3 {
		t.Errorf("expected len 3 for an array, got %d", got.Int)
	}
	if got := run(t, r, `(@len {"a": 1})`); got.Int != 1 {
		t.Errorf("expected len 1 for an object, got %d", got.Int)
	}
}

func TestGcStatsRendersTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	run(t, r, `(@runtime.gc.stats)`)
	if buf.Len() == 0 {
		t.Error("expected gc.stats to render a non-empty table")
	}
}

func TestRegisterOverwritesExistingName(t *testing.T) {
	r := New(nil)
	before := len(r.Funcs)
	called := false
	r.Register("println", func(v *vm.VM) { called = true; v.SetResult(value.None) })
	if len(r.Funcs) != before {
		t.Fatalf("overwriting an existing name must not grow Funcs, want len %d got %d", before, len(r.Funcs))
	}
	run(t, r, `(@println "x")`)
	if !called {
		t.Error("expected the overwritten builtin to be invoked")
	}
}
