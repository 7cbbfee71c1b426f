// Package pg is the embedding API: the one entry point a host program
// uses to run Purple Garden source without touching the compiler/vm/gc
// packages directly, per spec.md §6's pg_init/pg_register_builtin/
// pg_exec_file/pg_exec_string/pg_destroy surface.
package pg

import (
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/xnacly/purple-garden-go/pkg/compiler"
	"github.com/xnacly/purple-garden-go/pkg/gc"
	"github.com/xnacly/purple-garden-go/pkg/parser"
	"github.com/xnacly/purple-garden-go/pkg/stdlib"
	"github.com/xnacly/purple-garden-go/pkg/vm"
)

// Config mirrors spec.md §6's pg_init config struct. The zero value is
// a usable default: the full std namespace, a GC-backed heap sized by
// minHeap, default builtins registered.
type Config struct {
	MaxMemory             int  // bytes; 0 uses the collector's default threshold
	DisableStdNamespace   bool // skip seeding std.* builtins
	DisableGC             bool // reserved: a bump-only run with no collection cycles
	RemoveDefaultBuiltins bool // same as DisableStdNamespace, kept for API-surface parity
	Output                io.Writer
}

// Pg is one embeddable runtime instance: its own builtin table and its
// own GC, never shared across instances per the resource model's
// single-VM-owns-its-state rule.
type Pg struct {
	cfg      Config
	registry *stdlib.Registry
}

// Init returns a ready-to-use Pg. Builtins can still be registered
// afterwards via RegisterBuiltin before the first ExecFile/ExecString.
func Init(cfg Config) (*Pg, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	p := &Pg{cfg: cfg}
	if cfg.DisableStdNamespace || cfg.RemoveDefaultBuiltins {
		p.registry = &stdlib.Registry{Names: map[string]int{}}
	} else {
		p.registry = stdlib.New(out)
	}
	return p, nil
}

// RegisterBuiltin adds a host function callable as @name from source. A
// name already bound to a std builtin is rejected, matching spec.md's
// "name-hash collisions cause registration failure".
func (p *Pg) RegisterBuiltin(name string, fn vm.BuiltinFunc) error {
	if _, exists := p.registry.Names[name]; exists {
		return fmt.Errorf("pg: builtin %q already registered", name)
	}
	p.registry.Register(name, fn)
	return nil
}

// ExecFile mmaps path read-only and compiles+runs its contents, matching
// spec.md §6's "source reading (file mmap)" external collaborator.
func (p *Pg) ExecFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 1, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return 1, err
	}
	defer m.Unmap()

	return p.ExecString(string(m))
}

// ExecString compiles and runs src, returning an exit code: 0 on
// success, non-zero on parse, compile or runtime error.
func (p *Pg) ExecString(src string) (int, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return 1, err
	}

	c := compiler.New(p.registry.Names)
	bc, err := c.Compile(prog)
	if err != nil {
		return 1, err
	}

	threshold := p.cfg.MaxMemory
	collector := gc.New(threshold)

	machine := vm.New(bc, p.registry.Funcs, collector)
	if _, err := machine.Run(); err != nil {
		return 1, err
	}
	return 0, nil
}

// Destroy releases p's resources. There is no native memory held outside
// the Go heap, so this is a no-op kept for API parity with the
// embedding model's pg_destroy.
func (p *Pg) Destroy() {}
