// Package stdlib builds the builtin registry every compiled program links
// against: a name -> SYS index table for the compiler and the matching
// []vm.BuiltinFunc slice for the VM, mirroring
// std.fmt.{print,println}, std.runtime.{type,assert,gc.stats} and the
// std.{Some,None,len,println,assert} top-level conveniences.
package stdlib

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/xnacly/purple-garden-go/pkg/value"
	"github.com/xnacly/purple-garden-go/pkg/vm"
)

// Registry is a mutable name -> builtin table. Programs compile against
// Names and run against Funcs; the two stay index-aligned by
// construction, never by a caller reordering one independently of the
// other.
type Registry struct {
	Names map[string]int
	Funcs []vm.BuiltinFunc
	out   io.Writer
}

// New returns a Registry seeded with the full std tree, writing
// std.fmt.print/println (and their unqualified println alias) to out.
// A nil out defaults to os.Stdout.
func New(out io.Writer) *Registry {
	if out == nil {
		out = os.Stdout
	}
	r := &Registry{Names: map[string]int{}, out: out}
	r.register("fmt.print", r.print)
	r.register("fmt.println", r.println)
	r.register("println", r.println)
	r.register("runtime.type", r.runtimeType)
	r.register("runtime.assert", r.assert)
	r.register("assert", r.assert)
	r.register("runtime.gc.stats", r.gcStats)
	r.register("Some", r.some)
	r.register("None", r.none)
	r.register("len", r.length)
	return r
}

// Register adds (or overwrites) a user builtin, matching the embedding
// API's pg_register_builtin: a name-hash collision with an existing std
// entry is still just an overwrite at this layer — pkg/pg's
// RegisterBuiltin owns rejecting an already-registered name.
func (r *Registry) Register(name string, fn vm.BuiltinFunc) {
	r.register(name, fn)
}

func (r *Registry) register(name string, fn vm.BuiltinFunc) {
	if idx, ok := r.Names[name]; ok {
		r.Funcs[idx] = fn
		return
	}
	r.Names[name] = len(r.Funcs)
	r.Funcs = append(r.Funcs, fn)
}

func argsString(v *vm.VM) []any {
	out := make([]any, v.ArgCount())
	for i := 0; i < v.ArgCount(); i++ {
		out[i] = formatValue(v.Arg(i))
	}
	return out
}

func formatValue(v value.Value) string {
	switch v.Tag {
	case value.NONE:
		return "None"
	case value.TRUE:
		return "true"
	case value.FALSE:
		return "false"
	case value.INT:
		return fmt.Sprintf("%d", v.Int)
	case value.DOUBLE:
		return fmt.Sprintf("%g", v.Double)
	case value.STR:
		return v.Str.String()
	case value.ARRAY:
		return "<array>"
	case value.OBJ:
		return "<obj>"
	default:
		return "<?>"
	}
}

func (r *Registry) print(v *vm.VM) {
	args := argsString(v)
	for i, a := range args {
		if i > 0 {
			fmt.Fprint(r.out, " ")
		}
		fmt.Fprint(r.out, a)
	}
	v.SetResult(value.None)
}

func (r *Registry) println(v *vm.VM) {
	r.print(v)
	fmt.Fprintln(r.out)
	v.SetResult(value.None)
}

func (r *Registry) runtimeType(v *vm.VM) {
	var name string
	if v.ArgCount() > 0 {
		name = v.Arg(0).Tag.String()
	}
	v.SetResult(value.Value{Tag: value.STR, Str: value.NewInternedStr([]byte(name))})
}

func (r *Registry) assert(v *vm.VM) {
	if v.ArgCount() == 0 || v.Arg(0).Tag != value.TRUE {
		panic(fmt.Sprintf("assertion failed: %v", argsString(v)))
	}
	v.SetResult(value.None)
}

// gcStats renders std.runtime.gc.stats as a small table, exercising
// tablewriter the same way pkg/disasm.Stats does.
func (r *Registry) gcStats(v *vm.VM) {
	stats := v.GC().Stats()
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"current", "allocated", "cycles"})
	table.Append([]string{
		fmt.Sprintf("%d", stats.Current),
		fmt.Sprintf("%d", stats.Allocated),
		fmt.Sprintf("%d", stats.Cycles),
	})
	table.Render()
	v.SetResult(value.None)
}

func (r *Registry) some(v *vm.VM) {
	var arg value.Value
	if v.ArgCount() > 0 {
		arg = v.Arg(0)
	}
	v.SetResult(value.Some(arg))
}

func (r *Registry) none(v *vm.VM) {
	v.SetResult(value.None)
}

func (r *Registry) length(v *vm.VM) {
	if v.ArgCount() == 0 {
		v.SetResult(value.Value{Tag: value.INT, Int: 0})
		return
	}
	arg := v.Arg(0)
	var n int
	switch arg.Tag {
	case value.STR:
		n = arg.Str.Len()
	case value.ARRAY:
		n = arg.Array.Len
	case value.OBJ:
		n = arg.Obj.Len
	default:
		panic(fmt.Sprintf("len: unsupported operand %s", arg.Tag))
	}
	v.SetResult(value.Value{Tag: value.INT, Int: int64(n)})
}
