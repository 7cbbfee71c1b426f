// Command pg runs Purple Garden source files: compile, optionally
// disassemble/stats, execute, report the exit code spec.md §6 defines.
package main

import (
	"fmt"
	"os"

	"github.com/xnacly/purple-garden-go/pkg/compiler"
	"github.com/xnacly/purple-garden-go/pkg/disasm"
	"github.com/xnacly/purple-garden-go/pkg/gc"
	"github.com/xnacly/purple-garden-go/pkg/parser"
	"github.com/xnacly/purple-garden-go/pkg/stdlib"
	"github.com/xnacly/purple-garden-go/pkg/vm"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	o, err := parseArgs(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if o.help {
		printUsage(o.optionPrefix)
		return 0
	}
	if o.version {
		fmt.Printf("pg version %s\n", version)
		return 0
	}

	src, err := source(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	prog, err := parser.Parse(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	registry := stdlib.New(os.Stdout)
	c := compiler.New(registry.Names)
	bc, err := c.Compile(prog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if o.disassemble {
		disasm.Print(os.Stdout, bc)
	}
	if o.stats {
		disasm.Stats(os.Stdout, bc)
	}

	threshold := o.blockAllocator * 1024
	collector := gc.New(threshold)
	machine := vm.New(bc, registry.Funcs, collector)

	if o.memoryUsage {
		defer printMemoryUsage(collector)
	}

	if _, err := machine.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func source(o *options) (string, error) {
	if o.run != "" {
		return o.run, nil
	}
	if o.inputFile == "" {
		return "", fmt.Errorf("pg: no input file (pass a path or %srun=<source>)", o.optionPrefix)
	}
	buf, err := os.ReadFile(o.inputFile)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func printMemoryUsage(c *gc.Collector) {
	stats := c.Stats()
	fmt.Fprintf(os.Stderr, "gc: current=%d allocated=%d cycles=%d\n",
		stats.Current, stats.Allocated, stats.Cycles)
}

func printUsage(prefix string) {
	fmt.Printf("pg - an embeddable s-expression scripting language\n\n")
	fmt.Printf("usage: pg [%soptions] <file>\n\n", prefix)
	fmt.Printf("  %sv, %sversion              print version\n", prefix, prefix)
	fmt.Printf("  %sd, %sdisassemble          emit human-readable bytecode\n", prefix, prefix)
	fmt.Printf("  %sb, %sblock-allocator=KB   GC collection threshold in KB (the GC is always used)\n", prefix, prefix)
	fmt.Printf("  %sa, %saot-functions        reserved\n", prefix, prefix)
	fmt.Printf("  %sm, %smemory-usage         print arena stats after running\n", prefix, prefix)
	fmt.Printf("  %sV, %sverbose              accepted; prints nothing extra\n", prefix, prefix)
	fmt.Printf("  %ss, %sstats                opcode frequency table\n", prefix, prefix)
	fmt.Printf("  %sr, %srun=SOURCE           execute literal source instead of a file\n", prefix, prefix)
	fmt.Printf("  %sh, %shelp                 this message\n", prefix, prefix)
	fmt.Printf("  %soption-prefix=P          use P instead of %q as the flag prefix\n", prefix, prefix)
}
