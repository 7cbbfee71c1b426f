// Package disasm renders a compiled bytecode.Program as human-readable
// text (the CLI's +disassemble flag) and summarises opcode frequency
// (the CLI's +stats flag).
package disasm

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/xnacly/purple-garden-go/pkg/bytecode"
)

var opColor = color.New(color.FgCyan, color.Bold)
var argColor = color.New(color.FgYellow)
var addrColor = color.New(color.FgHiBlack)

// Print writes one line per instruction to out: address, opcode and
// operand, colorized the way the CLI prints it to a terminal.
func Print(out io.Writer, prog *bytecode.Program) {
	for i := 0; i+1 < len(prog.Words); i += 2 {
		op := bytecode.Op(prog.Words[i])
		arg := prog.Words[i+1]
		fmt.Fprintf(out, "%s  %s %s\n",
			addrColor.Sprintf("%04d", i),
			opColor.Sprint(op.String()),
			argColor.Sprintf("%d", arg))
	}
}

// Stats renders an opcode-frequency table to out, exercising
// tablewriter the same way std.runtime.gc.stats does.
func Stats(out io.Writer, prog *bytecode.Program) {
	counts := map[bytecode.Op]int{}
	var order []bytecode.Op
	for i := 0; i+1 < len(prog.Words); i += 2 {
		op := bytecode.Op(prog.Words[i])
		if counts[op] == 0 {
			order = append(order, op)
		}
		counts[op]++
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"opcode", "count"})
	for _, op := range order {
		table.Append([]string{op.String(), fmt.Sprintf("%d", counts[op])})
	}
	table.Render()
}
