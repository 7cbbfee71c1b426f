// Package vm implements the register-based bytecode interpreter.
package vm

import (
	"fmt"
	"strings"
)

// StackFrame is one call-stack entry captured when a RuntimeError is
// raised, used to render a human-readable trace back to the embedder.
type StackFrame struct {
	PC int // the frame's return address (the word after its CALL); 0 for the root frame
}

// RuntimeError aborts Run with a message and the frame chain active at
// the point of failure, adapted from the teacher's stack-trace-carrying
// error type.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.StackTrace) > 0 {
		b.WriteString("\n\nstack trace:")
		for i := len(e.StackTrace) - 1; i >= 0; i-- {
			b.WriteString(fmt.Sprintf("\n  at pc=%d", e.StackTrace[i].PC))
		}
	}
	return b.String()
}

func (vm *VM) errf(format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), StackTrace: vm.trace()}
}

// trace walks the live frame chain into a StackFrame slice, root frame
// last.
func (vm *VM) trace() []StackFrame {
	var frames []StackFrame
	for f := vm.frame; f != nil; f = f.prev {
		frames = append(frames, StackFrame{PC: f.returnPC})
	}
	return frames
}
