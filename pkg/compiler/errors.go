package compiler

import "fmt"

// CompileError is returned for any failure discovered while lowering an
// ast.Node tree to bytecode: unknown identifiers, unresolved builtins or
// functions, a function defined twice, or exhausted registers. Two
// variable names with the same hash are not detected.
type CompileError struct {
	Msg string
}

func (e *CompileError) Error() string { return "compile error: " + e.Msg }

func errf(format string, args ...any) *CompileError {
	return &CompileError{Msg: fmt.Sprintf(format, args...)}
}
