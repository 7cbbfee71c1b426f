package bytecode

import "github.com/xnacly/purple-garden-go/pkg/value"

// FuncInfo is the compiler's record of one user-defined function, used by
// the VM to bind call arguments to parameter names on entry and by the
// disassembler to annotate CALL targets.
type FuncInfo struct {
	Name        string
	Addr        int
	ParamHashes []uint64
}

// Program is everything the compiler hands to the VM: the instruction
// stream, the deduplicated constant pool indexed by LOADG, and function
// metadata indexed by CALL target address.
type Program struct {
	Words     []uint32
	Globals   []value.Value
	Functions map[int]*FuncInfo
}
