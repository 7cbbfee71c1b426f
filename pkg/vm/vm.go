// Package vm implements the register-based bytecode interpreter: a
// fetch-decode-execute loop over the flat (op,arg) stream the compiler
// produces, backed by the semi-space collector in pkg/gc.
package vm

import (
	"github.com/xnacly/purple-garden-go/pkg/bytecode"
	"github.com/xnacly/purple-garden-go/pkg/gc"
	"github.com/xnacly/purple-garden-go/pkg/value"
)

// maxRegisters must match the compiler's register file size.
const maxRegisters = 256

// BuiltinFunc is the shared ABI every native function is invoked
// through: it reads its arguments via VM.Arg(i) (count VM.ArgCount) and
// writes its result via VM.SetResult.
type BuiltinFunc func(*VM)

// VM executes one compiled bytecode.Program to completion. It is not
// safe for concurrent use; all state (registers, frame chain, heap) is
// owned by a single goroutine per the single-threaded execution model.
type VM struct {
	words     []uint32
	globals   []value.Value
	functions map[int]*bytecode.FuncInfo
	builtins  []BuiltinFunc

	gc *gc.Collector

	pc        int
	r0        value.Value
	registers [maxRegisters]value.Value

	frame    *frame
	freelist frameFreeList

	argCount  int
	argOffset int
	sizeHint  int
}

// New returns a VM ready to run prog. builtins is indexed by the SYS
// operand the compiler emitted; collector provides the heap prog's NEW
// and string-concatenating ADD instructions allocate into.
func New(prog *bytecode.Program, builtins []BuiltinFunc, collector *gc.Collector) *VM {
	vm := &VM{
		words:     prog.Words,
		globals:   prog.Globals,
		functions: prog.Functions,
		builtins:  builtins,
		gc:        collector,
		argCount:  1,
	}
	vm.frame = vm.freelist.pop()
	return vm
}

// R0 returns the accumulator, the final program result once Run returns.
func (vm *VM) R0() value.Value { return vm.r0 }

// GC exposes the collector so builtins (std.runtime.gc.stats) can report
// on it.
func (vm *VM) GC() *gc.Collector { return vm.gc }

// ArgCount is the number of arguments available to the builtin currently
// executing under SYS.
func (vm *VM) ArgCount() int { return vm.argCount }

// Arg returns the i-th argument (0-indexed) of the call in progress.
func (vm *VM) Arg(i int) value.Value { return vm.registers[vm.argOffset+i] }

// SetResult writes v into the accumulator, the builtin ABI's return
// channel.
func (vm *VM) SetResult(v value.Value) { vm.r0 = v }

// WalkRoots implements gc.RootWalker: every VM register, the accumulator
// and every live frame's variable table.
func (vm *VM) WalkRoots(fn func(*value.Value)) {
	fn(&vm.r0)
	for i := range vm.registers {
		fn(&vm.registers[i])
	}
	for f := vm.frame; f != nil; f = f.prev {
		for i := range f.vars {
			if f.vars[i].used {
				fn(&f.vars[i].value)
			}
		}
	}
}

func (vm *VM) collectIfNeeded() {
	if vm.gc.ShouldCollect() {
		vm.gc.Cycle(vm)
	}
}

// Run executes from the current pc until it reaches the end of the
// instruction stream, returning the final accumulator value. A type,
// arithmetic, bounds, assertion or resource error aborts with a
// *RuntimeError; the caller observes only success or failure, matching
// the embedding API's exit-code model.
func (vm *VM) Run() (value.Value, error) {
	for vm.pc < len(vm.words) {
		op := bytecode.Op(vm.words[vm.pc])
		arg := vm.words[vm.pc+1]
		next := vm.pc + 2

		switch op {
		case bytecode.JMP:
			next = int(arg)
		case bytecode.JMPF:
			if vm.r0.IsFalse() {
				next = int(arg)
			}
		case bytecode.CALL:
			next = vm.doCall(arg)
		case bytecode.LEAVE:
			next = vm.doLeave()
		default:
			if err := vm.exec(op, arg); err != nil {
				return vm.r0, err
			}
		}
		vm.pc = next
	}
	return vm.r0, nil
}

func (vm *VM) doCall(addr uint32) int {
	f := vm.freelist.pop()
	f.prev = vm.frame
	f.returnPC = vm.pc + 2

	if fn, ok := vm.functions[int(addr)]; ok {
		for i, h := range fn.ParamHashes {
			f.set(h, vm.registers[vm.argOffset+i])
		}
	}
	vm.argCount = 1
	vm.argOffset = 0
	vm.frame = f
	return int(addr)
}

// callBuiltin invokes fn, converting a panic (the std tree's assert/len
// raise this way, matching the library convention of signalling bad
// operands without plumbing an error return through the BuiltinFunc
// ABI) into the same *RuntimeError a native opcode failure produces.
func (vm *VM) callBuiltin(fn BuiltinFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = vm.errf("builtin: %v", r)
		}
	}()
	fn(vm)
	return nil
}

func (vm *VM) doLeave() int {
	old := vm.frame
	next := old.returnPC
	if old.prev != nil {
		vm.frame = old.prev
	}
	vm.freelist.push(old)
	return next
}

// exec performs every instruction except control flow (JMP/JMPF/CALL/
// LEAVE), which Run handles inline since they mutate pc/the frame chain.
func (vm *VM) exec(op bytecode.Op, arg uint32) error {
	switch op {
	case bytecode.LOADG:
		if int(arg) >= len(vm.globals) {
			return vm.errf("global index %d out of range", arg)
		}
		vm.r0 = vm.globals[arg]

	case bytecode.LOAD:
		vm.r0 = vm.registers[arg]

	case bytecode.STORE:
		vm.registers[arg] = vm.r0

	case bytecode.LOADV:
		v, ok := vm.frame.get(uint64(arg))
		if !ok {
			return vm.errf("unbound variable (hash %d)", arg)
		}
		vm.r0 = *v

	case bytecode.VAR:
		vm.frame.set(uint64(arg), vm.r0)

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV:
		return vm.execArith(op, arg)

	case bytecode.EQ:
		vm.r0 = value.Bool(value.Equal(vm.registers[arg], vm.r0))

	case bytecode.LT, bytecode.GT:
		return vm.execCompare(op, arg)

	case bytecode.IDX:
		return vm.execIndex(arg)

	case bytecode.SIZE:
		vm.sizeHint = int(arg)

	case bytecode.NEW:
		vm.collectIfNeeded()
		switch bytecode.NewKind(arg) {
		case bytecode.NewArray:
			vm.r0 = value.Value{Tag: value.ARRAY, IsHeap: true, Array: vm.gc.NewArray(vm.sizeHint)}
		case bytecode.NewObj:
			vm.r0 = value.Value{Tag: value.OBJ, IsHeap: true, Obj: vm.gc.NewMap(vm.sizeHint)}
		default:
			return vm.errf("unknown NEW kind %d", arg)
		}
		vm.sizeHint = 0

	case bytecode.APPEND:
		return vm.execAppend(arg)

	case bytecode.ARGS:
		vm.argCount, vm.argOffset = bytecode.DecodeArgs(arg)

	case bytecode.SYS:
		if int(arg) >= len(vm.builtins) || vm.builtins[arg] == nil {
			return vm.errf("unknown builtin index %d", arg)
		}
		vm.collectIfNeeded()
		if err := vm.callBuiltin(vm.builtins[arg]); err != nil {
			return err
		}
		vm.argCount = 1
		vm.argOffset = 0

	case bytecode.ASSERT:
		if vm.r0.Tag != value.TRUE {
			return vm.errf("assertion failed")
		}

	default:
		return vm.errf("unimplemented opcode %s", op)
	}
	return nil
}

func (vm *VM) execArith(op bytecode.Op, reg uint32) error {
	a, b := vm.registers[reg], vm.r0
	if op == bytecode.ADD && a.Tag == value.STR && b.Tag == value.STR {
		vm.collectIfNeeded()
		vm.r0 = value.Value{Tag: value.STR, IsHeap: true, Str: vm.gc.ConcatStrings(a.Str, b.Str)}
		return nil
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return vm.errf("cannot apply %s to %s and %s", op, a.Tag, b.Tag)
	}
	if a.Tag == value.DOUBLE || b.Tag == value.DOUBLE {
		x, y := a.AsFloat64(), b.AsFloat64()
		vm.r0 = value.Value{Tag: value.DOUBLE, Double: arithFloat(op, x, y)}
		return nil
	}
	if op == bytecode.DIV && b.Int == 0 {
		return vm.errf("integer division by zero")
	}
	vm.r0 = value.Value{Tag: value.INT, Int: arithInt(op, a.Int, b.Int)}
	return nil
}

func arithFloat(op bytecode.Op, x, y float64) float64 {
	switch op {
	case bytecode.ADD:
		return x + y
	case bytecode.SUB:
		return x - y
	case bytecode.MUL:
		return x * y
	default:
		return x / y
	}
}

func arithInt(op bytecode.Op, x, y int64) int64 {
	switch op {
	case bytecode.ADD:
		return x + y
	case bytecode.SUB:
		return x - y
	case bytecode.MUL:
		return x * y
	default:
		return x / y
	}
}

func (vm *VM) execCompare(op bytecode.Op, reg uint32) error {
	a, b := vm.registers[reg], vm.r0
	if !a.IsNumeric() || !b.IsNumeric() {
		return vm.errf("cannot compare %s and %s", a.Tag, b.Tag)
	}
	x, y := a.AsFloat64(), b.AsFloat64()
	var result bool
	if op == bytecode.LT {
		result = x < y
	} else {
		result = x > y
	}
	vm.r0 = value.Bool(result)
	return nil
}

func (vm *VM) execIndex(reg uint32) error {
	target := vm.registers[reg]
	idx := vm.r0
	switch target.Tag {
	case value.ARRAY:
		if idx.Tag != value.INT {
			return vm.errf("array index must be int, got %s", idx.Tag)
		}
		i := int(idx.Int)
		if i < 0 || i >= target.Array.Len {
			return vm.errf("array index %d out of range (len %d)", i, target.Array.Len)
		}
		vm.r0 = target.Array.Get(i)
	case value.OBJ:
		if idx.Tag != value.STR {
			return vm.errf("map key must be str, got %s", idx.Tag)
		}
		v, ok := target.Obj.Get(idx.Str)
		if !ok {
			return vm.errf("map key %q absent", idx.Str.String())
		}
		vm.r0 = v
	default:
		return vm.errf("cannot index into %s", target.Tag)
	}
	return nil
}

// execAppend implements APPEND for both array and object targets. A
// zero key register (the low 16 bits of arg) means "array append"; a
// non-zero one names the register holding the map-insert key, reusing
// the ARGS (count, offset) encoding as (keyReg, targetReg).
func (vm *VM) execAppend(arg uint32) error {
	vm.collectIfNeeded()
	keyReg, targetReg := bytecode.DecodeArgs(arg)
	target := vm.registers[targetReg]
	if keyReg == 0 {
		if target.Tag != value.ARRAY {
			return vm.errf("cannot append to %s", target.Tag)
		}
		target.Array.Append(vm.r0)
		return nil
	}
	if target.Tag != value.OBJ {
		return vm.errf("cannot insert into %s", target.Tag)
	}
	key := vm.registers[keyReg]
	if key.Tag != value.STR {
		return vm.errf("object key must be str, got %s", key.Tag)
	}
	target.Obj.Insert(key.Str, vm.r0)
	return nil
}
