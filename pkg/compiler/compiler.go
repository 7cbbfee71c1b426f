// Package compiler lowers an ast.Node tree into a flat bytecode.Program:
// instruction stream, deduplicated global pool and function table.
package compiler

import (
	"github.com/xnacly/purple-garden-go/pkg/ast"
	"github.com/xnacly/purple-garden-go/pkg/bytecode"
	"github.com/xnacly/purple-garden-go/pkg/value"
)

// maxRegisters bounds the register file; r0 is the implicit accumulator
// and is never handed out by reserve.
const maxRegisters = 256

type globalKey struct {
	tag  value.Tag
	bits uint64
}

// Ctx holds everything the compiler needs across one compilation: register
// occupancy, the deduplicated global pool, the function table (keyed by
// name, shared with forward references) and the builtin name->index table
// supplied by the embedder.
type Ctx struct {
	b           *bytecode.Builder
	globals     []value.Value
	globalIdx   map[globalKey]int
	builtins    map[string]int
	functions   map[string]*bytecode.FuncInfo
	byAddr      map[int]*bytecode.FuncInfo
	pendingCall map[string][]int // function name -> CALL instruction addrs awaiting patch
	registers   [maxRegisters]bool
	scope       map[string]bool
}

// New returns a Ctx ready to compile. builtins maps every resolvable
// builtin name (as it appears after @ in source, dotted for nested
// namespaces, e.g. "fmt.println") to its SYS table index.
func New(builtins map[string]int) *Ctx {
	c := &Ctx{
		b:           bytecode.NewBuilder(),
		globals:     []value.Value{value.False, value.True, value.None},
		globalIdx:   map[globalKey]int{},
		builtins:    builtins,
		functions:   map[string]*bytecode.FuncInfo{},
		byAddr:      map[int]*bytecode.FuncInfo{},
		pendingCall: map[string][]int{},
		scope:       map[string]bool{},
	}
	c.globalIdx[globalKey{tag: value.FALSE}] = 0
	c.globalIdx[globalKey{tag: value.TRUE}] = 1
	c.globalIdx[globalKey{tag: value.NONE}] = 2
	return c
}

// Compile lowers every top-level statement and returns the finished
// program. A CompileError aborts lowering immediately.
func (c *Ctx) Compile(prog *ast.Program) (*bytecode.Program, error) {
	for _, stmt := range prog.Stmts {
		if err := c.compileNode(stmt); err != nil {
			return nil, err
		}
	}
	for name, addrs := range c.pendingCall {
		if len(addrs) > 0 {
			return nil, errf("call to undefined function %q", name)
		}
	}
	return &bytecode.Program{
		Words:     c.b.Words(),
		Globals:   c.globals,
		Functions: c.byAddr,
	}, nil
}

func (c *Ctx) reserve() (int, error) {
	for r := 1; r < maxRegisters; r++ {
		if !c.registers[r] {
			c.registers[r] = true
			return r, nil
		}
	}
	return 0, errf("out of registers")
}

// reserveRun finds n consecutive free registers, used for call argument
// marshalling so ARGS can describe them as (count, offset).
func (c *Ctx) reserveRun(n int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	for start := 1; start+n <= maxRegisters; start++ {
		free := true
		for i := 0; i < n; i++ {
			if c.registers[start+i] {
				free = false
				break
			}
		}
		if free {
			for i := 0; i < n; i++ {
				c.registers[start+i] = true
			}
			return start, nil
		}
	}
	return 0, errf("out of registers for %d-argument call", n)
}

func (c *Ctx) freeRun(offset, n int) {
	for i := 0; i < n; i++ {
		c.registers[offset+i] = false
	}
}

func (c *Ctx) addGlobal(v value.Value) int {
	key := globalKey{tag: v.Tag}
	switch v.Tag {
	case value.INT:
		key.bits = uint64(v.Int)
	case value.DOUBLE:
		key.bits = value.DoubleBits(v.Double)
	case value.STR:
		key.bits = v.Str.Hash
	}
	if idx, ok := c.globalIdx[key]; ok {
		return idx
	}
	idx := len(c.globals)
	c.globals = append(c.globals, v)
	c.globalIdx[key] = idx
	return idx
}

func (c *Ctx) getOrCreateFunc(name string) *bytecode.FuncInfo {
	if fn, ok := c.functions[name]; ok {
		return fn
	}
	fn := &bytecode.FuncInfo{Name: name, Addr: -1}
	c.functions[name] = fn
	return fn
}

func (c *Ctx) compileNode(n ast.Node) error {
	switch v := n.(type) {
	case ast.Atom:
		return c.compileAtom(v)
	case ast.Ident:
		return c.compileIdent(v)
	case ast.BinOp:
		return c.compileBinOp(v)
	case ast.BuiltinCall:
		return c.compileBuiltinCall(v)
	case ast.Call:
		return c.compileCall(v)
	case ast.FuncDef:
		return c.compileFuncDef(v)
	case ast.Let:
		return c.compileLet(v)
	case ast.Match:
		return c.compileMatch(v)
	case ast.ArrayLit:
		return c.compileArrayLit(v)
	case ast.ObjectLit:
		return c.compileObjectLit(v)
	case ast.Index:
		return c.compileIndex(v)
	default:
		return errf("unknown ast node %T", n)
	}
}

func (c *Ctx) compileAtom(a ast.Atom) error {
	var v value.Value
	switch a.AtomKind {
	case ast.AtomString:
		v = value.Value{Tag: value.STR, Str: value.NewInternedStr([]byte(a.Str))}
	case ast.AtomInt:
		v = value.Value{Tag: value.INT, Int: a.Int}
	case ast.AtomDouble:
		v = value.Value{Tag: value.DOUBLE, Double: a.Double}
	case ast.AtomBool:
		if a.Bool {
			v = value.True
		} else {
			v = value.False
		}
	default:
		return errf("unknown atom kind %d", a.AtomKind)
	}
	idx := c.addGlobal(v)
	c.b.Emit(bytecode.LOADG, uint32(idx))
	return nil
}

func (c *Ctx) compileIdent(id ast.Ident) error {
	if !c.scope[id.Name] {
		return errf("unknown identifier %q", id.Name)
	}
	h := value.HashString(id.Name)
	c.b.Emit(bytecode.LOADV, uint32(h))
	return nil
}

func binOpToOp(op string) (bytecode.Op, bool) {
	switch op {
	case "+":
		return bytecode.ADD, true
	case "-":
		return bytecode.SUB, true
	case "*":
		return bytecode.MUL, true
	case "/":
		return bytecode.DIV, true
	case "=":
		return bytecode.EQ, true
	case "<":
		return bytecode.LT, true
	case ">":
		return bytecode.GT, true
	default:
		return 0, false
	}
}

func (c *Ctx) compileBinOp(b ast.BinOp) error {
	op, ok := binOpToOp(b.Op)
	if !ok {
		return errf("unknown operator %q", b.Op)
	}
	if err := c.compileNode(b.LHS); err != nil {
		return err
	}
	r, err := c.reserve()
	if err != nil {
		return err
	}
	c.b.Emit(bytecode.STORE, uint32(r))
	if err := c.compileNode(b.RHS); err != nil {
		return err
	}
	c.b.Emit(op, uint32(r))
	c.registers[r] = false
	return nil
}

// marshalArgs compiles each argument into r0 and stores it into a freshly
// reserved run of consecutive registers, then emits ARGS describing them.
// It returns the register run so the caller can free it once the SYS/CALL
// has executed.
func (c *Ctx) marshalArgs(args []ast.Node) (offset, count int, err error) {
	count = len(args)
	offset, err = c.reserveRun(count)
	if err != nil {
		return 0, 0, err
	}
	for i, a := range args {
		if err := c.compileNode(a); err != nil {
			return 0, 0, err
		}
		c.b.Emit(bytecode.STORE, uint32(offset+i))
	}
	c.b.Emit(bytecode.ARGS, bytecode.EncodeArgs(count, offset))
	return offset, count, nil
}

func (c *Ctx) compileBuiltinCall(b ast.BuiltinCall) error {
	idx, ok := c.builtins[b.Name]
	if !ok {
		return errf("unknown builtin %q", b.Name)
	}
	offset, count, err := c.marshalArgs(b.Args)
	if err != nil {
		return err
	}
	c.b.Emit(bytecode.SYS, uint32(idx))
	c.freeRun(offset, count)
	return nil
}

func (c *Ctx) compileCall(call ast.Call) error {
	offset, count, err := c.marshalArgs(call.Args)
	if err != nil {
		return err
	}
	fn := c.getOrCreateFunc(call.Name)
	if fn.Addr >= 0 {
		c.b.Emit(bytecode.CALL, uint32(fn.Addr))
	} else {
		addr := c.b.Emit(bytecode.CALL, 0)
		c.pendingCall[call.Name] = append(c.pendingCall[call.Name], addr)
	}
	c.freeRun(offset, count)
	return nil
}

func (c *Ctx) compileFuncDef(fd ast.FuncDef) error {
	fn := c.getOrCreateFunc(fd.Name)
	if fn.Addr >= 0 {
		return errf("function %q already defined", fd.Name)
	}

	skip := c.b.Emit(bytecode.JMP, 0)
	bodyAddr := c.b.Len()
	fn.Addr = bodyAddr
	fn.ParamHashes = make([]uint64, len(fd.Params))
	for i, p := range fd.Params {
		// Same 32-bit truncation LOADV/VAR apply to their operand.
		fn.ParamHashes[i] = uint64(uint32(value.HashString(p)))
	}
	c.byAddr[bodyAddr] = fn

	for _, addr := range c.pendingCall[fd.Name] {
		c.b.Patch(addr, uint32(bodyAddr))
	}
	delete(c.pendingCall, fd.Name)

	savedScope := c.scope
	c.scope = map[string]bool{}
	for _, p := range fd.Params {
		c.scope[p] = true
	}
	for _, stmt := range fd.Body {
		if err := c.compileNode(stmt); err != nil {
			c.scope = savedScope
			return err
		}
	}
	c.b.Emit(bytecode.LEAVE, 0)
	c.scope = savedScope

	c.b.Patch(skip, uint32(c.b.Len()))
	return nil
}

func (c *Ctx) compileLet(l ast.Let) error {
	if err := c.compileNode(l.Value); err != nil {
		return err
	}
	h := value.HashString(l.Name)
	c.b.Emit(bytecode.VAR, uint32(h))
	c.scope[l.Name] = true
	return nil
}

func (c *Ctx) compileMatch(m ast.Match) error {
	if err := c.compileNode(m.Cond); err != nil {
		return err
	}
	subj, err := c.reserve()
	if err != nil {
		return err
	}
	c.b.Emit(bytecode.STORE, uint32(subj))

	var endJumps []int
	for _, arm := range m.Arms {
		if err := c.compileNode(arm.Cond); err != nil {
			return err
		}
		c.b.Emit(bytecode.EQ, uint32(subj))
		nextArm := c.b.Emit(bytecode.JMPF, 0)
		for _, stmt := range arm.Body {
			if err := c.compileNode(stmt); err != nil {
				return err
			}
		}
		endJumps = append(endJumps, c.b.Emit(bytecode.JMP, 0))
		c.b.Patch(nextArm, uint32(c.b.Len()))
	}
	for _, stmt := range m.Default {
		if err := c.compileNode(stmt); err != nil {
			return err
		}
	}
	end := c.b.Len()
	for _, addr := range endJumps {
		c.b.Patch(addr, uint32(end))
	}
	c.registers[subj] = false
	return nil
}

// compileIndex compiles `(@idx target key)`: target into a held
// register, key into r0, then IDX reads r[target] by r0.
func (c *Ctx) compileIndex(idx ast.Index) error {
	if err := c.compileNode(idx.Target); err != nil {
		return err
	}
	r, err := c.reserve()
	if err != nil {
		return err
	}
	c.b.Emit(bytecode.STORE, uint32(r))
	if err := c.compileNode(idx.Key); err != nil {
		return err
	}
	c.b.Emit(bytecode.IDX, uint32(r))
	c.registers[r] = false
	return nil
}

func (c *Ctx) compileArrayLit(a ast.ArrayLit) error {
	c.b.Emit(bytecode.SIZE, uint32(len(a.Elems)))
	c.b.Emit(bytecode.NEW, uint32(bytecode.NewArray))
	rl, err := c.reserve()
	if err != nil {
		return err
	}
	c.b.Emit(bytecode.STORE, uint32(rl))
	for _, e := range a.Elems {
		if err := c.compileNode(e); err != nil {
			return err
		}
		c.b.Emit(bytecode.APPEND, bytecode.EncodeArgs(0, rl))
	}
	c.b.Emit(bytecode.LOAD, uint32(rl))
	c.registers[rl] = false
	return nil
}

// compileObjectLit reuses APPEND for map insertion: a non-zero key-register
// field in the encoded arg signals "insert r0 under key[keyReg] into
// map[targetReg]" instead of a plain array append.
func (c *Ctx) compileObjectLit(o ast.ObjectLit) error {
	c.b.Emit(bytecode.SIZE, uint32(len(o.Keys)))
	c.b.Emit(bytecode.NEW, uint32(bytecode.NewObj))
	ro, err := c.reserve()
	if err != nil {
		return err
	}
	c.b.Emit(bytecode.STORE, uint32(ro))
	for i := range o.Keys {
		if err := c.compileNode(o.Keys[i]); err != nil {
			return err
		}
		kReg, err := c.reserve()
		if err != nil {
			return err
		}
		c.b.Emit(bytecode.STORE, uint32(kReg))
		if err := c.compileNode(o.Vals[i]); err != nil {
			return err
		}
		c.b.Emit(bytecode.APPEND, bytecode.EncodeArgs(kReg, ro))
		c.registers[kReg] = false
	}
	c.b.Emit(bytecode.LOAD, uint32(ro))
	c.registers[ro] = false
	return nil
}
