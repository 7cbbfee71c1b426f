package bytecode

// Builder is a mutable, append-only buffer of 32-bit words. Instruction
// addresses are word indices and stay stable for the builder's entire
// lifetime — patch only ever overwrites a word already emitted, it never
// moves or resizes around it, so a forward jump target computed before
// the buffer regrows remains correct after.
type Builder struct {
	words []uint32
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{words: make([]uint32, 0, 256)}
}

// Emit appends one (op,arg) instruction and returns its address (the
// word index of op).
func (b *Builder) Emit(op Op, arg uint32) int {
	addr := len(b.words)
	b.words = append(b.words, uint32(op), arg)
	return addr
}

// Patch overwrites the arg word of the instruction at addr, used to
// resolve forward jumps and function prologue sizes once known.
func (b *Builder) Patch(addr int, arg uint32) {
	b.words[addr+1] = arg
}

// Len returns the current word count; the next Emit's address.
func (b *Builder) Len() int { return len(b.words) }

// Words returns the built instruction stream. The VM treats this as
// read-only once execution starts.
func (b *Builder) Words() []uint32 { return b.words }
