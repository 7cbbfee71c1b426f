package value

import "math/bits"

// blockSize is D in the spec's geometric block series: block i holds
// blockSize*2^i elements, so the series of block starts is
// blockSize*(2^i - 1).
const blockSize = 8

// blockIndex maps a global element index to (block, offset within block)
// in O(1) using the position of the highest set bit of idx+blockSize,
// mirroring original_source/adts.c's idx_to_block_idx.
func blockIndex(idx int) (block, offset int) {
	if idx < blockSize {
		return 0, idx
	}
	adjusted := idx + blockSize
	msb := bits.Len(uint(adjusted)) - 1
	log2BlockSize := bits.Len(uint(blockSize)) - 1
	block = msb - log2BlockSize
	start := blockSize * ((1 << uint(block)) - 1)
	return block, idx - start
}

func blockCapacity(block int) int {
	return blockSize << uint(block)
}

// NewList returns an empty list, optionally pre-sizing the first block's
// backing array to at least hint elements (hint == 0 leaves it
// unallocated until the first append).
func NewList(hint int) *ListObj {
	l := &ListObj{}
	if hint > 0 {
		cap0 := blockSize
		if hint > cap0 {
			cap0 = hint
		}
		l.Blocks = append(l.Blocks, make([]Value, 0, cap0))
	}
	return l
}

// Append adds v as the new last element, growing a fresh block when the
// current one is full. Previously returned element storage (via Get)
// never moves: each block's backing array is stable once allocated.
func (l *ListObj) Append(v Value) {
	block, offset := blockIndex(l.Len)
	for block >= len(l.Blocks) {
		l.Blocks = append(l.Blocks, make([]Value, 0, blockCapacity(len(l.Blocks))))
	}
	b := l.Blocks[block]
	if offset < len(b) {
		b[offset] = v
	} else {
		l.Blocks[block] = append(b, v)
	}
	l.Len++
}

// Get returns the element at i. Callers must ensure i < Len.
func (l *ListObj) Get(i int) Value {
	block, offset := blockIndex(i)
	return l.Blocks[block][offset]
}

// Set overwrites the element at i. Callers must ensure i < Len.
func (l *ListObj) Set(i int, v Value) {
	block, offset := blockIndex(i)
	l.Blocks[block][offset] = v
}
