// Package gc implements the semi-space copying collector the VM relies
// on for every heap string, array and map. It is grounded directly on
// original_source/gc.c: two equal-sized arenas (old/new), an intrusive
// list of live object headers threaded through value.Header.Next, and a
// mark -> copy -> rewrite -> flip cycle triggered by allocation
// pressure.
package gc

import (
	"github.com/xnacly/purple-garden-go/pkg/bump"
	"github.com/xnacly/purple-garden-go/pkg/value"
)

// minHeap is the starting size of each arena, matching GC_MIN_HEAP in
// original_source/mem.h.
const minHeap = 50 * 1024

// RootWalker is implemented by the VM: it knows every live Value slot
// (registers and the current frame chain's variable tables) and hands
// each one to fn so the collector can mark and, later, rewrite it in
// place.
type RootWalker interface {
	WalkRoots(fn func(*value.Value))
}

// Collector owns the two semi-space arenas and the intrusive list of
// every live heap object. It never observes the VM directly outside of
// a Cycle call, keeping the allocator and the interpreter loosely
// coupled the way original_source's Allocator interface does.
type Collector struct {
	old, new  *bump.Arena
	head      *value.Header
	threshold uint64
	allocated uint64
	cycles    int
}

// New returns a Collector whose cycle threshold is thresholdBytes (0
// uses a sane default derived from minHeap).
func New(thresholdBytes int) *Collector {
	if thresholdBytes <= 0 {
		thresholdBytes = minHeap
	}
	return &Collector{
		old:       bump.New(minHeap),
		new:       bump.New(minHeap),
		threshold: uint64(thresholdBytes),
	}
}

// Stats mirrors std.runtime.gc.stats: Current is the bytes handed out
// from both arenas since their last reset (right after a cycle, only
// what was copied as reachable), Allocated is the total block capacity
// of both arenas, Cycles the number of completed cycles.
type Stats struct {
	Current   uint64
	Allocated uint64
	Cycles    int
}

func (c *Collector) Stats() Stats {
	o, n := c.old.Stats(), c.new.Stats()
	return Stats{
		Current:   o.Current + n.Current,
		Allocated: o.Allocated + n.Allocated,
		Cycles:    c.cycles,
	}
}

// ShouldCollect reports whether accumulated allocation pressure has
// crossed the threshold; the VM checks this before every NEW, APPEND, SYS
// and string-concatenating ADD and calls Cycle if true.
func (c *Collector) ShouldCollect() bool { return c.allocated >= c.threshold }

func (c *Collector) register(h *value.Header, typ value.ObjType, size int, obj any) {
	h.Type = typ
	h.Size = size
	h.Object = obj
	h.Next = c.head
	c.head = h
	c.allocated += uint64(size)
}

// NewString allocates a heap string holding a copy of b. The backing
// bytes are requested from the old arena so GC accounting reflects real
// heap pressure; the StrObj and RawObj wrapper structs are ordinary Go
// heap objects reachable only through the collector's intrusive list and
// whatever Value currently points at them.
func (c *Collector) NewString(b []byte) *value.StrObj {
	buf := c.old.Request(len(b))
	copy(buf, b)
	raw := &value.RawObj{Bytes: buf}
	c.register(&raw.Header, value.RAW, len(b), raw)
	s := &value.StrObj{Raw: raw, Hash: value.HashBytes(b), Heap: true}
	c.register(&s.Header, value.STRHEAP, len(b), s)
	return s
}

// ConcatStrings implements ADD for two V_STR operands: a freshly
// allocated heap string holding a||b.
func (c *Collector) ConcatStrings(a, b *value.StrObj) *value.StrObj {
	buf := make([]byte, 0, a.Len()+b.Len())
	buf = append(buf, a.Bytes()...)
	buf = append(buf, b.Bytes()...)
	return c.NewString(buf)
}

// NewArray allocates an empty heap array, pre-sizing its first block
// when hint > 0 (the pending SIZE instruction's operand).
func (c *Collector) NewArray(hint int) *value.ListObj {
	l := value.NewList(hint)
	c.register(&l.Header, value.LIST, hint, l)
	return l
}

// NewMap allocates an empty heap map, pre-sizing its table when hint > 0.
func (c *Collector) NewMap(hint int) *value.MapObj {
	m := value.NewMap(hint)
	c.register(&m.Header, value.MAP, len(m.Entries), m)
	return m
}
