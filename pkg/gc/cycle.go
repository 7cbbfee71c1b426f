package gc

import "github.com/xnacly/purple-garden-go/pkg/value"

// Cycle runs one mark -> copy -> rewrite -> flip pass. roots is asked to
// walk every live Value slot twice: once to mark, once (after copying)
// to rewrite old-space references to their new-space forwarding
// targets. The world is fully paused for the duration of the call —
// there is no concurrent mutation to race with.
func (c *Collector) Cycle(roots RootWalker) {
	roots.WalkRoots(func(v *value.Value) { mark(v) })

	var newHead *value.Header
	var newAllocated uint64
	for h := c.head; h != nil; h = h.Next {
		if !h.Marked || h.Forward != nil {
			continue
		}
		nh := copyObject(c, h)
		nh.Next = newHead
		newHead = nh
		h.Forward = nh
		newAllocated += uint64(nh.Size)
	}

	roots.WalkRoots(func(v *value.Value) { rewrite(v) })

	for h := newHead; h != nil; h = h.Next {
		rewriteChildren(h)
		h.Marked = false
	}

	c.head = newHead
	c.old.Reset()
	c.old, c.new = c.new, c.old
	c.allocated = newAllocated
	c.cycles++
}

// mark walks a root Value and everything it transitively references,
// setting Header.Marked on every heap object reached. Safe to call the
// same Value (or an aliased one) more than once: marking an
// already-marked header is a no-op, which is what makes shared
// references between registers, the variable table and container
// interiors safe to visit redundantly.
func mark(v *value.Value) {
	if v == nil || !v.IsHeap {
		return
	}
	switch v.Tag {
	case value.STR:
		markStr(v.Str)
	case value.ARRAY:
		markHeader(&v.Array.Header)
		for b := range v.Array.Blocks {
			block := v.Array.Blocks[b]
			for i := range block {
				mark(&block[i])
			}
		}
	case value.OBJ:
		markHeader(&v.Obj.Header)
		for i := range v.Obj.Entries {
			e := &v.Obj.Entries[i]
			if e.Hash == 0 {
				continue
			}
			markStr(e.Key)
			mark(&e.Value)
		}
	}
}

func markStr(s *value.StrObj) {
	if s == nil || !s.Heap {
		return
	}
	if markHeader(&s.Header) {
		markHeader(&s.Raw.Header)
	}
}

// markHeader marks h and reports whether it was previously unmarked (so
// callers can skip re-walking children of an already-marked object).
func markHeader(h *value.Header) bool {
	if h.Marked {
		return false
	}
	h.Marked = true
	return true
}

// copyObject allocates h's new-space twin and deep-copies its shallow
// payload (containers keep their old-space element/entry Values for now;
// those get corrected in the rewrite pass once every object has a
// Forward target).
func copyObject(c *Collector, h *value.Header) *value.Header {
	switch obj := h.Object.(type) {
	case *value.RawObj:
		buf := c.new.Request(len(obj.Bytes))
		copy(buf, obj.Bytes)
		n := &value.RawObj{Bytes: buf}
		n.Header = value.Header{Type: value.RAW, Size: h.Size, Object: n}
		return &n.Header
	case *value.StrObj:
		n := &value.StrObj{Raw: obj.Raw, Hash: obj.Hash, Heap: true}
		n.Header = value.Header{Type: value.STRHEAP, Size: h.Size, Object: n}
		return &n.Header
	case *value.ListObj:
		n := &value.ListObj{Blocks: obj.Blocks, Len: obj.Len}
		n.Header = value.Header{Type: value.LIST, Size: h.Size, Object: n}
		return &n.Header
	case *value.MapObj:
		n := &value.MapObj{Entries: obj.Entries, Len: obj.Len}
		n.Header = value.Header{Type: value.MAP, Size: h.Size, Object: n}
		return &n.Header
	default:
		panic("gc: copyObject: unknown heap object kind")
	}
}

// rewrite replaces a heap Value's payload pointer with its forwarding
// target. Idempotent: ForwardPtr returns the same header whether called
// once or many times on the same old-space payload.
func rewrite(v *value.Value) {
	if v == nil || !v.IsHeap {
		return
	}
	switch v.Tag {
	case value.STR:
		if v.Str != nil && v.Str.Heap {
			v.Str = v.Str.Header.ForwardPtr().Object.(*value.StrObj)
		}
	case value.ARRAY:
		v.Array = v.Array.Header.ForwardPtr().Object.(*value.ListObj)
	case value.OBJ:
		v.Obj = v.Obj.Header.ForwardPtr().Object.(*value.MapObj)
	}
}

// rewriteChildren fixes up the interior references of a freshly copied
// container (and a freshly copied string's backing raw buffer) now that
// every reachable object has a stable new-space address.
func rewriteChildren(h *value.Header) {
	switch obj := h.Object.(type) {
	case *value.StrObj:
		if obj.Raw != nil {
			obj.Raw = obj.Raw.Header.ForwardPtr().Object.(*value.RawObj)
		}
	case *value.ListObj:
		for b := range obj.Blocks {
			block := obj.Blocks[b]
			for i := range block {
				rewrite(&block[i])
			}
		}
	case *value.MapObj:
		for i := range obj.Entries {
			e := &obj.Entries[i]
			if e.Hash == 0 {
				continue
			}
			if e.Key != nil && e.Key.Heap {
				e.Key = e.Key.Header.ForwardPtr().Object.(*value.StrObj)
			}
			rewrite(&e.Value)
		}
	}
}
