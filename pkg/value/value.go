// Package value defines the runtime value model shared by the compiler,
// the virtual machine and the garbage collector.
//
// A Value is a small tagged union: scalars (None, booleans, ints, doubles)
// are carried inline and are never heap-allocated, while strings, arrays
// and maps may live either in the pipeline arena (interned, read-only for
// the lifetime of a run) or on the GC heap. IsHeap tells the collector
// whether a Value needs to be walked; IsSome overlays any variant to
// express Option(x) without a second enum.
package value

// Tag identifies which field of Value is active.
type Tag uint8

const (
	NONE Tag = iota
	TRUE
	FALSE
	INT
	DOUBLE
	STR
	ARRAY
	OBJ
)

func (t Tag) String() string {
	switch t {
	case NONE:
		return "option"
	case TRUE, FALSE:
		return "bool"
	case INT, DOUBLE:
		return "number"
	case STR:
		return "str"
	case ARRAY:
		return "array"
	case OBJ:
		return "obj"
	default:
		return "unknown"
	}
}

// ObjType distinguishes the concrete shape of a heap object behind a
// Header. Values are fixed per the spec's corrected mapping (the
// original C enum mistakenly assigned every member to 1).
type ObjType uint8

const (
	RAW ObjType = iota
	STRHEAP
	LIST
	MAP
)

// Header precedes every GC-managed object conceptually; in this
// implementation it is embedded as the first field of each heap object
// and doubles as the intrusive list node the collector threads live
// objects through. Forward is set once an object has been copied to
// newspace during a cycle; Object is the forwarding target, recovered
// via a type assertion against the concrete heap type named by Type.
type Header struct {
	Type    ObjType
	Marked  bool
	Size    int
	Forward *Header
	Next    *Header
	Object  any
}

// ForwardPtr returns the header an old-space reference should now point
// through. Idempotent: calling it again on an already-forwarded header,
// or on one that was never marked/copied, returns a stable result.
func (h *Header) ForwardPtr() *Header {
	if h == nil {
		return nil
	}
	if h.Forward != nil {
		return h.Forward
	}
	return h
}

// RawObj is the raw byte backing of a heap string. It is the spec's
// GC_OBJ_RAW: always copied and forwarded together with the StrObj that
// points at it.
type RawObj struct {
	Header Header
	Bytes  []byte
}

// StrObj is the shared shape of a string payload, whether it lives in
// the pipeline arena (interned, Heap is false and Header is never
// registered with the collector) or on the GC heap (Heap is true).
type StrObj struct {
	Header Header
	Raw    *RawObj
	Hash   uint64
	Heap   bool
}

// Bytes returns the string's backing bytes regardless of where it lives.
func (s *StrObj) Bytes() []byte { return s.Raw.Bytes }

// ListObj backs V_ARRAY. Elements live in geometrically growing blocks so
// that appends never move previously returned element slices.
type ListObj struct {
	Header Header
	Blocks [][]Value
	Len    int
}

// MapEntry is one slot of a MapObj's open-addressed table. An empty slot
// is encoded by Hash == 0.
type MapEntry struct {
	Hash  uint64
	Key   *StrObj
	Value Value
}

// MapObj backs V_OBJ: an open-addressed table keyed by Str.Hash with
// linear probing.
type MapObj struct {
	Header  Header
	Entries []MapEntry
	Len     int
}

// Value is the tagged union the compiler emits and the VM executes
// against. Booleans, None and numbers are inline and IsHeap is always
// false for them; Str/Array/Obj carry IsHeap=true exactly when their
// payload has a live Header (i.e. is GC-managed rather than interned).
type Value struct {
	Tag    Tag
	IsSome bool
	IsHeap bool

	Int    int64
	Double float64
	Str    *StrObj
	Array  *ListObj
	Obj    *MapObj
}

// Interned singletons. Globals 0, 1, 2 in every compiled program are
// always these three values, in this order.
var (
	False = Value{Tag: FALSE}
	True  = Value{Tag: TRUE}
	None  = Value{Tag: NONE}
)

// Some wraps v as an Option, sharing v's storage and tag.
func Some(v Value) Value {
	v.IsSome = true
	return v
}

// Bool returns the interned True or False singleton.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// IsFalse reports whether v is V_FALSE, the only value JMPF jumps on.
// Every other tag (including None) is truthy in the sense that JMPF
// only special-cases the false singleton.
func (v Value) IsFalse() bool { return v.Tag == FALSE }

// IsNumeric reports whether v is an INT or DOUBLE, the only operands
// valid for ADD/SUB/MUL/DIV/LT/GT.
func (v Value) IsNumeric() bool { return v.Tag == INT || v.Tag == DOUBLE }

// AsFloat64 widens an INT or DOUBLE value to float64. Callers must check
// IsNumeric first.
func (v Value) AsFloat64() float64 {
	if v.Tag == DOUBLE {
		return v.Double
	}
	return float64(v.Int)
}

// Equal implements the language's `=` operator: reflexive and symmetric
// for all tags, bitwise/byte-wise for scalars and strings, shallow (by
// pointer identity) for heap containers. See valuetest.DeepEqual for the
// deep structural comparison used only at the test-utility layer.
func Equal(a, b Value) bool {
	if a.IsSome != b.IsSome {
		return false
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case NONE, TRUE, FALSE:
		return true
	case INT:
		return a.Int == b.Int
	case DOUBLE:
		return a.Double == b.Double
	case STR:
		return a.Str == b.Str || (a.Str != nil && b.Str != nil &&
			a.Str.Hash == b.Str.Hash && string(a.Str.Bytes()) == string(b.Str.Bytes()))
	case ARRAY:
		return a.Array == b.Array
	case OBJ:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// Len returns the string's byte length.
func (s *StrObj) Len() int { return len(s.Raw.Bytes) }

// String satisfies fmt.Stringer; std.fmt.print uses it to render
// string values.
func (s *StrObj) String() string {
	if s == nil {
		return ""
	}
	return string(s.Raw.Bytes)
}

// NewInternedStr builds a pipeline-arena string view: it is never
// registered with the collector and is never copied by a GC cycle.
func NewInternedStr(b []byte) *StrObj {
	return &StrObj{Raw: &RawObj{Bytes: b}, Hash: HashBytes(b)}
}
