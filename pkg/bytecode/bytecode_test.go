package bytecode

import "testing"

func TestOpStringKnownAndUnknown(t *testing.T) {
	if got := ADD.String(); got != "ADD" {
		t.Errorf("expected ADD, got %q", got)
	}
	if got := Op(999).String(); got != "UNKNOWN" {
		t.Errorf("expected UNKNOWN for an out-of-range Op, got %q", got)
	}
}

func TestEncodeDecodeArgsRoundTrip(t *testing.T) {
	cases := []struct{ count, offset int }{
		{0, 0},
		{1, 0},
		{3, 7},
		{0, 255},
	}
	for _, c := range cases {
		arg := EncodeArgs(c.count, c.offset)
		gotCount, gotOffset := DecodeArgs(arg)
		if gotCount != c.count || gotOffset != c.offset {
			t.Errorf("EncodeArgs(%d, %d) round-tripped to (%d, %d)",
				c.count, c.offset, gotCount, gotOffset)
		}
	}
}

func TestBuilderEmitReturnsStableAddress(t *testing.T) {
	b := NewBuilder()
	a0 := b.Emit(LOADG, 0)
	a1 := b.Emit(ADD, 1)
	if a0 != 0 || a1 != 2 {
		t.Fatalf("expected addresses 0 and 2, got %d and %d", a0, a1)
	}
	if b.Len() != 4 {
		t.Fatalf("expected Len 4, got %d", b.Len())
	}
	words := b.Words()
	if Op(words[0]) != LOADG || words[1] != 0 {
		t.Errorf("word 0 wrong: %+v", words[:2])
	}
	if Op(words[2]) != ADD || words[3] != 1 {
		t.Errorf("word 2 wrong: %+v", words[2:4])
	}
}

func TestBuilderPatchOverwritesArgOnly(t *testing.T) {
	b := NewBuilder()
	addr := b.Emit(JMP, 0)
	b.Emit(ADD, 5)
	b.Patch(addr, 42)

	words := b.Words()
	if Op(words[addr]) != JMP {
		t.Fatalf("Patch must not touch the op word")
	}
	if words[addr+1] != 42 {
		t.Errorf("expected patched arg 42, got %d", words[addr+1])
	}
}

func TestBuilderGrowthPreservesEarlierAddresses(t *testing.T) {
	b := NewBuilder()
	first := b.Emit(LOADG, 0)
	for i := 0; i < 1000; i++ {
		b.Emit(ADD, uint32(i))
	}
	words := b.Words()
	if Op(words[first]) != LOADG || words[first+1] != 0 {
		t.Errorf("growth corrupted the first instruction: %+v", words[first:first+2])
	}
}
