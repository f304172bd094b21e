package arena

import (
	"testing"
	"unsafe"
)

func TestAllocAlignment(t *testing.T) {
	a := New(128)
	p1, err := a.Alloc(1)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := a.Alloc(1)
	if err != nil {
		t.Fatal(err)
	}
	delta := uintptr(unsafe.Pointer(&p2[0])) - uintptr(unsafe.Pointer(&p1[0]))
	if delta < wordAlign {
		t.Fatalf("second allocation not word-aligned past the first: delta %d", delta)
	}
}

func TestAllocOversizeFails(t *testing.T) {
	a := New(64)
	if _, err := a.Alloc(65); err != ErrTooLarge {
		t.Fatalf("want ErrTooLarge, got %v", err)
	}
	// Arena must be unchanged: a normal allocation still succeeds.
	if _, err := a.Alloc(8); err != nil {
		t.Fatalf("arena corrupted after failed oversize alloc: %v", err)
	}
}

func TestAllocSpillsToNewBlock(t *testing.T) {
	a := New(16)
	if _, err := a.Alloc(16); err != nil {
		t.Fatal(err)
	}
	if a.head != a.tail {
		t.Fatalf("expected single block before spill")
	}
	if _, err := a.Alloc(16); err != nil {
		t.Fatal(err)
	}
	if a.head == a.tail {
		t.Fatalf("expected a second block to have been pushed")
	}
}

func TestCurrentAdvancesPastExhaustedBlocks(t *testing.T) {
	a := New(16)
	// Exhaust the first block.
	if _, err := a.Alloc(16); err != nil {
		t.Fatal(err)
	}
	// Fail on the first block more than failThreshold times; each fresh
	// 16-byte block takes two of these allocations before the next spill.
	for i := 0; i <= failThreshold; i++ {
		if _, err := a.Alloc(8); err != nil {
			t.Fatal(err)
		}
	}
	if a.current == a.head {
		t.Fatalf("current should have advanced past the exhausted head block")
	}
}

func TestResetReclaimsBlocksInPlace(t *testing.T) {
	a := New(16)
	if _, err := a.Alloc(16); err != nil {
		t.Fatal(err)
	}
	a.reset()
	if a.current != a.head {
		t.Fatalf("reset should rewind current to head")
	}
	if a.head.pos != 0 || a.head.failed != 0 {
		t.Fatalf("reset should clear bump pointer and failure counter")
	}
}

func TestPoolReuse(t *testing.T) {
	p := NewPool(64)
	a1 := p.Get()
	p.Put(a1)
	a2 := p.Get()
	if a1 != a2 {
		t.Fatalf("expected Pool.Get to reuse the returned arena")
	}
	stats := p.Stats()
	if stats.Created != 1 || stats.Reused != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestAllocStringCopies(t *testing.T) {
	a := New(64)
	src := "hello"
	s, err := a.AllocString(src)
	if err != nil {
		t.Fatal(err)
	}
	if s != src {
		t.Fatalf("got %q want %q", s, src)
	}
}
