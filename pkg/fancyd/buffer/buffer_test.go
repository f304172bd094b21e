package buffer

import "testing"

func TestWriteAndReadPtr(t *testing.T) {
	b := New(16)
	n, err := b.Write([]byte("GET / HTTP/1.1"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 14 {
		t.Fatalf("got %d want 14", n)
	}
	if string(b.ReadPtr()) != "GET / HTTP/1.1" {
		t.Fatalf("unexpected read ptr contents: %q", b.ReadPtr())
	}
}

func TestSeekStartConsumesBytes(t *testing.T) {
	b := New(16)
	b.Write([]byte("0123456789"))
	if err := b.SeekStart(4); err != nil {
		t.Fatal(err)
	}
	if string(b.ReadPtr()) != "456789" {
		t.Fatalf("got %q", b.ReadPtr())
	}
	if err := b.SeekStart(100); err != ErrUnderflow {
		t.Fatalf("want ErrUnderflow, got %v", err)
	}
}

func TestWriteOverflow(t *testing.T) {
	b := New(4)
	if _, err := b.Write([]byte("12345")); err != ErrOverflow {
		t.Fatalf("want ErrOverflow, got %v", err)
	}
	if b.Size() != 0 {
		t.Fatalf("failed write must not partially commit bytes")
	}
}

func TestEmptyAndFull(t *testing.T) {
	b := New(4)
	if !b.Empty() {
		t.Fatalf("fresh buffer should be empty")
	}
	b.Write([]byte("abcd"))
	if !b.Full() {
		t.Fatalf("buffer should be full after filling capacity")
	}
	b.SeekStart(4)
	if !b.Empty() {
		t.Fatalf("buffer should be empty after consuming all bytes")
	}
}

func TestResetReclaimsWindow(t *testing.T) {
	b := New(8)
	b.Write([]byte("abcd"))
	b.SeekStart(4)
	b.Reset()
	if b.Size() != 0 || b.Free() != 8 {
		t.Fatalf("reset did not restore full free space")
	}
}

func TestCompactPreservesUnreadBytes(t *testing.T) {
	b := New(8)
	b.Write([]byte("abcdef"))
	b.SeekStart(4)
	b.Compact()
	if string(b.ReadPtr()) != "ef" {
		t.Fatalf("got %q want \"ef\"", b.ReadPtr())
	}
	if b.Free() != 6 {
		t.Fatalf("got free %d want 6", b.Free())
	}
}

func TestPoolReuse(t *testing.T) {
	p := NewPool(32)
	b1 := p.Get()
	b1.Write([]byte("hello"))
	p.Put(b1)
	b2 := p.Get()
	if b1 != b2 {
		t.Fatalf("expected Pool.Get to reuse the returned buffer")
	}
	if !b2.Empty() {
		t.Fatalf("reused buffer should have been reset")
	}
}
