package connpool

import "testing"

func TestGetClearsRecord(t *testing.T) {
	p := New(2)
	c, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	if c.Fd() != closedFd {
		t.Fatalf("new record should start with sentinel fd")
	}
	c.SetFd(7)
	c.App = "request"
	p.Free(c)

	c2, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	if c2.Fd() != closedFd || c2.App != nil {
		t.Fatalf("freed record was not cleared: fd=%d app=%v", c2.Fd(), c2.App)
	}
}

func TestExhaustion(t *testing.T) {
	p := New(1)
	if _, err := p.Get(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Get(); err != ErrExhausted {
		t.Fatalf("want ErrExhausted, got %v", err)
	}
}

func TestInvariantFreePlusInUseEqualsCapacity(t *testing.T) {
	p := New(4)
	var held []*Conn
	for i := 0; i < 3; i++ {
		c, err := p.Get()
		if err != nil {
			t.Fatal(err)
		}
		held = append(held, c)
	}
	if got := len(p.free) + p.InUse(); got != p.Cap() {
		t.Fatalf("free+inuse=%d want %d", got, p.Cap())
	}
	p.Free(held[0])
	if got := len(p.free) + p.InUse(); got != p.Cap() {
		t.Fatalf("free+inuse=%d want %d after Free", got, p.Cap())
	}
}

func TestDoubleFreePanics(t *testing.T) {
	p := New(1)
	c, _ := p.Get()
	p.Free(c)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on double free")
		}
	}()
	p.Free(c)
}
