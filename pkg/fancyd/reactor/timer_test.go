package reactor

import (
	"testing"

	"github.com/yourusername/fancyd/pkg/fancyd/connpool"
)

func TestTimerRecentEmptyIsForever(t *testing.T) {
	var w timerWheel
	if got := w.recent(1000); got != Forever {
		t.Fatalf("got %d want Forever", got)
	}
}

func TestTimerOrdersByDeadline(t *testing.T) {
	var w timerWheel
	p := connpool.New(3)
	a, _ := p.Get()
	b, _ := p.Get()
	c, _ := p.Get()

	w.add(&a.Read, 300)
	w.add(&b.Read, 100)
	w.add(&c.Read, 200)

	if got := w.recent(0); got != 100 {
		t.Fatalf("got %d want 100", got)
	}

	var order []*connpool.Conn
	w.expired(250, func(ev *connpool.Event) { order = append(order, ev.Conn()) })
	if len(order) != 2 || order[0] != b || order[1] != c {
		t.Fatalf("unexpected expiry order: %v", order)
	}
	if got := w.recent(0); got != 300 {
		t.Fatalf("got %d want 300 after popping two", got)
	}
}

func TestTimerDelRemovesEntry(t *testing.T) {
	var w timerWheel
	p := connpool.New(1)
	a, _ := p.Get()
	w.add(&a.Read, 50)
	w.del(&a.Read)
	if got := w.recent(0); got != Forever {
		t.Fatalf("got %d want Forever after del", got)
	}
	// del on an event with no timer must be a harmless no-op.
	w.del(&a.Read)
}

func TestTimerAddRelocatesExistingEntry(t *testing.T) {
	var w timerWheel
	p := connpool.New(1)
	a, _ := p.Get()
	w.add(&a.Read, 500)
	w.add(&a.Read, 10)
	if got := w.recent(0); got != 10 {
		t.Fatalf("got %d want 10 after relocation", got)
	}
	if w.Len() != 1 {
		t.Fatalf("relocating an existing event must not duplicate its entry")
	}
}

func TestRecentClampsToZeroWhenOverdue(t *testing.T) {
	var w timerWheel
	p := connpool.New(1)
	a, _ := p.Get()
	w.add(&a.Read, 10)
	if got := w.recent(1000); got != 0 {
		t.Fatalf("got %d want 0 for an overdue deadline", got)
	}
}
