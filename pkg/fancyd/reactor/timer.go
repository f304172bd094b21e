package reactor

import (
	"container/heap"

	"github.com/yourusername/fancyd/pkg/fancyd/connpool"
)

// Forever is the "no deadline" sentinel returned by TimerRecent when the
// timer index is empty.
const Forever = -1

// timerEntry is one slot in the timer wheel's backing heap, ordered by
// ascending deadline.
type timerEntry struct {
	deadline int64
	ev       *connpool.Event
}

// timerWheel is an ordered mapping from monotonic-millisecond deadline to
// read-event, implemented as a binary min-heap so TimerAdd, TimerDel, and
// "pop everything due" are all O(log n). Grounded on the timedHeap
// pattern used by gaio's watcher for the same role.
type timerWheel struct {
	entries []*timerEntry
}

func (w *timerWheel) Len() int { return len(w.entries) }

func (w *timerWheel) Less(i, j int) bool {
	return w.entries[i].deadline < w.entries[j].deadline
}

func (w *timerWheel) Swap(i, j int) {
	w.entries[i], w.entries[j] = w.entries[j], w.entries[i]
	w.entries[i].ev.SetHeapIndex(i)
	w.entries[j].ev.SetHeapIndex(j)
}

func (w *timerWheel) Push(x interface{}) {
	e := x.(*timerEntry)
	e.ev.SetHeapIndex(len(w.entries))
	w.entries = append(w.entries, e)
}

func (w *timerWheel) Pop() interface{} {
	n := len(w.entries)
	e := w.entries[n-1]
	w.entries[n-1] = nil
	w.entries = w.entries[:n-1]
	e.ev.SetHeapIndex(-1)
	return e
}

// add inserts ev into the wheel at deadline, or relocates it if already
// present.
func (w *timerWheel) add(ev *connpool.Event, deadline int64) {
	if idx := ev.HeapIndex(); idx >= 0 {
		w.entries[idx].deadline = deadline
		heap.Fix(w, idx)
		return
	}
	heap.Push(w, &timerEntry{deadline: deadline, ev: ev})
}

// del removes ev from the wheel, if present. A no-op if ev has no
// pending timer.
func (w *timerWheel) del(ev *connpool.Event) {
	if idx := ev.HeapIndex(); idx >= 0 {
		heap.Remove(w, idx)
	}
}

// recent returns milliseconds until the earliest deadline, clamped to
// zero if already due, or Forever if the wheel is empty.
func (w *timerWheel) recent(nowMs int64) int64 {
	if len(w.entries) == 0 {
		return Forever
	}
	d := w.entries[0].deadline - nowMs
	if d < 0 {
		d = 0
	}
	return d
}

// expired pops every entry whose deadline is <= nowMs, in ascending
// deadline order, invoking fn on each.
func (w *timerWheel) expired(nowMs int64, fn func(ev *connpool.Event)) {
	for len(w.entries) > 0 && w.entries[0].deadline <= nowMs {
		e := heap.Pop(w).(*timerEntry)
		fn(e.ev)
	}
}
