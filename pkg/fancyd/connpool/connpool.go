// Package connpool implements the fixed-cardinality pool of connection
// records the reactor and HTTP engine share: each record pairs an fd
// with its own read-event and write-event and an opaque application
// slot for the in-flight request. The pool never grows; once its
// capacity is exhausted, Get reports failure and the caller is expected
// to accept-then-immediately-close the new fd.
package connpool

import (
	"errors"

	"github.com/yourusername/fancyd/pkg/fancyd/internal/poolsync"
)

// ErrExhausted is returned by Get when every record is in use.
var ErrExhausted = errors.New("connpool: pool exhausted")

// errDoubleFree is the assertion failure raised by Free on a record that
// is not currently checked out. It is a programmer error, not a runtime
// condition callers are expected to handle.
var errDoubleFree = errors.New("connpool: double free of connection record")

// closedFd is the sentinel fd value for a record that owns no live
// socket.
const closedFd = -1

// Handler is the state-machine callback an Event currently holds. The
// HTTP engine swaps it as a connection moves accept -> read -> process
// -> write_headers -> {write_body|finalize} -> {read|free}.
type Handler func(conn *Conn)

// Event is one direction of readiness interest (read or write) for a
// connection. A Conn owns exactly one read Event and one write Event;
// they are never shared across connections.
type Event struct {
	Active    bool // currently registered with the demultiplexer
	TimerSet  bool // currently present in the timer index
	Timeout   bool // set by the timer wheel at expiry, cleared by Handler
	Handler   Handler
	conn      *Conn
	heapIndex int // position in the reactor's timer heap; -1 when absent
}

// Conn returns the connection that owns this event.
func (e *Event) Conn() *Conn { return e.conn }

// HeapIndex and SetHeapIndex let the reactor package's timer wheel use
// an Event directly as a container/heap element without connpool
// depending on reactor.
func (e *Event) HeapIndex() int        { return e.heapIndex }
func (e *Event) SetHeapIndex(idx int)  { e.heapIndex = idx }

// Conn is one record in the pool: an fd plus its read/write events and
// an application slot (the *http Request, opaque to this package).
type Conn struct {
	fd        int
	Read      Event
	Write     Event
	App       interface{}
	KeepAlive bool

	inUse bool
	index int // position in the pool's backing slice
}

// Fd returns the connection's file descriptor, or a negative sentinel if
// the record currently owns no live socket.
func (c *Conn) Fd() int { return c.fd }

// SetFd assigns the live fd this record owns. Called once after a
// successful accept.
func (c *Conn) SetFd(fd int) { c.fd = fd }

// Close marks the record as owning no live fd. It does not itself call
// close(2); callers close the fd first and then call this to enforce
// the one-owner-per-fd invariant before the record can be reassigned.
func (c *Conn) Close() { c.fd = closedFd }

// Pool is a fixed-cardinality free list of Conn records.
//
// guard is a no-op in the default build (only the reactor goroutine ever
// touches a Pool) and a real mutex when built with -tags prometheus, where
// the metrics poller calls InUse concurrently with the reactor's Get/Free.
// See poolsync.Guard. Cap is unguarded: len(records) never changes after
// New.
type Pool struct {
	records []*Conn
	free    []*Conn
	guard   poolsync.Guard
}

// New creates a Pool with exactly capacity records, all pre-allocated
// and initially free.
func New(capacity int) *Pool {
	p := &Pool{
		records: make([]*Conn, capacity),
		free:    make([]*Conn, capacity),
	}
	for i := range p.records {
		c := &Conn{fd: closedFd, index: i}
		c.Read.conn = c
		c.Write.conn = c
		c.Read.heapIndex = -1
		c.Write.heapIndex = -1
		p.records[i] = c
		p.free[i] = c
	}
	return p
}

// Cap returns the pool's fixed capacity.
func (p *Pool) Cap() int { return len(p.records) }

// InUse returns the number of records currently checked out.
func (p *Pool) InUse() int {
	p.guard.Lock()
	defer p.guard.Unlock()
	return len(p.records) - len(p.free)
}

// Get checks out a cleared record, or returns ErrExhausted if the pool
// is at capacity. The invariant free-count + in-use-count == capacity
// holds before and after every call.
func (p *Pool) Get() (*Conn, error) {
	p.guard.Lock()
	n := len(p.free)
	if n == 0 {
		p.guard.Unlock()
		return nil, ErrExhausted
	}
	c := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	c.inUse = true
	p.guard.Unlock()
	return c, nil
}

// Free resets all flags, clears the app pointer, and returns the record
// to the free list. Freeing a record that is not currently checked out
// panics: it is an at-most-once-free violation, the programmer-error
// class of bug the connection pool's invariant exists to catch rather
// than silently tolerate.
func (p *Pool) Free(c *Conn) {
	if !c.inUse {
		panic(errDoubleFree)
	}
	c.inUse = false
	c.fd = closedFd
	c.App = nil
	c.KeepAlive = false
	c.Read = Event{conn: c, heapIndex: -1}
	c.Write = Event{conn: c, heapIndex: -1}
	p.guard.Lock()
	p.free = append(p.free, c)
	p.guard.Unlock()
}
