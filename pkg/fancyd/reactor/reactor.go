//go:build linux
// +build linux

// Package reactor implements the edge-triggered I/O demultiplexer and
// monotonic timer wheel that drive the whole server: one epoll instance,
// one timer index, and a single dispatch loop that the HTTP engine's
// handlers plug into via connpool.Event.Handler.
//
// Every operation here assumes single-threaded, cooperative use: there
// are no locks, because only the reactor loop's goroutine ever touches
// this type.
package reactor

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/yourusername/fancyd/pkg/fancyd/connpool"
)

// ErrClosed is returned by operations on a Reactor that has been Closed.
var ErrClosed = errors.New("reactor: closed")

// registration is one fd's entry in regs; mask is the epoll event set it
// currently carries. A zero mask means the fd is logically registered (present in regs)
// but has no active direction, and so has been EPOLL_CTL_DEL'd from the
// kernel until a direction is re-added.
type registration struct {
	conn *connpool.Conn
	mask uint32
}

// baseFlags are always present once a registration's mask is nonempty:
// edge-triggered delivery plus explicit peer-close detection.
const baseFlags = unix.EPOLLET | unix.EPOLLRDHUP

// Reactor owns one epoll fd, the fd->connection registration table, and
// the timer wheel. It implements the register_rw / add_event /
// del_event / unregister / timer_add / timer_del / timer_recent /
// run_once operations.
type Reactor struct {
	epfd      int
	regs      map[int32]*registration
	listeners map[int32]func()
	wheel     timerWheel
	events    []unix.EpollEvent
	closed    bool
}

// New creates a Reactor whose EpollWait call requests at most maxEvents
// ready descriptors per tick.
func New(maxEvents int) (*Reactor, error) {
	if maxEvents <= 0 {
		maxEvents = 128
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Reactor{
		epfd:      epfd,
		regs:      make(map[int32]*registration),
		listeners: make(map[int32]func()),
		events:    make([]unix.EpollEvent, maxEvents),
	}, nil
}

// RegisterListener adds a raw fd with read-edge-triggered interest whose
// readiness is reported to cb rather than to a connpool.Event — used
// for the listening socket itself, which sits outside the fixed-
// cardinality connection pool.
func (r *Reactor) RegisterListener(fd int, cb func()) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return err
	}
	r.listeners[int32(fd)] = cb
	return nil
}

// UnregisterListener removes a listener fd added via RegisterListener.
func (r *Reactor) UnregisterListener(fd int) error {
	delete(r.listeners, int32(fd))
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Close releases the epoll fd. The Reactor must not be used afterward.
func (r *Reactor) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return unix.Close(r.epfd)
}

// RegisterRW adds conn's fd with read+write edge-triggered interest plus
// peer-close detection, and marks both of its events active. Called once
// per connection, right after accept.
func (r *Reactor) RegisterRW(c *connpool.Conn) error {
	mask := uint32(unix.EPOLLIN | unix.EPOLLOUT | baseFlags)
	ev := unix.EpollEvent{Events: mask, Fd: int32(c.Fd())}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, c.Fd(), &ev); err != nil {
		return err
	}
	r.regs[int32(c.Fd())] = &registration{conn: c, mask: mask}
	c.Read.Active = true
	c.Write.Active = true
	return nil
}

// applyMask recomputes c's effective interest mask from its two events'
// Active flags and issues whichever of ADD, MOD, or
// DEL the transition calls for: empty<->nonempty is
// ADD/DEL, any other change (one direction on, one off, in either
// combination) is MOD.
func (r *Reactor) applyMask(c *connpool.Conn) error {
	reg, ok := r.regs[int32(c.Fd())]
	if !ok {
		return nil
	}
	var newMask uint32
	if c.Read.Active {
		newMask |= unix.EPOLLIN
	}
	if c.Write.Active {
		newMask |= unix.EPOLLOUT
	}
	if newMask != 0 {
		newMask |= baseFlags
	}

	old := reg.mask
	if old == newMask {
		return nil
	}

	var op int
	switch {
	case old == 0 && newMask != 0:
		op = unix.EPOLL_CTL_ADD
	case old != 0 && newMask == 0:
		op = unix.EPOLL_CTL_DEL
	default:
		op = unix.EPOLL_CTL_MOD
	}

	var evp *unix.EpollEvent
	if op != unix.EPOLL_CTL_DEL {
		evp = &unix.EpollEvent{Events: newMask, Fd: int32(c.Fd())}
	}
	if err := unix.EpollCtl(r.epfd, op, c.Fd(), evp); err != nil {
		return err
	}
	reg.mask = newMask
	return nil
}

// AddEvent marks ev active, registering its direction of interest if it
// was not already present.
func (r *Reactor) AddEvent(ev *connpool.Event) error {
	c := ev.Conn()
	ev.Active = true
	return r.applyMask(c)
}

// DelEvent marks ev inactive, dropping its direction of interest.
func (r *Reactor) DelEvent(ev *connpool.Event) error {
	c := ev.Conn()
	ev.Active = false
	return r.applyMask(c)
}

// Unregister removes conn's fd from the demultiplexer entirely (if still
// present), disarms any pending timer on its read event, marks both
// events inactive, and marks the connection's fd the sentinel. The
// caller is still responsible for close(2)'ing the raw fd and returning
// the record to the connection pool.
func (r *Reactor) Unregister(c *connpool.Conn) error {
	fd := int32(c.Fd())
	reg, ok := r.regs[fd]
	var err error
	if ok {
		if reg.mask != 0 {
			err = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, c.Fd(), nil)
		}
		delete(r.regs, fd)
	}
	r.wheel.del(&c.Read)
	c.Read.Active = false
	c.Write.Active = false
	c.Read.TimerSet = false
	c.Close()
	return err
}

// TimerAdd arms ev to fire at nowMs+timeoutMs, replacing any existing
// deadline it holds.
func (r *Reactor) TimerAdd(ev *connpool.Event, nowMs, timeoutMs int64) {
	r.wheel.add(ev, nowMs+timeoutMs)
	ev.TimerSet = true
}

// TimerDel removes ev from the timer index, if present.
func (r *Reactor) TimerDel(ev *connpool.Event) {
	r.wheel.del(ev)
	ev.TimerSet = false
}

// TimerRecent returns milliseconds until the earliest deadline in the
// timer index, or Forever if it is empty. Callers use this to size the
// budget passed to the next RunOnce.
func (r *Reactor) TimerRecent(nowMs int64) int64 {
	return r.wheel.recent(nowMs)
}

// RunOnce blocks up to budgetMs milliseconds for readiness, then
// dispatches every ready event and every timer that has come due. "now"
// is read exactly once, after every ready event has been dispatched, and
// that single value decides which timers expire in this tick. The value
// is not passed to handlers: an I/O handler that arms a timer during
// dispatch reads the clock itself.
func (r *Reactor) RunOnce(budgetMs int64) error {
	if r.closed {
		return ErrClosed
	}
	if budgetMs > int64(int(^uint(0)>>1)) {
		budgetMs = int64(int(^uint(0) >> 1))
	}

	n, err := unix.EpollWait(r.epfd, r.events, int(budgetMs))
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}

	for i := 0; i < n; i++ {
		r.dispatch(&r.events[i])
	}

	now := nowMonotonicMs()
	r.wheel.expired(now, func(ev *connpool.Event) {
		ev.TimerSet = false
		ev.Timeout = true
		if ev.Handler != nil {
			ev.Handler(ev.Conn())
		}
	})
	return nil
}

// dispatch implements the per-event protocol: read handlers
// before write handlers for the same connection, an error-or-peer-close
// condition synthesizes both directions, and a connection that becomes
// the sentinel during the read handler skips its write handler for the
// rest of this tick.
func (r *Reactor) dispatch(raw *unix.EpollEvent) {
	if cb, ok := r.listeners[raw.Fd]; ok {
		cb()
		return
	}

	reg, ok := r.regs[raw.Fd]
	if !ok {
		return
	}
	c := reg.conn
	if int32(c.Fd()) != raw.Fd {
		return
	}

	errOrHup := raw.Events&(unix.EPOLLERR|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0
	readable := errOrHup || raw.Events&unix.EPOLLIN != 0
	writable := errOrHup || raw.Events&unix.EPOLLOUT != 0

	if c.Read.Active && readable && c.Read.Handler != nil {
		c.Read.Handler(c)
	}
	if c.Fd() < 0 {
		return
	}
	if c.Write.Active && writable && c.Write.Handler != nil {
		c.Write.Handler(c)
	}
}
