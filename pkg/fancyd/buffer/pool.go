package buffer

import "github.com/yourusername/fancyd/pkg/fancyd/internal/poolsync"

// Pool hands out fixed-capacity Buffers and reclaims them with Reset
// instead of letting them go to the garbage collector, mirroring
// arena.Pool's release-on-reset lifecycle for the connection pool's
// header_in/header_out regions.
//
// guard is a no-op in the default build (only the reactor goroutine ever
// touches a Pool) and a real mutex when built with -tags prometheus,
// where the metrics poller reads Stats concurrently. See poolsync.Guard.
type Pool struct {
	capacity int
	guard    poolsync.Guard
	free     []*Buffer

	created uint64
	reused  uint64
}

// NewPool creates a Pool whose Buffers are capacity bytes each.
func NewPool(capacity int) *Pool {
	return &Pool{capacity: capacity}
}

// Get returns an empty, ready-to-use Buffer, creating one if the free
// list is empty.
func (p *Pool) Get() *Buffer {
	p.guard.Lock()
	n := len(p.free)
	if n == 0 {
		p.created++
		p.guard.Unlock()
		return New(p.capacity)
	}
	b := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	p.reused++
	p.guard.Unlock()
	return b
}

// Put resets b and returns it to the free list.
func (p *Pool) Put(b *Buffer) {
	if b == nil {
		return
	}
	b.Reset()
	p.guard.Lock()
	p.free = append(p.free, b)
	p.guard.Unlock()
}

// PoolStats reports pool-level allocation counters.
type PoolStats struct {
	Created uint64
	Reused  uint64
	Free    int
}

// Stats reports how often Get had to allocate a fresh Buffer versus
// reuse one, and how many sit idle in the free list.
func (p *Pool) Stats() PoolStats {
	p.guard.Lock()
	defer p.guard.Unlock()
	return PoolStats{Created: p.created, Reused: p.reused, Free: len(p.free)}
}
