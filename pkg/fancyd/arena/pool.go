package arena

import "github.com/yourusername/fancyd/pkg/fancyd/internal/poolsync"

// Pool hands out per-request Arenas and reclaims them with a reset
// instead of a destroy, so the underlying blocks (and their
// bytebufferpool-backed storage) survive across requests. This is the
// "release-on-reset" behavior called for in the arena pool's data model:
// a request's scratch memory is bulk-freed the moment the request
// finishes, without waiting on the garbage collector.
//
// guard is a no-op in the default build (only the reactor goroutine ever
// touches a Pool) and a real mutex when built with -tags prometheus,
// where the metrics poller reads Stats concurrently. See poolsync.Guard.
type Pool struct {
	blockSize int
	guard     poolsync.Guard
	free      []*Arena

	created uint64
	reused  uint64
}

// NewPool creates a Pool whose Arenas use blockSize-byte blocks.
func NewPool(blockSize int) *Pool {
	return &Pool{blockSize: blockSize}
}

// Get returns a reset, ready-to-use Arena, creating one if the free list
// is empty.
func (p *Pool) Get() *Arena {
	p.guard.Lock()
	n := len(p.free)
	if n == 0 {
		p.created++
		p.guard.Unlock()
		return New(p.blockSize)
	}
	a := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	p.reused++
	p.guard.Unlock()
	return a
}

// Put resets a's blocks and returns it to the free list. Callers must not
// use a (or any slice it produced) after calling Put.
func (p *Pool) Put(a *Arena) {
	if a == nil {
		return
	}
	a.reset()
	p.guard.Lock()
	p.free = append(p.free, a)
	p.guard.Unlock()
}

// Close destroys every pooled Arena, returning their blocks' storage to
// bytebufferpool. Call this once at process shutdown.
func (p *Pool) Close() {
	p.guard.Lock()
	defer p.guard.Unlock()
	for _, a := range p.free {
		a.destroy()
	}
	p.free = nil
}

// PoolStats reports pool-level allocation counters.
type PoolStats struct {
	Created uint64
	Reused  uint64
	Free    int
}

// Stats reports how often Get had to allocate a fresh Arena versus reuse
// one, and how many sit idle in the free list.
func (p *Pool) Stats() PoolStats {
	p.guard.Lock()
	defer p.guard.Unlock()
	return PoolStats{Created: p.created, Reused: p.reused, Free: len(p.free)}
}
