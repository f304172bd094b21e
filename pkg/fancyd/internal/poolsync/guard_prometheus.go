//go:build prometheus
// +build prometheus

package poolsync

import "sync"

// Guard is a real mutex when built with -tags prometheus, where the
// metrics poller goroutine reads pool stats concurrently with the
// reactor goroutine's Get/Put/Free calls.
type Guard struct {
	mu sync.Mutex
}

// Lock acquires the underlying mutex.
func (g *Guard) Lock() { g.mu.Lock() }

// Unlock releases the underlying mutex.
func (g *Guard) Unlock() { g.mu.Unlock() }
