// Package arena implements a bump allocator for per-request scratch
// memory. The HTTP engine copies the canonicalized URI into its request's
// Arena; the request line and headers stay in the header_in buffer and
// are not copied here.
//
// An Arena never frees individual allocations. It is released all at
// once, by resetting its blocks for reuse (see Pool) or by discarding it
// entirely at process shutdown.
package arena

import (
	"errors"

	"github.com/valyala/bytebufferpool"
)

// ErrTooLarge is returned when a single allocation request cannot fit in
// one block, even an empty one. The arena is left unchanged.
var ErrTooLarge = errors.New("arena: allocation exceeds block size")

const (
	// DefaultBlockSize matches the original C implementation's
	// MEM_POOL_DEFAULT_SIZE.
	DefaultBlockSize = 16 * 1024

	// wordAlign is the alignment applied to every allocation, matching
	// MEM_POOL_ALIGNMENT (sizeof(unsigned long)) in the original.
	wordAlign = 8

	// failThreshold bounds how many times a block may fail to satisfy an
	// allocation before the arena stops scanning it on subsequent calls.
	// This keeps allocation O(1) amortized instead of O(blocks) once a
	// connection has pushed past its first few blocks.
	failThreshold = 4
)

// block is one fixed-size region in the chain. buf is borrowed from a
// bytebufferpool.ByteBuffer so block storage itself is recycled across
// arena resets instead of put back to the garbage collector.
type block struct {
	owned *bytebufferpool.ByteBuffer
	buf   []byte
	pos   int
	failed int
	next  *block
}

func (b *block) size() int { return len(b.buf) }

// Arena is a singly-linked chain of blocks with a bump pointer per block.
// It is not safe for concurrent use; each in-flight request owns exactly
// one Arena, checked out from a Pool and released back to it when the
// request finishes.
type Arena struct {
	blockSize int
	head      *block
	current   *block // advances past blocks that failed too often
	tail      *block
}

// New creates an Arena whose blocks are blockSize bytes. Passing 0 uses
// DefaultBlockSize.
func New(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	a := &Arena{blockSize: blockSize}
	b := newBlock(blockSize)
	a.head, a.current, a.tail = b, b, b
	return a
}

func newBlock(size int) *block {
	bb := bytebufferpool.Get()
	if cap(bb.B) < size {
		bb.B = make([]byte, size)
	} else {
		bb.B = bb.B[:size]
		clear(bb.B)
	}
	return &block{owned: bb, buf: bb.B}
}

func align(n int) int {
	return (n + wordAlign - 1) &^ (wordAlign - 1)
}

// Alloc returns n word-aligned bytes of unspecified content. The slice
// aliases the arena's own storage and stays valid for the arena's
// lifetime; the caller never frees it individually.
func (a *Arena) Alloc(n int) ([]byte, error) {
	need := align(n)
	if need > a.blockSize {
		return nil, ErrTooLarge
	}

	for b := a.current; b != nil; b = b.next {
		if b.pos+need <= b.size() {
			p := b.buf[b.pos : b.pos+n : b.pos+need]
			b.pos += need
			return p, nil
		}

		b.failed++
		if b.failed > failThreshold && a.current == b && b.next != nil {
			a.current = b.next
		}
	}

	// No block could satisfy the request: push a new one at the tail.
	nb := newBlock(a.blockSize)
	a.tail.next = nb
	a.tail = nb
	if a.current == nil {
		a.current = nb
	}

	p := nb.buf[0:n:need]
	nb.pos = need
	return p, nil
}

// AllocZeroed is identical to Alloc except the returned bytes are
// explicitly zeroed. Since Go slices from make() are already zero-filled
// and blocks are cleared on reuse (see newBlock), this only re-zeros
// memory that Alloc may have previously handed out and the caller wrote
// into — i.e. it exists for API parity with the original palloc/pcalloc
// split, not because Alloc can return dirty bytes today.
func (a *Arena) AllocZeroed(n int) ([]byte, error) {
	p, err := a.Alloc(n)
	if err != nil {
		return nil, err
	}
	clear(p)
	return p, nil
}

// AllocString copies s into the arena and returns the copy.
func (a *Arena) AllocString(s string) (string, error) {
	b, err := a.Alloc(len(s))
	if err != nil {
		return "", err
	}
	copy(b, s)
	return string(b), nil
}

// reset clears every block's bump pointer and failure counter and
// rewinds current to head, without returning any block storage to
// bytebufferpool. The arena is left ready for a new request cycle.
func (a *Arena) reset() {
	for b := a.head; b != nil; b = b.next {
		clear(b.buf)
		b.pos = 0
		b.failed = 0
	}
	a.current = a.head
}

// destroy returns every block's storage to bytebufferpool and drops the
// chain. Called only when the Arena itself is being discarded for good
// (process shutdown), not on ordinary per-request release.
func (a *Arena) destroy() {
	for b := a.head; b != nil; {
		next := b.next
		bytebufferpool.Put(b.owned)
		b.owned, b.buf, b.next = nil, nil, nil
		b = next
	}
	a.head, a.current, a.tail = nil, nil, nil
}

// Stats reports arena occupancy, for the optional metrics exporter.
type Stats struct {
	Blocks    int
	UsedBytes int
	CapBytes  int
}

// Stats walks the block chain and reports current occupancy.
func (a *Arena) Stats() Stats {
	var s Stats
	for b := a.head; b != nil; b = b.next {
		s.Blocks++
		s.UsedBytes += b.pos
		s.CapBytes += b.size()
	}
	return s
}
