package httpd

import (
	"os"

	"github.com/yourusername/fancyd/pkg/fancyd/arena"
	"github.com/yourusername/fancyd/pkg/fancyd/buffer"
)

// noFile is the sentinel file descriptor for "no file currently open
// for this request's body transfer".
const noFile = -1

// Request is the per-connection application state: allocated on the
// first readable byte of a new request cycle and released when the
// request finishes, so each keep-alive cycle gets a fresh Request. It
// owns the parser, the header_in/header_out
// buffers, and a scratch arena for the canonicalized URI and anything
// else the responder needs to allocate.
type Request struct {
	Parser Parser

	HeaderIn  *buffer.Buffer
	HeaderOut *buffer.Buffer
	Arena     *arena.Arena

	URI       CanonicalURI
	Status    Status
	KeepAlive bool

	File      *os.File // open source for the body transfer; nil once sent or for HEAD
	FileFd    int
	FileSize  int64
	FileSent  int64
	HeadOnly  bool // true for a HEAD request: headers describe a body that is never sent
}

// Reset returns the request to a clean slate for the next request cycle
// on the same connection, without discarding the header buffers or
// arena themselves (those are reused in place; the arena's blocks are
// reclaimed via its owning Pool.Put at a higher layer, not here).
func (r *Request) Reset() {
	r.Parser.Reset()
	r.HeaderIn.Reset()
	r.HeaderOut.Reset()
	r.URI = CanonicalURI{}
	r.Status = 0
	r.KeepAlive = false
	r.File = nil
	r.FileFd = noFile
	r.FileSize = 0
	r.FileSent = 0
	r.HeadOnly = false
}
