//go:build linux
// +build linux

package httpd

import (
	"golang.org/x/sys/unix"

	"github.com/yourusername/fancyd/pkg/fancyd/connpool"
	"github.com/yourusername/fancyd/pkg/fancyd/socket"
)

// onAcceptable drains the listening socket's accept queue until it
// reports EAGAIN, since the reactor only re-signals readiness on a
// not-ready -> ready transition. Each accepted fd gets a pool record,
// tuning, and reactor registration; if the pool is exhausted the fd is
// still extracted from the kernel queue and closed immediately, per the
// resource-exhaustion handling this core specifies.
func (s *Server) onAcceptable() {
	for {
		fd, err := socket.Accept4(s.listenFd)
		if err != nil {
			switch err {
			case unix.EAGAIN:
				return
			case unix.EINTR:
				continue
			default:
				s.log.Printf("accept4: %v", err)
				return
			}
		}

		c, err := s.pool.Get()
		if err != nil {
			unix.Close(fd)
			continue
		}

		if err := socket.Apply(fd, s.tune); err != nil {
			s.log.Printf("socket tuning: %v", err)
		}

		c.SetFd(fd)
		c.KeepAlive = false
		if err := s.reactor.RegisterRW(c); err != nil {
			unix.Close(fd)
			s.pool.Free(c)
			continue
		}

		c.Read.Handler = s.onRead
		c.Write.Handler = s.onEmpty
		s.reactor.TimerAdd(&c.Read, nowMs(), s.cfg.RequestTimeoutMs)
	}
}

// onEmpty is the write-event handler while a connection is reading: a
// spurious writable readiness during parsing has nothing to do.
func (s *Server) onEmpty(c *connpool.Conn) {}

// onRead drains readable bytes into header_in and advances the parser,
// looping in place (rather than re-entering itself) until the kernel
// reports EAGAIN, the request finishes, or the connection must close.
// This is the flattened form of the source's tail-recursive
// read-calls-itself pattern.
func (s *Server) onRead(c *connpool.Conn) {
	if c.Read.Timeout {
		c.Read.Timeout = false
		s.teardown(c)
		return
	}

	req, _ := c.App.(*Request)
	if req == nil {
		req = s.newRequest()
		c.App = req
	}

	for {
		if req.HeaderIn.Full() {
			if req.Parser.lineDone() {
				req.Status = StatusHeaderFieldsTooLarge
			} else {
				req.Status = StatusURITooLong
			}
			s.finishWithError(c, req)
			return
		}

		n, err := unix.Read(c.Fd(), req.HeaderIn.WritePtr())
		if err != nil {
			switch err {
			case unix.EINTR:
				continue
			case unix.EAGAIN:
				if !c.Read.TimerSet {
					s.reactor.TimerAdd(&c.Read, nowMs(), s.cfg.RequestTimeoutMs)
				}
				return
			default:
				s.teardown(c)
				return
			}
		}
		if n == 0 {
			// peer closed without a complete request
			s.teardown(c)
			return
		}
		req.HeaderIn.SeekEnd(n)

		switch req.Parser.Execute(req.HeaderIn) {
		case ResultAgain:
			if !c.Read.TimerSet {
				s.reactor.TimerAdd(&c.Read, nowMs(), s.cfg.RequestTimeoutMs)
			}
			continue
		case ResultError:
			req.Status = StatusBadRequest
			s.finishWithError(c, req)
			return
		case ResultOK:
			if c.Read.TimerSet {
				s.reactor.TimerDel(&c.Read)
			}
			s.process(c, req)
			return
		}
	}
}

// process canonicalizes the request's URI, resolves it against the
// document root for GET/HEAD, and decides the status code and
// keep-alive disposition before handing off to the write path. Anything
// other than GET/HEAD is 501: the static responder this core implements
// serves files, nothing else.
func (s *Server) process(c *connpool.Conn, req *Request) {
	req.KeepAlive = req.Parser.HTTPVersion() == Version11

	start, end := req.Parser.URIBounds()
	canon, err := CanonicalizeURI(s.cfg.DocRoot, req.HeaderIn.Raw(), start, end)
	if err != nil {
		req.Status = StatusBadRequest
		s.finishWithError(c, req)
		return
	}

	if _, err := req.Arena.AllocString(canon.Path); err != nil {
		req.Status = StatusInternalServerError
		s.finishWithError(c, req)
		return
	}
	req.URI = canon

	method := req.Parser.Method()
	if method != MethodGet && method != MethodHead {
		req.Status = StatusNotImplemented
	} else {
		f, status := resolveStaticFile(s.cfg.DocRoot, canon.Path)
		req.Status = status
		if status == StatusOK {
			fi, statErr := f.Stat()
			if statErr != nil {
				f.Close()
				req.Status = StatusInternalServerError
			} else {
				req.FileSize = fi.Size()
				req.HeadOnly = method == MethodHead
				if req.HeadOnly {
					f.Close()
				} else {
					req.File = f
					req.FileFd = int(f.Fd())
				}
			}
		}
	}

	if req.Status.IsError() {
		req.KeepAlive = false
	}

	ct := ContentTypeFor(canon.Path, canon.LastDot)
	if err := buildHeaderBlock(req, s.cfg.ServerName, ct); err != nil {
		s.teardown(c)
		return
	}

	c.Read.Handler = s.onEmpty
	c.Write.Handler = s.onWriteHeaders
	s.onWriteHeaders(c)
}

// finishWithError builds and sends a plain status response with no
// body, per the failure-to-response mapping: any >=400 status forces
// the connection non-keep-alive.
func (s *Server) finishWithError(c *connpool.Conn, req *Request) {
	req.KeepAlive = false
	if err := buildHeaderBlock(req, s.cfg.ServerName, "text/html"); err != nil {
		s.teardown(c)
		return
	}
	c.Read.Handler = s.onEmpty
	c.Write.Handler = s.onWriteHeaders
	s.onWriteHeaders(c)
}

// onWriteHeaders drains header_out to the socket, then hands off to
// onWriteBody (if a file is open) or straight to onFinalize.
func (s *Server) onWriteHeaders(c *connpool.Conn) {
	req := c.App.(*Request)

	for !req.HeaderOut.Empty() {
		n, err := unix.Write(c.Fd(), req.HeaderOut.ReadPtr())
		if err != nil {
			switch err {
			case unix.EINTR:
				continue
			case unix.EAGAIN:
				return
			default:
				s.teardown(c)
				return
			}
		}
		req.HeaderOut.SeekStart(n)
	}

	if req.File != nil && !req.HeadOnly {
		c.Write.Handler = s.onWriteBody
		s.onWriteBody(c)
		return
	}
	c.Write.Handler = s.onFinalize
	s.onFinalize(c)
}

// onWriteBody streams the open file to the socket via zero-copy
// sendfile, in a loop bounded by the remaining byte count, suspending
// on EAGAIN exactly as the source's write_body_handler does.
func (s *Server) onWriteBody(c *connpool.Conn) {
	req := c.App.(*Request)

	for req.FileSent < req.FileSize {
		n, err := socket.SendFile(c.Fd(), req.File, req.FileSent, req.FileSize-req.FileSent)
		req.FileSent += n
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			s.teardown(c)
			return
		}
		if n == 0 {
			break
		}
	}

	c.Write.Handler = s.onFinalize
	s.onFinalize(c)
}

// onFinalize destroys the finished request and either returns the
// connection to its read-wait state (keep-alive) or tears it down.
func (s *Server) onFinalize(c *connpool.Conn) {
	req := c.App.(*Request)
	closeRequestFile(req)
	s.releaseRequest(req)
	c.App = nil

	if !req.KeepAlive {
		s.teardown(c)
		return
	}

	c.Write.Handler = s.onEmpty
	c.Read.Handler = s.onRead
	s.onRead(c)
}

// teardown unregisters, closes, and returns c to the pool. Safe to call
// from any handler; it is the only cancellation primitive a connection
// has.
func (s *Server) teardown(c *connpool.Conn) {
	if req, ok := c.App.(*Request); ok && req != nil {
		closeRequestFile(req)
		s.releaseRequest(req)
		c.App = nil
	}
	fd := c.Fd()
	s.reactor.Unregister(c)
	unix.Close(fd)
	s.pool.Free(c)
}

func closeRequestFile(req *Request) {
	if req.File != nil {
		req.File.Close()
		req.File = nil
	}
}

func (s *Server) newRequest() *Request {
	return &Request{
		HeaderIn:  s.headerIn.Get(),
		HeaderOut: s.headerOut.Get(),
		Arena:     s.arenas.Get(),
		FileFd:    noFile,
	}
}

func (s *Server) releaseRequest(req *Request) {
	s.headerIn.Put(req.HeaderIn)
	s.headerOut.Put(req.HeaderOut)
	s.arenas.Put(req.Arena)
}
