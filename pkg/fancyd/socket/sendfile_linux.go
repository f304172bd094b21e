//go:build linux
// +build linux

package socket

import (
	"os"

	"golang.org/x/sys/unix"
)

// SendFile transmits count bytes of src starting at offset directly to
// dstFd using the sendfile(2) syscall, with no userspace buffer.
//
// It stops and returns as soon as the kernel reports EAGAIN or any other
// error except EINTR, along with however many bytes it managed to send
// first. EAGAIN is returned verbatim rather
// than retried: the caller (the write_body handler) is expected to return
// to the reactor and resume on the next writable readiness. EINTR is
// retried here since it does not represent backpressure.
func SendFile(dstFd int, src *os.File, offset, count int64) (int64, error) {
	srcFd := int(src.Fd())
	remaining := count
	cur := offset
	var written int64

	for remaining > 0 {
		chunk := remaining
		if chunk > 1<<30 {
			chunk = 1 << 30
		}

		n, err := unix.Sendfile(dstFd, srcFd, &cur, int(chunk))
		if n > 0 {
			written += int64(n)
			remaining -= int64(n)
		}
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return written, err
		}
		if n == 0 {
			break
		}
	}

	return written, nil
}
