//go:build !linux
// +build !linux

package socket

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// SendFile falls back to a manual read/write copy on platforms without a
// sendfile(2) equivalent wired up. It never takes ownership of dstFd or
// src; both remain owned by the caller.
func SendFile(dstFd int, src *os.File, offset, count int64) (int64, error) {
	buf := make([]byte, 32*1024)
	section := io.NewSectionReader(src, offset, count)

	var written int64
	for written < count {
		n, rerr := section.Read(buf)
		if n > 0 {
			w, werr := unix.Write(dstFd, buf[:n])
			written += int64(w)
			if werr != nil {
				return written, werr
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				break
			}
			return written, rerr
		}
	}
	return written, nil
}
