//go:build linux
// +build linux

package socket

import (
	"syscall"
)

// TCP_QUICKACK is not exposed by the syscall package on every Go version,
// so it is pinned here to its Linux value.
const tcpQuickAck = 12

// applyPlatformOptions applies Linux-specific socket options to an
// already-accepted connection fd.
func applyPlatformOptions(fd int, cfg Config) {
	if cfg.QuickAck {
		// Best-effort: TCP_QUICKACK is cleared by the kernel after each ACK,
		// so this is only a hint for the first response.
		_ = syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpQuickAck, 1)
	}
}
