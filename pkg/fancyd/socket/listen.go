// Package socket provides the raw, non-blocking socket primitives the
// reactor needs: listening-socket setup, socket tuning, and zero-copy
// file transmission. Everything here operates on bare file descriptors
// rather than net.Conn, since the reactor owns fd lifecycle directly.
package socket

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ListenConfig describes how to build the IPv4 listening socket.
type ListenConfig struct {
	// Port is the TCP port to bind to.
	Port int

	// Backlog is the listen(2) backlog.
	// Default: 1024
	Backlog int
}

// DefaultListenConfig returns the default listening-socket configuration.
func DefaultListenConfig() ListenConfig {
	return ListenConfig{
		Port:    9877,
		Backlog: 1024,
	}
}

// Listen creates a non-blocking IPv4 stream socket, sets SO_REUSEADDR,
// binds it to cfg.Port on all interfaces, and starts listening with
// cfg.Backlog. The returned fd is ready to be registered with the
// reactor's accept handler.
func Listen(cfg ListenConfig) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("setsockopt(SO_REUSEADDR): %w", err)
	}

	addr := &unix.SockaddrInet4{Port: cfg.Port}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}

	backlog := cfg.Backlog
	if backlog <= 0 {
		backlog = 1024
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}

	return fd, nil
}

// Accept4 accepts a single connection off listenFd, returning a fd that is
// already non-blocking. It mirrors the original accept4(..., SOCK_NONBLOCK)
// call so no separate fcntl round-trip is needed. EAGAIN and EINTR are
// returned verbatim so the caller's edge-triggered drain loop can tell them
// apart from hard failures.
func Accept4(listenFd int) (int, error) {
	connFd, _, err := unix.Accept4(listenFd, unix.SOCK_NONBLOCK)
	if err != nil {
		return -1, err
	}
	return connFd, nil
}
