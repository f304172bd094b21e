package socket

import (
	"syscall"
)

// Config represents socket tuning configuration applied to accepted
// connections. Zero values mean "use system defaults".
type Config struct {
	// NoDelay disables Nagle's algorithm (TCP_NODELAY).
	// Default: true, since a response is written in one shot per request.
	NoDelay bool

	// RecvBuffer sets SO_RCVBUF in bytes. 0 leaves the system default.
	RecvBuffer int

	// SendBuffer sets SO_SNDBUF in bytes. 0 leaves the system default.
	SendBuffer int

	// QuickAck sets TCP_QUICKACK on Linux (no-op elsewhere).
	QuickAck bool
}

// DefaultConfig returns the recommended tuning for short-lived,
// request/response HTTP connections.
func DefaultConfig() Config {
	return Config{
		NoDelay:  true,
		QuickAck: true,
	}
}

// Apply tunes an already-accepted connection fd. Only TCP_NODELAY is
// treated as fatal; receive/send buffer sizing is best-effort since the
// kernel may clamp or reject unusual values.
func Apply(fd int, cfg Config) error {
	if cfg.NoDelay {
		if err := syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1); err != nil {
			return err
		}
	}

	if cfg.RecvBuffer > 0 {
		_ = syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_RCVBUF, cfg.RecvBuffer)
	}

	if cfg.SendBuffer > 0 {
		_ = syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_SNDBUF, cfg.SendBuffer)
	}

	applyPlatformOptions(fd, cfg)

	return nil
}
