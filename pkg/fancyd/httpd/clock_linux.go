//go:build linux
// +build linux

package httpd

import "golang.org/x/sys/unix"

// nowMs reads CLOCK_MONOTONIC in milliseconds, the same clock the
// reactor's timer wheel is keyed against.
func nowMs() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return ts.Sec*1000 + ts.Nsec/1_000_000
}
