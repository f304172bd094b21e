//go:build linux
// +build linux

package reactor

import "golang.org/x/sys/unix"

// nowMonotonicMs reads CLOCK_MONOTONIC directly rather than through
// time.Now(), since the reactor's deadlines are specified in terms of
// the same clock epoll_wait's timeout is measured against.
func nowMonotonicMs() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return ts.Sec*1000 + ts.Nsec/1_000_000
}
