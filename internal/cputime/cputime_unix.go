//go:build unix && !linux

package cputime

import (
	"time"

	"golang.org/x/sys/unix"
)

func processTime() time.Duration {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
}

// No per-thread accounting outside Linux.
func threadTime() time.Duration { return processTime() }
