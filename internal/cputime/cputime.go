// Package cputime reads CPU time consumed by the process and by the
// computations of a party.
package cputime

import (
	"runtime"
	"time"
)

// Now returns the user plus system CPU time of the process so far.
func Now() time.Duration {
	return processTime()
}

// Since returns the process CPU time consumed since start, a value obtained
// from Now.
func Since(start time.Duration) time.Duration {
	d := Now() - start
	if d < 0 {
		return 0
	}
	return d
}

// Measure runs fn locked to its OS thread and returns the CPU time that
// thread spent. Work fn hands to other goroutines is not included. Where the
// platform has no per-thread accounting the process CPU time is used.
func Measure(fn func()) time.Duration {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	start := threadTime()
	fn()
	d := threadTime() - start
	if d < 0 {
		return 0
	}
	return d
}
