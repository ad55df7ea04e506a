//go:build !unix

package cputime

import "time"

var processStart = time.Now()

// Wall-clock fallback on platforms without getrusage.
func processTime() time.Duration { return time.Since(processStart) }
func threadTime() time.Duration  { return processTime() }
