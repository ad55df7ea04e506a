package cputime

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSinceIsMonotonic(t *testing.T) {
	start := Now()
	buf := make([]byte, 1<<16)
	for i := 0; i < 200; i++ {
		sum := sha256.Sum256(buf)
		buf[0] = sum[0]
	}
	assert.GreaterOrEqual(t, Since(start), time.Duration(0))
	assert.GreaterOrEqual(t, Now(), start)
}

func TestMeasureRunsFn(t *testing.T) {
	ran := false
	d := Measure(func() {
		buf := make([]byte, 1<<16)
		for i := 0; i < 200; i++ {
			sum := sha256.Sum256(buf)
			buf[0] = sum[0]
		}
		ran = true
	})
	assert.True(t, ran)
	assert.GreaterOrEqual(t, d, time.Duration(0))
}
