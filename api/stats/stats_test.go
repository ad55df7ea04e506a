package stats

import (
	"strings"
	"testing"
	"testing/quick"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(n uint64) Statistics {
	return Statistics{
		ExecutionTime:    time.Duration(n) * time.Millisecond,
		ExecutionCPUTime: time.Duration(n) * time.Microsecond,
		WaitTime:         time.Duration(2*n) * time.Millisecond,
		MessagesSent:     n,
		BytesSent:        10 * n,
		MessagesReceived: n + 1,
		BytesReceived:    10*n + 3,
	}
}

func TestAdd(t *testing.T) {
	got := sample(1).Add(sample(2))
	assert.Equal(t, 3*time.Millisecond, got.ExecutionTime)
	assert.Equal(t, 3*time.Microsecond, got.ExecutionCPUTime)
	assert.Equal(t, 6*time.Millisecond, got.WaitTime)
	assert.Equal(t, uint64(3), got.MessagesSent)
	assert.Equal(t, uint64(30), got.BytesSent)
	assert.Equal(t, uint64(5), got.MessagesReceived)
	assert.Equal(t, uint64(36), got.BytesReceived)
}

func TestAddIsAssociativeAndCommutative(t *testing.T) {
	f := func(a, b, c uint16) bool {
		x, y, z := sample(uint64(a)), sample(uint64(b)), sample(uint64(c))
		return x.Add(y).Add(z) == x.Add(y.Add(z)) && x.Add(y) == y.Add(x)
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestSum(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.Equal(t, sample(1).Add(sample(2)).Add(sample(3)), Sum(sample(1), sample(2), sample(3)))
}

func TestMerge(t *testing.T) {
	a := map[string]Statistics{"alice": sample(1)}
	b := map[string]Statistics{"bob": sample(2), "alice": sample(3)}

	merged := Merge(a, b)
	require.Len(t, merged, 2)
	assert.Equal(t, sample(1).Add(sample(3)), merged["alice"])
	assert.Equal(t, sample(2), merged["bob"])
	assert.Equal(t, Sum(sample(1), sample(2), sample(3)), Total(merged))
}

func TestTable(t *testing.T) {
	out := Table(map[string]Statistics{"bob": sample(1), "alice": sample(2)})
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "total")
	assert.Less(t, strings.Index(out, "alice"), strings.Index(out, "bob"))
}
