package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpansPartitionTheRange(t *testing.T) {
	cfg := Config{Workers: 4, MinSpan: 1}

	var covered [1000]int32
	cfg.Spans(len(covered), func(lo, hi int) {
		require.LessOrEqual(t, lo, hi)
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&covered[i], 1)
		}
	})

	for i, n := range covered {
		assert.Equal(t, int32(1), n, "index %d", i)
	}
}

func TestSpansRunInlineBelowThreshold(t *testing.T) {
	cfg := Config{Workers: 8, MinSpan: 100}

	calls := 0
	cfg.Spans(10, func(lo, hi int) {
		calls++
		assert.Equal(t, 0, lo)
		assert.Equal(t, 10, hi)
	})
	assert.Equal(t, 1, calls, "small loops run as a single inline span")
}

func TestSpansSingleWorkerIsSequential(t *testing.T) {
	cfg := Config{Workers: 1, MinSpan: 1}

	// A single worker must never fan out, so unsynchronized writes are safe.
	sum := 0
	cfg.Each(500, func(i int) {
		sum += i
	})
	assert.Equal(t, 500*499/2, sum)
}

func TestEachVisitsEveryIndexOnce(t *testing.T) {
	cfg := Config{Workers: 3, MinSpan: 2}

	var visits [97]int32
	cfg.Each(len(visits), func(i int) {
		atomic.AddInt32(&visits[i], 1)
	})

	for i, n := range visits {
		assert.Equal(t, int32(1), n, "index %d", i)
	}
}

func TestPlanesVisitEveryPair(t *testing.T) {
	cfg := Config{Workers: 4, MinSpan: 1}
	const batch, channels = 5, 7

	var visits [batch][channels]int32
	cfg.Planes(batch, channels, func(b, ch int) {
		atomic.AddInt32(&visits[b][ch], 1)
	})

	for b := range visits {
		for ch := range visits[b] {
			assert.Equal(t, int32(1), visits[b][ch], "plane (%d, %d)", b, ch)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.Greater(t, cfg.MinSpan, 0)
}
