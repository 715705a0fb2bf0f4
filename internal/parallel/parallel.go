// Package parallel distributes the independent loop iterations of the CPU
// compute kernels across worker goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config sizes the fan-out of a kernel loop.
type Config struct {
	Workers int // concurrent workers; below 2 every loop runs inline
	MinSpan int // smallest iteration count worth spawning goroutines for
}

// DefaultConfig sizes the fan-out to the host CPU.
func DefaultConfig() Config {
	return Config{
		Workers: runtime.NumCPU(),
		MinSpan: 64,
	}
}

func (c Config) inline(n int) bool {
	return c.Workers < 2 || n < c.MinSpan
}

// Spans partitions [0, n) into one contiguous half-open span per worker and
// invokes f(lo, hi) for each, concurrently. Spans never overlap, so f may
// write freely inside its own range. Loops below the fan-out threshold run
// as a single inline span.
func (c Config) Spans(n int, f func(lo, hi int)) {
	if c.inline(n) {
		f(0, n)
		return
	}
	span := (n + c.Workers - 1) / c.Workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += span {
		hi := min(lo+span, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(lo, hi)
		}()
	}
	wg.Wait()
}

// Each invokes f(i) for every i in [0, n), spread over the worker spans.
func (c Config) Each(n int, f func(i int)) {
	c.Spans(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			f(i)
		}
	})
}

// Planes fans out over the (batch, channel) output planes of a convolution
// kernel, one call per plane. Each plane is a disjoint region of the output
// tensor, which is what makes the concurrent writes safe.
func (c Config) Planes(batch, channels int, f func(b, ch int)) {
	c.Each(batch*channels, func(k int) {
		f(k/channels, k%channels)
	})
}
