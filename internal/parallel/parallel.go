// Package parallel provides data-parallel loop helpers for the CPU kernels.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how loops are split across goroutines.
type Config struct {
	Enabled    bool // run loops concurrently
	NumWorkers int  // goroutines to spawn
	MinItems   int  // below this, run sequentially
}

// DefaultConfig sizes the worker count to the machine.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinItems:   64,
	}
}

// For runs f(i) for i in [0, n), splitting the range across workers when the
// loop is large enough to pay for the goroutine overhead.
//
// f must be safe to call concurrently for distinct i. Iteration order is
// unspecified in the parallel case.
func For(n int, cfg Config, f func(i int)) {
	if !cfg.Enabled || n < cfg.MinItems {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinItems)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
