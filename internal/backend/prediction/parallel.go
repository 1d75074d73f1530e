package prediction

import (
	"runtime"
	"sync"
)

// parallelRows runs fn(y) over y in [0, n) using up to GOMAXPROCS workers.
// Rows are strided across workers to balance uneven workloads. A panic in fn
// is re-raised on the calling goroutine once all workers have stopped.
func parallelRows(n int, fn func(y int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}

	var (
		wg        sync.WaitGroup
		panicOnce sync.Once
		recovered any
	)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { recovered = r })
				}
			}()
			for y := w; y < n; y += workers {
				fn(y)
			}
		}()
	}
	wg.Wait()

	if recovered != nil {
		panic(recovered)
	}
}
