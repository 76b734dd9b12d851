package tess

import (
	"runtime"
	"sync"
)

// fanOut runs fn(i) for i in [0,n) across at most workers goroutines and
// waits for all of them. Units must write only to their own output slot;
// the caller merges results sequentially afterwards. workers <= 0 means
// one worker per CPU.
func fanOut(n, workers int, fn func(i int)) {
	if n == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	work := make(chan int)
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range work {
				fn(i)
			}
		}()
	}
	for i := range n {
		work <- i
	}
	close(work)
	wg.Wait()
}
