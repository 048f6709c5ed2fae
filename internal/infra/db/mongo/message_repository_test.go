package mongo

import (
	"sync"
	"testing"
)

func TestNextTimestampStrictlyIncreasing(t *testing.T) {
	r := &MessageRepository{}
	prev := int64(0)
	// Far more calls than fit in one millisecond of wall time, so the
	// collision branch is exercised.
	for i := 0; i < 10000; i++ {
		ts := r.nextTimestamp()
		if ts <= prev {
			t.Fatalf("timestamp %d not after %d at call %d", ts, prev, i)
		}
		prev = ts
	}
}

func TestNextTimestampConcurrent(t *testing.T) {
	r := &MessageRepository{}
	const workers = 8
	const perWorker = 500

	seen := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				seen <- r.nextTimestamp()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]struct{}, workers*perWorker)
	for ts := range seen {
		if _, dup := unique[ts]; dup {
			t.Fatalf("timestamp %d assigned twice", ts)
		}
		unique[ts] = struct{}{}
	}
}
