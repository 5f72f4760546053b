package cache

import (
	"context"
	"sync"
	"sync/atomic"
)

type writeJob struct {
	key  string
	data []byte
	// del removes the key instead of writing data.
	del bool
}

// asyncWriter serializes store writes on one goroutine so reflection never
// waits on disk or network.
type asyncWriter struct {
	store  BlobStore
	jobs   chan writeJob
	wg     sync.WaitGroup
	writes *atomic.Int64

	// mu guards closed and the send on jobs so nothing is queued after
	// Close.
	mu     sync.RWMutex
	closed bool
}

func newAsyncWriter(store BlobStore, depth int, writes *atomic.Int64) *asyncWriter {
	w := &asyncWriter{
		store:  store,
		jobs:   make(chan writeJob, depth),
		writes: writes,
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer w.wg.Done()
	ctx := context.Background()
	for job := range w.jobs {
		var err error
		if job.del {
			err = w.store.Delete(ctx, job.key)
		} else {
			err = w.store.Put(ctx, job.key, job.data)
		}
		if err != nil {
			log.Warningf("cache write %s: %s", job.key, err)
			continue
		}
		if !job.del {
			w.writes.Add(1)
		}
	}
}

// Put encodes v immediately and queues the write.
func (w *asyncWriter) Put(key string, v interface{}) {
	data, err := encodeBlob(v)
	if err != nil {
		log.Errorf("cache encode %s: %s", key, err)
		return
	}
	w.enqueue(writeJob{key: key, data: data})
}

func (w *asyncWriter) Delete(key string) {
	w.enqueue(writeJob{key: key, del: true})
}

// enqueue drops the job once the writer is closed.
func (w *asyncWriter) enqueue(job writeJob) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		log.Debugf("cache writer closed, dropping %s", job.key)
		return
	}
	w.jobs <- job
}

// Close drains every queued write before returning.
func (w *asyncWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()
	w.wg.Wait()
}
