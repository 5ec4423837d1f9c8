package internal

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultWriteTimeout bounds a single backend write
	DefaultWriteTimeout = 5 * time.Second
	writeErrorBuffer    = 16
)

// SnapshotWriter persists serialized snapshots of one key on a background goroutine.
// Schedule never blocks; snapshots scheduled before the goroutine picks them up
// collapse into a single write of the latest value.
type SnapshotWriter struct {
	kv      KeyValueStore
	key     string
	timeout time.Duration

	mu        sync.Mutex
	pending   *string
	scheduled uint64
	processed uint64
	waiters   []flushWaiter
	closed    bool

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	errs    chan error
}

type flushWaiter struct {
	seq uint64
	ch  chan struct{}
}

// NewSnapshotWriter starts a writer for key. A zero timeout uses DefaultWriteTimeout.
func NewSnapshotWriter(kv KeyValueStore, key string, timeout time.Duration) *SnapshotWriter {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	w := &SnapshotWriter{
		kv:      kv,
		key:     key,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		errs:    make(chan error, writeErrorBuffer),
	}
	go w.run()
	return w
}

// Schedule queues value to be written
func (w *SnapshotWriter) Schedule(value string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		// Writer is gone, fall back to a direct write so the change is not lost
		w.write(value)
		return
	}
	w.pending = &value
	w.scheduled++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every snapshot scheduled before the call has been handled
func (w *SnapshotWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.processed >= w.scheduled {
		w.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	w.waiters = append(w.waiters, flushWaiter{seq: w.scheduled, ch: ch})
	w.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Errors delivers write failures. The channel is buffered; failures beyond its
// capacity are logged and dropped.
func (w *SnapshotWriter) Errors() <-chan error {
	return w.errs
}

// Close writes any pending snapshot and stops the background goroutine
func (w *SnapshotWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	<-w.stopped
}

func (w *SnapshotWriter) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.done:
			w.drain()
			return
		}
	}
}

func (w *SnapshotWriter) drain() {
	w.mu.Lock()
	value := w.pending
	seq := w.scheduled
	w.pending = nil
	w.mu.Unlock()

	if value != nil {
		w.write(*value)
	}

	w.mu.Lock()
	if seq > w.processed {
		w.processed = seq
	}
	remaining := w.waiters[:0]
	for _, waiter := range w.waiters {
		if waiter.seq <= w.processed {
			close(waiter.ch)
		} else {
			remaining = append(remaining, waiter)
		}
	}
	w.waiters = remaining
	w.mu.Unlock()
}

func (w *SnapshotWriter) write(value string) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	err := w.kv.Set(ctx, w.key, value)
	if err == nil {
		LogDebug("Saved %d bytes under %s", len(value), w.key)
		return
	}

	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		err = &StorageError{Key: w.key, Op: "set", Err: err}
	}
	LogError("Error saving conversations: %v", err)
	w.report(err)
}

func (w *SnapshotWriter) report(err error) {
	select {
	case w.errs <- err:
	default:
		LogWarn("Dropping storage error, error channel is full: %v", err)
	}
}
