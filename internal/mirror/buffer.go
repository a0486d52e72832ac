package mirror

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Snapshotter is the source the buffer serializes, normally the Store.
type Snapshotter interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// stopper lets tests substitute the timer; time.Timer satisfies it.
type stopper interface {
	Stop() bool
}

// WriteBuffer debounces snapshot persistence: local writes call MarkDirty and
// the snapshot is written once, a debounce interval after the last write.
// Flush forces an immediate write, used on shutdown.
type WriteBuffer struct {
	source   Snapshotter
	sink     SnapshotStore
	debounce time.Duration
	schedule func(d time.Duration, fn func()) stopper
	logger   *slog.Logger

	mu    sync.Mutex
	dirty bool
	timer stopper
}

// BufferOption configures a WriteBuffer.
type BufferOption func(*WriteBuffer)

// WithBufferLogger sets the buffer logger.
func WithBufferLogger(logger *slog.Logger) BufferOption {
	return func(b *WriteBuffer) {
		b.logger = logger
	}
}

// WithScheduler replaces the timer scheduling function for tests.
func WithScheduler(schedule func(d time.Duration, fn func()) stopper) BufferOption {
	return func(b *WriteBuffer) {
		if schedule != nil {
			b.schedule = schedule
		}
	}
}

// NewWriteBuffer builds a debounced snapshot writer.
func NewWriteBuffer(source Snapshotter, sink SnapshotStore, debounce time.Duration, opts ...BufferOption) *WriteBuffer {
	b := &WriteBuffer{
		source:   source,
		sink:     sink,
		debounce: debounce,
		schedule: func(d time.Duration, fn func()) stopper { return time.AfterFunc(d, fn) },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// MarkDirty records a mutation and (re)arms the debounce timer. Consecutive
// writes within the interval coalesce into one snapshot.
func (b *WriteBuffer) MarkDirty() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dirty = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = b.schedule(b.debounce, func() {
		if err := b.Flush(context.Background()); err != nil && b.logger != nil {
			b.logger.Error("snapshot flush failed", "error", err)
		}
	})
}

// Flush writes the snapshot now if there are unpersisted changes.
func (b *WriteBuffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	if !b.dirty {
		b.mu.Unlock()
		return nil
	}
	b.dirty = false
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	snap, err := b.source.Snapshot(ctx)
	if err != nil {
		return err
	}
	return b.sink.Save(ctx, snap)
}

// Close flushes pending changes and stops the timer.
func (b *WriteBuffer) Close(ctx context.Context) error {
	return b.Flush(ctx)
}
