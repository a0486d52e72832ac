package mirror

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenant/internal/domain"
)

// manualScheduler captures scheduled callbacks so tests fire them by hand.
type manualScheduler struct {
	mu    sync.Mutex
	fns   []func()
	stops int
}

type manualTimer struct {
	s *manualScheduler
}

func (t manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.stops++
	return true
}

func (s *manualScheduler) schedule(_ time.Duration, fn func()) stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
	return manualTimer{s: s}
}

func (s *manualScheduler) fireLast() {
	s.mu.Lock()
	fn := s.fns[len(s.fns)-1]
	s.mu.Unlock()
	fn()
}

type countingSink struct {
	mu    sync.Mutex
	saves int
	last  Snapshot
}

func (c *countingSink) Save(_ context.Context, snap Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	c.last = snap
	return nil
}

func (c *countingSink) Load(context.Context) (Snapshot, error) {
	return Snapshot{}, nil
}

func TestWriteBuffer_DebouncesConsecutiveWrites(t *testing.T) {
	store := NewInMemory()
	sched := &manualScheduler{}
	sink := &countingSink{}
	buf := NewWriteBuffer(store, sink, time.Second, WithScheduler(sched.schedule))

	ctx := context.Background()
	require.NoError(t, store.SaveIdentity(ctx, domain.Identity{DID: "did:example:w1"}))

	buf.MarkDirty()
	buf.MarkDirty()
	buf.MarkDirty()

	assert.Equal(t, 0, sink.saves, "nothing persists before the debounce fires")
	assert.Len(t, sched.fns, 3, "each write re-arms the timer")
	assert.Equal(t, 2, sched.stops, "earlier timers are cancelled")

	sched.fireLast()
	assert.Equal(t, 1, sink.saves, "coalesced into one snapshot write")
	assert.Len(t, sink.last.Identities, 1)
}

func TestWriteBuffer_FlushIsIdempotentWhenClean(t *testing.T) {
	store := NewInMemory()
	sink := &countingSink{}
	buf := NewWriteBuffer(store, sink, time.Second, WithScheduler((&manualScheduler{}).schedule))

	ctx := context.Background()
	require.NoError(t, buf.Flush(ctx), "clean flush is a no-op")
	assert.Equal(t, 0, sink.saves)

	buf.MarkDirty()
	require.NoError(t, buf.Flush(ctx))
	assert.Equal(t, 1, sink.saves)

	require.NoError(t, buf.Flush(ctx), "second flush with no new writes is a no-op")
	assert.Equal(t, 1, sink.saves)
}

func TestWriteBuffer_CloseFlushesPendingChanges(t *testing.T) {
	store := NewInMemory()
	sink := &countingSink{}
	buf := NewWriteBuffer(store, sink, time.Second, WithScheduler((&manualScheduler{}).schedule))

	buf.MarkDirty()
	require.NoError(t, buf.Close(context.Background()))
	assert.Equal(t, 1, sink.saves)
}
