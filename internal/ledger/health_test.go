package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthMonitor_ProbesAtMostOncePerInterval(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	probes := 0
	m := NewHealthMonitor(func(context.Context) error {
		probes++
		return nil
	}, 30*time.Second, time.Second, WithHealthClock(clock))

	ctx := context.Background()
	assert.True(t, m.IsAvailable(ctx))
	assert.True(t, m.IsAvailable(ctx))
	assert.True(t, m.IsAvailable(ctx))
	assert.Equal(t, 1, probes, "repeated calls inside the interval reuse the last result")

	now = now.Add(31 * time.Second)
	assert.True(t, m.IsAvailable(ctx))
	assert.Equal(t, 2, probes)
}

func TestHealthMonitor_ProbeFailureMeansUnavailable(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	err := errors.New("connection refused")
	var probeErr error = err
	m := NewHealthMonitor(func(context.Context) error {
		return probeErr
	}, 30*time.Second, time.Second, WithHealthClock(clock))

	ctx := context.Background()
	assert.False(t, m.IsAvailable(ctx))

	// Recovery is picked up at the next recheck, not before.
	probeErr = nil
	assert.False(t, m.IsAvailable(ctx))
	now = now.Add(time.Minute)
	assert.True(t, m.IsAvailable(ctx))
}

func TestHealthMonitor_ProbeIsBounded(t *testing.T) {
	m := NewHealthMonitor(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, 30*time.Second, 20*time.Millisecond)

	start := time.Now()
	available := m.IsAvailable(context.Background())
	assert.False(t, available)
	assert.Less(t, time.Since(start), 5*time.Second, "hung probe must be cut off by the timeout")
}
