package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainwatch/backend/internal/observability"
)

func TestTTLCache_ExpiresAfterTTL(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	c := newTTLCache[int]("test", time.Minute, clock, observability.NewMetricsForTesting())
	var loads int
	load := func(context.Context) (int, error) {
		loads++
		return loads, nil
	}
	ctx := context.Background()

	v, err := c.get(ctx, load)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(59 * time.Second)
	v, _ = c.get(ctx, load)
	assert.Equal(t, 1, v)

	clock.Advance(time.Second)
	v, _ = c.get(ctx, load)
	assert.Equal(t, 2, v)
}

func TestTTLCache_ErrorsAreNotCached(t *testing.T) {
	c := newTTLCache[string]("test", time.Minute, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())
	boom := errors.New("boom")
	ctx := context.Background()

	_, err := c.get(ctx, func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	v, err := c.get(ctx, func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestTTLCache_ConcurrentMissesShareOneLoad(t *testing.T) {
	c := newTTLCache[int]("test", time.Minute, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())
	var loads atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		loads.Add(1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = c.get(context.Background(), load)
		}()
	}
	require.Eventually(t, func() bool { return loads.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for _, r := range results {
		assert.Equal(t, 7, r)
	}
}

func TestTTLCache_LoadOutlivesCancelledCaller(t *testing.T) {
	c := newTTLCache[string]("test", time.Minute, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := c.get(ctx, func(loadCtx context.Context) (string, error) {
		if err := loadCtx.Err(); err != nil {
			return "", err
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}
