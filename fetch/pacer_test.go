package fetch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_FirstGrantIsImmediate(t *testing.T) {
	p := NewPacer(time.Second, 2*time.Second)

	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, p.Wait(context.Background()))
	assert.Empty(t, slept)

	require.NoError(t, p.Wait(context.Background()))
	require.NoError(t, p.Wait(context.Background()))
	require.Len(t, slept, 2)
	for _, d := range slept {
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 2*time.Second)
	}
}

func TestPacer_SerializesConcurrentWaiters(t *testing.T) {
	p := NewPacer(10*time.Millisecond, 10*time.Millisecond)

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		active++
		maxSeen = max(maxSeen, active)
		mu.Unlock()

		time.Sleep(d)

		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Wait(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "delays never overlap across workers")
}

func TestPacer_CancelledWhileWaiting(t *testing.T) {
	p := NewPacer(time.Hour, time.Hour)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestPacer_FixedDelay(t *testing.T) {
	p := NewPacer(3*time.Second, time.Second)
	assert.Equal(t, 3*time.Second, p.Delay(), "max below min collapses to min")
}
