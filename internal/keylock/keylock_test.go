package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	s := New()

	release, err := s.Acquire(context.Background(), "a")
	require.NoError(t, err)
	release()

	// Lock is free again and the map does not retain released keys.
	release, err = s.Acquire(context.Background(), "a")
	require.NoError(t, err)
	release()

	s.mu.Lock()
	assert.Empty(t, s.locks)
	s.mu.Unlock()
}

func TestAcquireTimesOut(t *testing.T) {
	s := New()

	release, err := s.Acquire(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = s.Acquire(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()

	// A timed-out waiter must not leak a reference that blocks later holders.
	release, err = s.Acquire(context.Background(), "a")
	require.NoError(t, err)
	release()
}

func TestIndependentKeysDoNotBlock(t *testing.T) {
	s := New()

	releaseA, err := s.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	releaseB, err := s.Acquire(ctx, "b")
	require.NoError(t, err)
	releaseB()
}

func TestMutualExclusion(t *testing.T) {
	s := New()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		max     int
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := s.Acquire(context.Background(), "shared")
			require.NoError(t, err)
			mu.Lock()
			holders++
			if holders > max {
				max = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max)
}
