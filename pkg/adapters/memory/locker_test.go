package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_MutualExclusion(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "chain:close", time.Minute)
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			assert.NoError(t, unlock(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.Held())
}

func TestLocker_IndependentKeys(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "a", time.Minute)
	require.NoError(t, err)
	unlockB, err := l.Lock(ctx, "b", time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 2, l.Held())
	require.NoError(t, unlockA(ctx))
	require.NoError(t, unlockB(ctx))
	assert.Equal(t, 0, l.Held())
}

func TestLocker_ContextCanceled(t *testing.T) {
	l := NewLocker()
	unlock, err := l.Lock(context.Background(), "k", time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(context.Background()))
	assert.Equal(t, 0, l.Held())
}

func TestLocker_Expires(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)

	// The second caller gets the lock once the first one expired.
	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlock2, err := l.Lock(waitCtx, "k", time.Minute)
	require.NoError(t, err)

	assert.Error(t, unlock(ctx), "an expired lock cannot be released by its old holder")
	require.NoError(t, unlock2(ctx))
	assert.Equal(t, 0, l.Held())
}

func TestLocker_NoLeak(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		unlock, err := l.Lock(ctx, fmt.Sprintf("chain-%d", i), time.Minute)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	}
	assert.Equal(t, 0, l.Held())
}
