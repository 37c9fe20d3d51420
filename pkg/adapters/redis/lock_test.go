package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/catena/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_ExclusiveUntilUnlocked(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "catena:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "ship-order", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("catena:lock:ship-order"))

	waitCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "ship-order", time.Minute)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("catena:lock:ship-order"))

	unlock, err = locker.Lock(ctx, "ship-order", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLocker_UnlockKeepsForeignLock(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "catena:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)

	// The lock expired and someone else took it.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("catena:lock:k", "other"))

	require.NoError(t, unlock(ctx))
	got, err := mr.Get("catena:lock:k")
	require.NoError(t, err)
	assert.Equal(t, "other", got)
}
