package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/sitescript/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "script-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:script-1"), "lock key should be set")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:script-1"), "lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "script-1", 5*time.Second)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "script-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))

	again, err := locker.Lock(ctx, "script-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisLocker_LostLock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "script-1", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	assert.ErrorIs(t, unlock(ctx), redis.ErrLockLost)
}
