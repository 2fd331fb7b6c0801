package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/sitescript/pkg/adapters/redis"
	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunScriptStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_Keys(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.SiteScript{ID: "s1", Version: 1, Content: domain.EmptyContent}))
	assert.True(t, mr.Exists("test:script:s1"))
	assert.True(t, mr.Exists("test:index"))

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("test:script:s1"))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.SiteScript{ID: "short-lived", Version: 1, Content: domain.EmptyContent}))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "short-lived")

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "short-lived")
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)
}
