//go:build integration

package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisStore(t *testing.T) *Redis {
	t.Helper()

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t)

	resp, err := store.Acquire(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, resp)

	_, err = store.Acquire(ctx, "k1", time.Minute)
	require.ErrorIs(t, err, ErrAlreadyInProgress)

	want := Response{Status: 200, ContentType: "application/json", Body: []byte(`{"message":"ok"}`), Fingerprint: "abc123"}
	require.NoError(t, store.Complete(ctx, "k1", want, time.Minute))

	got, err := store.Acquire(ctx, "k1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	_, err = store.Acquire(ctx, "k2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k2"))

	resp, err = store.Acquire(ctx, "k2", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, resp)
}
