package customdict

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDict connects to REDIS_ADDR and skips the test when no server answers.
func newDict(t *testing.T) *CustomDict {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	key := fmt.Sprintf("%s:test:%d", DefaultKey, time.Now().UnixNano())
	cd := New(client, key)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cd.Ping(ctx); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Del(context.Background(), key) })
	return cd
}

func TestNewDefaultKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	assert.Equal(t, DefaultKey, New(client, "").Key())
	assert.Equal(t, "words", New(client, "words").Key())
}

func TestAddRemove(t *testing.T) {
	cd := newDict(t)
	ctx := context.Background()

	require.NoError(t, cd.Add(ctx, "kubectl"))
	require.NoError(t, cd.Add(ctx, "grpc"))
	require.NoError(t, cd.Add(ctx, "kubectl"))

	words, err := cd.All(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"kubectl", "grpc"}, words)

	ok, err := cd.Has(ctx, "grpc")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cd.Remove(ctx, "grpc"))
	ok, err = cd.Has(ctx, "grpc")
	require.NoError(t, err)
	assert.False(t, ok)
}
