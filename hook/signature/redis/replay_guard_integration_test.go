//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcelsud/posthook/hook/signature/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// SetupRedisContainer creates and starts a Redis testcontainer
func SetupRedisContainer(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	redisContainer, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start Redis container")

	addr, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err, "failed to get Redis connection string")
	addr = strings.TrimPrefix(addr, "redis://")

	cleanup := func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	}
	return addr, cleanup
}

func TestReplayGuard_Integration(t *testing.T) {
	ctx := context.Background()

	addr, cleanup := SetupRedisContainer(t, ctx)
	defer cleanup()

	t.Run("concurrent claims across guards", func(t *testing.T) {
		guards := make([]*redis.ReplayGuard, 4)
		for i := range guards {
			g, err := redis.NewReplayGuard(addr, "", 0)
			require.NoError(t, err)
			defer g.Close()
			guards[i] = g
		}

		claim := fmt.Sprintf("hook-%d:%d:feed", time.Now().UnixNano(), time.Now().Unix())

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(g *redis.ReplayGuard) {
				defer wg.Done()
				ok, err := g.Claim(ctx, claim, time.Minute)
				if err == nil && ok {
					wins.Add(1)
				}
			}(guards[i%len(guards)])
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("ping", func(t *testing.T) {
		g, err := redis.NewReplayGuard(addr, "", 0)
		require.NoError(t, err)
		defer g.Close()

		require.NoError(t, g.Ping(ctx))
	})
}
