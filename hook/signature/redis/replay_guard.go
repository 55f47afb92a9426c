package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

/* Redis implementation of signature.ReplayGuard
 * Claims are plain keys written with SET NX and a TTL, so several receiver
 * instances sharing one Redis reject the same delivery
 */

// keyPrefix namespaces claims: posthook:delivery:{hook_id}:{timestamp}:{digest}
const keyPrefix = "posthook:delivery"

type ReplayGuard struct {
	client *redis.Client
}

// NewReplayGuard connects to Redis and checks the connection
func NewReplayGuard(addr, password string, db int) (*ReplayGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &ReplayGuard{client: client}, nil
}

func (g *ReplayGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, Key(key), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claiming delivery: %w", err)
	}
	return ok, nil
}

// Key returns the Redis key used for a claim
func Key(claim string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, claim)
}

// Ping checks the connection; the receiver serves it on /health
func (g *ReplayGuard) Ping(ctx context.Context) error {
	if err := g.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging Redis: %w", err)
	}
	return nil
}

func (g *ReplayGuard) Close() error {
	return g.client.Close()
}
