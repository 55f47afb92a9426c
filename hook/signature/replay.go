package signature

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

/* ReplayGuard remembers deliveries that were already accepted
 * Claim returns false when key was claimed before and has not expired
 */
type ReplayGuard interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryReplayGuard is a bounded in-process ReplayGuard; it is not shared between instances
type MemoryReplayGuard struct {
	mu    sync.Mutex
	seen  *expirable.LRU[string, time.Time]
	clock func() time.Time
}

/* NewMemoryReplayGuard keeps at most size keys
 * maxTTL bounds how long any key is retained regardless of the ttl passed to Claim
 */
func NewMemoryReplayGuard(size int, maxTTL time.Duration) *MemoryReplayGuard {
	if size <= 0 {
		size = 10_000
	}
	if maxTTL <= 0 {
		maxTTL = 2 * DefaultTolerance
	}
	return &MemoryReplayGuard{
		seen:  expirable.NewLRU[string, time.Time](size, nil, maxTTL),
		clock: time.Now,
	}
}

func (g *MemoryReplayGuard) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock()
	if expiresAt, ok := g.seen.Get(key); ok && now.Before(expiresAt) {
		return false, nil
	}
	g.seen.Add(key, now.Add(ttl))
	return true, nil
}

// Len returns the number of remembered keys, expired ones included until evicted
func (g *MemoryReplayGuard) Len() int {
	return g.seen.Len()
}
