package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// OriginLimiter serializes fetches per origin with a minimum
// inter-request delay plus randomized jitter. Different origins are
// limited independently, so a batch of sites crawls in parallel.
type OriginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

func NewOriginLimiter(interval time.Duration) *OriginLimiter {
	return &OriginLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

func (l *OriginLimiter) forOrigin(origin string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[origin]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[origin] = lim
	}
	return lim
}

// Wait blocks until the origin's next request slot, then sleeps a
// random jitter of up to a quarter interval to avoid a clockwork
// request pattern.
func (l *OriginLimiter) Wait(ctx context.Context, origin string) error {
	if l.interval <= 0 {
		return ctx.Err()
	}
	if err := l.forOrigin(origin).Wait(ctx); err != nil {
		return err
	}
	jitter := time.Duration(rand.Int63n(int64(l.interval)/4 + 1))
	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
