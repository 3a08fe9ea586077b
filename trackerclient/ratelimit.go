package trackerclient

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Bucket is the token-bucket rate limiter the client owns per base URL,
// per spec.md section 4.1 ("hidden global rate-limit state" is explicitly
// called out in section 9 as a pattern to avoid — each Client owns one).
type Bucket struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	n       int
	window  time.Duration
}

// NewBucket builds a bucket that allows at most n calls per rolling window:
// it holds a single token refilled every window/n, so calls are spaced at
// least window/n apart.
func NewBucket(n int, window time.Duration) *Bucket {
	if n <= 0 {
		n = 100
	}
	if window <= 0 {
		window = 60 * time.Second
	}
	interval := window / time.Duration(n)
	return &Bucket{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		n:       n,
		window:  window,
	}
}

// Acquire blocks until a token is available or ctx is cancelled.
func (b *Bucket) Acquire(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}

// Delay reports how long the caller would currently have to wait for a
// token, without consuming one. Used for diagnostics/tests.
func (b *Bucket) Delay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.limiter.Reserve()
	defer r.Cancel()
	if !r.OK() {
		return b.window
	}
	return r.Delay()
}

// HonorRetryAfter sleeps for d, returning ctx's error early if ctx is
// done. It does not consume a bucket token. The client uses it for the
// wait after a 429, which counts toward max-retries but not toward the
// exponential backoff escalation, and for the backoff between retries.
func HonorRetryAfter(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
