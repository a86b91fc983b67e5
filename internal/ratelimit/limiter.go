package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

const window = time.Minute

// Limiter admits at most perMinute calls in any rolling 60-second window.
// A single instance must be shared by every caller targeting the same
// provider; the admission log is guarded by a mutex.
type Limiter struct {
	mu         sync.Mutex
	perMinute  int
	admissions []time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewLimiter constructs a limiter with a fixed per-minute quota.
func NewLimiter(perMinute int) (*Limiter, error) {
	if perMinute <= 0 {
		return nil, errors.New("ratelimit: quota must be positive")
	}
	return &Limiter{
		perMinute: perMinute,
		now:       time.Now,
		sleep:     sleepContext,
	}, nil
}

// Acquire blocks until admitting the caller would keep the rolling window at
// or under the quota, then records the admission. The wait is aborted when
// the context is cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.admissions) < l.perMinute {
			l.admissions = append(l.admissions, now)
			l.mu.Unlock()
			return nil
		}
		wait := window - now.Sub(l.admissions[0])
		l.mu.Unlock()
		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// prune drops admissions that have left the rolling window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cut := 0
	for cut < len(l.admissions) && now.Sub(l.admissions[cut]) >= window {
		cut++
	}
	if cut > 0 {
		l.admissions = append(l.admissions[:0], l.admissions[cut:]...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
