// Package resilience retries the connection attempts to optional backends.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Policy controls how often and how far apart attempts are made. Zero fields
// take the values of DefaultPolicy.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Factor    float64
	Jitter    float64
}

// DefaultPolicy gives a backend about a second to come up before the run
// continues without it.
var DefaultPolicy = Policy{
	Attempts:  3,
	BaseDelay: 200 * time.Millisecond,
	MaxDelay:  2 * time.Second,
	Factor:    2,
	Jitter:    0.1,
}

func (p Policy) resolved() Policy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultPolicy.Attempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultPolicy.MaxDelay
	}
	if p.Factor <= 0 {
		p.Factor = DefaultPolicy.Factor
	}
	if p.Jitter <= 0 {
		p.Jitter = DefaultPolicy.Jitter
	}
	return p
}

// delay returns the wait after the given failed attempt (1-based).
func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt-1))
	d += d * p.Jitter * (2*rand.Float64() - 1)
	switch {
	case d > float64(p.MaxDelay):
		d = float64(p.MaxDelay)
	case d < 0:
		d = float64(p.BaseDelay)
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, the attempts are used up or ctx is done.
func Do(ctx context.Context, name string, p Policy, fn func(context.Context) error) error {
	p = p.resolved()
	log := slog.Default().With("component", "retry", "operation", name)

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			if attempt > 1 {
				log.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == p.Attempts {
			return fmt.Errorf("%s: giving up after %d attempts: %w", name, attempt, err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", name, ctx.Err())
		}
		wait := p.delay(attempt)
		log.Warn("attempt failed", "attempt", attempt, "max_attempts", p.Attempts, "error", err, "next_delay", wait)
		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s: %w", name, ctx.Err())
		}
	}
}

// Connect retries dial with p and returns the first client it opens.
func Connect[T any](ctx context.Context, name string, p Policy, dial func(context.Context) (T, error)) (T, error) {
	var client T
	err := Do(ctx, name, p, func(ctx context.Context) error {
		c, err := dial(ctx)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	return client, err
}
