// Package ratelimit provides the emission throttle shared by all
// workers of one stream. It bounds the aggregate item rate; it makes no
// fairness promise across workers.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is the throttle contract the engine consumes. Allow is the
// non-blocking probe; Wait suspends the caller until the next token or
// until ctx is done.
//
// Implementations must be safe for concurrent use: every worker of a
// stream shares one Limiter.
type Limiter interface {
	Allow() bool
	Wait(ctx context.Context) error
}

// New returns a token-bucket Limiter targeting perSecond items per
// second in aggregate. Non-positive rates yield an unlimited limiter.
func New(perSecond float64) Limiter {
	if perSecond <= 0 {
		return Unlimited()
	}
	// Burst of one keeps emissions evenly spaced, so the observed rate
	// converges to the target within a short averaging window.
	return tokenBucket{l: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

type tokenBucket struct {
	l *rate.Limiter
}

func (t tokenBucket) Allow() bool                    { return t.l.Allow() }
func (t tokenBucket) Wait(ctx context.Context) error { return t.l.Wait(ctx) }

// Unlimited returns a Limiter that never throttles.
func Unlimited() Limiter { return unlimited{} }

type unlimited struct{}

func (unlimited) Allow() bool                  { return true }
func (unlimited) Wait(_ context.Context) error { return nil }
