package streamly

import (
	"context"
	"errors"
)

// Consumer is the capability the engine offers downstream draining to:
// Accept returns (true, nil) to continue, (false, nil) to stop early
// without error, or a non-nil error to abort.
type Consumer[T any] interface {
	Accept(ctx context.Context, item T) (bool, error)
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc[T any] func(ctx context.Context, item T) (bool, error)

func (f ConsumerFunc[T]) Accept(ctx context.Context, item T) (bool, error) { return f(ctx, item) }

// canceler is implemented by producers that own background resources
// (streams). Draining helpers call it on early exit so no goroutine is
// left feeding an abandoned sequence.
type canceler interface {
	Cancel()
}

func cancelIfPossible[T any](p Producer[T]) {
	if c, ok := any(p).(canceler); ok {
		c.Cancel()
	}
}

// Collect drains p to a slice. On failure it returns the items
// delivered before the failure alongside the error.
func Collect[T any](ctx context.Context, p Producer[T]) ([]T, error) {
	var out []T
	for {
		v, err := p.Next(ctx)
		if errors.Is(err, ErrEndOfStream) {
			return out, nil
		}
		if err != nil {
			cancelIfPossible(p)
			return out, err
		}
		out = append(out, v)
	}
}

// Each applies fn to every item of p in delivery order. A non-nil error
// from fn stops consumption, tears the stream down, and is returned.
func Each[T any](ctx context.Context, p Producer[T], fn func(T) error) error {
	for {
		v, err := p.Next(ctx)
		if errors.Is(err, ErrEndOfStream) {
			return nil
		}
		if err != nil {
			cancelIfPossible(p)
			return err
		}
		if err := fn(v); err != nil {
			cancelIfPossible(p)
			return err
		}
	}
}

// Fold accumulates the items of p with step, starting from init.
func Fold[T, A any](ctx context.Context, p Producer[T], init A, step func(A, T) A) (A, error) {
	acc := init
	for {
		v, err := p.Next(ctx)
		if errors.Is(err, ErrEndOfStream) {
			return acc, nil
		}
		if err != nil {
			cancelIfPossible(p)
			return acc, err
		}
		acc = step(acc, v)
	}
}
