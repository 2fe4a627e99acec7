package streamly

import "context"

// Producer is the capability the engine requires from upstream code:
// anything that can be polled for the next item or a stop signal.
//
// Next returns the next item, or ErrEndOfStream once the sequence is
// exhausted, or any other error to signal a failure. After a non-nil
// error Next is not called again.
//
// A Producer does not need to be safe for concurrent use: the engine
// guarantees at most one goroutine pulls from it at a time, and
// continuation handoff between workers transfers ownership.
type Producer[T any] interface {
	Next(ctx context.Context) (T, error)
}

// ProducerFunc adapts a plain pull function to Producer.
type ProducerFunc[T any] func(ctx context.Context) (T, error)

func (f ProducerFunc[T]) Next(ctx context.Context) (T, error) { return f(ctx) }

// BlockingHinter is an optional marker a Producer may implement to tell
// the Eager policy that pulls are likely to block (I/O, channel reads).
// The hint lets the dispatcher scale up without waiting for consumer
// starvation to be observed first.
type BlockingHinter interface {
	MayBlock() bool
}

// FromSlice returns a Producer yielding the items of s in order.
func FromSlice[T any](s []T) Producer[T] {
	return &sliceProducer[T]{items: s}
}

type sliceProducer[T any] struct {
	items []T
	pos   int
}

func (p *sliceProducer[T]) Next(_ context.Context) (T, error) {
	if p.pos >= len(p.items) {
		var zero T
		return zero, ErrEndOfStream
	}
	v := p.items[p.pos]
	p.pos++
	return v, nil
}

// FromChannel returns a Producer that pulls from ch until it is closed.
// The resulting producer reports MayBlock since channel reads suspend.
func FromChannel[T any](ch <-chan T) Producer[T] {
	return &channelProducer[T]{ch: ch}
}

type channelProducer[T any] struct {
	ch <-chan T
}

func (p *channelProducer[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-p.ch:
		if !ok {
			return zero, ErrEndOfStream
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (p *channelProducer[T]) MayBlock() bool { return true }

// FromFunc returns a Producer yielding fn() until it reports
// ErrEndOfStream. It is ProducerFunc spelled as a constructor.
func FromFunc[T any](fn func(ctx context.Context) (T, error)) Producer[T] {
	return ProducerFunc[T](fn)
}

// Empty returns a Producer that stops immediately.
func Empty[T any]() Producer[T] {
	return ProducerFunc[T](func(context.Context) (T, error) {
		var zero T
		return zero, ErrEndOfStream
	})
}

// Repeat returns a Producer yielding v exactly n times.
func Repeat[T any](v T, n int) Producer[T] {
	remaining := n
	return ProducerFunc[T](func(context.Context) (T, error) {
		if remaining <= 0 {
			var zero T
			return zero, ErrEndOfStream
		}
		remaining--
		return v, nil
	})
}

// WithBlockingHint wraps p so that it reports MayBlock to the Eager
// policy, regardless of what p itself implements.
func WithBlockingHint[T any](p Producer[T]) Producer[T] {
	return &hintedProducer[T]{inner: p}
}

type hintedProducer[T any] struct {
	inner Producer[T]
}

func (p *hintedProducer[T]) Next(ctx context.Context) (T, error) { return p.inner.Next(ctx) }
func (p *hintedProducer[T]) MayBlock() bool                      { return true }

// Map returns a Producer applying fn to every item of p. It is a plain
// lazy pull loop; concurrency, if any, comes from the stream the result
// is composed into.
func Map[T, R any](p Producer[T], fn func(T) R) Producer[R] {
	return ProducerFunc[R](func(ctx context.Context) (R, error) {
		v, err := p.Next(ctx)
		if err != nil {
			var zero R
			return zero, err
		}
		return fn(v), nil
	})
}

// Filter returns a Producer yielding only the items of p for which keep
// returns true.
func Filter[T any](p Producer[T], keep func(T) bool) Producer[T] {
	return ProducerFunc[T](func(ctx context.Context) (T, error) {
		for {
			v, err := p.Next(ctx)
			if err != nil {
				return v, err
			}
			if keep(v) {
				return v, nil
			}
		}
	})
}

// Take limits p to its first n items.
func Take[T any](p Producer[T], n int) Producer[T] {
	remaining := n
	return ProducerFunc[T](func(ctx context.Context) (T, error) {
		if remaining <= 0 {
			var zero T
			return zero, ErrEndOfStream
		}
		v, err := p.Next(ctx)
		if err != nil {
			return v, err
		}
		remaining--
		return v, nil
	})
}
