package streamly

import (
	"context"
	"errors"
	"sync"
)

// Policy selects how a stream composition evaluates its sub-streams.
// It is a plain tag: all four policies share the one Stream type and
// the same coordinator machinery, configured differently.
type Policy uint8

const (
	// Sequential evaluates one sub-stream at a time in strict input
	// order. No workers are spawned; pulls run on the caller.
	Sequential Policy = iota
	// Eager evaluates sub-streams concurrently with demand-driven
	// scaling and no cross-sub-stream ordering guarantee.
	Eager
	// RoundRobin gives every active sub-stream one emission opportunity
	// per dispatch round.
	RoundRobin
	// Ahead evaluates concurrently but delivers in strict input order,
	// reassembled by sequence number.
	Ahead
)

func (p Policy) String() string {
	switch p {
	case Sequential:
		return "sequential"
	case Eager:
		return "eager"
	case RoundRobin:
		return "round-robin"
	case Ahead:
		return "ahead"
	default:
		return "unknown"
	}
}

// Stream is the result of composing producers under a policy. It
// implements Producer itself, so streams nest: a Stream can be fed as a
// sub-stream into another composition or drained by a plain loop.
//
// A Stream is single-consumer: Next and Drain must not be called
// concurrently. Enqueue and Cancel are safe from other goroutines.
type Stream[T any] struct {
	policy Policy

	// concurrent policies
	coord *coordinator[T]

	// Sequential state: a direct pull loop, no goroutines.
	mu       sync.Mutex
	pending  []Producer[T]
	cur      Producer[T]
	curSeq   uint64
	seqErr   error
	seqDone  bool
	canceled bool
}

// New composes producers under the given policy. Sequential streams
// ignore MaxWorkers; every other option applies as documented.
func New[T any](ctx context.Context, policy Policy, producers []Producer[T], opts ...Option) (*Stream[T], error) {
	if policy > Ahead {
		return nil, ErrInvalidConfig
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	if policy == Sequential {
		s := &Stream[T]{policy: Sequential}
		s.pending = append(s.pending, producers...)
		return s, nil
	}

	s := &Stream[T]{policy: policy, coord: newCoordinator[T](ctx, policy, cfg)}
	for _, p := range producers {
		if err := s.coord.enqueueProducer(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewSequential composes producers into a strictly ordered,
// caller-driven stream. It cannot fail: there is nothing to configure.
func NewSequential[T any](producers ...Producer[T]) *Stream[T] {
	s := &Stream[T]{policy: Sequential}
	s.pending = append(s.pending, producers...)
	return s
}

// NewEager composes producers under the Eager policy.
func NewEager[T any](ctx context.Context, producers []Producer[T], opts ...Option) (*Stream[T], error) {
	return New(ctx, Eager, producers, opts...)
}

// NewRoundRobin composes producers under the RoundRobin policy.
func NewRoundRobin[T any](ctx context.Context, producers []Producer[T], opts ...Option) (*Stream[T], error) {
	return New(ctx, RoundRobin, producers, opts...)
}

// NewAhead composes producers under the Ahead policy.
func NewAhead[T any](ctx context.Context, producers []Producer[T], opts ...Option) (*Stream[T], error) {
	return New(ctx, Ahead, producers, opts...)
}

// Policy reports the stream's composition policy.
func (s *Stream[T]) Policy() Policy { return s.policy }

// Next pulls the next item. It returns ErrEndOfStream once every
// sub-stream is drained, the first recorded failure thereafter
// forever, or ErrCanceled after Cancel. Concurrent policies block until
// a worker produces; Sequential pulls directly on the caller.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	if s.policy == Sequential {
		return s.nextSequential(ctx)
	}
	return s.coord.next(ctx)
}

func (s *Stream[T]) nextSequential(ctx context.Context) (T, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seqErr != nil {
		return zero, s.seqErr
	}
	if s.canceled {
		return zero, ErrCanceled
	}
	if s.seqDone {
		return zero, ErrEndOfStream
	}

	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if s.cur == nil {
			if len(s.pending) == 0 {
				s.seqDone = true
				return zero, ErrEndOfStream
			}
			s.cur = s.pending[0]
			s.pending = s.pending[1:]
		}
		v, err := s.cur.Next(ctx)
		if errors.Is(err, ErrEndOfStream) {
			s.cur = nil
			s.curSeq++
			continue
		}
		if err != nil {
			// First failure wins and is sticky; no worker id exists on
			// the sequential path.
			s.seqErr = wrapFailure(err, 0, s.curSeq, false)
			return zero, s.seqErr
		}
		return v, nil
	}
}

// Enqueue pushes one more sub-stream into a live composition. It fails
// with ErrStreamClosed once the stream has finished, failed, or been
// canceled.
func (s *Stream[T]) Enqueue(p Producer[T]) error {
	if s.policy == Sequential {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.seqDone || s.canceled || s.seqErr != nil {
			return ErrStreamClosed
		}
		s.pending = append(s.pending, p)
		return nil
	}
	return s.coord.enqueueProducer(p)
}

// Cancel tells the stream its consumer is done. For concurrent
// policies it tears down every worker and returns only after all of
// them have been joined; no goroutine outlives the call. Subsequent
// Next calls return ErrCanceled. Cancel is idempotent.
func (s *Stream[T]) Cancel() {
	if s.policy == Sequential {
		s.mu.Lock()
		s.canceled = true
		s.cur = nil
		s.pending = nil
		s.mu.Unlock()
		return
	}
	s.coord.consumerCancel()
}

// Drain feeds every delivered item to c until the stream ends, c
// reports Done, c fails, or ctx expires. Early exits cancel the stream
// so no workers are leaked. A Done report from the consumer is not an
// error.
func (s *Stream[T]) Drain(ctx context.Context, c Consumer[T]) error {
	for {
		v, err := s.Next(ctx)
		if errors.Is(err, ErrEndOfStream) {
			return nil
		}
		if err != nil {
			s.Cancel()
			return err
		}
		more, err := c.Accept(ctx, v)
		if err != nil {
			s.Cancel()
			return err
		}
		if !more {
			s.Cancel()
			return nil
		}
	}
}
