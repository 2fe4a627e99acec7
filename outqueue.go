package streamly

import "context"

// outqueue is the bounded multi-producer/single-consumer queue between
// workers and the coordinator. It is a thin wrapper over a buffered
// channel: the channel gives FIFO delivery per pusher, blocking push at
// capacity, blocking pop when empty, and the wake-up guarantee (a push
// into an empty queue always wakes the sleeping consumer).
type outqueue[T any] struct {
	ch chan outputSlot[T]
}

func newOutqueue[T any](capacity int) *outqueue[T] {
	return &outqueue[T]{ch: make(chan outputSlot[T], capacity)}
}

// push blocks while the queue is full. It returns ctx.Err() if ctx is
// done before the slot is accepted; the slot is then dropped, which is
// only legal during teardown.
func (q *outqueue[T]) push(ctx context.Context, s outputSlot[T]) error {
	select {
	case q.ch <- s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pop blocks until a slot is available or one of the contexts is done.
// callerCtx bounds the consumer's wait; streamCtx observes teardown.
func (q *outqueue[T]) pop(callerCtx, streamCtx context.Context) (outputSlot[T], error) {
	select {
	case s := <-q.ch:
		return s, nil
	case <-callerCtx.Done():
		var zero outputSlot[T]
		return zero, callerCtx.Err()
	case <-streamCtx.Done():
		var zero outputSlot[T]
		return zero, streamCtx.Err()
	}
}

// tryPop returns immediately.
func (q *outqueue[T]) tryPop() (outputSlot[T], bool) {
	select {
	case s := <-q.ch:
		return s, true
	default:
		var zero outputSlot[T]
		return zero, false
	}
}

// buffered reports the current number of queued slots.
func (q *outqueue[T]) buffered() int { return len(q.ch) }

// capacity reports the configured bound.
func (q *outqueue[T]) capacity() int { return cap(q.ch) }

// drain discards buffered slots. Only the coordinator calls it, after
// every worker has been joined.
func (q *outqueue[T]) drain() {
	for {
		if _, ok := q.tryPop(); !ok {
			return
		}
	}
}
