package streamly

import (
	"context"
	"errors"
)

// eagerYieldQuota is how many items an Eager worker emits before
// handing its producer back when other sub-streams are queued. It only
// matters under oversubscription; with free worker slots an Eager
// worker drains its producer to exhaustion.
const eagerYieldQuota = 64

// worker drains a single workItem into the output queue. Exactly one
// goroutine runs a worker; a worker that yields hands its remaining
// producer back to the dispatcher as a continuation instead of pushing
// an end marker.
type worker[T any] struct {
	id   uint64
	item *workItem[T]
	c    *coordinator[T]
}

func (w *worker[T]) run(ctx context.Context) {
	c := w.c
	var cont *workItem[T]
	emitted := 0

	for {
		// Stop checks bound wasted work on cancellation to one
		// pull/push cycle.
		if c.stopFlag.Load() || ctx.Err() != nil {
			break
		}

		// Ahead run-ahead bound: a worker past the release cursor stops
		// producing once the buffer is full. The cursor's own
		// sub-stream never yields here, so the consumer always makes
		// progress.
		if c.policy == Ahead && w.item.seq != c.nextExpected.Load() &&
			c.bufferedTotal() >= c.cfg.MaxBuffer {
			cont = w.item
			break
		}

		v, err := w.item.producer.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrEndOfStream) {
				_ = c.q.push(ctx, outputSlot[T]{kind: slotEnd, seq: w.item.seq, workerID: w.id})
				break
			}
			if ctx.Err() != nil {
				// Teardown already in progress; not a producer failure.
				break
			}
			_ = c.q.push(ctx, outputSlot[T]{kind: slotFailure, seq: w.item.seq, workerID: w.id, err: err})
			break
		}

		if err := c.limiter.Wait(ctx); err != nil {
			break
		}
		// Checked before every push, not only at loop entry.
		if c.stopFlag.Load() {
			break
		}
		if err := c.q.push(ctx, outputSlot[T]{kind: slotValue, val: v, seq: w.item.seq, workerID: w.id}); err != nil {
			break
		}
		emitted++

		if w.shouldYield(emitted) {
			cont = w.item
			break
		}
	}

	c.onWorkerDone(cont)
}

// shouldYield implements the cooperative sharing of bounded concurrency
// across sub-streams. RoundRobin yields after every emission (one item
// per dispatch round); Eager yields after a quota, and only when other
// work is actually queued. Ahead yields solely via the run-ahead bound
// above, Sequential never dispatches workers at all.
func (w *worker[T]) shouldYield(emitted int) bool {
	switch w.c.policy {
	case RoundRobin:
		return true
	case Eager:
		return emitted >= eagerYieldQuota && w.c.disp.pendingLen() > 0
	default:
		return false
	}
}
