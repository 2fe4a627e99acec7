package streamly

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Unisay/streamly/metrics"
	"github.com/Unisay/streamly/ratelimit"
)

// coordinator is the shared object orchestrating workers, the output
// queue, the rate limiter, and the failure cell for one concurrent
// stream composition. One logical consumer pulls from it; that consumer
// may itself be a worker of an outer coordinator, so coordinators nest.
type coordinator[T any] struct {
	cfg    config
	id     uuid.UUID
	policy Policy

	ctx    context.Context
	cancel context.CancelFunc

	q       *outqueue[T]
	disp    *dispatcher[T]
	limiter ratelimit.Limiter
	reasm   *reassembly[T] // Ahead only; consumer-side, unsynchronized

	active       atomic.Int64  // currently running workers
	live         sync.WaitGroup
	stopFlag     atomic.Bool   // no new dispatch, workers stop at next yield point
	outstanding  atomic.Int64  // sub-streams whose end marker is not yet consumed
	heapSize     atomic.Int64  // Ahead: parked items, mirrored for worker throttling
	nextExpected atomic.Uint64 // Ahead: release cursor, mirrored for worker throttling
	spawnCap     atomic.Int64  // Eager demand-scaling budget

	canceled   atomic.Bool
	cancelOnce sync.Once

	// Terminal state below is touched only by the single consumer
	// goroutine.
	termErr  error
	finished bool

	mSpawned   metrics.Counter
	mDelivered metrics.Counter
	mLive      metrics.UpDownCounter
	mWait      metrics.Histogram
}

func newCoordinator[T any](ctx context.Context, policy Policy, cfg config) *coordinator[T] {
	c := &coordinator[T]{
		cfg:     cfg,
		id:      uuid.New(),
		policy:  policy,
		q:       newOutqueue[T](cfg.MaxBuffer),
		limiter: cfg.limiter(),
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.disp = newDispatcher(c)

	switch policy {
	case Ahead:
		c.reasm = newReassembly[T]()
		c.spawnCap.Store(int64(cfg.MaxWorkers))
	case Eager:
		// Start near-sequential; demand observed by the consumer (or a
		// blocking hint) grows the budget up to MaxWorkers.
		c.spawnCap.Store(1)
	default:
		c.spawnCap.Store(int64(cfg.MaxWorkers))
	}

	attrs := map[string]string{"coordinator": c.id.String(), "policy": policy.String()}
	c.mSpawned = cfg.Metrics.Counter("streamly_workers_spawned",
		metrics.WithUnit("1"), metrics.WithAttributes(attrs))
	c.mDelivered = cfg.Metrics.Counter("streamly_items_delivered",
		metrics.WithUnit("1"), metrics.WithAttributes(attrs))
	c.mLive = cfg.Metrics.UpDownCounter("streamly_workers_live",
		metrics.WithUnit("1"), metrics.WithAttributes(attrs))
	c.mWait = cfg.Metrics.Histogram("streamly_consumer_wait_seconds",
		metrics.WithUnit("seconds"), metrics.WithAttributes(attrs))
	return c
}

// enqueueProducer seeds one more sub-stream. Safe to call while the
// stream runs; rejected once the stream reached a terminal state.
func (c *coordinator[T]) enqueueProducer(p Producer[T]) error {
	if c.stopFlag.Load() {
		return ErrStreamClosed
	}
	c.outstanding.Add(1)
	c.disp.enqueue(p)
	return nil
}

// noteBlockingHint lets the Eager policy skip the warm-up phase for
// producers that declare their pulls may block.
func (c *coordinator[T]) noteBlockingHint(p Producer[T]) {
	if c.policy != Eager {
		return
	}
	if h, ok := any(p).(BlockingHinter); ok && h.MayBlock() {
		c.spawnCap.Store(int64(c.cfg.MaxWorkers))
	}
}

// spawnLimit is the current worker cap: MaxWorkers, except for Eager
// streams still warming up.
func (c *coordinator[T]) spawnLimit() int {
	limit := int(c.spawnCap.Load())
	if limit > c.cfg.MaxWorkers {
		limit = c.cfg.MaxWorkers
	}
	return limit
}

// bufferedTotal counts output slots held anywhere between workers and
// the consumer: the queue plus, for Ahead, the reassembly buckets.
func (c *coordinator[T]) bufferedTotal() int {
	return c.q.buffered() + int(c.heapSize.Load())
}

// raiseDemand is the Eager scaling signal: the consumer found the
// buffer empty and is about to block, so production is the bottleneck.
func (c *coordinator[T]) raiseDemand() {
	if c.policy != Eager {
		return
	}
	for {
		cur := c.spawnCap.Load()
		if cur >= int64(c.cfg.MaxWorkers) {
			return
		}
		if c.spawnCap.CompareAndSwap(cur, cur+1) {
			return
		}
	}
}

// next implements the pull side. It returns the next item, or
// ErrEndOfStream when every sub-stream has been drained, or the first
// recorded failure, or ErrCanceled after Cancel.
func (c *coordinator[T]) next(ctx context.Context) (T, error) {
	var zero T
	if c.termErr != nil {
		return zero, c.termErr
	}
	if c.canceled.Load() {
		return zero, ErrCanceled
	}
	if c.finished {
		return zero, ErrEndOfStream
	}
	if c.policy == Ahead {
		return c.nextAhead(ctx)
	}

	for {
		if c.outstanding.Load() == 0 && c.q.buffered() == 0 {
			return zero, c.finish()
		}
		slot, err := c.popSlot(ctx)
		if err != nil {
			return zero, err
		}
		switch slot.kind {
		case slotValue:
			c.mDelivered.Add(1)
			return slot.val, nil
		case slotEnd:
			c.outstanding.Add(-1)
		case slotFailure:
			return zero, c.deliverFailure(slot)
		}
	}
}

// nextAhead releases items in strict sequence order, parking run-ahead
// output in the reassembly structure until the cursor catches up.
func (c *coordinator[T]) nextAhead(ctx context.Context) (T, error) {
	var zero T
	for {
		if v, ok := c.reasm.takeReady(); ok {
			c.heapSize.Add(-1)
			c.disp.maybeSpawn()
			c.mDelivered.Add(1)
			return v, nil
		}
		if c.reasm.advance() {
			c.nextExpected.Store(c.reasm.nextSeq())
			c.outstanding.Add(-1)
			c.disp.maybeSpawn()
			continue
		}
		if c.outstanding.Load() == 0 {
			return zero, c.finish()
		}
		slot, err := c.popSlot(ctx)
		if err != nil {
			return zero, err
		}
		switch slot.kind {
		case slotValue:
			c.reasm.addValue(slot.seq, slot.val)
			c.heapSize.Add(1)
		case slotEnd:
			c.reasm.markEnd(slot.seq)
		case slotFailure:
			return zero, c.deliverFailure(slot)
		}
	}
}

// popSlot takes one slot from the queue, reconsidering dispatch before
// a blocking wait and after every successful pop (the demand signal of
// the scaling contract).
func (c *coordinator[T]) popSlot(ctx context.Context) (outputSlot[T], error) {
	c.disp.maybeSpawn()
	slot, ok := c.q.tryPop()
	if !ok {
		c.raiseDemand()
		c.disp.maybeSpawn()
		start := time.Now()
		var err error
		slot, err = c.q.pop(ctx, c.ctx)
		c.mWait.Record(time.Since(start).Seconds())
		if err != nil {
			if c.canceled.Load() {
				return slot, ErrCanceled
			}
			return slot, err
		}
	}
	c.disp.maybeSpawn()
	return slot, nil
}

// deliverFailure records the first failure, tears every worker down,
// and surfaces the wrapped error. Failures buffered behind it are
// discarded: the first one observed is the one the caller sees.
func (c *coordinator[T]) deliverFailure(slot outputSlot[T]) error {
	c.shutdown()
	c.termErr = wrapFailure(slot.err, slot.workerID, slot.seq, true)
	return c.termErr
}

// finish is the clean-completion terminal path. All workers have ended,
// so joining is immediate.
func (c *coordinator[T]) finish() error {
	c.shutdown()
	c.finished = true
	return ErrEndOfStream
}

// consumerCancel is the explicit stop-consuming path. It drives the
// same teardown as a failure without surfacing an error.
func (c *coordinator[T]) consumerCancel() {
	c.cancelOnce.Do(func() {
		c.canceled.Store(true)
		c.shutdown()
	})
}

// shutdown stops dispatch, cancels live workers, and joins them all.
// No worker goroutine survives it. Safe to run more than once and from
// the Cancel path concurrently with a blocked consumer.
func (c *coordinator[T]) shutdown() {
	c.stopFlag.Store(true)
	// Flush any spawn decision that raced with the flag; after the
	// barrier no new worker can be registered.
	c.disp.barrier()
	c.cancel()
	c.live.Wait()
	c.q.drain()
}

// onWorkerDone retires a worker. A continuation is handed back to the
// dispatcher; otherwise dispatch is reconsidered so queued sub-streams
// are not stranded waiting for a consumer pop that may be blocked.
func (c *coordinator[T]) onWorkerDone(cont *workItem[T]) {
	c.active.Add(-1)
	c.mLive.Add(-1)
	if cont != nil && !c.stopFlag.Load() {
		c.disp.requeue(cont)
	} else {
		c.disp.maybeSpawn()
	}
	c.live.Done()
}
