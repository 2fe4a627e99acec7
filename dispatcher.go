package streamly

import "sync"

// dispatcher owns the pending-work queue and decides when new workers
// are spawned. Spawn decisions are demand-driven: maybeSpawn runs after
// every enqueue, every successful pop, and every worker completion, so
// concurrency grows only as fast as the consumer drains output.
type dispatcher[T any] struct {
	c *coordinator[T]

	mu           sync.Mutex
	pending      []*workItem[T]
	nextSeq      uint64
	nextWorkerID uint64
}

func newDispatcher[T any](c *coordinator[T]) *dispatcher[T] {
	return &dispatcher[T]{c: c}
}

// enqueue assigns the next sequence number, appends a workItem, and
// reconsiders spawning.
func (d *dispatcher[T]) enqueue(p Producer[T]) uint64 {
	d.mu.Lock()
	seq := d.nextSeq
	d.nextSeq++
	d.pending = append(d.pending, &workItem[T]{seq: seq, producer: p})
	d.mu.Unlock()

	d.c.noteBlockingHint(p)
	d.maybeSpawn()
	return seq
}

// requeue reinserts a continuation handed back by a worker that yielded
// before exhausting its producer. Eager puts it at the front so
// partially drained sub-streams beat not-yet-started ones; RoundRobin
// appends for rotation; Ahead keeps pending sorted by sequence so the
// earliest sub-stream is always the spawn candidate.
func (d *dispatcher[T]) requeue(item *workItem[T]) {
	d.mu.Lock()
	switch d.c.policy {
	case RoundRobin:
		d.pending = append(d.pending, item)
	case Ahead:
		i := 0
		for i < len(d.pending) && d.pending[i].seq < item.seq {
			i++
		}
		d.pending = append(d.pending, nil)
		copy(d.pending[i+1:], d.pending[i:])
		d.pending[i] = item
	default:
		d.pending = append([]*workItem[T]{item}, d.pending...)
	}
	d.mu.Unlock()
	d.maybeSpawn()
}

func (d *dispatcher[T]) pendingLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// maybeSpawn starts workers for queued items while all limits allow:
// active workers below the policy's current cap, buffered slots below
// MaxBuffer, no failure recorded, and pending work available. The Ahead
// policy gets one exception: the next expected sub-stream may always be
// dispatched, otherwise a full buffer of run-ahead output could starve
// the very sub-stream the consumer is waiting on.
func (d *dispatcher[T]) maybeSpawn() {
	c := d.c
	d.mu.Lock()
	defer d.mu.Unlock()
	for {
		if c.stopFlag.Load() || len(d.pending) == 0 {
			return
		}
		if int(c.active.Load()) >= c.spawnLimit() {
			return
		}
		if c.bufferedTotal() >= c.cfg.MaxBuffer {
			if !(c.policy == Ahead && d.pending[0].seq == c.nextExpected.Load()) {
				return
			}
		}
		item := d.pending[0]
		d.pending = d.pending[1:]
		id := d.nextWorkerID
		d.nextWorkerID++

		c.active.Add(1)
		c.live.Add(1)
		c.mSpawned.Add(1)
		c.mLive.Add(1)
		w := &worker[T]{id: id, item: item, c: c}
		go w.run(c.ctx)
	}
}

// barrier flushes any maybeSpawn call that raced with the stop flag.
// After it returns, no further live.Add can happen from the consumer or
// enqueue paths, which makes the subsequent join sound.
func (d *dispatcher[T]) barrier() {
	d.mu.Lock()
	//nolint:staticcheck // empty section: the lock acquisition is the point
	d.mu.Unlock()
}
