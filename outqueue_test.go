package streamly

import (
	"context"
	"testing"
	"time"
)

func valueSlot(v int, seq, worker uint64) outputSlot[int] {
	return outputSlot[int]{kind: slotValue, val: v, seq: seq, workerID: worker}
}

func TestOutqueue_FIFOWithinCapacity(t *testing.T) {
	q := newOutqueue[int](3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := q.push(ctx, valueSlot(i, 0, 1)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if got := q.buffered(); got != 3 {
		t.Fatalf("buffered = %d, want 3", got)
	}
	for i := 0; i < 3; i++ {
		s, ok := q.tryPop()
		if !ok || s.val != i {
			t.Fatalf("pop %d: got (%v, %v)", i, s.val, ok)
		}
	}
	if _, ok := q.tryPop(); ok {
		t.Fatal("tryPop on empty queue reported a slot")
	}
}

func TestOutqueue_PushBlocksAtCapacity(t *testing.T) {
	q := newOutqueue[int](1)
	ctx := context.Background()

	if err := q.push(ctx, valueSlot(1, 0, 1)); err != nil {
		t.Fatalf("first push: %v", err)
	}

	pushed := make(chan struct{})
	go func() {
		_ = q.push(ctx, valueSlot(2, 0, 1))
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("push into a full queue returned without a pop")
	case <-time.After(50 * time.Millisecond):
	}

	if _, ok := q.tryPop(); !ok {
		t.Fatal("expected a buffered slot")
	}
	select {
	case <-pushed:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("blocked push did not resume after pop")
	}
}

func TestOutqueue_PushWakesSleepingConsumer(t *testing.T) {
	q := newOutqueue[int](4)
	ctx := context.Background()

	got := make(chan outputSlot[int], 1)
	go func() {
		s, err := q.pop(ctx, ctx)
		if err == nil {
			got <- s
		}
	}()

	// Give the consumer a chance to park before pushing.
	time.Sleep(20 * time.Millisecond)
	if err := q.push(ctx, valueSlot(7, 0, 1)); err != nil {
		t.Fatalf("push: %v", err)
	}

	select {
	case s := <-got:
		if s.val != 7 {
			t.Fatalf("delivered %d, want 7", s.val)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("push into an empty queue did not wake the consumer")
	}
}

func TestOutqueue_CancellationUnblocks(t *testing.T) {
	q := newOutqueue[int](1)
	ctx, cancel := context.WithCancel(context.Background())

	if err := q.push(ctx, valueSlot(1, 0, 1)); err != nil {
		t.Fatalf("push: %v", err)
	}

	pushErr := make(chan error, 1)
	popErr := make(chan error, 1)
	go func() { pushErr <- q.push(ctx, valueSlot(2, 0, 1)) }()
	go func() {
		empty := newOutqueue[int](1)
		_, err := empty.pop(context.Background(), ctx)
		popErr <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	for name, ch := range map[string]chan error{"push": pushErr, "pop": popErr} {
		select {
		case err := <-ch:
			if err == nil {
				t.Fatalf("%s returned nil after cancellation", name)
			}
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("%s did not unblock on cancellation", name)
		}
	}
}
