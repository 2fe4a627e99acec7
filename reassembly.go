package streamly

import "container/heap"

// reassembly reconstructs strict enqueue order for the Ahead policy.
// Slots arriving out of sub-stream order are parked in per-sequence
// buckets; only the bucket whose sequence equals the next expected one
// releases items. It is mutated solely by the consumer side of the
// coordinator and needs no locking.
type reassembly[T any] struct {
	next     uint64
	order    bucketHeap[T]
	byseq    map[uint64]*bucket[T]
	buffered int
}

type bucket[T any] struct {
	seq   uint64
	items []T
	head  int
	ended bool
}

func newReassembly[T any]() *reassembly[T] {
	return &reassembly[T]{byseq: make(map[uint64]*bucket[T])}
}

func (r *reassembly[T]) bucketFor(seq uint64) *bucket[T] {
	if b, ok := r.byseq[seq]; ok {
		return b
	}
	b := &bucket[T]{seq: seq}
	r.byseq[seq] = b
	heap.Push(&r.order, b)
	return b
}

// addValue parks an item from sub-stream seq.
func (r *reassembly[T]) addValue(seq uint64, v T) {
	b := r.bucketFor(seq)
	b.items = append(b.items, v)
	r.buffered++
}

// markEnd records that sub-stream seq pushed its end marker.
func (r *reassembly[T]) markEnd(seq uint64) {
	r.bucketFor(seq).ended = true
}

// takeReady releases the next in-order item, if one is parked.
func (r *reassembly[T]) takeReady() (T, bool) {
	var zero T
	b, ok := r.byseq[r.next]
	if !ok || b.head >= len(b.items) {
		return zero, false
	}
	v := b.items[b.head]
	b.items[b.head] = zero
	b.head++
	r.buffered--
	return v, true
}

// advance retires the next expected sub-stream once it has ended and
// all its items were released. It returns true when the cursor moved.
func (r *reassembly[T]) advance() bool {
	b, ok := r.byseq[r.next]
	if !ok || !b.ended || b.head < len(b.items) {
		return false
	}
	delete(r.byseq, r.next)
	if len(r.order) > 0 && r.order[0].seq == r.next {
		heap.Pop(&r.order)
	}
	r.next++
	return true
}

// nextSeq is the sequence whose items will be released next.
func (r *reassembly[T]) nextSeq() uint64 { return r.next }

// size reports parked items across all buckets.
func (r *reassembly[T]) size() int { return r.buffered }

// bucketHeap orders buckets by sequence so the earliest gap is always
// at the root.
type bucketHeap[T any] []*bucket[T]

func (h bucketHeap[T]) Len() int            { return len(h) }
func (h bucketHeap[T]) Less(i, j int) bool  { return h[i].seq < h[j].seq }
func (h bucketHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *bucketHeap[T]) Push(x interface{}) { *h = append(*h, x.(*bucket[T])) }
func (h *bucketHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	b := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return b
}
