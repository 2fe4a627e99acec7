package streamly

// slotKind discriminates the outputSlot tagged union.
type slotKind uint8

const (
	slotValue slotKind = iota
	slotEnd
	slotFailure
)

// outputSlot is the unit of transfer between workers and the
// coordinator. Ownership moves from the worker to the output queue on
// push and from the queue to the coordinator on pop.
type outputSlot[T any] struct {
	kind     slotKind
	val      T
	seq      uint64
	workerID uint64
	err      error
}

// workItem pairs a producer with the sequence number assigned at
// enqueue time. The dispatcher owns it until it is handed to a worker;
// a worker that yields before exhausting the producer hands it back as
// a continuation carrying the same sequence.
type workItem[T any] struct {
	seq      uint64
	producer Producer[T]
}
