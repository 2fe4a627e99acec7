package streamly

import (
	"errors"
	"fmt"
)

// FailureMeta exposes correlation metadata for a producer failure
// surfaced by a stream: which worker observed it and the sequence
// number of the sub-stream it came from.
type FailureMeta interface {
	error
	Unwrap() error
	WorkerID() (uint64, bool)
	Sequence() (uint64, bool)
}

type taggedFailure struct {
	err       error
	workerID  uint64
	seq       uint64
	hasWorker bool
}

// wrapFailure attaches worker and sequence metadata to a producer
// error. Sequential streams pass hasWorker=false since no worker exists.
func wrapFailure(err error, workerID, seq uint64, hasWorker bool) error {
	if err == nil {
		return nil
	}
	return &taggedFailure{err: err, workerID: workerID, seq: seq, hasWorker: hasWorker}
}

func (e *taggedFailure) Error() string { return e.err.Error() }
func (e *taggedFailure) Unwrap() error { return e.err }

func (e *taggedFailure) WorkerID() (uint64, bool) {
	if !e.hasWorker {
		return 0, false
	}
	return e.workerID, true
}

func (e *taggedFailure) Sequence() (uint64, bool) { return e.seq, true }

func (e *taggedFailure) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			if e.hasWorker {
				_, _ = fmt.Fprintf(s, "substream(seq=%d,worker=%d): %+v", e.seq, e.workerID, e.err)
			} else {
				_, _ = fmt.Fprintf(s, "substream(seq=%d): %+v", e.seq, e.err)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractWorkerID returns the failing worker's id from err if present.
func ExtractWorkerID(err error) (uint64, bool) {
	var fm FailureMeta
	if errors.As(err, &fm) {
		return fm.WorkerID()
	}
	return 0, false
}

// ExtractSequence returns the failing sub-stream's sequence number from
// err if present.
func ExtractSequence(err error) (uint64, bool) {
	var fm FailureMeta
	if errors.As(err, &fm) {
		return fm.Sequence()
	}
	return 0, false
}
