package streamly

import "errors"

const Namespace = "streamly"

var (
	// ErrEndOfStream is the Stop signal: a Producer returns it from Next
	// when the sequence is exhausted. It is never wrapped with failure
	// metadata and never delivered through the failure path.
	ErrEndOfStream = errors.New(Namespace + ": end of stream")

	// ErrCanceled is returned by Next after the consumer called Cancel.
	ErrCanceled = errors.New(Namespace + ": stream canceled by consumer")

	// ErrStreamClosed is returned by Enqueue after the stream has
	// finished, failed, or been canceled.
	ErrStreamClosed = errors.New(Namespace + ": stream closed")

	// ErrInvalidConfig reports zero or negative capacity limits and
	// other construction-time misconfiguration.
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
)
