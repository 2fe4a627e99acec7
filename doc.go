// Package streamly evaluates pipelines of stream transformations either
// sequentially or concurrently, with the concurrency strategy chosen
// independently of the pipeline's logical description.
//
// The engine is built around a coordinator shared by a set of worker
// goroutines. Workers pull items from upstream Producers and multiplex
// them into a single consumable sequence under one of four policies:
//
//   - Sequential: one sub-stream at a time, strict input order, no
//     goroutines at all.
//   - Eager: demand-driven concurrency; starts with one worker and grows
//     up to MaxWorkers as the consumer outpaces production. Order across
//     sub-streams is unspecified; order within one sub-stream holds.
//   - RoundRobin: every active sub-stream gets one emission opportunity
//     per dispatch round.
//   - Ahead: sub-streams run concurrently but items are released to the
//     consumer in strict enqueue order, reassembled by sequence number.
//
// Construction is explicit: MaxWorkers, MaxBuffer, an optional rate
// limit, and a metrics provider are passed as options to the policy
// constructors; there is no process-wide ambient configuration.
//
// # Failure semantics
//
// The first error raised by any Producer is the one the consumer sees.
// It cancels all other workers at their next yield point, and the
// coordinator joins every spawned goroutine before reporting the
// failure. Cancel drives the same teardown without surfacing an error.
//
// # Leaks
//
// A Stream must be consumed to exhaustion or explicitly canceled. Both
// paths guarantee that no worker goroutine outlives the stream.
package streamly
