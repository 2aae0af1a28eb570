// Package cascade provides a small reactive dataflow graph engine.
//
// A graph is built from segments. Every operator called on a segment
// allocates one new downstream segment, registers it as a dispatch target
// and returns it, so operators can be chained or forked:
//
//	root := cascade.New[int]()
//	halves := cascade.Map(root.Filter(isEven), func(v int) int { return v / 2 })
//	pairs, _ := cascade.Buffer(halves, 2)
//	cascade.Reduce(pairs, sumBatch, 0).React(print)
//
//	root.Insert(2) // cascades through filter, map, buffer and reduce
//
// The operators are:
//
//   - React: run a side effect for each value, forwarding it unchanged
//   - Map / FilterMap: transform values, possibly to another type
//   - Filter: drop values that fail a predicate
//   - Delay: hold each value for a fixed duration
//   - Throttle: pace values through a token bucket limiter
//   - Buffer: group values into fixed size batches
//   - Reduce: fold values into a running accumulator
//   - Sink: copy values onto a channel
//
// Insert returns once the value has finished cascading through everything
// downstream. A segment with a single target dispatches on the calling
// goroutine; a segment with several targets runs them concurrently on the
// graph's bounded scheduler and joins them before returning. Panics raised
// by callbacks come back from Insert as *CallbackError values, combined
// across fork siblings.
//
// Segments own what is downstream of them. Feedback into an upstream
// segment goes through a Ref, which does not keep the segment alive and
// turns into a no-op once the segment is gone. A Feeder drives a segment
// from a channel.
package cascade
