package cascade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// child allocates a segment in the same graph as parent.
func child[T, U any](parent *Segment[T], kind Kind) *Segment[U] {
	return newSegment[U](parent.rt, kind)
}

// React attaches fn as a side effect observing every value that reaches s.
// The value is forwarded unchanged to the returned segment after fn runs.
func (s *Segment[T]) React(fn func(T)) *Segment[T] {
	next := child[T, T](s, KindReact)
	s.attach(func(value T) error {
		if err := next.invoke(func() { fn(value) }); err != nil {
			return err
		}
		return next.Insert(value)
	})
	return next
}

// Map attaches a transformation from T to U. The returned segment receives
// fn(value) for every value reaching s.
func Map[T, U any](s *Segment[T], fn func(T) U) *Segment[U] {
	next := child[T, U](s, KindMap)
	s.attach(func(value T) error {
		var out U
		if err := next.invoke(func() { out = fn(value) }); err != nil {
			return err
		}
		return next.Insert(out)
	})
	return next
}

// FilterMap combines Map and Filter: fn returns the mapped value and whether
// it should be forwarded at all.
func FilterMap[T, U any](s *Segment[T], fn func(T) (U, bool)) *Segment[U] {
	next := child[T, U](s, KindMap)
	s.attach(func(value T) error {
		var out U
		var keep bool
		if err := next.invoke(func() { out, keep = fn(value) }); err != nil {
			return err
		}
		if !keep {
			return nil
		}
		return next.Insert(out)
	})
	return next
}

// Filter forwards a value to the returned segment only when pred reports
// true. Rejected values end their cascade here without error.
func (s *Segment[T]) Filter(pred func(T) bool) *Segment[T] {
	next := child[T, T](s, KindFilter)
	s.attach(func(value T) error {
		var keep bool
		if err := next.invoke(func() { keep = pred(value) }); err != nil {
			return err
		}
		if !keep {
			return nil
		}
		return next.Insert(value)
	})
	return next
}

// Delay holds each value for d before forwarding it. The wait blocks the
// goroutine dispatching that value only, so delayed branches of a fork wait
// independently. A non-positive d forwards immediately.
func (s *Segment[T]) Delay(d time.Duration) *Segment[T] {
	next := child[T, T](s, KindDelay)
	s.attach(func(value T) error {
		if d > 0 {
			time.Sleep(d)
		}
		return next.Insert(value)
	})
	return next
}

// bufferPrealloc caps the capacity reserved for a pending batch; larger
// batches grow as values arrive.
const bufferPrealloc = 64

// Buffer collects values reaching s into batches of count, in arrival order.
// Each full batch is removed from the buffer before it is forwarded, so the
// next batch can fill while the previous one is still cascading. Values
// short of a full batch are held until enough arrive.
func Buffer[T any](s *Segment[T], count int) (*Segment[[]T], error) {
	if count <= 0 {
		return nil, fmt.Errorf("buffer(%d): %w", count, ErrInvalidCount)
	}
	next := child[T, []T](s, KindBuffer)
	prealloc := min(count, bufferPrealloc)
	var mu sync.Mutex
	pending := make([]T, 0, prealloc)
	s.attach(func(value T) error {
		var batch []T
		mu.Lock()
		pending = append(pending, value)
		if len(pending) == count {
			batch = pending
			pending = make([]T, 0, prealloc)
		}
		mu.Unlock()

		if batch == nil {
			return nil
		}
		return next.Insert(batch)
	})
	return next, nil
}

// Reduce folds every value reaching s into an accumulator that starts at
// seed, and forwards each new accumulator value. Updates are serialized, so
// concurrent inserts from a fork never lose an update; the lock is released
// before the snapshot is forwarded. fn must not retain or mutate the
// accumulator it is given if R is a reference type.
func Reduce[T, R any](s *Segment[T], fn func(R, T) R, seed R) *Segment[R] {
	next := child[T, R](s, KindReduce)
	var mu sync.Mutex
	acc := seed
	s.attach(func(value T) error {
		var snapshot R
		mu.Lock()
		err := next.invoke(func() {
			acc = fn(acc, value)
			snapshot = acc
		})
		mu.Unlock()

		if err != nil {
			return err
		}
		return next.Insert(snapshot)
	})
	return next
}

// Throttle limits the rate at which values pass to the returned segment.
// Each value waits for a token from a limiter allowing limit values per
// second with bursts of up to burst.
func (s *Segment[T]) Throttle(limit rate.Limit, burst int) (*Segment[T], error) {
	if limit <= 0 || burst < 1 {
		return nil, fmt.Errorf("throttle(%v, %d): %w", limit, burst, ErrInvalidRate)
	}
	next := child[T, T](s, KindThrottle)
	limiter := rate.NewLimiter(limit, burst)
	s.attach(func(value T) error {
		if err := limiter.Wait(context.Background()); err != nil {
			return err
		}
		return next.Insert(value)
	})
	return next, nil
}

// Sink sends every value reaching s into ch before forwarding it. The send
// blocks the dispatching goroutine until ch accepts the value.
func (s *Segment[T]) Sink(ch chan<- T) *Segment[T] {
	next := child[T, T](s, KindSink)
	s.attach(func(value T) error {
		if err := next.invoke(func() { ch <- value }); err != nil {
			return err
		}
		return next.Insert(value)
	})
	return next
}
