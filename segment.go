package cascade

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// target is one registered dispatch of a segment. It has captured the
// operator logic and the downstream segment it feeds.
type target[T any] func(value T) error

// graphState is shared by every segment of one graph.
type graphState struct {
	name    string
	logger  *zap.Logger
	metrics *Metrics
	sched   *scheduler
}

// Segment is a node of a dataflow graph carrying values of type T.
//
// A Segment keeps its downstream segments alive through its dispatch
// targets, so holding a handle to the root of a graph keeps the whole graph
// alive. Upstream segments are reached from callbacks with a Ref, which does
// not own the segment.
//
// The dispatch list only grows. Segments are created by New or by one of the
// operators, never directly.
type Segment[T any] struct {
	rt       *graphState
	kind     Kind
	counters segmentCounters

	// mu serializes appends; Insert reads targets without locking.
	mu      sync.Mutex
	targets atomic.Pointer[[]target[T]]
}

func newSegment[T any](rt *graphState, kind Kind) *Segment[T] {
	return &Segment[T]{
		rt:       rt,
		kind:     kind,
		counters: rt.metrics.forSegment(rt.name, kind),
	}
}

// Kind returns the operator that created this segment.
func (s *Segment[T]) Kind() Kind {
	return s.kind
}

// Targets returns the number of dispatch targets attached to this segment.
func (s *Segment[T]) Targets() int {
	if t := s.targets.Load(); t != nil {
		return len(*t)
	}
	return 0
}

// Insert cascades value through every dispatch target of this segment and
// returns once all downstream processing for it has completed.
//
// With one target the cascade runs on the calling goroutine. With several,
// the targets run concurrently and Insert joins them. A callback that panics
// is reported as a *CallbackError; failures from sibling branches are
// combined (see go.uber.org/multierr) and do not stop the other branches.
func (s *Segment[T]) Insert(value T) error {
	s.counters.insert()
	tp := s.targets.Load()
	if tp == nil {
		return nil
	}
	targets := *tp
	switch len(targets) {
	case 0:
		return nil
	case 1:
		return targets[0](value)
	default:
		return fork(s.rt.sched, targets, value)
	}
}

// MustInsert is like Insert but panics if the cascade failed.
func (s *Segment[T]) MustInsert(value T) {
	if err := s.Insert(value); err != nil {
		panic(err)
	}
}

func (s *Segment[T]) String() string {
	return fmt.Sprintf("Segment[%s](%s, %d targets)", reflect.TypeFor[T](), s.kind, s.Targets())
}

// attach appends a dispatch target. Values already in flight keep the list
// they loaded.
func (s *Segment[T]) attach(t target[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next []target[T]
	if cur := s.targets.Load(); cur != nil {
		next = make([]target[T], len(*cur), len(*cur)+1)
		copy(next, *cur)
	}
	next = append(next, t)
	s.targets.Store(&next)
}

// invoke runs a user callback on behalf of this segment's operator,
// converting a panic into a *CallbackError.
func (s *Segment[T]) invoke(fn func()) error {
	r := panics.Try(fn)
	if r == nil {
		return nil
	}
	s.counters.failure()
	s.rt.logger.Warn("cascade callback panicked",
		zap.String("graph", s.rt.name),
		zap.String("op", string(s.kind)),
		zap.String("panic", fmt.Sprint(r.Value)))
	return newCallbackError(s.rt.name, s.kind, r)
}
