package cascade

import (
	"weak"

	"go.uber.org/zap"
)

// Ref is a non-owning reference to a segment, used by callbacks that feed
// values back upstream. Holding a Ref does not keep the segment alive; once
// the segment has been collected, inserting through the Ref does nothing.
//
//	upstream := root.Ref()
//	root.Filter(small).React(func(v int) { upstream.Insert(v + 1) })
type Ref[T any] struct {
	ptr weak.Pointer[Segment[T]]
	rt  *graphState
}

// Ref returns a back-reference to s.
func (s *Segment[T]) Ref() Ref[T] {
	return Ref[T]{ptr: weak.Make(s), rt: s.rt}
}

// Get returns the referenced segment if it is still alive. The returned
// pointer is a strong handle; drop it once done to avoid re-owning the
// segment.
func (r Ref[T]) Get() (*Segment[T], bool) {
	s := r.ptr.Value()
	return s, s != nil
}

// Insert inserts value into the referenced segment. A stale or zero Ref is a
// no-op and returns nil.
func (r Ref[T]) Insert(value T) error {
	s := r.ptr.Value()
	if s == nil {
		if r.rt != nil {
			r.rt.metrics.staleRef(r.rt.name)
			r.rt.logger.Debug("dropping insert through stale back-reference",
				zap.String("graph", r.rt.name))
		}
		return nil
	}
	return s.Insert(value)
}
