package cascade

// New creates the root segment of a new, independent graph. The root has no
// dispatch targets and no operator state; every segment built from it
// shares the graph's scheduler, logger and metrics.
//
//	root := cascade.New[int](cascade.WithName("orders"))
//	root.Filter(isEven).React(log)
//	root.Insert(4)
func New[T any](opts ...Option) *Segment[T] {
	c := newConfig(opts)
	rt := &graphState{
		name:    c.name,
		logger:  c.logger,
		metrics: c.metrics,
		sched:   newScheduler(c),
	}
	return newSegment[T](rt, KindRoot)
}

// Graph returns the name the segment's graph was created with.
func (s *Segment[T]) Graph() string {
	return s.rt.name
}
