package cascade

// IDFunc is an identity function that returns its input unchanged.
// It's handy as a no-op mapping when forking a typed copy of a segment.
func IDFunc[T any](input T) T {
	return input
}

// Kind identifies the operator that built a segment.
type Kind string

const (
	KindRoot     Kind = "root"
	KindReact    Kind = "react"
	KindMap      Kind = "map"
	KindFilter   Kind = "filter"
	KindDelay    Kind = "delay"
	KindBuffer   Kind = "buffer"
	KindReduce   Kind = "reduce"
	KindThrottle Kind = "throttle"
	KindSink     Kind = "sink"
)

// Inserter is the one capability every segment variant shares: accepting a
// value and cascading it downstream. Both *Segment and Ref satisfy it.
type Inserter[T any] interface {
	Insert(value T) error
}
