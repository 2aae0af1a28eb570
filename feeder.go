package cascade

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Feeder is a goroutine that reads values from a channel and inserts each
// one into a segment (or a Ref to one). It bridges producers that speak
// channels into a graph. Completion is signalled on ClosedChan.
type Feeder[T any] struct {
	input           <-chan T
	dst             Inserter[T]
	stopChan        chan struct{}
	closedChan      chan error
	stopOnce        sync.Once
	wg              sync.WaitGroup
	running         atomic.Bool
	continueOnError bool
	logger          *zap.Logger
	OnDone          func(f *Feeder[T])
}

// FeederOption is a functional option for configuring a Feeder
type FeederOption[T any] func(*Feeder[T])

// WithOnDone sets the callback to be called when the feeder finishes. It
// runs on the feeder goroutine after ClosedChan has been closed.
func WithOnDone[T any](fn func(*Feeder[T])) FeederOption[T] {
	return func(f *Feeder[T]) {
		f.OnDone = fn
	}
}

// WithContinueOnError keeps the feeder running when an insert fails. The
// failure is logged instead of ending the feeder.
func WithContinueOnError[T any]() FeederOption[T] {
	return func(f *Feeder[T]) {
		f.continueOnError = true
	}
}

// WithFeederLogger sets the logger for insert failures.
func WithFeederLogger[T any](logger *zap.Logger) FeederOption[T] {
	return func(f *Feeder[T]) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Feed starts a Feeder that inserts every value read from input into dst.
// The ownership of input stays with the caller; it is never closed by the
// feeder. Just like the other primitives, the Feeder starts as soon as it
// is created.
//
// The feeder ends when input is closed, when Stop is called, or on the
// first failed insert (unless WithContinueOnError is given). In the last
// case the error is delivered on ClosedChan before it is closed.
func Feed[T any](input <-chan T, dst Inserter[T], opts ...FeederOption[T]) *Feeder[T] {
	out := &Feeder[T]{
		input:      input,
		dst:        dst,
		stopChan:   make(chan struct{}),
		closedChan: make(chan error, 1),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(out)
	}
	out.start()
	return out
}

// ClosedChan returns the channel used to signal when the feeder is done.
func (f *Feeder[T]) ClosedChan() <-chan error {
	return f.closedChan
}

// IsRunning returns true while the feeder goroutine is active.
func (f *Feeder[T]) IsRunning() bool {
	return f.running.Load()
}

// Stop stops the feeder and waits for its goroutine to exit. A value whose
// insert is already under way finishes its cascade first.
func (f *Feeder[T]) Stop() {
	f.stopOnce.Do(func() { close(f.stopChan) })
	f.wg.Wait()
}

func (f *Feeder[T]) start() {
	f.running.Store(true)
	f.wg.Add(1)
	go func() {
		defer f.cleanup()
		for {
			select {
			case <-f.stopChan:
				return
			case value, ok := <-f.input:
				if !ok {
					return
				}
				err := f.dst.Insert(value)
				if err == nil {
					continue
				}
				if f.continueOnError {
					f.logger.Warn("feeder insert failed", zap.Error(err))
					continue
				}
				f.logger.Warn("feeder stopping after insert failure", zap.Error(err))
				f.closedChan <- err
				return
			}
		}
	}()
}

// cleanup marks the feeder finished before running OnDone, so OnDone may
// call Stop.
func (f *Feeder[T]) cleanup() {
	f.running.Store(false)
	close(f.closedChan)
	f.wg.Done()
	if f.OnDone != nil {
		f.OnDone(f)
	}
}
