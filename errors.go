package cascade

import (
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/panics"
)

var (
	// ErrInvalidCount is returned by Buffer when the batch size is not positive.
	ErrInvalidCount = errors.New("cascade: buffer count must be positive")

	// ErrInvalidRate is returned by Throttle for a non-positive limit or burst.
	ErrInvalidRate = errors.New("cascade: throttle limit and burst must be positive")
)

// CallbackError reports a panic raised by a user callback (reaction,
// predicate, mapping or reducer) while a value was being dispatched.
type CallbackError struct {
	Graph     string
	Op        Kind
	Recovered *panics.Recovered
}

func newCallbackError(graph string, op Kind, r *panics.Recovered) *CallbackError {
	return &CallbackError{Graph: graph, Op: op, Recovered: r}
}

func (e *CallbackError) Error() string {
	if e.Graph != "" {
		return fmt.Sprintf("cascade: %s callback in graph %q panicked: %v", e.Op, e.Graph, e.Recovered.Value)
	}
	return fmt.Sprintf("cascade: %s callback panicked: %v", e.Op, e.Recovered.Value)
}

// Unwrap returns the panic value when it was itself an error.
func (e *CallbackError) Unwrap() error {
	if err, ok := e.Recovered.Value.(error); ok {
		return err
	}
	return nil
}

// Stack returns the stack trace captured when the callback panicked.
func (e *CallbackError) Stack() []byte {
	return e.Recovered.Stack
}
