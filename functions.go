package cascade

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Number is any integer or floating point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Count is a reducer counting the values it has seen.
func Count[T any](count int, _ T) int {
	return count + 1
}

// Sum is a reducer adding values to a running total.
func Sum[N Number](sum N, value N) N {
	return sum + value
}

// Max is a reducer keeping the largest value seen. Seed it with the
// smallest value of N, or with the first value expected.
func Max[N Number](best N, value N) N {
	return max(best, value)
}

// Min is a reducer keeping the smallest value seen.
func Min[N Number](best N, value N) N {
	return min(best, value)
}

// Concat is a reducer appending batches into one growing slice. It always
// returns a fresh slice so earlier snapshots are never modified.
func Concat[T any](acc []T, batch []T) []T {
	out := make([]T, 0, len(acc)+len(batch))
	out = append(out, acc...)
	return append(out, batch...)
}

// MeanState is the accumulator for Mean.
type MeanState struct {
	Count int
	Sum   float64
}

// Value returns the mean of the values folded so far, or 0 before any.
func (m MeanState) Value() float64 {
	if m.Count == 0 {
		return 0
	}
	return m.Sum / float64(m.Count)
}

// Mean is a reducer maintaining a running average. Its state lives in the
// accumulator, so every Reduce segment using it averages independently.
func Mean[N Number](acc MeanState, value N) MeanState {
	return MeanState{Count: acc.Count + 1, Sum: acc.Sum + float64(value)}
}

// Sigmoid maps x to 1/(1+e^-x).
func Sigmoid[F constraints.Float](x F) F {
	return F(1 / (1 + math.Exp(-float64(x))))
}
