package cascade

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestReactForwardsUnchanged(t *testing.T) {
	root := New[string]()
	seen := &recorder[string]{}
	after := &recorder[string]{}
	root.React(seen.add).React(after.add)

	for _, v := range []string{"a", "bb", "ccc"} {
		require.NoError(t, root.Insert(v))
	}
	assert.Equal(t, []string{"a", "bb", "ccc"}, seen.get())
	assert.Equal(t, seen.get(), after.get())
}

func TestMapChangesType(t *testing.T) {
	root := New[int]()
	out := &recorder[string]{}
	Map(root, func(v int) string { return fmt.Sprintf("#%d", v*2) }).React(out.add)

	for i := range 3 {
		require.NoError(t, root.Insert(i))
	}
	assert.Equal(t, []string{"#0", "#2", "#4"}, out.get())
}

func TestFilter(t *testing.T) {
	root := New[int]()
	kept := &recorder[int]{}
	isEven := func(v int) bool { return v%2 == 0 }
	root.Filter(isEven).React(kept.add)

	for i := range 7 {
		require.NoError(t, root.Insert(i), "dropped values are not errors")
	}
	assert.Equal(t, []int{0, 2, 4, 6}, kept.get())
}

func TestFilterMap(t *testing.T) {
	root := New[string]()
	out := &recorder[int]{}
	FilterMap(root, func(s string) (int, bool) { return len(s), s != "" }).React(out.add)

	for _, s := range []string{"ab", "", "abcd"} {
		require.NoError(t, root.Insert(s))
	}
	assert.Equal(t, []int{2, 4}, out.get())
}

func TestDelayWaits(t *testing.T) {
	root := New[int]()
	out := &recorder[int]{}
	root.Delay(30 * time.Millisecond).React(out.add)

	start := time.Now()
	require.NoError(t, root.Insert(1))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, []int{1}, out.get())

	// Non-positive durations pass straight through.
	passthrough := New[int]()
	passthrough.Delay(-time.Second).React(out.add)
	require.NoError(t, passthrough.Insert(2))
	assert.Equal(t, []int{1, 2}, out.get())
}

func TestBufferRejectsNonPositiveCount(t *testing.T) {
	root := New[int]()
	for _, n := range []int{0, -3} {
		seg, err := Buffer(root, n)
		assert.Nil(t, seg)
		assert.ErrorIs(t, err, ErrInvalidCount)
	}
	assert.Equal(t, 0, root.Targets(), "a rejected buffer attaches nothing")
}

func TestBufferBatches(t *testing.T) {
	for _, tc := range []struct{ n, k int }{{1, 4}, {2, 3}, {3, 3}, {5, 2}} {
		t.Run(fmt.Sprintf("n=%d,k=%d", tc.n, tc.k), func(t *testing.T) {
			root := New[int]()
			buf, err := Buffer(root, tc.n)
			require.NoError(t, err)
			batches := &recorder[[]int]{}
			buf.React(batches.add)

			for i := range tc.n * tc.k {
				require.NoError(t, root.Insert(i))
			}
			got := batches.get()
			require.Len(t, got, tc.k)
			next := 0
			for _, b := range got {
				require.Len(t, b, tc.n)
				for _, v := range b {
					assert.Equal(t, next, v, "batches keep insertion order")
					next++
				}
			}

			// A partial batch is held back.
			for i := range tc.n - 1 {
				require.NoError(t, root.Insert(100+i))
			}
			assert.Len(t, batches.get(), tc.k)
		})
	}
}

func TestBufferLargeCount(t *testing.T) {
	root := New[int]()
	var huge *Segment[[]int]
	require.NotPanics(t, func() {
		var err error
		huge, err = Buffer(root, math.MaxInt)
		require.NoError(t, err)
	})
	held := &recorder[[]int]{}
	huge.React(held.add)
	require.NoError(t, root.Insert(1))
	assert.Empty(t, held.get(), "a batch is held until it is full")

	// Batches larger than the preallocated capacity still fill completely.
	wide, err := Buffer(root, 200)
	require.NoError(t, err)
	batches := &recorder[[]int]{}
	wide.React(batches.add)
	for i := range 200 {
		require.NoError(t, root.Insert(i))
	}
	got := batches.get()
	require.Len(t, got, 1)
	assert.Len(t, got[0], 200)
	assert.Equal(t, 199, got[0][199])
}

func TestBufferStateIsPerSegment(t *testing.T) {
	build := func() (*Segment[int], *recorder[[]int]) {
		root := New[int]()
		buf, err := Buffer(root, 2)
		require.NoError(t, err)
		rec := &recorder[[]int]{}
		buf.React(rec.add)
		return root, rec
	}
	a, recA := build()
	b, recB := build()

	require.NoError(t, a.Insert(1))
	require.NoError(t, b.Insert(10))
	require.NoError(t, a.Insert(2))

	assert.Equal(t, [][]int{{1, 2}}, recA.get())
	assert.Empty(t, recB.get(), "an unrelated buffer must not see another's values")
}

func TestBufferReleasesEarlierBatches(t *testing.T) {
	root := New[int]()
	buf, err := Buffer(root, 2)
	require.NoError(t, err)
	batches := &recorder[[]int]{}
	buf.React(batches.add)

	for i := range 4 {
		require.NoError(t, root.Insert(i))
	}
	got := batches.get()
	require.Len(t, got, 2)
	got[0][0] = 99
	assert.Equal(t, []int{2, 3}, got[1], "batches do not share storage")
}

func TestBufferConcurrentInserts(t *testing.T) {
	root := New[int]()
	buf, err := Buffer(root, 4)
	require.NoError(t, err)
	batches := &recorder[[]int]{}
	buf.React(batches.add)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				assert.NoError(t, root.Insert(g*1000+i))
			}
		}()
	}
	wg.Wait()

	var all []int
	for _, b := range batches.get() {
		assert.Len(t, b, 4)
		all = append(all, b...)
	}
	assert.Len(t, all, 400)
	slices.Sort(all)
	assert.Equal(t, len(all), len(slices.Compact(all)), "no value is lost or duplicated")
}

func TestReduceSnapshots(t *testing.T) {
	root := New[int]()
	out := &recorder[int]{}
	Reduce(root, Sum[int], 100).React(out.add)

	for _, v := range []int{1, 2, 3, 4} {
		require.NoError(t, root.Insert(v))
	}
	assert.Equal(t, []int{101, 103, 106, 110}, out.get())
}

func TestReduceChangesType(t *testing.T) {
	root := New[int]()
	out := &recorder[string]{}
	Reduce(root, func(acc string, v int) string { return acc + fmt.Sprint(v) }, ">").React(out.add)

	for i := range 3 {
		require.NoError(t, root.Insert(i))
	}
	assert.Equal(t, []string{">0", ">01", ">012"}, out.get())
}

func TestReduceNoLostUpdatesUnderFork(t *testing.T) {
	target := New[int]()
	totals := &recorder[int]{}
	Reduce(target, Count[int], 0).React(totals.add)

	// Eight sibling branches all feed the same reduce segment.
	root := New[int]()
	for range 8 {
		root.React(func(v int) {
			for range 25 {
				assert.NoError(t, target.Insert(v))
			}
		})
	}
	require.NoError(t, root.Insert(1))
	require.NoError(t, root.Insert(2))

	got := totals.get()
	require.Len(t, got, 400)
	slices.Sort(got)
	for i, v := range got {
		assert.Equal(t, i+1, v, "every accumulator state appears exactly once")
	}
}

func TestReduceStateIsPerSegment(t *testing.T) {
	root := New[int]()
	a := &recorder[int]{}
	b := &recorder[int]{}
	// Both segments come from the same call site.
	for _, rec := range []*recorder[int]{a, b} {
		Reduce(root.Filter(func(v int) bool { return v > 0 || rec == b }), Sum[int], 0).React(rec.add)
	}

	require.NoError(t, root.Insert(5))
	require.NoError(t, root.Insert(-1))
	assert.Equal(t, []int{5}, a.get())
	assert.Equal(t, []int{5, 4}, b.get())
}

func TestReducePanicLeavesAccumulator(t *testing.T) {
	root := New[int]()
	out := &recorder[int]{}
	Reduce(root, func(acc, v int) int {
		if v < 0 {
			panic("negative")
		}
		return acc + v
	}, 0).React(out.add)

	require.NoError(t, root.Insert(2))
	var cbErr *CallbackError
	require.ErrorAs(t, root.Insert(-1), &cbErr)
	assert.Equal(t, KindReduce, cbErr.Op)
	require.NoError(t, root.Insert(3))
	assert.Equal(t, []int{2, 5}, out.get())
}

func TestThrottle(t *testing.T) {
	root := New[int]()
	_, err := root.Throttle(0, 1)
	assert.ErrorIs(t, err, ErrInvalidRate)
	_, err = root.Throttle(10, 0)
	assert.ErrorIs(t, err, ErrInvalidRate)

	paced, err := root.Throttle(rate.Every(20*time.Millisecond), 1)
	require.NoError(t, err)
	out := &recorder[int]{}
	paced.React(out.add)

	start := time.Now()
	for i := range 4 {
		require.NoError(t, root.Insert(i))
	}
	// The first token is available immediately, the other three are paced.
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
	assert.Equal(t, []int{0, 1, 2, 3}, out.get())
}

func TestSink(t *testing.T) {
	root := New[int]()
	ch := make(chan int, 3)
	after := &recorder[int]{}
	root.Sink(ch).React(after.add)

	for i := range 3 {
		require.NoError(t, root.Insert(i))
	}
	assert.Equal(t, 0, withTimeout(t, ch))
	assert.Equal(t, 1, withTimeout(t, ch))
	assert.Equal(t, 2, withTimeout(t, ch))
	assert.Equal(t, []int{0, 1, 2}, after.get())
}

func TestSinkOnClosedChannelFails(t *testing.T) {
	root := New[int]()
	ch := make(chan int)
	close(ch)
	root.Sink(ch)

	var cbErr *CallbackError
	require.ErrorAs(t, root.Insert(1), &cbErr)
	assert.Equal(t, KindSink, cbErr.Op)
}

func TestEndToEnd(t *testing.T) {
	root := New[int](WithName("e2e"))
	halves := Map(root.Filter(func(v int) bool { return v%2 == 0 }), func(v int) int { return v / 2 })
	pairs, err := Buffer(halves, 2)
	require.NoError(t, err)

	batches := &recorder[[]int]{}
	pairs = pairs.React(batches.add)

	sums := &recorder[int]{}
	sumBatch := func(acc int, batch []int) int {
		for _, v := range batch {
			acc += v
		}
		return acc
	}
	Reduce(pairs, sumBatch, 0).React(sums.add)

	for _, v := range []int{2, 4, 6, 8} {
		require.NoError(t, root.Insert(v))
	}
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, batches.get())
	assert.Equal(t, []int{3, 10}, sums.get())
}
