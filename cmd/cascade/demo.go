package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/panyam/cascade"
)

const delayFlag = "delay"

// NewDemoCommand builds the walkthrough graph: a chain, a delayed fork, a
// filter/map/buffer/reduce tail and a feedback loop through a back-reference.
func NewDemoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Cascade a value through the walkthrough graph",
		PreRun: func(command *cobra.Command, _ []string) {
			bindFlags(command.Flags(), delayFlag)
		},
		RunE: func(command *cobra.Command, _ []string) error {
			opts, logger, err := graphOptions("demo")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			p := &printer{out: command.OutOrStdout()}
			root, err := buildDemo(p, viper.GetDuration(delayFlag), opts...)
			if err != nil {
				return err
			}
			if err := root.Insert(0); err != nil {
				return err
			}
			p.Println("this is printed after the inserted value is done cascading through the entire network")
			return nil
		},
	}
	cmd.Flags().Duration(delayFlag, 100*time.Millisecond, "base delay used by the delayed segments")
	return cmd
}

func buildDemo(p *printer, unit time.Duration, opts ...cascade.Option) (*cascade.Segment[int], error) {
	root := cascade.New[int](opts...)

	next := root.React(func(int) { p.Println("Hello Cascade!") })

	// A chain of calls builds a chain of segments, executed in order.
	next.React(func(int) { p.Println("Chain") }).
		React(func(int) { p.Println("reactions") }).
		React(func(v int) { p.Println("! val:", v) })

	// Calls on the same segment fork it; each path runs concurrently.
	delayed := next.Delay(2 * unit)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		delayed.React(func(int) { p.Println(name) })
	}

	delayedLonger := next.Delay(4 * unit).
		React(func(int) { p.Println("> react is akin to a container's apply") }).
		React(func(int) {})

	quarters := cascade.Map(delayedLonger.Filter(func(v int) bool { return v%2 == 0 }),
		func(v int) float64 { return 0.25 * float64(v) })
	pairs, err := cascade.Buffer(quarters, 2)
	if err != nil {
		return nil, err
	}
	joined := cascade.Reduce(pairs, cascade.Concat[float64], nil).
		React(func(all []float64) { p.Println(fmt.Sprint(all)) })
	counts := cascade.Reduce(joined, cascade.Count[[]float64], 0)
	sums := cascade.Reduce(counts, cascade.Sum[int], 0)
	means := cascade.Reduce(sums, cascade.Mean[int], cascade.MeanState{})
	scaled := cascade.Map(means, func(m cascade.MeanState) float64 { return 0.25 * m.Value() })
	cascade.Map(scaled, cascade.Sigmoid[float64]).
		Delay(unit).
		React(func(v float64) { p.Println("sigmoid:", v) })

	// Feedback uses a back-reference so the loop does not own its upstream.
	upstream := delayedLonger.Ref()
	delayedLonger.Filter(func(v int) bool { return v < 10 }).
		React(func(v int) { _ = upstream.Insert(v + 1) })

	return root, nil
}
