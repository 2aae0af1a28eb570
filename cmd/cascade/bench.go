package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/panyam/cascade"
)

const (
	depthFlag = "depth"
	runsFlag  = "runs"
)

// NewBenchCommand times inserts through a long chain of map segments.
func NewBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time inserts through a deep chain of segments",
		PreRun: func(command *cobra.Command, _ []string) {
			bindFlags(command.Flags(), depthFlag, runsFlag)
		},
		RunE: func(command *cobra.Command, _ []string) error {
			opts, logger, err := graphOptions("bench")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			p := &printer{out: command.OutOrStdout()}
			root := buildChain(p, viper.GetInt(depthFlag), opts...)
			for run := range viper.GetInt(runsFlag) {
				start := time.Now()
				if err := root.Insert(float64(run + 2)); err != nil {
					return err
				}
				elapsed := time.Since(start)
				logger.Info("bench run", zap.Int("run", run), zap.Duration("elapsed", elapsed))
				p.Println("run", run, "took", elapsed)
			}
			return nil
		},
	}
	cmd.Flags().Int(depthFlag, 300, "number of map pairs in the chain")
	cmd.Flags().Int(runsFlag, 2, "number of values to insert")
	return cmd
}

func buildChain(p *printer, depth int, opts ...cascade.Option) *cascade.Segment[float64] {
	root := cascade.New[float64](opts...)
	root.React(func(v float64) { p.Println("testing", v) })

	scale := func(v float64) int { return int(31 * v) }
	wrap := func(v int) float64 { return float64(v % 7) }
	tail := cascade.Map(cascade.Map(root, scale), wrap)
	for range depth {
		tail = cascade.Map(cascade.Map(tail, scale), wrap)
	}
	tail.React(func(v float64) { p.Println("final value:", v) })
	return root
}
