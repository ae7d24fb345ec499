package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oblivtech/pathoram"
)

// workerReport summarizes one independent client/server pair's run.
type workerReport struct {
	ops     int
	elapsed time.Duration
	stash   int
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run throughput, latency, or mixed-workload benchmarks",
	}
	cmd.AddCommand(
		newBenchSubcommand("throughput", "Measure accesses/sec across workers", runThroughput),
		newBenchSubcommand("latency", "Time read-only accesses per worker", runLatency),
		newBenchSubcommand("mixed", "Run the 34/33/33 read/write/delete mixed workload", runMixed),
	)
	return cmd
}

func newBenchSubcommand(use, short string, fn func(runConfig, *zap.Logger) ([]workerReport, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger()
			defer logger.Sync() //nolint:errcheck

			reports, err := fn(cfg, logger)
			if err != nil {
				return err
			}
			printReports(cmd, cfg, reports)
			return nil
		},
	}
}

func printReports(cmd *cobra.Command, cfg runConfig, reports []workerReport) {
	var totalOps int
	var totalElapsed time.Duration
	for _, r := range reports {
		totalOps += r.ops
		if r.elapsed > totalElapsed {
			totalElapsed = r.elapsed
		}
	}
	var throughput float64
	if totalElapsed > 0 {
		throughput = float64(totalOps) / totalElapsed.Seconds()
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"workers=%d blocks=%d bucket_size=%d ops/worker=%d total_ops=%d wall=%s throughput=%.1f ops/s\n",
		cfg.Workers, cfg.Blocks, cfg.BucketSize, cfg.Ops, totalOps, totalElapsed, throughput)
	for i, r := range reports {
		fmt.Fprintf(cmd.OutOrStdout(), "  worker %d: ops=%d elapsed=%s final_stash=%d\n", i, r.ops, r.elapsed, r.stash)
	}
}

// newWorkerPair builds one independent Server+Client pair, matching
// §5's "independent client-server pairs, one per worker, with no
// shared state".
func newWorkerPair(cfg runConfig, logger *zap.Logger) (*pathoram.Client, error) {
	server, err := pathoram.NewServer(cfg.Blocks, cfg.BucketSize)
	if err != nil {
		return nil, err
	}
	return pathoram.NewClient(server, pathoram.WithLogger(logger))
}

func runThroughput(cfg runConfig, logger *zap.Logger) ([]workerReport, error) {
	return runWorkers(cfg, logger, func(c *pathoram.Client, rng *rand.Rand, addr int) error {
		_, err := c.Store(addr, randomPayload(rng))
		return err
	})
}

func runLatency(cfg runConfig, logger *zap.Logger) ([]workerReport, error) {
	return runWorkers(cfg, logger, func(c *pathoram.Client, rng *rand.Rand, addr int) error {
		_, err := c.Retrieve(addr)
		return err
	})
}

// runMixed reimplements benchmark.py's one_random_op: 34% read, 33%
// write, 33% delete.
func runMixed(cfg runConfig, logger *zap.Logger) ([]workerReport, error) {
	return runWorkers(cfg, logger, func(c *pathoram.Client, rng *rand.Rand, addr int) error {
		var err error
		switch roll := rng.Intn(100); {
		case roll < 34:
			_, err = c.Retrieve(addr)
		case roll < 67:
			_, err = c.Store(addr, randomPayload(rng))
		default:
			_, err = c.Delete(addr)
		}
		return err
	})
}

func runWorkers(cfg runConfig, logger *zap.Logger, op func(*pathoram.Client, *rand.Rand, int) error) ([]workerReport, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	reports := make([]workerReport, cfg.Workers)

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < cfg.Workers; w++ {
		w := w
		g.Go(func() error {
			client, err := newWorkerPair(cfg, logger)
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			rng := rand.New(rand.NewSource(int64(w) + 1))

			start := time.Now()
			for i := 0; i < cfg.Ops; i++ {
				addr := rng.Intn(cfg.Blocks)
				if err := op(client, rng, addr); err != nil {
					return fmt.Errorf("worker %d: op %d: %w", w, i, err)
				}
			}
			reports[w] = workerReport{
				ops:     cfg.Ops,
				elapsed: time.Since(start),
				stash:   client.StashSize(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
