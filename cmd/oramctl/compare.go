package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/oblivtech/pathoram"
)

// newCompareCmd runs the same write-only workload against a real
// Client/Server pair once per eviction strategy and reports each run's
// elapsed time and final stash size.
func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare eviction strategies against a real Client/Server pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			strategies := []struct {
				name     string
				strategy pathoram.EvictionStrategy
			}{
				{"level-by-level", pathoram.EvictLevelByLevel},
				{"greedy-by-depth", pathoram.EvictGreedyByDepth},
				{"constant-time", pathoram.EvictConstantTime},
			}

			for _, s := range strategies {
				report, err := runWithStrategy(cfg, s.strategy)
				if err != nil {
					return fmt.Errorf("strategy %s: %w", s.name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "strategy=%-16s ops=%d elapsed=%s final_stash=%d\n",
					s.name, cfg.Ops, report.elapsed, report.stash)
			}
			return nil
		},
	}
	return cmd
}

// runWithStrategy builds a fresh Server+Client pair configured with
// strategy and drives it through the same write-only workload, so the
// strategies are compared on equal footing.
func runWithStrategy(cfg runConfig, strategy pathoram.EvictionStrategy) (workerReport, error) {
	server, err := pathoram.NewServer(cfg.Blocks, cfg.BucketSize)
	if err != nil {
		return workerReport{}, err
	}
	client, err := pathoram.NewClient(server, pathoram.WithEvictionStrategy(strategy))
	if err != nil {
		return workerReport{}, err
	}

	rng := rand.New(rand.NewSource(1))
	start := time.Now()
	for i := 0; i < cfg.Ops; i++ {
		addr := rng.Intn(cfg.Blocks)
		if _, err := client.Store(addr, randomPayload(rng)); err != nil {
			return workerReport{}, fmt.Errorf("op %d: %w", i, err)
		}
	}
	return workerReport{
		ops:     cfg.Ops,
		elapsed: time.Since(start),
		stash:   client.StashSize(),
	}, nil
}
