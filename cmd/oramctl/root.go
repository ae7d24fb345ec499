package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagConfigFile string
	flagBlocks     int
	flagBucketSize int
	flagWorkers    int
	flagOps        int
	flagVerbose    bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oramctl",
		Short:         "Benchmark driver for the pathoram client/server pair",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&flagConfigFile, "config", "", "optional TOML file with bench defaults")
	root.PersistentFlags().IntVar(&flagBlocks, "blocks", 0, "logical address space N (unset = use config/default)")
	root.PersistentFlags().IntVar(&flagBucketSize, "bucket-size", 0, "bucket capacity Z (unset = use config/default)")
	root.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "independent client/server pairs to run concurrently (unset = use config/default)")
	root.PersistentFlags().IntVar(&flagOps, "ops", 0, "accesses per worker (unset = use config/default)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newBenchCmd())
	root.AddCommand(newCompareCmd())
	return root
}

func newLogger() *zap.Logger {
	var logger *zap.Logger
	var err error
	if flagVerbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// resolveConfig loads the TOML config (if any) and applies any
// explicitly-set flags on top of it.
func resolveConfig(cmd *cobra.Command) (runConfig, error) {
	cfg, err := loadRunConfig(flagConfigFile)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("blocks") {
		cfg.Blocks = flagBlocks
	}
	if cmd.Flags().Changed("bucket-size") {
		cfg.BucketSize = flagBucketSize
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = flagWorkers
	}
	if cmd.Flags().Changed("ops") {
		cfg.Ops = flagOps
	}
	return cfg, nil
}
