package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// runConfig holds the parameters a bench run executes with. Flags
// override whatever a config file sets; a config file overrides these
// defaults.
type runConfig struct {
	Blocks     int `toml:"blocks"`
	BucketSize int `toml:"bucket_size"`
	Workers    int `toml:"workers"`
	Ops        int `toml:"ops"`
}

func defaultRunConfig() runConfig {
	return runConfig{
		Blocks:     1024,
		BucketSize: 4,
		Workers:    4,
		Ops:        2000,
	}
}

// loadRunConfig reads a TOML file at path, if non-empty, and overlays
// its fields onto the defaults. A missing path is not an error — the
// defaults stand on their own.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("oramctl: read config %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("oramctl: parse config %q: %w", path, err)
	}
	return cfg, nil
}
