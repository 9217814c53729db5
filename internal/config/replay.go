package config

import "github.com/spf13/pflag"

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	Pool      PoolConfig
	Input     string
	Output    string
	BatchSize int
	StateFile string
	PGDSN     string
	StateName string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":        "./data/results.jsonl",
		"batch-size": 100,
		"state-name": "replay",
	})
	if err != nil {
		return ReplayConfig{}, err
	}

	cfg := ReplayConfig{
		Pool:      poolConfig(v),
		Input:     v.GetString("in"),
		Output:    v.GetString("out"),
		BatchSize: v.GetInt("batch-size"),
		StateFile: v.GetString("state-file"),
		PGDSN:     v.GetString("pg-dsn"),
		StateName: v.GetString("state-name"),
	}

	return cfg, nil
}
