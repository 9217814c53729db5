package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "unstakepool",
		Short:        "Unstake liquidity pool tools",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay pool operations from a JSONL file",
		RunE:  runReplay,
	}

	addPoolFlags(replayCmd.Flags())
	replayCmd.Flags().String("in", "", "input operations JSONL")
	replayCmd.Flags().String("out", "./data/results.jsonl", "output results JSONL (ignored when pg-dsn is set)")
	replayCmd.Flags().Int("batch-size", 100, "operations per result batch and checkpoint")
	replayCmd.Flags().String("state-file", "", "local checkpoint file (defaults to the pool_state table when pg-dsn is set)")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	replayCmd.Flags().String("state-name", "replay", "run name for results and checkpoints in Postgres")

	root.AddCommand(replayCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Read the staked token price from the stake pool contract",
		RunE:  runPrice,
	}

	priceCmd.Flags().String("rpc", "", "RPC URL")
	priceCmd.Flags().String("price-contract", "", "ERC-4626 stake pool contract address")
	priceCmd.Flags().Int32("price-decimals", 0, "decimals of the staked token, 0 reads them from the contract")
	addRetryFlags(priceCmd.Flags())
	priceCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(priceCmd)

	curveCmd := &cobra.Command{
		Use:   "curve",
		Short: "Print the swap fee at sampled token reserve levels",
		RunE:  runCurve,
	}

	addPoolFlags(curveCmd.Flags())
	curveCmd.Flags().Int("points", 10, "number of intervals between an empty reserve and twice the liquidity target")

	root.AddCommand(curveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPoolFlags(flags *pflag.FlagSet) {
	flags.String("price", "", "staked token price in tokens (read from price-contract when empty)")
	flags.String("min-fee", "0", "fee once the reserve reaches the liquidity target")
	flags.String("max-fee", "", "fee when the reserve is drained")
	flags.String("liquidity-target", "", "token reserve at which the fee bottoms out")
	flags.String("rpc", "", "RPC URL")
	flags.String("price-contract", "", "ERC-4626 stake pool contract address")
	flags.Int32("price-decimals", 0, "decimals of the staked token, 0 reads them from the contract")
	addRetryFlags(flags)
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addRetryFlags(flags *pflag.FlagSet) {
	flags.Int("max-retries", 5, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
