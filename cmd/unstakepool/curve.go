package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"unstakePool/internal/amount"
	"unstakePool/internal/config"
	"unstakePool/internal/pool"
)

func runCurve(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPool(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	points, _ := cmd.Flags().GetInt("points")
	if points <= 0 {
		return fmt.Errorf("points must be positive")
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := resolvePrice(ctx, &cfg, logger); err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	p := pool.New(params)

	stTokens := amount.MustUnits[amount.StakedTokenUnit](1)
	value, err := amount.ToToken(stTokens, params.Price)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "reserve_after\tfee\ttokens_per_staked")
	upper, err := params.LiquidityTarget.Add(params.LiquidityTarget)
	if err != nil {
		return err
	}
	for i := 0; i <= points; i++ {
		raw, err := amount.MulDiv(upper.Raw(), uint64(i), uint64(points))
		if err != nil {
			return err
		}
		after := amount.FromRaw[amount.TokenUnit](raw)
		fee := p.Fee(after)
		out, err := amount.ApplyFee(value, fee)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", after, fee, out)
	}
	return w.Flush()
}
