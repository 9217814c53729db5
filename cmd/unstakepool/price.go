package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"unstakePool/internal/amount"
	"unstakePool/internal/chain"
	"unstakePool/internal/config"
	"unstakePool/internal/retry"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPool(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	price, err := fetchPrice(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), price.String())
	return nil
}

// resolvePrice fills cfg.Price from the stake pool contract when it is not
// configured directly.
func resolvePrice(ctx context.Context, cfg *config.PoolConfig, logger *zap.Logger) error {
	if cfg.Price != "" || cfg.PriceContract == "" {
		return nil
	}
	price, err := fetchPrice(ctx, *cfg, logger)
	if err != nil {
		return err
	}
	cfg.Price = price.String()
	return nil
}

func fetchPrice(ctx context.Context, cfg config.PoolConfig, logger *zap.Logger) (amount.Price, error) {
	if cfg.RPCURL == "" {
		return amount.Price{}, fmt.Errorf("rpc url is required")
	}
	contract, err := chain.ParseAddress(cfg.PriceContract)
	if err != nil {
		return amount.Price{}, fmt.Errorf("price contract: %w", err)
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return amount.Price{}, fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	policy := cfg.RetryPolicy()
	chainID, err := retry.Do(ctx, policy, logger, "chain id", func() (uint64, error) {
		id, err := chainClient.GetChainID(ctx)
		if err != nil {
			return 0, err
		}
		if !id.IsUint64() {
			return 0, retry.Permanent(fmt.Errorf("chain id does not fit in uint64: %s", id))
		}
		return id.Uint64(), nil
	})
	if err != nil {
		return amount.Price{}, fmt.Errorf("get chain id: %w", err)
	}
	block, err := retry.Do(ctx, policy, logger, "latest block", func() (uint64, error) {
		return chainClient.LatestBlockNumber(ctx)
	})
	if err != nil {
		return amount.Price{}, fmt.Errorf("get latest block: %w", err)
	}

	price, err := retry.Do(ctx, policy, logger, "stake price", func() (amount.Price, error) {
		return chain.StakePrice(ctx, chainClient, contract, cfg.PriceDecimals)
	})
	if err != nil {
		return amount.Price{}, fmt.Errorf("read stake price: %w", err)
	}

	logger.Info("stake price",
		zap.Uint64("chain_id", chainID),
		zap.Uint64("block", block),
		zap.String("contract", contract.Hex()),
		zap.Stringer("price", price),
	)
	return price, nil
}
