package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"unstakePool/internal/config"
	"unstakePool/internal/replay"
	"unstakePool/internal/storage"
	"unstakePool/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Pool.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := resolvePrice(ctx, &cfg.Pool, logger); err != nil {
		return err
	}
	params, err := cfg.Pool.Params()
	if err != nil {
		return err
	}

	var (
		sink       storage.Storage
		stateStore replay.StateStore
	)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sink = &postgres.ResultWriter{Store: store, Run: cfg.StateName}
		stateStore = &replay.DBStateStore{Store: store, Name: cfg.StateName}
	} else {
		sink = storage.NewJsonlStorage(cfg.Output)
	}
	if cfg.StateFile != "" {
		stateStore = &replay.FileStateStore{Path: cfg.StateFile}
	}
	if stateStore == nil {
		logger.Warn("no state-file or pg-dsn set, replay will not checkpoint")
	}

	runner := replay.NewRunner(replay.Config{
		BatchSize:  cfg.BatchSize,
		StateStore: stateStore,
		Retry:      cfg.Pool.RetryPolicy(),
	}, params, sink, logger)

	logger.Info("replay start",
		zap.String("input", cfg.Input),
		zap.String("out", cfg.Output),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("state_file", cfg.StateFile),
		zap.String("state_name", cfg.StateName),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Stringer("price", params.Price),
		zap.Stringer("min_fee", params.MinFee),
		zap.Stringer("max_fee", params.MaxFee),
		zap.Stringer("liquidity_target", params.LiquidityTarget),
	)

	_, err = runner.Run(ctx, cfg.Input)
	return err
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
