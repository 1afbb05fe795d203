package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nablaScope/internal/config"
	"nablaScope/internal/indexer"
	"nablaScope/internal/nabla"
	"nablaScope/internal/storage"
	"nablaScope/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	processorCfg, err := processorConfig(cfg.Portal, cfg.PortalDeployTx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// without an RPC endpoint, blocks that need contract reads fail and are
	// written to the errors file
	var caller nabla.Caller
	if cfg.RPCURL != "" {
		chainClient, cached, err := dialChain(ctx, cfg.RPCURL, cfg.RPCLimits)
		if err != nil {
			return err
		}
		defer chainClient.Close()
		caller = cached
	}

	var pgStore *postgres.Store
	if cfg.PGDSN != "" {
		pgStore, err = openPostgres(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer pgStore.Close()
	}
	// registrations made during a replay stay in memory
	components, err := loadRegistry(ctx, pgStore, "", logger)
	if err != nil {
		return err
	}
	components = components.Detached()

	for _, path := range []string{cfg.Out, cfg.Errors} {
		if err := truncate(path); err != nil {
			return err
		}
	}

	logger.Info("replay start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Bool("rpc", caller != nil),
		zap.Int("components", components.Len()),
	)

	processor := nabla.NewProcessor(processorCfg, caller, components, logger)
	replayer := indexer.NewReplayer(processor, storage.NewJsonlStorage(cfg.Out), storage.NewJsonlStorage(cfg.Errors), logger)
	stats, err := replayer.Replay(ctx, cfg.In)
	if err != nil {
		return err
	}

	logger.Info("replay complete",
		zap.Int("blocks", stats.Blocks),
		zap.Int("changed", stats.Changed),
		zap.Int("failed", stats.Failed),
	)

	return nil
}

func truncate(path string) error {
	if err := os.Truncate(path, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("truncate %s: %w", path, err)
	}
	return nil
}
