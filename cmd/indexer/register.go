package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nablaScope/internal/config"
	"nablaScope/internal/indexer"
	"nablaScope/internal/model"
	"nablaScope/internal/storage/postgres"
)

func runRegister(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRegister(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}
	address, err := indexer.ParseAddress(cfg.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	kind, err := model.ParseComponentKind(cfg.Kind)
	if err != nil {
		return err
	}
	tokens := make([]string, 0, len(cfg.Tokens))
	for _, token := range cfg.Tokens {
		tokenAddress, err := indexer.ParseAddress(token)
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		tokens = append(tokens, model.ComponentID(tokenAddress))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pgStore *postgres.Store
	if cfg.Migrate {
		pgStore, err = openPostgres(ctx, cfg.PGDSN)
	} else {
		pgStore, err = postgres.NewStore(ctx, cfg.PGDSN)
	}
	if err != nil {
		return err
	}
	defer pgStore.Close()

	components, err := loadRegistry(ctx, pgStore, "", logger)
	if err != nil {
		return err
	}
	inserted, err := components.SetIfNotExists(ctx, model.Component{
		ID:     model.ComponentID(address),
		Kind:   kind,
		Tokens: tokens,
	})
	if err != nil {
		return err
	}

	logger.Info("register complete",
		zap.String("component", model.ComponentID(address)),
		zap.String("kind", string(kind)),
		zap.Bool("inserted", inserted),
	)
	return nil
}
