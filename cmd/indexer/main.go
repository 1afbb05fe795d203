package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nablaScope/internal/chain"
	"nablaScope/internal/config"
	"nablaScope/internal/indexer"
	"nablaScope/internal/metrics"
	"nablaScope/internal/nabla"
	"nablaScope/internal/registry"
	"nablaScope/internal/storage"
	"nablaScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Nabla storage-diff indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Stream blocks from RPC and decode Nabla entity changes",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("rpc", "", "RPC URL (must serve debug_traceBlockByNumber)")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	runCmd.Flags().String("portal", config.DefaultPortal, "portal contract address")
	runCmd.Flags().String("portal-deploy-tx", config.DefaultPortalDeployTx, "portal deployment transaction hash")
	runCmd.Flags().Uint64("batch-size", 50, "blocks per batch")
	runCmd.Flags().Int("fetch-concurrency", 4, "concurrent block fetches per batch")
	runCmd.Flags().String("out", "./data/entity_changes.jsonl", "output JSONL path")
	runCmd.Flags().String("raw-out", "", "optional raw block JSONL path for replay")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().String("components", "./data/components.jsonl", "component registry JSONL path, used without --pg-dsn")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for the component registry, entity changes and progress")
	runCmd.Flags().String("state-name", "nabla", "indexer_state row name")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	addRPCLimitFlags(runCmd)
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Decode an archived raw block file",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("rpc", "", "RPC URL for contract reads (archive node)")
	replayCmd.Flags().String("in", "", "input raw blocks JSONL")
	replayCmd.Flags().String("out", "./data/replay_changes.jsonl", "output JSONL path")
	replayCmd.Flags().String("errors", "./data/replay_errors.jsonl", "failed blocks JSONL")
	replayCmd.Flags().String("portal", config.DefaultPortal, "portal contract address")
	replayCmd.Flags().String("portal-deploy-tx", config.DefaultPortalDeployTx, "portal deployment transaction hash")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN to seed the component registry")
	addRPCLimitFlags(replayCmd)
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Seed a component into the Postgres registry",
		RunE:  runRegister,
	}

	registerCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	registerCmd.Flags().String("id", "", "component contract address")
	registerCmd.Flags().String("kind", "", "component kind (portal, router, swap_pool)")
	registerCmd.Flags().StringSlice("token", nil, "component tokens (comma-separated)")
	registerCmd.Flags().Bool("migrate", true, "create missing tables first")
	registerCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(registerCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	processorCfg, err := processorConfig(cfg.Portal, cfg.PortalDeployTx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, caller, err := dialChain(ctx, cfg.RPCURL, cfg.RPCLimits)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	var (
		pgStore *postgres.Store
		state   indexer.StateStore = indexer.NewCheckpointStore(cfg.Checkpoint, cfg.Portal, cfg.CheckpointEnabled)
		sinks   = storage.MultiSink{storage.NewJsonlStorage(cfg.Out)}
	)
	if cfg.PGDSN != "" {
		pgStore, err = openPostgres(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer pgStore.Close()
		state = &indexer.DBStateStore{Store: pgStore, Name: cfg.StateName}
		sinks = append(sinks, pgStore)
	}

	var componentFile string
	if pgStore == nil {
		componentFile = cfg.Components
	}
	components, err := loadRegistry(ctx, pgStore, componentFile, logger)
	if err != nil {
		return err
	}

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	var archive storage.BlockArchive
	if cfg.RawOut != "" {
		archive = storage.NewJsonlStorage(cfg.RawOut)
	}

	var runMetrics *metrics.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		runMetrics, err = metrics.New(reg)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, logger); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	processor := nabla.NewProcessor(processorCfg, caller, components, logger)
	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:        cfg.FromBlock,
		ToBlock:          cfg.ToBlock,
		BatchSize:        cfg.BatchSize,
		FetchConcurrency: cfg.FetchConcurrency,
		MaxRetries:       cfg.MaxRetries,
		RetryBackoff:     cfg.RetryBackoff,
	}, indexer.NewRPCSource(chainClient), processor, sinks, archive, state, logger).WithMetrics(runMetrics)

	logger.Info("indexer start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.String("portal", processorCfg.Portal.Hex()),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.String("raw_out", cfg.RawOut),
		zap.Bool("postgres", pgStore != nil),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("components_file", componentFile),
		zap.Float64("rpc_rps", cfg.RPCLimits.RequestsPerSecond),
		zap.String("metrics_addr", cfg.MetricsAddr),
		zap.Int("components", components.Len()),
	)

	return runner.Run(ctx)
}

func addRPCLimitFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("rpc-rps", 0, "maximum RPC requests per second, 0 means unlimited")
	cmd.Flags().Int("rpc-burst", 10, "RPC request burst above the rate limit")
	cmd.Flags().Int("call-cache-mb", 32, "memory for caching block-pinned eth_call results, 0 disables")
}

// dialChain connects to the RPC endpoint and returns the client together with
// the contract caller the decoder should use.
func dialChain(ctx context.Context, rpcURL string, limits config.RPCLimits) (*chain.Client, nabla.Caller, error) {
	client, err := chain.NewClient(ctx, rpcURL, chain.WithRateLimit(limits.RequestsPerSecond, limits.Burst))
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}
	if limits.CallCacheMB <= 0 {
		return client, client, nil
	}
	return client, chain.NewCachedCaller(client, limits.CallCacheMB<<20), nil
}

func processorConfig(portal, deployTx string) (nabla.ProcessorConfig, error) {
	portalAddress, err := indexer.ParseAddress(portal)
	if err != nil {
		return nabla.ProcessorConfig{}, fmt.Errorf("portal: %w", err)
	}
	deployHash, err := indexer.ParseHash(deployTx)
	if err != nil {
		return nabla.ProcessorConfig{}, fmt.Errorf("portal deploy tx: %w", err)
	}
	return nabla.ProcessorConfig{Portal: portalAddress, PortalDeployTx: deployHash}, nil
}

func openPostgres(ctx context.Context, dsn string) (*postgres.Store, error) {
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// loadRegistry builds the component registry, backed by Postgres when a
// store is given and by componentFile otherwise. Without either the registry
// lives in memory only.
func loadRegistry(ctx context.Context, pgStore *postgres.Store, componentFile string, logger *zap.Logger) (*registry.Store, error) {
	var backend registry.Backend
	switch {
	case pgStore != nil:
		backend = pgStore
	case componentFile != "":
		backend = storage.NewJsonlStorage(componentFile)
	}
	components := registry.NewStore(backend, logger)
	if err := components.Load(ctx); err != nil {
		return nil, err
	}
	return components, nil
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
