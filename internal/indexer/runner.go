package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nablaScope/internal/metrics"
	"nablaScope/internal/model"
	"nablaScope/internal/nabla"
	"nablaScope/internal/storage"
)

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock        uint64
	ToBlock          uint64
	BatchSize        uint64
	FetchConcurrency int
	MaxRetries       int
	RetryBackoff     time.Duration
}

// BlockProcessor turns one block into its decoded changes.
type BlockProcessor interface {
	ProcessBlock(ctx context.Context, block model.Block) (model.BlockChanges, error)
}

// Runner streams blocks in order, decodes them and writes the results.
type Runner struct {
	cfg       RunConfig
	source    BlockSource
	processor BlockProcessor
	sink      storage.Sink
	archive   storage.BlockArchive
	state     StateStore
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewRunner builds a Runner with its dependencies. archive and state may be nil.
func NewRunner(cfg RunConfig, source BlockSource, processor BlockProcessor, sink storage.Sink, archive storage.BlockArchive, state StateStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:       cfg,
		source:    source,
		processor: processor,
		sink:      sink,
		archive:   archive,
		state:     state,
		logger:    logger,
	}
}

// WithMetrics makes the runner report progress to m.
func (r *Runner) WithMetrics(m *metrics.Metrics) *Runner {
	r.metrics = m
	return r
}

// Run executes the indexing loop. Blocks are fetched concurrently within a
// batch but processed strictly in increasing order; progress is saved after
// each batch.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("block source is nil")
	}
	if r.processor == nil {
		return fmt.Errorf("processor is nil")
	}
	if r.sink == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.source.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if r.state != nil {
		last, ok, err := r.state.Load(ctx)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		if ok && last >= from {
			from = last + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", from))
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		started := time.Now()
		r.logger.Info("fetch blocks", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
		blocks, err := r.fetchRange(ctx, blockRange)
		if err != nil {
			return err
		}
		if r.archive != nil {
			if err := r.archive.PutBlocks(ctx, blocks); err != nil {
				return fmt.Errorf("archive blocks: %w", err)
			}
		}

		results := make([]model.BlockChanges, 0, len(blocks))
		var txCount int
		for _, block := range blocks {
			changes, err := r.processWithRetry(ctx, block)
			if err != nil {
				return fmt.Errorf("process block %d: %w", block.Number, err)
			}
			txCount += len(changes.Changes)
			r.observeBlock(changes)
			results = append(results, changes)
		}

		if err := r.sink.PutBlockChanges(ctx, results); err != nil {
			return fmt.Errorf("store changes: %w", err)
		}

		if r.state != nil {
			if err := r.state.Save(ctx, blockRange.To); err != nil {
				return fmt.Errorf("save state: %w", err)
			}
		}
		r.metrics.ObserveBatch(blockRange.To, time.Since(started))

		r.logger.Info("batch complete",
			zap.Int("blocks", len(blocks)),
			zap.Int("transactions", txCount),
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
		)
	}

	return nil
}

func (r *Runner) fetchRange(ctx context.Context, blockRange BlockRange) ([]model.Block, error) {
	blocks := make([]model.Block, blockRange.Len())
	g, gctx := errgroup.WithContext(ctx)
	if r.cfg.FetchConcurrency > 0 {
		g.SetLimit(r.cfg.FetchConcurrency)
	}
	for number := blockRange.From; number <= blockRange.To; number++ {
		number := number
		g.Go(func() error {
			block, err := r.fetchWithRetry(gctx, number)
			if err != nil {
				return fmt.Errorf("fetch block %d: %w", number, err)
			}
			if block.Number != number {
				return fmt.Errorf("fetch block %d: source returned block %d", number, block.Number)
			}
			blocks[number-blockRange.From] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *Runner) fetchWithRetry(ctx context.Context, number uint64) (model.Block, error) {
	var block model.Block
	attempt := 0
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, nil, func(ctx context.Context) error {
		if attempt > 0 {
			r.metrics.ObserveRetry("fetch")
		}
		attempt++
		var err error
		block, err = r.source.FetchBlock(ctx, number)
		if err != nil {
			r.logger.Warn("fetch block failed", zap.Error(err), zap.Uint64("block_number", number))
		}
		return err
	})
	return block, err
}

func (r *Runner) processWithRetry(ctx context.Context, block model.Block) (model.BlockChanges, error) {
	var changes model.BlockChanges
	attempt := 0
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, nabla.IsRetryable, func(ctx context.Context) error {
		if attempt > 0 {
			r.metrics.ObserveRetry("process")
		}
		attempt++
		var err error
		changes, err = r.processor.ProcessBlock(ctx, block)
		if err != nil {
			r.logger.Warn("process block failed",
				zap.Error(err),
				zap.Uint64("block_number", block.Number),
				zap.Bool("retryable", nabla.IsRetryable(err)),
			)
		}
		return err
	})
	return changes, err
}

func (r *Runner) observeBlock(changes model.BlockChanges) {
	if r.metrics == nil {
		return
	}
	var entityChanges int
	var kinds []string
	for _, tx := range changes.Changes {
		entityChanges += len(tx.EntityChanges)
		for _, component := range tx.Components {
			kinds = append(kinds, string(component.Kind))
		}
	}
	r.metrics.ObserveBlock(len(changes.Changes), entityChanges, kinds)
}
