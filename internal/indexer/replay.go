package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nablaScope/internal/model"
	"nablaScope/internal/storage"
)

// ReplayStats summarizes a replay run.
type ReplayStats struct {
	Blocks  int
	Changed int
	Failed  int
}

// Replayer re-processes an archived block file. Blocks that fail to decode
// are recorded and skipped.
type Replayer struct {
	processor BlockProcessor
	sink      storage.Sink
	errors    storage.ErrorSink
	logger    *zap.Logger
}

func NewReplayer(processor BlockProcessor, sink storage.Sink, errors storage.ErrorSink, logger *zap.Logger) *Replayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Replayer{processor: processor, sink: sink, errors: errors, logger: logger}
}

// Replay processes every block in path in file order.
func (r *Replayer) Replay(ctx context.Context, path string) (ReplayStats, error) {
	if r.processor == nil {
		return ReplayStats{}, fmt.Errorf("processor is nil")
	}
	if r.sink == nil {
		return ReplayStats{}, fmt.Errorf("storage is nil")
	}

	var stats ReplayStats
	err := storage.ReadBlocks(path, func(block model.Block) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Blocks++

		changes, err := r.processor.ProcessBlock(ctx, block)
		if err != nil {
			stats.Failed++
			r.logger.Warn("replay block failed", zap.Uint64("block_number", block.Number), zap.Error(err))
			if r.errors == nil {
				return nil
			}
			return r.errors.PutDecodeErrors(ctx, []model.DecodeError{{
				BlockNumber: block.Number,
				BlockHash:   block.Hash.Hex(),
				Error:       err.Error(),
			}})
		}
		if len(changes.Changes) > 0 {
			stats.Changed++
		}
		return r.sink.PutBlockChanges(ctx, []model.BlockChanges{changes})
	})
	return stats, err
}
