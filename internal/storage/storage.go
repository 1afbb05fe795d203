package storage

import (
	"context"

	"nablaScope/internal/model"
)

// Sink receives the decoded output of processed blocks.
type Sink interface {
	PutBlockChanges(ctx context.Context, changes []model.BlockChanges) error
}

// BlockArchive keeps the raw input blocks so a range can be replayed offline.
type BlockArchive interface {
	PutBlocks(ctx context.Context, blocks []model.Block) error
}

// ErrorSink records blocks that could not be decoded.
type ErrorSink interface {
	PutDecodeErrors(ctx context.Context, errs []model.DecodeError) error
}

// MultiSink writes to every sink in order and stops at the first failure.
type MultiSink []Sink

func (m MultiSink) PutBlockChanges(ctx context.Context, changes []model.BlockChanges) error {
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutBlockChanges(ctx, changes); err != nil {
			return err
		}
	}
	return nil
}
