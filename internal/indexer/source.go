package indexer

import (
	"context"
	"fmt"

	"nablaScope/internal/chain"
	"nablaScope/internal/model"
)

// BlockSource provides blocks with their logs and storage diffs.
type BlockSource interface {
	FetchBlock(ctx context.Context, number uint64) (model.Block, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// RPCSource builds blocks from receipts and prestate diff traces.
type RPCSource struct {
	client *chain.Client
}

func NewRPCSource(client *chain.Client) *RPCSource {
	return &RPCSource{client: client}
}

func (s *RPCSource) FetchBlock(ctx context.Context, number uint64) (model.Block, error) {
	data, err := s.client.FetchBlockData(ctx, number)
	if err != nil {
		return model.Block{}, fmt.Errorf("fetch block %d: %w", number, err)
	}
	block, err := buildBlock(data)
	if err != nil {
		return model.Block{}, fmt.Errorf("build block %d: %w", number, err)
	}
	return block, nil
}

func (s *RPCSource) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return s.client.LatestBlockNumber(ctx)
}
