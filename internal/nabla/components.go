package nabla

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nablaScope/internal/model"
)

// DiscoverComponents returns the components a transaction creates. The portal
// is created by its deployment transaction; every AssetRegistered emitted by the
// portal creates the router and the swap pool serving the asset.
func DiscoverComponents(ctx context.Context, caller Caller, cfg ProcessorConfig, blockNumber uint64, tx model.Transaction) ([]model.Component, error) {
	createdTx := tx.Hash.Hex()
	if cfg.PortalDeployTx != (common.Hash{}) && tx.Hash == cfg.PortalDeployTx {
		return []model.Component{{
			ID:           model.ComponentID(cfg.Portal),
			Kind:         model.KindPortal,
			Tokens:       []string{},
			CreatedTx:    createdTx,
			CreatedBlock: blockNumber,
		}}, nil
	}

	var components []model.Component
	block := new(big.Int).SetUint64(blockNumber)
	for i := range tx.Logs {
		log := tx.Logs[i]
		if log.Address != cfg.Portal {
			continue
		}
		event, ok := DecodeEvent(log)
		if !ok {
			continue
		}
		registered, ok := event.(AssetRegistered)
		if !ok {
			continue
		}

		pool, err := PoolByAsset(ctx, caller, registered.Router, registered.Asset, block)
		if err != nil {
			return nil, fmt.Errorf("pool for asset %s: %w", registered.Asset.Hex(), err)
		}
		meta, err := ReadSwapPoolMeta(ctx, caller, pool, block)
		if err != nil {
			return nil, fmt.Errorf("swap pool %s meta: %w", pool.Hex(), err)
		}

		components = append(components,
			model.Component{
				ID:           model.ComponentID(registered.Router),
				Kind:         model.KindRouter,
				Tokens:       []string{},
				CreatedTx:    createdTx,
				CreatedBlock: blockNumber,
			},
			model.Component{
				ID:     model.ComponentID(pool),
				Kind:   model.KindSwapPool,
				Tokens: []string{model.ComponentID(meta.Asset)},
				StaticAttributes: []model.Attribute{
					created("name", []byte(meta.Name)),
					created("symbol", []byte(meta.Symbol)),
				},
				CreatedTx:    createdTx,
				CreatedBlock: blockNumber,
			},
		)
	}
	return components, nil
}
