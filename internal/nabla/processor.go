package nabla

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"nablaScope/internal/model"
)

// Registry resolves tracked contracts. The first registration of an id wins.
type Registry interface {
	Component(ctx context.Context, id string) (model.Component, bool, error)
	SetIfNotExists(ctx context.Context, component model.Component) (bool, error)
}

// ProcessorConfig identifies the portal deployment being tracked.
type ProcessorConfig struct {
	Portal         common.Address
	PortalDeployTx common.Hash
}

// Processor turns blocks into per-transaction component registrations and
// entity changes.
type Processor struct {
	cfg       ProcessorConfig
	chain     Caller
	registry  Registry
	portalABI func() (abi.ABI, error)
	logger    *zap.Logger
}

// NewProcessor creates a block processor.
func NewProcessor(cfg ProcessorConfig, chain Caller, registry Registry, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{cfg: cfg, chain: chain, registry: registry, portalABI: PortalABI, logger: logger}
}

// ProcessBlock discovers the components created in the block, then decodes
// every log emitted by a known or newly discovered component. New components
// are committed to the registry only once the whole block has translated, so
// a failed block can be processed again with the same output. Any
// translation failure fails the whole block.
func (p *Processor) ProcessBlock(ctx context.Context, block model.Block) (model.BlockChanges, error) {
	if p.registry == nil {
		return model.BlockChanges{}, fmt.Errorf("component registry is nil")
	}
	if _, err := p.portalABI(); err != nil {
		return model.BlockChanges{}, fmt.Errorf("block %d: parse portal abi: %w", block.Number, err)
	}

	staged := newStagedComponents(p.registry)
	created := make([][]model.Component, len(block.Transactions))
	for i, tx := range block.Transactions {
		components, err := DiscoverComponents(ctx, p.chain, p.cfg, block.Number, tx)
		if err != nil {
			return model.BlockChanges{}, fmt.Errorf("block %d tx %s: discover components: %w", block.Number, tx.Hash.Hex(), err)
		}
		for _, component := range components {
			reported, ok, err := staged.add(ctx, component)
			if err != nil {
				return model.BlockChanges{}, fmt.Errorf("block %d tx %s: register %s: %w", block.Number, tx.Hash.Hex(), component.ID, err)
			}
			if ok {
				created[i] = append(created[i], reported)
			}
		}
	}

	out := model.BlockChanges{
		BlockNumber: block.Number,
		BlockHash:   block.Hash.Hex(),
		Timestamp:   block.Timestamp,
		Changes:     []model.TransactionChanges{},
	}
	for i, tx := range block.Transactions {
		entityChanges, err := p.processTransaction(ctx, staged, block.Number, tx)
		if err != nil {
			return model.BlockChanges{}, fmt.Errorf("block %d tx %s: %w", block.Number, tx.Hash.Hex(), err)
		}
		if len(created[i]) == 0 && len(entityChanges) == 0 {
			continue
		}
		out.Changes = append(out.Changes, model.TransactionChanges{
			TxHash:        tx.Hash.Hex(),
			TxIndex:       tx.Index,
			Components:    created[i],
			EntityChanges: entityChanges,
		})
	}

	for _, component := range staged.pending {
		inserted, err := p.registry.SetIfNotExists(ctx, component)
		if err != nil {
			return model.BlockChanges{}, fmt.Errorf("block %d: register %s: %w", block.Number, component.ID, err)
		}
		if !inserted {
			continue
		}
		p.logger.Info("component registered",
			zap.Uint64("block", block.Number),
			zap.String("tx", component.CreatedTx),
			zap.String("component", component.ID),
			zap.String("kind", string(component.Kind)),
		)
	}
	return out, nil
}

func (p *Processor) processTransaction(ctx context.Context, components *stagedComponents, blockNumber uint64, tx model.Transaction) ([]model.EntityChanges, error) {
	var out []model.EntityChanges
	for i := range tx.Logs {
		log := &tx.Logs[i]
		kind, ok, err := components.kind(ctx, model.ComponentID(log.Address))
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", log.Address.Hex(), err)
		}
		if !ok {
			continue
		}

		switch kind {
		case model.KindPortal:
			event, ok := DecodeEvent(*log)
			if !ok {
				p.logger.Debug("unknown portal log",
					zap.Uint64("block", blockNumber),
					zap.String("tx", tx.Hash.Hex()),
					zap.Uint("log_index", log.Index),
				)
				continue
			}
			changes := model.FilterByAddress(tx.StorageChanges, log.Address)
			entityChanges, err := EntityChanges(event, HandlerContext{
				Context:     ctx,
				Chain:       p.chain,
				BlockNumber: blockNumber,
				Log:         log,
				Logger:      p.logger,
			}, changes)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", event.EventName(), err)
			}
			p.logger.Debug("portal event decoded",
				zap.Uint64("block", blockNumber),
				zap.String("tx", tx.Hash.Hex()),
				zap.String("event", event.EventName()),
				zap.Int("storage_changes", len(changes)),
				zap.Int("entity_changes", len(entityChanges)),
			)
			out = append(out, entityChanges...)
		case model.KindRouter, model.KindSwapPool:
			entry, err := schemaEntityChanges(kind, log, model.FilterByAddress(tx.StorageChanges, log.Address))
			if err != nil {
				return nil, fmt.Errorf("%s log: %w", kind, err)
			}
			out = append(out, entry)
		default:
			p.logger.Warn("unsupported component kind", zap.String("kind", string(kind)), zap.String("address", log.Address.Hex()))
		}
	}
	return out, nil
}

// stagedComponents overlays the components discovered in the block being
// processed on top of the registry.
type stagedComponents struct {
	registry Registry
	byID     map[string]model.Component
	pending  []model.Component
}

func newStagedComponents(registry Registry) *stagedComponents {
	return &stagedComponents{registry: registry, byID: make(map[string]model.Component)}
}

// add stages a discovered component and reports whether the transaction that
// discovered it created it. A component already registered by the same
// transaction, as on a retried block, is reported again with its stored record.
func (s *stagedComponents) add(ctx context.Context, component model.Component) (model.Component, bool, error) {
	id := strings.ToLower(component.ID)
	if _, ok := s.byID[id]; ok {
		return model.Component{}, false, nil
	}
	existing, ok, err := s.registry.Component(ctx, id)
	if err != nil {
		return model.Component{}, false, err
	}
	if ok {
		sameOrigin := existing.CreatedBlock == component.CreatedBlock && strings.EqualFold(existing.CreatedTx, component.CreatedTx)
		return existing, sameOrigin, nil
	}
	component.ID = id
	s.byID[id] = component
	s.pending = append(s.pending, component)
	return component, true, nil
}

func (s *stagedComponents) kind(ctx context.Context, id string) (model.ComponentKind, bool, error) {
	if component, ok := s.byID[strings.ToLower(id)]; ok {
		return component.Kind, true, nil
	}
	component, ok, err := s.registry.Component(ctx, id)
	if err != nil || !ok {
		return "", false, err
	}
	return component.Kind, true, nil
}
