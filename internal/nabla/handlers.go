package nabla

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"nablaScope/internal/model"
	"nablaScope/internal/slots"
	"nablaScope/internal/statediff"
)

// HandlerContext carries what an event handler needs besides the event and
// the emitting contract's storage changes.
type HandlerContext struct {
	Context     context.Context
	Chain       Caller
	BlockNumber uint64
	Log         *types.Log
	Logger      *zap.Logger
}

func (h HandlerContext) ctx() context.Context {
	if h.Context == nil {
		return context.Background()
	}
	return h.Context
}

func (h HandlerContext) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h HandlerContext) block() *big.Int {
	return new(big.Int).SetUint64(h.BlockNumber)
}

// EntityChanges translates a decoded portal event into entity changes. changes
// must already be filtered to the emitting contract.
func EntityChanges(event Event, hctx HandlerContext, changes []model.StorageChange) ([]model.EntityChanges, error) {
	if hctx.Log == nil {
		return nil, fmt.Errorf("%s: missing log", event.EventName())
	}
	idx := statediff.NewIndex(changes)

	switch e := event.(type) {
	case AssetRegistered:
		return assetRegisteredChanges(e, hctx, idx)
	case AssetUnregistered:
		return assetUnregisteredChanges(e, hctx, idx)
	case EthForExactTokensSwapped, ExactTokensForEthSwapped, ExactTokensForTokensSwapped:
		return []model.EntityChanges{placeholder(hctx.Log)}, nil
	case Paused, Unpaused:
		return slotEntityChanges(hctx.Log, idx, portalPaused)
	case GatedAccessEnabled, GatedAccessDisabled:
		return slotEntityChanges(hctx.Log, idx, portalGated)
	case GateUpdated:
		return slotEntityChanges(hctx.Log, idx, portalGate)
	case OracleAdapterSet:
		return slotEntityChanges(hctx.Log, idx, portalOracleAdapter)
	case GuardOracleSet:
		return slotEntityChanges(hctx.Log, idx, portalGuardOracle)
	case GuardActivated, GuardDeactivated:
		return slotEntityChanges(hctx.Log, idx, portalGuardOn)
	case OwnershipTransferred:
		return slotEntityChanges(hctx.Log, idx, portalOwner)
	default:
		return nil, fmt.Errorf("unhandled portal event %T", event)
	}
}

func slotEntityChanges(log *types.Log, idx *statediff.Index, locations ...slots.Location) ([]model.EntityChanges, error) {
	attributes, err := statediff.ExtractAttributes(idx, locations)
	if err != nil {
		return nil, err
	}
	return []model.EntityChanges{{
		ComponentID: model.ComponentID(log.Address),
		Attributes:  attributes,
	}}, nil
}

// placeholder is the empty-attribute record emitted for logs whose effect on
// state is not tracked.
func placeholder(log *types.Log) model.EntityChanges {
	return model.EntityChanges{
		ComponentID: model.ComponentID(log.Address),
		Attributes:  []model.Attribute{},
	}
}
