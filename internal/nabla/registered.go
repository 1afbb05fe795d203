package nabla

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"nablaScope/internal/model"
	"nablaScope/internal/slots"
	"nablaScope/internal/statediff"
)

// registrationSlots are the portal slots touched when an asset is (un)registered.
type registrationSlots struct {
	routerAssets   slots.Location
	assetsByRouter slots.Location
}

func resolveRegistrationSlots(router, asset common.Address) (registrationSlots, error) {
	routerKey := slots.PadAddress(router)
	routerAssets, err := portalRouterAssets.Entry(routerKey)
	if err != nil {
		return registrationSlots{}, err
	}
	assetsByRouter, err := portalAssetsByRouter.Entry(routerKey, slots.PadAddress(asset))
	if err != nil {
		return registrationSlots{}, err
	}
	return registrationSlots{routerAssets: routerAssets, assetsByRouter: assetsByRouter}, nil
}

func assetRegisteredChanges(e AssetRegistered, hctx HandlerContext, idx *statediff.Index) ([]model.EntityChanges, error) {
	logger := hctx.logger()
	attributes, err := registrationAttributes(e.Router, e.Asset, idx, logger)
	if err != nil {
		return nil, fmt.Errorf("asset registered attributes: %w", err)
	}
	portal := model.EntityChanges{
		ComponentID: model.ComponentID(hctx.Log.Address),
		Attributes:  attributes,
	}

	ctx := hctx.ctx()
	block := hctx.block()
	pool, err := PoolByAsset(ctx, hctx.Chain, e.Router, e.Asset, block)
	if err != nil {
		return nil, fmt.Errorf("pool for asset %s: %w", e.Asset.Hex(), err)
	}
	routerState, err := ReadRouterState(ctx, hctx.Chain, e.Router, block)
	if err != nil {
		return nil, fmt.Errorf("router %s state: %w", e.Router.Hex(), err)
	}
	poolState, err := ReadSwapPoolState(ctx, hctx.Chain, pool, block)
	if err != nil {
		return nil, fmt.Errorf("swap pool %s state: %w", pool.Hex(), err)
	}

	logger.Info("asset registered",
		zap.String("router", e.Router.Hex()),
		zap.String("asset", e.Asset.Hex()),
		zap.String("pool", pool.Hex()),
		zap.Int("portal_attributes", len(attributes)),
	)

	return []model.EntityChanges{
		portal,
		{ComponentID: model.ComponentID(e.Router), Attributes: routerState},
		{ComponentID: model.ComponentID(pool), Attributes: poolState},
	}, nil
}

// registrationAttributes walks the portal's changes in order and decodes the
// ones written by a registration: the routers array, routerAssets[router] and
// assetsByRouter[router][asset].
func registrationAttributes(router, asset common.Address, idx *statediff.Index, logger *zap.Logger) ([]model.Attribute, error) {
	keys, err := resolveRegistrationSlots(router, asset)
	if err != nil {
		return nil, err
	}

	attributes := make([]model.Attribute, 0, 3)
	for _, change := range idx.Changes() {
		switch change.Key {
		case keys.assetsByRouter.Slot:
			value, changed, err := statediff.NewValueIfChanged(change, 0, keys.assetsByRouter.Type)
			if err != nil {
				return nil, err
			}
			if !changed {
				continue
			}
			encoded, err := encodeAssetByRouter(router, asset, value[0] != 0)
			if err != nil {
				return nil, err
			}
			attributes = append(attributes, model.Attribute{Name: portalAssetsByRouter.Name, Value: encoded, Change: model.ChangeUpdate})
		case keys.routerAssets.Slot:
			element, ok, err := statediff.NewestElement(idx, change, keys.routerAssets)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			flagMultiAppend(logger, change, keys.routerAssets)
			encoded, err := encodeRouterAsset(router, common.BytesToAddress(element))
			if err != nil {
				return nil, err
			}
			attributes = append(attributes, model.Attribute{Name: portalRouterAssets.Name, Value: encoded, Change: model.ChangeUpdate})
		case portalRouters.Slot:
			element, ok, err := statediff.NewestElement(idx, change, portalRouters)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			flagMultiAppend(logger, change, portalRouters)
			attributes = append(attributes, model.Attribute{Name: portalRouters.Name, Value: element, Change: model.ChangeUpdate})
		default:
			logger.Debug("untracked portal slot",
				zap.String("slot", change.Key.Hex()),
				zap.String("value", change.NewValue.Hex()),
			)
		}
	}
	return attributes, nil
}

// flagMultiAppend warns when a transaction appended several elements to the
// array at loc. Storage changes are the net diff of the whole transaction, so
// every log in it resolves the same newest element.
func flagMultiAppend(logger *zap.Logger, header model.StorageChange, loc slots.Location) {
	appended, err := statediff.AppendCount(header, loc)
	if err != nil || appended <= 1 {
		return
	}
	logger.Warn("several array elements appended in one transaction, only the newest is resolvable",
		zap.String("location", loc.Name),
		zap.String("slot", header.Key.Hex()),
		zap.Uint64("appended", appended),
	)
}

func assetUnregisteredChanges(e AssetUnregistered, hctx HandlerContext, idx *statediff.Index) ([]model.EntityChanges, error) {
	keys, err := resolveRegistrationSlots(e.Router, e.Asset)
	if err != nil {
		return nil, err
	}
	attributes := []model.Attribute{}
	value, changed, err := statediff.ChangedValue(idx, keys.assetsByRouter)
	if err != nil {
		return nil, fmt.Errorf("asset unregistered attributes: %w", err)
	}
	if changed {
		encoded, err := encodeAssetByRouter(e.Router, e.Asset, value[0] != 0)
		if err != nil {
			return nil, err
		}
		attributes = append(attributes, model.Attribute{Name: portalAssetsByRouter.Name, Value: encoded, Change: model.ChangeDeletion})
	}
	return []model.EntityChanges{{
		ComponentID: model.ComponentID(hctx.Log.Address),
		Attributes:  attributes,
	}}, nil
}

// encodeAssetByRouter ABI-encodes (address router, address asset, bool value).
func encodeAssetByRouter(router, asset common.Address, value bool) ([]byte, error) {
	args, err := tupleArguments("address", "address", "bool")
	if err != nil {
		return nil, err
	}
	return args.Pack(router, asset, value)
}

// encodeRouterAsset ABI-encodes (address router, address asset).
func encodeRouterAsset(router, asset common.Address) ([]byte, error) {
	args, err := tupleArguments("address", "address")
	if err != nil {
		return nil, err
	}
	return args.Pack(router, asset)
}

func tupleArguments(types ...string) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(types))
	for _, name := range types {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			return nil, fmt.Errorf("abi type %s: %w", name, err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args, nil
}
