package nabla

import (
	"github.com/ethereum/go-ethereum/core/types"

	"nablaScope/internal/model"
	"nablaScope/internal/slots"
	"nablaScope/internal/statediff"
)

// Portal storage layout. Offsets count bytes from the low-order end of the word.
var (
	portalOwner         = slots.Location{Name: "owner", Type: slots.Address(), Slot: slots.SlotAt(0), Offset: 0}
	portalPaused        = slots.Location{Name: "paused", Type: slots.Bool(), Slot: slots.SlotAt(0), Offset: 20}
	portalGate          = slots.Location{Name: "gate", Type: slots.Address(), Slot: slots.SlotAt(2), Offset: 0}
	portalGated         = slots.Location{Name: "gated", Type: slots.Bool(), Slot: slots.SlotAt(2), Offset: 20}
	portalOracleAdapter = slots.Location{Name: "oracle_adapter", Type: slots.Address(), Slot: slots.SlotAt(3), Offset: 0}
	portalGuardOracle   = slots.Location{Name: "guard_oracle", Type: slots.Address(), Slot: slots.SlotAt(4), Offset: 0}
	portalGuardOn       = slots.Location{Name: "guard_on", Type: slots.Bool(), Slot: slots.SlotAt(4), Offset: 20}
	portalRouters       = slots.Location{Name: "routers", Type: slots.ArrayOf(slots.Address()), Slot: slots.SlotAt(6)}
	// routerAssets[router] lists the assets registered for a router.
	portalRouterAssets = slots.Location{
		Name: "routerAssets",
		Type: slots.MappingOf(slots.Address(), slots.ArrayOf(slots.Address())),
		Slot: slots.SlotAt(7),
	}
	// assetsByRouter[router][asset] flags a registered pair.
	portalAssetsByRouter = slots.Location{
		Name: "assetsByRouter",
		Type: slots.MappingOf(slots.Address(), slots.MappingOf(slots.Address(), slots.Bool())),
		Slot: slots.SlotAt(8),
	}
)

var portalSchema = []slots.Location{
	portalOwner,
	portalPaused,
	portalGate,
	portalGated,
	portalOracleAdapter,
	portalGuardOracle,
	portalGuardOn,
	portalRouters,
	portalRouterAssets,
	portalAssetsByRouter,
}

// Schema returns the declared storage locations of a component kind. Routers
// and swap pools have no declared layout.
func Schema(kind model.ComponentKind) []slots.Location {
	switch kind {
	case model.KindPortal:
		out := make([]slots.Location, len(portalSchema))
		copy(out, portalSchema)
		return out
	default:
		return nil
	}
}

// schemaEntityChanges translates a log of a component kind without event
// handlers. Scalar fields of the kind's schema are read from the contract's
// storage changes; a kind without a declared layout yields an empty record.
func schemaEntityChanges(kind model.ComponentKind, log *types.Log, changes []model.StorageChange) (model.EntityChanges, error) {
	var scalars []slots.Location
	for _, loc := range Schema(kind) {
		if k := loc.Type.Kind(); k != slots.KindArray && k != slots.KindMapping {
			scalars = append(scalars, loc)
		}
	}
	if len(scalars) == 0 {
		return placeholder(log), nil
	}
	entries, err := slotEntityChanges(log, statediff.NewIndex(changes), scalars...)
	if err != nil {
		return model.EntityChanges{}, err
	}
	return entries[0], nil
}
