package slots

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Location declares where a named field lives in a contract's storage.
// Offset counts bytes from the low-order end of the slot word.
type Location struct {
	Name   string
	Type   *StorageType
	Slot   common.Hash
	Offset int
}

// Width returns the number of bytes the field occupies in its slot.
func (l Location) Width() int {
	return l.Type.ByteWidth()
}

// SlotAt returns the slot hash holding the given integer index, e.g. SlotAt(6) for slot 0x..06.
func SlotAt(index uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(index))
}

// Entry resolves mapping[k0]...[kn] of a mapping location into the location of
// the value, typed with the value type reached after len(keys) levels.
func (l Location) Entry(keys ...common.Hash) (Location, error) {
	typ := l.Type
	for range keys {
		value, err := typ.ValueType()
		if err != nil {
			return Location{}, err
		}
		typ = value
	}
	return Location{
		Name: l.Name,
		Type: typ,
		Slot: NestedMappingSlot(l.Slot, keys...),
	}, nil
}
