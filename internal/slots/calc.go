package slots

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Keccak hashes the concatenation of the inputs with Keccak-256 (not SHA3-256).
func Keccak(data ...[]byte) common.Hash {
	return crypto.Keccak256Hash(data...)
}

// PadAddress left-pads an address with 12 zero bytes to a full word.
func PadAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

// MappingSlot derives the slot of mapping[key] for a mapping declared at slot.
// key must already be padded to a full word.
func MappingSlot(key common.Hash, slot common.Hash) common.Hash {
	return Keccak(key.Bytes(), slot.Bytes())
}

// NestedMappingSlot derives the slot of mapping[k0][k1]...[kn]. Each derived slot
// becomes the slot input for the next key.
func NestedMappingSlot(slot common.Hash, keys ...common.Hash) common.Hash {
	derived := slot
	for _, key := range keys {
		derived = MappingSlot(key, derived)
	}
	return derived
}

// ArrayDataSlot returns the first element slot of a dynamic array declared at base.
func ArrayDataSlot(base common.Hash) common.Hash {
	return Keccak(base.Bytes())
}

// ArrayElementSlot returns the slot of the last element of a dynamic array of
// the given length: keccak256(base) + length - 1, modulo 2^256.
func ArrayElementSlot(base common.Hash, length *uint256.Int) common.Hash {
	slot := new(uint256.Int).SetBytes(ArrayDataSlot(base).Bytes())
	slot.Add(slot, length)
	slot.Sub(slot, uint256.NewInt(1))
	return common.Hash(slot.Bytes32())
}

// ArrayLength interprets a big-endian length header window.
func ArrayLength(header []byte) *uint256.Int {
	return new(uint256.Int).SetBytes(header)
}
