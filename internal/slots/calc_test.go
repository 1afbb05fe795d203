package slots

import (
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeccakIsNotSHA3(t *testing.T) {
	empty := Keccak()
	assert.Equal(t, common.HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"), empty)
	assert.NotEqual(t, common.HexToHash("0xa7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"), empty)
}

func TestPadAddress(t *testing.T) {
	addr := common.HexToAddress("0xcB94Eee869a2041F3B44da423F78134aFb6b676B")
	padded := PadAddress(addr)

	assert.Equal(t, make([]byte, 12), padded.Bytes()[:12])
	assert.Equal(t, addr, common.BytesToAddress(padded.Bytes()[12:]))
}

func TestArrayDataSlotVector(t *testing.T) {
	assert.Equal(t,
		common.HexToHash("0x290decd9548b62a8d60345a988386fc84ba6bc95484008f6362f93160ef3e563"),
		ArrayDataSlot(SlotAt(0)),
	)
}

func TestArrayElementSlotFirstAppend(t *testing.T) {
	base := SlotAt(6)
	got := ArrayElementSlot(base, uint256.NewInt(1))
	assert.Equal(t, crypto.Keccak256Hash(base.Bytes()), got)
}

func TestArrayElementSlotOffset(t *testing.T) {
	base := SlotAt(6)
	first := new(uint256.Int).SetBytes(ArrayDataSlot(base).Bytes())
	want := new(uint256.Int).Add(first, uint256.NewInt(4))

	got := ArrayElementSlot(base, ArrayLength([]byte{0x05}))
	assert.Equal(t, common.Hash(want.Bytes32()), got)
}

func TestMappingSlotMatchesSolidityLayout(t *testing.T) {
	key := PadAddress(common.HexToAddress("0x1111111111111111111111111111111111111111"))
	slot := SlotAt(7)

	want := crypto.Keccak256Hash(append(key.Bytes(), slot.Bytes()...))
	assert.Equal(t, want, MappingSlot(key, slot))
}

func TestNestedMappingSlotIterates(t *testing.T) {
	router := PadAddress(common.HexToAddress("0x2222222222222222222222222222222222222222"))
	asset := PadAddress(common.HexToAddress("0x3333333333333333333333333333333333333333"))
	slot := SlotAt(8)

	want := MappingSlot(asset, MappingSlot(router, slot))
	assert.Equal(t, want, NestedMappingSlot(slot, router, asset))
	assert.Equal(t, slot, NestedMappingSlot(slot))
}

func TestMappingSlotInjective(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	slot := SlotAt(7)
	seen := make(map[common.Hash]common.Hash, 2000)

	for i := 0; i < 2000; i++ {
		var key common.Hash
		rng.Read(key[:])
		derived := MappingSlot(key, slot)
		if prev, ok := seen[derived]; ok {
			require.Equal(t, prev, key, "distinct keys collided on %s", derived.Hex())
		}
		seen[derived] = key
	}
}
