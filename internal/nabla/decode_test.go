package nabla

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEventAddressOnly(t *testing.T) {
	cases := []struct {
		name   string
		values []interface{}
		want   Event
	}{
		{"AssetRegistered", []interface{}{testSender, testAsset, testRouter}, AssetRegistered{Sender: testSender, Asset: testAsset, Router: testRouter}},
		{"AssetUnregistered", []interface{}{testSender, testAsset, testRouter}, AssetUnregistered{Sender: testSender, Asset: testAsset, Router: testRouter}},
		{"GuardActivated", []interface{}{testSender}, GuardActivated{Sender: testSender}},
		{"GuardOracleSet", []interface{}{testSender, testPool}, GuardOracleSet{Sender: testSender, GuardOracle: testPool}},
		{"GuardDeactivated", []interface{}{testSender}, GuardDeactivated{Sender: testSender}},
		{"OracleAdapterSet", []interface{}{testSender, testPool}, OracleAdapterSet{Sender: testSender, OracleAdapter: testPool}},
		{"Paused", []interface{}{testSender}, Paused{Account: testSender}},
		{"Unpaused", []interface{}{testSender}, Unpaused{Account: testSender}},
		{"GatedAccessEnabled", []interface{}{testSender}, GatedAccessEnabled{Sender: testSender}},
		{"GatedAccessDisabled", []interface{}{testSender}, GatedAccessDisabled{Sender: testSender}},
		{"OwnershipTransferred", []interface{}{testSender, testRouter}, OwnershipTransferred{PreviousOwner: testSender, NewOwner: testRouter}},
		{"GateUpdated", []interface{}{testSender, testPool}, GateUpdated{Sender: testSender, Gate: testPool}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event, ok := DecodeEvent(portalLog(t, testPortal, tc.name, tc.values...))
			require.True(t, ok)
			assert.Equal(t, tc.want, event)
			assert.Equal(t, tc.name, event.EventName())
		})
	}
}

func TestDecodeEventSwap(t *testing.T) {
	tokenPath := []common.Address{testAsset, testPool}
	routerPath := []common.Address{testRouter}
	log := portalLog(t, testPortal, "ExactTokensForTokensSwapped",
		testSender, big.NewInt(100), big.NewInt(99), tokenPath, routerPath, testRouter)

	event, ok := DecodeEvent(log)
	require.True(t, ok)
	swap, ok := event.(ExactTokensForTokensSwapped)
	require.True(t, ok)
	assert.Equal(t, testSender, swap.Sender)
	assert.Equal(t, testRouter, swap.To)
	assert.Equal(t, 0, swap.AmountIn.Cmp(big.NewInt(100)))
	assert.Equal(t, 0, swap.AmountOut.Cmp(big.NewInt(99)))
	assert.Equal(t, tokenPath, swap.TokenPath)
	assert.Equal(t, routerPath, swap.RouterPath)
}

func TestDecodeEventUnknownTopic(t *testing.T) {
	log := types.Log{
		Address: testPortal,
		Topics:  []common.Hash{common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")},
	}
	_, ok := DecodeEvent(log)
	assert.False(t, ok)

	_, ok = DecodeEvent(types.Log{Address: testPortal})
	assert.False(t, ok)
}

func TestDecodeEventStructuralMismatch(t *testing.T) {
	log := portalLog(t, testPortal, "GateUpdated", testSender, testPool)
	log.Topics = log.Topics[:2]
	_, ok := DecodeEvent(log)
	assert.False(t, ok)

	paused := portalLog(t, testPortal, "Paused", testSender)
	paused.Data = paused.Data[:10]
	_, ok = DecodeEvent(paused)
	assert.False(t, ok)
}
