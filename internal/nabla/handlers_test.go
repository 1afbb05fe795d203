package nabla

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"nablaScope/internal/model"
	"nablaScope/internal/slots"
	"nablaScope/internal/statediff"
)

func handle(t *testing.T, caller Caller, name string, changes []model.StorageChange, values ...interface{}) ([]model.EntityChanges, error) {
	t.Helper()
	log := portalLog(t, testPortal, name, values...)
	event, ok := DecodeEvent(log)
	require.True(t, ok)
	return EntityChanges(event, HandlerContext{
		Context:     context.Background(),
		Chain:       caller,
		BlockNumber: 100,
		Log:         &log,
	}, changes)
}

func TestPausedEntityChanges(t *testing.T) {
	changes := []model.StorageChange{{
		Address:  testPortal,
		Key:      slots.SlotAt(0),
		OldValue: hashWithByte(11, 0x00),
		NewValue: hashWithByte(11, 0x01),
	}}

	got, err := handle(t, nil, "Paused", changes, testSender)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.ComponentID(testPortal), got[0].ComponentID)
	assert.Equal(t, []model.Attribute{{Name: "paused", Value: []byte{0x01}, Change: model.ChangeUpdate}}, got[0].Attributes)
}

func TestPassiveEventWithoutChange(t *testing.T) {
	got, err := handle(t, nil, "Unpaused", nil, testSender)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.ComponentID(testPortal), got[0].ComponentID)
	assert.Empty(t, got[0].Attributes)
}

func TestPassiveEventLocations(t *testing.T) {
	newAddr := common.HexToAddress("0x000000000000000000000000000000000000beef")
	addrWord := slots.PadAddress(newAddr)
	boolWord := hashWithByte(11, 0x01)

	cases := []struct {
		event  string
		values []interface{}
		slot   common.Hash
		value  common.Hash
		name   string
		want   []byte
	}{
		{"GateUpdated", []interface{}{testSender, newAddr}, slots.SlotAt(2), addrWord, "gate", newAddr.Bytes()},
		{"GatedAccessEnabled", []interface{}{testSender}, slots.SlotAt(2), boolWord, "gated", []byte{0x01}},
		{"OracleAdapterSet", []interface{}{testSender, newAddr}, slots.SlotAt(3), addrWord, "oracle_adapter", newAddr.Bytes()},
		{"GuardOracleSet", []interface{}{testSender, newAddr}, slots.SlotAt(4), addrWord, "guard_oracle", newAddr.Bytes()},
		{"GuardActivated", []interface{}{testSender}, slots.SlotAt(4), boolWord, "guard_on", []byte{0x01}},
		{"OwnershipTransferred", []interface{}{testSender, newAddr}, slots.SlotAt(0), addrWord, "owner", newAddr.Bytes()},
	}

	for _, tc := range cases {
		t.Run(tc.event, func(t *testing.T) {
			changes := []model.StorageChange{{Address: testPortal, Key: tc.slot, NewValue: tc.value}}
			got, err := handle(t, nil, tc.event, changes, tc.values...)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, []model.Attribute{{Name: tc.name, Value: tc.want, Change: model.ChangeUpdate}}, got[0].Attributes)
		})
	}
}

func TestSwapEventPlaceholder(t *testing.T) {
	got, err := handle(t, nil, "EthForExactTokensSwapped", nil,
		testSender, big.NewInt(1), big.NewInt(2), []common.Address{testAsset}, []common.Address{testRouter}, testSender)
	require.NoError(t, err)
	assert.Equal(t, []model.EntityChanges{{ComponentID: model.ComponentID(testPortal), Attributes: []model.Attribute{}}}, got)
}

// registrationChanges is the storage diff of registering testAsset on testRouter
// as the first router and first asset.
func registrationChanges() []model.StorageChange {
	one := uint256.NewInt(1)
	routersHeader := slots.SlotAt(6)
	routerAssetsHeader := slots.NestedMappingSlot(slots.SlotAt(7), slots.PadAddress(testRouter))
	assetsByRouter := slots.NestedMappingSlot(slots.SlotAt(8), slots.PadAddress(testRouter), slots.PadAddress(testAsset))

	return []model.StorageChange{
		{Address: testPortal, Key: routersHeader, NewValue: word(1)},
		{Address: testPortal, Key: slots.ArrayElementSlot(routersHeader, one), NewValue: slots.PadAddress(testRouter)},
		{Address: testPortal, Key: routerAssetsHeader, NewValue: word(1)},
		{Address: testPortal, Key: slots.ArrayElementSlot(routerAssetsHeader, one), NewValue: slots.PadAddress(testAsset)},
		{Address: testPortal, Key: assetsByRouter, NewValue: word(1)},
	}
}

func TestAssetRegisteredEntityChanges(t *testing.T) {
	caller := poolCaller(t)
	got, err := handle(t, caller, "AssetRegistered", registrationChanges(), testSender, testAsset, testRouter)
	require.NoError(t, err)
	require.Len(t, got, 3)

	routerAsset, err := encodeRouterAsset(testRouter, testAsset)
	require.NoError(t, err)
	assetByRouter, err := encodeAssetByRouter(testRouter, testAsset, true)
	require.NoError(t, err)

	assert.Equal(t, model.ComponentID(testPortal), got[0].ComponentID)
	assert.Equal(t, []model.Attribute{
		{Name: "routers", Value: testRouter.Bytes(), Change: model.ChangeUpdate},
		{Name: "routerAssets", Value: routerAsset, Change: model.ChangeUpdate},
		{Name: "assetsByRouter", Value: assetByRouter, Change: model.ChangeUpdate},
	}, got[0].Attributes)

	assert.Equal(t, model.EntityChanges{ComponentID: model.ComponentID(testRouter), Attributes: []model.Attribute{}}, got[1])

	assert.Equal(t, model.ComponentID(testPool), got[2].ComponentID)
	assert.Equal(t, []model.Attribute{
		{Name: "reserves", Value: common.LeftPadBytes(big.NewInt(1000).Bytes(), 32), Change: model.ChangeCreation},
		{Name: "liabilities", Value: common.LeftPadBytes(big.NewInt(900).Bytes(), 32), Change: model.ChangeCreation},
		{Name: "pool_cap", Value: common.LeftPadBytes(big.NewInt(5000).Bytes(), 32), Change: model.ChangeCreation},
		{Name: "max_coverage_ratio_for_swap_in", Value: common.LeftPadBytes(big.NewInt(200).Bytes(), 32), Change: model.ChangeCreation},
		{Name: "paused", Value: []byte{0x00}, Change: model.ChangeCreation},
		{Name: "is_gated", Value: []byte{0x01}, Change: model.ChangeCreation},
	}, got[2].Attributes)
}

func TestAssetRegisteredTupleEncoding(t *testing.T) {
	encoded, err := encodeAssetByRouter(testRouter, testAsset, true)
	require.NoError(t, err)
	require.Len(t, encoded, 96)
	assert.Equal(t, slots.PadAddress(testRouter).Bytes(), encoded[:32])
	assert.Equal(t, slots.PadAddress(testAsset).Bytes(), encoded[32:64])
	assert.Equal(t, word(1).Bytes(), encoded[64:])
}

func TestAssetRegisteredIsDeterministic(t *testing.T) {
	first, err := handle(t, poolCaller(t), "AssetRegistered", registrationChanges(), testSender, testAsset, testRouter)
	require.NoError(t, err)
	second, err := handle(t, poolCaller(t), "AssetRegistered", registrationChanges(), testSender, testAsset, testRouter)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssetRegisteredMissingRouterElement(t *testing.T) {
	changes := []model.StorageChange{{Address: testPortal, Key: slots.SlotAt(6), NewValue: word(1)}}
	_, err := handle(t, poolCaller(t), "AssetRegistered", changes, testSender, testAsset, testRouter)
	require.Error(t, err)

	var missing *statediff.MissingDerivedSlotError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "routers", missing.Name)
	assert.Equal(t, slots.ArrayElementSlot(slots.SlotAt(6), uint256.NewInt(1)), missing.Derived)
	assert.False(t, IsRetryable(err))
}

func TestAssetRegisteredCallFailureIsFatal(t *testing.T) {
	caller := newFakeCaller()
	caller.err = errors.New("connection reset")
	_, err := handle(t, caller, "AssetRegistered", registrationChanges(), testSender, testAsset, testRouter)
	require.Error(t, err)

	var unavailable *CallUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "poolByAsset", unavailable.Method)
	assert.Equal(t, testRouter, unavailable.Contract)
	assert.True(t, IsRetryable(err))
}

func TestAssetUnregisteredDeletion(t *testing.T) {
	slot := slots.NestedMappingSlot(slots.SlotAt(8), slots.PadAddress(testRouter), slots.PadAddress(testAsset))
	changes := []model.StorageChange{{Address: testPortal, Key: slot, OldValue: word(1), NewValue: word(0)}}

	got, err := handle(t, nil, "AssetUnregistered", changes, testSender, testAsset, testRouter)
	require.NoError(t, err)
	require.Len(t, got, 1)

	encoded, err := encodeAssetByRouter(testRouter, testAsset, false)
	require.NoError(t, err)
	assert.Equal(t, []model.Attribute{{Name: "assetsByRouter", Value: encoded, Change: model.ChangeDeletion}}, got[0].Attributes)
}

func TestWordBytesNegative(t *testing.T) {
	got := wordBytes(big.NewInt(-1))
	require.Len(t, got, 32)
	for _, b := range got {
		assert.Equal(t, byte(0xff), b)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(slots.ErrSchemaMismatch))
	assert.False(t, IsRetryable(&slots.BoundsError{Offset: 31, Width: 20, Size: 32}))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(&CallUnavailableError{Method: "coverage", Err: errors.New("timeout")}))
	assert.True(t, IsRetryable(errors.New("dial tcp: i/o timeout")))
}

func TestSchema(t *testing.T) {
	portal := Schema(model.KindPortal)
	require.Len(t, portal, 10)
	assert.Equal(t, "owner", portal[0].Name)
	assert.Equal(t, "assetsByRouter", portal[len(portal)-1].Name)
	assert.Nil(t, Schema(model.KindRouter))
	assert.Nil(t, Schema(model.KindSwapPool))
}

func TestTwoRegistrationsInOneTransaction(t *testing.T) {
	secondRouter := common.HexToAddress("0x0000000000000000000000000000000000005555")
	routersHeader := slots.SlotAt(6)

	changes := registrationChanges()
	changes[0] = model.StorageChange{Address: testPortal, Key: routersHeader, NewValue: word(2)}
	changes = append(changes, model.StorageChange{
		Address:  testPortal,
		Key:      slots.ArrayElementSlot(routersHeader, uint256.NewInt(2)),
		NewValue: slots.PadAddress(secondRouter),
	})

	core, logs := observer.New(zap.WarnLevel)
	log := portalLog(t, testPortal, "AssetRegistered", testSender, testAsset, testRouter)
	event, ok := DecodeEvent(log)
	require.True(t, ok)
	got, err := EntityChanges(event, HandlerContext{
		Context:     context.Background(),
		Chain:       poolCaller(t),
		BlockNumber: 100,
		Log:         &log,
		Logger:      zap.New(core),
	}, changes)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// the net diff only exposes the last appended router
	require.NotEmpty(t, got[0].Attributes)
	assert.Equal(t, model.Attribute{Name: "routers", Value: secondRouter.Bytes(), Change: model.ChangeUpdate}, got[0].Attributes[0])

	warnings := logs.FilterMessageSnippet("only the newest is resolvable").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "routers", warnings[0].ContextMap()["location"])
	assert.Equal(t, uint64(2), warnings[0].ContextMap()["appended"])
}
