package nabla

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var (
	testPortal = common.HexToAddress("0xcB94Eee869a2041F3B44da423F78134aFb6b676B")
	testSender = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testRouter = common.HexToAddress("0x0000000000000000000000000000000000001111")
	testAsset  = common.HexToAddress("0x0000000000000000000000000000000000002222")
	testPool   = common.HexToAddress("0x0000000000000000000000000000000000003333")
)

// fakeCaller answers eth_call requests from canned ABI-encoded responses.
type fakeCaller struct {
	responses map[string][]byte
	calls     []string
	err       error
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{responses: make(map[string][]byte)}
}

func callKey(to common.Address, selector []byte) string {
	return fmt.Sprintf("%s/%x", to.Hex(), selector)
}

func (f *fakeCaller) respond(t *testing.T, to common.Address, parsed abi.ABI, method string, outputs ...interface{}) {
	t.Helper()
	m, ok := parsed.Methods[method]
	require.True(t, ok, method)
	data, err := m.Outputs.Pack(outputs...)
	require.NoError(t, err)
	f.responses[callKey(to, m.ID)] = data
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("malformed call")
	}
	key := callKey(*msg.To, msg.Data[:4])
	f.calls = append(f.calls, key)
	data, ok := f.responses[key]
	if !ok {
		return nil, fmt.Errorf("execution reverted: %s", key)
	}
	return data, nil
}

// poolCaller serves poolByAsset and the swap pool reads used on registration.
func poolCaller(t *testing.T) *fakeCaller {
	t.Helper()
	routerABI, err := RouterABI()
	require.NoError(t, err)
	poolABI, err := SwapPoolABI()
	require.NoError(t, err)

	caller := newFakeCaller()
	caller.respond(t, testRouter, routerABI, "poolByAsset", testPool)
	caller.respond(t, testPool, poolABI, "asset", testAsset)
	caller.respond(t, testPool, poolABI, "name", "Nabla USDC")
	caller.respond(t, testPool, poolABI, "symbol", "nUSDC")
	caller.respond(t, testPool, poolABI, "coverage", big.NewInt(1000), big.NewInt(900))
	caller.respond(t, testPool, poolABI, "poolCap", big.NewInt(5000))
	caller.respond(t, testPool, poolABI, "maxCoverageRatioForSwapIn", big.NewInt(200))
	caller.respond(t, testPool, poolABI, "paused", false)
	caller.respond(t, testPool, poolABI, "isGated", true)
	return caller
}

// portalLog builds a log for a portal event. indexed values become topics in
// declaration order; the rest are packed into data.
func portalLog(t *testing.T, address common.Address, name string, values ...interface{}) types.Log {
	t.Helper()
	portal, err := PortalABI()
	require.NoError(t, err)
	event, ok := portal.Events[name]
	require.True(t, ok, name)
	require.Len(t, values, len(event.Inputs))

	topics := []common.Hash{event.ID}
	var data []interface{}
	for i, input := range event.Inputs {
		if input.Indexed {
			addr, ok := values[i].(common.Address)
			require.True(t, ok, "indexed %s must be an address", input.Name)
			topics = append(topics, common.BytesToHash(addr.Bytes()))
			continue
		}
		data = append(data, values[i])
	}
	packed, err := event.Inputs.NonIndexed().Pack(data...)
	require.NoError(t, err)
	return types.Log{Address: address, Topics: topics, Data: packed}
}

func word(last byte) common.Hash {
	var h common.Hash
	h[31] = last
	return h
}

func hashWithByte(index int, value byte) common.Hash {
	var h common.Hash
	h[index] = value
	return h
}
