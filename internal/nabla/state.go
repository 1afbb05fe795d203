package nabla

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"nablaScope/internal/model"
)

// Caller executes read-only contract calls at a block height.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// SwapPoolMeta holds the immutable descriptors of a swap pool.
type SwapPoolMeta struct {
	Asset  common.Address
	Name   string
	Symbol string
}

func callMethod(ctx context.Context, caller Caller, contract common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	if caller == nil {
		return nil, &CallUnavailableError{Contract: contract, Method: method, Err: fmt.Errorf("no chain caller")}
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &contract, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, &CallUnavailableError{Contract: contract, Method: method, Err: err}
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, &CallUnavailableError{Contract: contract, Method: method, Err: fmt.Errorf("unpack: %w", err)}
	}
	return values, nil
}

// PoolByAsset asks a router for the swap pool serving asset.
func PoolByAsset(ctx context.Context, caller Caller, router, asset common.Address, block *big.Int) (common.Address, error) {
	routerABI, err := RouterABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse router abi: %w", err)
	}
	values, err := callMethod(ctx, caller, router, routerABI, "poolByAsset", block, asset)
	if err != nil {
		return common.Address{}, err
	}
	pool, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("poolByAsset: %w", err)
	}
	return pool, nil
}

// ReadRouterState returns the router's state attributes. Routers expose no
// tracked state yet, so the set is empty.
func ReadRouterState(ctx context.Context, caller Caller, router common.Address, block *big.Int) ([]model.Attribute, error) {
	return []model.Attribute{}, nil
}

// ReadSwapPoolState reads the full tracked state of a swap pool. Numbers are
// encoded as 32-byte two's complement words and booleans as a single byte.
func ReadSwapPoolState(ctx context.Context, caller Caller, pool common.Address, block *big.Int) ([]model.Attribute, error) {
	poolABI, err := SwapPoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse swap pool abi: %w", err)
	}

	values, err := callMethod(ctx, caller, pool, poolABI, "coverage", block)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("coverage: expected 2 values, got %d", len(values))
	}
	reserves, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("reserves: %w", err)
	}
	liabilities, err := asBigInt(values[1])
	if err != nil {
		return nil, fmt.Errorf("liabilities: %w", err)
	}

	poolCap, err := readUint(ctx, caller, pool, poolABI, "poolCap", block)
	if err != nil {
		return nil, err
	}
	maxCoverage, err := readUint(ctx, caller, pool, poolABI, "maxCoverageRatioForSwapIn", block)
	if err != nil {
		return nil, err
	}
	paused, err := readBool(ctx, caller, pool, poolABI, "paused", block)
	if err != nil {
		return nil, err
	}
	gated, err := readBool(ctx, caller, pool, poolABI, "isGated", block)
	if err != nil {
		return nil, err
	}

	return []model.Attribute{
		created("reserves", wordBytes(reserves)),
		created("liabilities", wordBytes(liabilities)),
		created("pool_cap", wordBytes(poolCap)),
		created("max_coverage_ratio_for_swap_in", wordBytes(maxCoverage)),
		created("paused", boolBytes(paused)),
		created("is_gated", boolBytes(gated)),
	}, nil
}

// ReadSwapPoolMeta reads the asset and ERC20 descriptors of a swap pool.
func ReadSwapPoolMeta(ctx context.Context, caller Caller, pool common.Address, block *big.Int) (SwapPoolMeta, error) {
	poolABI, err := SwapPoolABI()
	if err != nil {
		return SwapPoolMeta{}, fmt.Errorf("parse swap pool abi: %w", err)
	}
	values, err := callMethod(ctx, caller, pool, poolABI, "asset", block)
	if err != nil {
		return SwapPoolMeta{}, err
	}
	asset, err := asAddress(values[0])
	if err != nil {
		return SwapPoolMeta{}, fmt.Errorf("asset: %w", err)
	}
	name, err := readString(ctx, caller, pool, poolABI, "name", block)
	if err != nil {
		return SwapPoolMeta{}, err
	}
	symbol, err := readString(ctx, caller, pool, poolABI, "symbol", block)
	if err != nil {
		return SwapPoolMeta{}, err
	}
	return SwapPoolMeta{Asset: asset, Name: name, Symbol: symbol}, nil
}

func readUint(ctx context.Context, caller Caller, contract common.Address, parsed abi.ABI, method string, block *big.Int) (*big.Int, error) {
	values, err := callMethod(ctx, caller, contract, parsed, method, block)
	if err != nil {
		return nil, err
	}
	v, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return v, nil
}

func readBool(ctx context.Context, caller Caller, contract common.Address, parsed abi.ABI, method string, block *big.Int) (bool, error) {
	values, err := callMethod(ctx, caller, contract, parsed, method, block)
	if err != nil {
		return false, err
	}
	v, err := asBool(values[0])
	if err != nil {
		return false, fmt.Errorf("%s: %w", method, err)
	}
	return v, nil
}

func readString(ctx context.Context, caller Caller, contract common.Address, parsed abi.ABI, method string, block *big.Int) (string, error) {
	values, err := callMethod(ctx, caller, contract, parsed, method, block)
	if err != nil {
		return "", err
	}
	v, err := asString(values[0])
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	return v, nil
}

func created(name string, value []byte) model.Attribute {
	return model.Attribute{Name: name, Value: value, Change: model.ChangeCreation}
}

// wordBytes encodes v as a 256-bit big-endian two's complement word.
func wordBytes(v *big.Int) []byte {
	return math.U256Bytes(new(big.Int).Set(v))
}

func boolBytes(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}
