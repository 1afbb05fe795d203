package chain

import (
	"context"
	"encoding/binary"
	"math/big"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum"
)

// ContractCaller executes read-only contract calls at a block height.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// CachedCaller memoizes eth_call results pinned to a block number. Calls
// against the latest block or without a target are passed through.
type CachedCaller struct {
	inner ContractCaller
	cache *fastcache.Cache
}

// NewCachedCaller wraps inner with a cache of roughly maxBytes.
func NewCachedCaller(inner ContractCaller, maxBytes int) *CachedCaller {
	return &CachedCaller{inner: inner, cache: fastcache.New(maxBytes)}
}

func (c *CachedCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	key, ok := callKey(msg, blockNumber)
	if !ok {
		return c.inner.CallContract(ctx, msg, blockNumber)
	}
	if cached, found := c.cache.HasGet(nil, key); found {
		return cached, nil
	}

	result, err := c.inner.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, result)
	return result, nil
}

// Reset drops every cached result.
func (c *CachedCaller) Reset() {
	c.cache.Reset()
}

// callKey is block(8) | to(20) | from(20) | calldata.
func callKey(msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, bool) {
	if msg.To == nil || blockNumber == nil || blockNumber.Sign() < 0 || !blockNumber.IsUint64() {
		return nil, false
	}
	key := make([]byte, 0, 48+len(msg.Data))
	key = binary.BigEndian.AppendUint64(key, blockNumber.Uint64())
	key = append(key, msg.To.Bytes()...)
	key = append(key, msg.From.Bytes()...)
	key = append(key, msg.Data...)
	return key, true
}
