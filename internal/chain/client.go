package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	limiter   *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit caps outgoing requests at rps per second with the given burst.
// A non-positive rps leaves requests unthrottled.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, opts ...Option) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// wait blocks until the limiter admits one more request.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	return c.ethClient.BlockNumber(ctx)
}

// HeaderByNumber returns the block header by number.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.ethClient.HeaderByNumber(ctx, number)
}

// BlockReceipts returns the receipts of every transaction in a block.
func (c *Client) BlockReceipts(ctx context.Context, number uint64) ([]*types.Receipt, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.ethClient.BlockReceipts(ctx, rpc.BlockNumberOrHashWithNumber(rpc.BlockNumber(number)))
}

// AccountState is the part of a prestate trace entry this indexer reads.
type AccountState struct {
	Storage map[common.Hash]common.Hash `json:"storage,omitempty"`
}

// StateDiff is a prestateTracer result in diff mode. Pre holds the values of
// touched slots before the transaction, Post the values written by it. Slots
// cleared to zero are absent from Post.
type StateDiff struct {
	Pre  map[common.Address]AccountState `json:"pre"`
	Post map[common.Address]AccountState `json:"post"`
}

// TxStateDiff is the diff of one transaction of a traced block.
type TxStateDiff struct {
	TxHash common.Hash `json:"txHash"`
	Result StateDiff   `json:"result"`
}

var prestateDiffConfig = map[string]interface{}{
	"tracer":       "prestateTracer",
	"tracerConfig": map[string]interface{}{"diffMode": true},
}

// TraceStateDiff returns per-transaction storage diffs of a block using
// debug_traceBlockByNumber with the prestate tracer in diff mode.
func (c *Client) TraceStateDiff(ctx context.Context, number uint64) ([]TxStateDiff, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var diffs []TxStateDiff
	if err := c.rpcClient.CallContext(ctx, &diffs, "debug_traceBlockByNumber", hexutil.EncodeUint64(number), prestateDiffConfig); err != nil {
		return nil, err
	}
	return diffs, nil
}

// BlockData is everything fetched from the node to build one block.
type BlockData struct {
	Header   *types.Header
	Receipts []*types.Receipt
	Diffs    []TxStateDiff
}

// FetchBlockData loads the header, receipts and storage diffs of a block concurrently.
func (c *Client) FetchBlockData(ctx context.Context, number uint64) (*BlockData, error) {
	data := &BlockData{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		header, err := c.HeaderByNumber(gctx, new(big.Int).SetUint64(number))
		if err != nil {
			return fmt.Errorf("header: %w", err)
		}
		data.Header = header
		return nil
	})
	g.Go(func() error {
		receipts, err := c.BlockReceipts(gctx, number)
		if err != nil {
			return fmt.Errorf("receipts: %w", err)
		}
		data.Receipts = receipts
		return nil
	})
	g.Go(func() error {
		diffs, err := c.TraceStateDiff(gctx, number)
		if err != nil {
			return fmt.Errorf("trace: %w", err)
		}
		data.Diffs = diffs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}
