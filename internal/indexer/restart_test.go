package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nablaScope/internal/model"
	"nablaScope/internal/nabla"
	"nablaScope/internal/registry"
	"nablaScope/internal/slots"
	"nablaScope/internal/storage"
)

type archivedSource struct {
	blocks map[uint64]model.Block
}

func (s *archivedSource) FetchBlock(ctx context.Context, number uint64) (model.Block, error) {
	block, ok := s.blocks[number]
	if !ok {
		return model.Block{}, fmt.Errorf("block %d not archived", number)
	}
	return block, nil
}

func (s *archivedSource) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return 3, nil
}

func pausedLog(t *testing.T, portal, account common.Address) types.Log {
	t.Helper()
	portalABI, err := nabla.PortalABI()
	require.NoError(t, err)
	event := portalABI.Events["Paused"]
	data, err := event.Inputs.NonIndexed().Pack(account)
	require.NoError(t, err)
	return types.Log{Address: portal, Topics: []common.Hash{event.ID}, Data: data}
}

func TestRunnerRestartKeepsRegisteredPortal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	portal := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	deployTx := common.HexToHash("0xd0")
	account := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	var paused common.Hash
	paused[11] = 1
	source := &archivedSource{blocks: map[uint64]model.Block{
		1: {Number: 1, Transactions: []model.Transaction{{Hash: deployTx}}},
		2: {Number: 2, Transactions: []model.Transaction{{
			Hash:           common.HexToHash("0xd1"),
			Logs:           []types.Log{pausedLog(t, portal, account)},
			StorageChanges: []model.StorageChange{{Address: portal, Key: slots.SlotAt(0), NewValue: paused}},
		}}},
		3: {Number: 3, Transactions: []model.Transaction{{
			Hash:           common.HexToHash("0xd2"),
			Logs:           []types.Log{pausedLog(t, portal, account)},
			StorageChanges: []model.StorageChange{{Address: portal, Key: slots.SlotAt(0), NewValue: paused}},
		}}},
	}}

	cfg := nabla.ProcessorConfig{Portal: portal, PortalDeployTx: deployTx}
	componentPath := filepath.Join(dir, "components.jsonl")
	checkpointPath := filepath.Join(dir, "checkpoint.json")

	run := func(to uint64) *memorySink {
		components := registry.NewStore(storage.NewJsonlStorage(componentPath), nil)
		require.NoError(t, components.Load(ctx))
		sink := &memorySink{}
		state := NewCheckpointStore(checkpointPath, portal.Hex(), true)
		processor := nabla.NewProcessor(cfg, nil, components, nil)
		require.NoError(t, NewRunner(testRunConfig(1, to), source, processor, sink, nil, state, nil).Run(ctx))
		return sink
	}

	first := run(2)
	require.Len(t, first.changes, 2)
	require.Len(t, first.changes[0].Changes, 1)
	assert.Len(t, first.changes[0].Changes[0].Components, 1)

	second := run(3)
	require.Len(t, second.changes, 1)
	assert.Equal(t, uint64(3), second.changes[0].BlockNumber)
	require.Len(t, second.changes[0].Changes, 1)
	tx := second.changes[0].Changes[0]
	assert.Empty(t, tx.Components)
	require.Len(t, tx.EntityChanges, 1)
	assert.Equal(t, model.ComponentID(portal), tx.EntityChanges[0].ComponentID)
	require.Len(t, tx.EntityChanges[0].Attributes, 1)
	assert.Equal(t, "paused", tx.EntityChanges[0].Attributes[0].Name)
}
