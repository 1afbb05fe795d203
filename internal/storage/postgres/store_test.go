package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nablaScope/internal/model"
)

func TestEntityChangesBatchReplacesBlockRows(t *testing.T) {
	router := model.Component{ID: "0xrouter", Kind: model.KindRouter, CreatedTx: "0x0a", CreatedBlock: 5}
	changes := []model.BlockChanges{
		{
			BlockNumber: 5,
			BlockHash:   "0x05",
			Changes: []model.TransactionChanges{{
				TxHash:     "0x0a",
				TxIndex:    2,
				Components: []model.Component{router},
				EntityChanges: []model.EntityChanges{
					{ComponentID: "0xportal", Attributes: []model.Attribute{{Name: "routers", Value: []byte{1}, Change: model.ChangeUpdate}}},
					{ComponentID: "0xrouter"},
				},
			}},
		},
		{BlockNumber: 6, BlockHash: "0x06"},
	}

	batch, components, err := entityChangesBatch(changes)
	require.NoError(t, err)
	assert.Equal(t, []model.Component{router}, components)
	require.Equal(t, 4, batch.Len())

	queries := batch.QueuedQueries
	assert.True(t, strings.HasPrefix(queries[0].SQL, "DELETE FROM entity_changes"))
	assert.Equal(t, []any{int64(5)}, queries[0].Arguments)

	for seq, query := range queries[1:3] {
		assert.Contains(t, query.SQL, "INSERT INTO entity_changes")
		assert.NotContains(t, query.SQL, "ON CONFLICT")
		require.Len(t, query.Arguments, 7)
		assert.Equal(t, int64(5), query.Arguments[0])
		assert.Equal(t, "0x0a", query.Arguments[2])
		assert.Equal(t, int64(2), query.Arguments[3])
		assert.Equal(t, seq, query.Arguments[4])
	}

	var empty []model.Attribute
	require.NoError(t, json.Unmarshal(queries[2].Arguments[6].([]byte), &empty))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	// a block whose output shrank to nothing still clears its old rows
	assert.True(t, strings.HasPrefix(queries[3].SQL, "DELETE FROM entity_changes"))
	assert.Equal(t, []any{int64(6)}, queries[3].Arguments)
}
