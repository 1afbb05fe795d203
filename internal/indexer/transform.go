package indexer

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"nablaScope/internal/chain"
	"nablaScope/internal/model"
)

// buildBlock assembles a block from its header, receipts and per-transaction
// storage diffs. Diffs are matched by transaction hash, or by position when
// the node omits the hash.
func buildBlock(data *chain.BlockData) (model.Block, error) {
	if data == nil || data.Header == nil {
		return model.Block{}, fmt.Errorf("block data is incomplete")
	}
	if len(data.Diffs) != len(data.Receipts) {
		return model.Block{}, fmt.Errorf("trace count %d does not match receipt count %d", len(data.Diffs), len(data.Receipts))
	}

	byHash := make(map[common.Hash]chain.StateDiff, len(data.Diffs))
	for _, diff := range data.Diffs {
		if diff.TxHash != (common.Hash{}) {
			byHash[diff.TxHash] = diff.Result
		}
	}

	block := model.Block{
		Number:       data.Header.Number.Uint64(),
		Hash:         data.Header.Hash(),
		Timestamp:    data.Header.Time,
		Transactions: make([]model.Transaction, 0, len(data.Receipts)),
	}
	for i, receipt := range data.Receipts {
		if receipt == nil {
			return model.Block{}, fmt.Errorf("receipt %d is nil", i)
		}
		diff, ok := byHash[receipt.TxHash]
		if !ok {
			if data.Diffs[i].TxHash != (common.Hash{}) {
				return model.Block{}, fmt.Errorf("no trace for tx %s", receipt.TxHash.Hex())
			}
			diff = data.Diffs[i].Result
		}
		if receipt.BlockHash != (common.Hash{}) {
			block.Hash = receipt.BlockHash
		}

		tx := model.Transaction{
			Hash:           receipt.TxHash,
			Index:          receipt.TransactionIndex,
			Logs:           make([]types.Log, 0, len(receipt.Logs)),
			StorageChanges: storageChanges(diff),
		}
		for _, log := range receipt.Logs {
			if log != nil {
				tx.Logs = append(tx.Logs, *log)
			}
		}
		block.Transactions = append(block.Transactions, tx)
	}
	return block, nil
}

// storageChanges flattens a diff-mode trace into slot changes sorted by
// (address, slot). A slot missing from pre was zero; a slot missing from post
// was cleared.
func storageChanges(diff chain.StateDiff) []model.StorageChange {
	var changes []model.StorageChange
	for _, address := range touchedAccounts(diff) {
		pre := diff.Pre[address].Storage
		post := diff.Post[address].Storage

		touched := make(map[common.Hash]struct{}, len(pre)+len(post))
		for slot := range pre {
			touched[slot] = struct{}{}
		}
		for slot := range post {
			touched[slot] = struct{}{}
		}
		keys := make([]common.Hash, 0, len(touched))
		for slot := range touched {
			keys = append(keys, slot)
		}
		sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })

		for _, slot := range keys {
			oldValue := pre[slot]
			newValue := post[slot]
			if oldValue == newValue {
				continue
			}
			changes = append(changes, model.StorageChange{
				Address:  address,
				Key:      slot,
				OldValue: oldValue,
				NewValue: newValue,
			})
		}
	}
	return changes
}

func touchedAccounts(diff chain.StateDiff) []common.Address {
	seen := make(map[common.Address]struct{}, len(diff.Pre)+len(diff.Post))
	for address := range diff.Pre {
		seen[address] = struct{}{}
	}
	for address := range diff.Post {
		seen[address] = struct{}{}
	}
	out := make([]common.Address, 0, len(seen))
	for address := range seen {
		out = append(out, address)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}
