package model

import "github.com/ethereum/go-ethereum/common"

// StorageChange is an observed old/new pair for one slot of one contract within a transaction.
type StorageChange struct {
	Address  common.Address `json:"address"`
	Key      common.Hash    `json:"key"`
	OldValue common.Hash    `json:"old_value"`
	NewValue common.Hash    `json:"new_value"`
}

// FilterByAddress returns the changes scoped to address, preserving order.
func FilterByAddress(changes []StorageChange, address common.Address) []StorageChange {
	out := make([]StorageChange, 0, len(changes))
	for _, change := range changes {
		if change.Address == address {
			out = append(out, change)
		}
	}
	return out
}
