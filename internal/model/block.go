package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Block is one block of the input stream with per-transaction logs and storage diffs.
type Block struct {
	Number       uint64        `json:"number"`
	Hash         common.Hash   `json:"hash"`
	Timestamp    uint64        `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
}

// Transaction carries the logs a transaction emitted and the storage slots it changed.
type Transaction struct {
	Hash           common.Hash     `json:"hash"`
	Index          uint            `json:"index"`
	Logs           []types.Log     `json:"logs"`
	StorageChanges []StorageChange `json:"storage_changes"`
}
