package model

// TransactionChanges is the output of one transaction: newly registered components
// and the entity changes decoded from its logs.
type TransactionChanges struct {
	TxHash        string          `json:"tx_hash"`
	TxIndex       uint            `json:"tx_index"`
	Components    []Component     `json:"components,omitempty"`
	EntityChanges []EntityChanges `json:"entity_changes"`
}

// BlockChanges is the output of one block.
type BlockChanges struct {
	BlockNumber uint64               `json:"block_number"`
	BlockHash   string               `json:"block_hash"`
	Timestamp   uint64               `json:"timestamp"`
	Changes     []TransactionChanges `json:"changes"`
}
