package model

// DecodeError records a block that failed to process during replay.
type DecodeError struct {
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	Error       string `json:"error"`
}
