package model

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ChangeType classifies an attribute change.
type ChangeType string

const (
	ChangeCreation ChangeType = "creation"
	ChangeUpdate   ChangeType = "update"
	ChangeDeletion ChangeType = "deletion"
)

// Attribute is a named state value of a component.
type Attribute struct {
	Name   string        `json:"name"`
	Value  hexutil.Bytes `json:"value"`
	Change ChangeType    `json:"change"`
}

// EntityChanges groups the attribute changes of one component in one transaction.
type EntityChanges struct {
	ComponentID string      `json:"component_id"`
	Attributes  []Attribute `json:"attributes"`
}

// ComponentID renders an address as the lower-case 0x-prefixed component key.
func ComponentID(address common.Address) string {
	return strings.ToLower(address.Hex())
}
