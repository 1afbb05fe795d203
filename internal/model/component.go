package model

import (
	"fmt"
	"strings"
)

// ComponentKind classifies a tracked contract.
type ComponentKind string

const (
	KindPortal   ComponentKind = "portal"
	KindRouter   ComponentKind = "router"
	KindSwapPool ComponentKind = "swap_pool"
)

// ParseComponentKind converts a stored kind name.
func ParseComponentKind(input string) (ComponentKind, error) {
	switch ComponentKind(strings.ToLower(strings.TrimSpace(input))) {
	case KindPortal:
		return KindPortal, nil
	case KindRouter:
		return KindRouter, nil
	case KindSwapPool:
		return KindSwapPool, nil
	default:
		return "", fmt.Errorf("unknown component kind: %q", input)
	}
}

// Component is a contract instance registered for tracking.
type Component struct {
	ID               string        `json:"id"`
	Kind             ComponentKind `json:"kind"`
	Tokens           []string      `json:"tokens,omitempty"`
	StaticAttributes []Attribute   `json:"static_attributes,omitempty"`
	CreatedTx        string        `json:"created_tx,omitempty"`
	CreatedBlock     uint64        `json:"created_block,omitempty"`
}
