package statediff

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MissingDerivedSlotError reports a container write whose dependent element or
// value slot was not written in the same transaction.
type MissingDerivedSlotError struct {
	Name      string
	Container common.Hash
	Derived   common.Hash
}

func (e *MissingDerivedSlotError) Error() string {
	return fmt.Sprintf("%s: container slot %s changed but derived slot %s has no write", e.Name, e.Container.Hex(), e.Derived.Hex())
}
