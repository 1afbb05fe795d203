package statediff

import (
	"github.com/ethereum/go-ethereum/common"

	"nablaScope/internal/model"
)

// Index gives slot-keyed access to the storage changes of one contract within
// one transaction while keeping their original order.
type Index struct {
	changes []model.StorageChange
	bySlot  map[common.Hash]int
}

// NewIndex indexes changes by slot key. When a slot appears more than once the
// first change wins.
func NewIndex(changes []model.StorageChange) *Index {
	bySlot := make(map[common.Hash]int, len(changes))
	for i, change := range changes {
		if _, ok := bySlot[change.Key]; ok {
			continue
		}
		bySlot[change.Key] = i
	}
	return &Index{changes: changes, bySlot: bySlot}
}

// Lookup returns the change written to slot.
func (idx *Index) Lookup(slot common.Hash) (model.StorageChange, bool) {
	i, ok := idx.bySlot[slot]
	if !ok {
		return model.StorageChange{}, false
	}
	return idx.changes[i], true
}

// Changes returns the indexed changes in their original order.
func (idx *Index) Changes() []model.StorageChange {
	return idx.changes
}

// Len returns the number of indexed changes.
func (idx *Index) Len() int {
	return len(idx.changes)
}
