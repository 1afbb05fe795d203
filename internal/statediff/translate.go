package statediff

import (
	"math"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"nablaScope/internal/model"
	"nablaScope/internal/slots"
)

// NewValueIfChanged compares the window of typ's width at offset in the old and
// new words and returns the new window when they differ.
func NewValueIfChanged(change model.StorageChange, offset int, typ *slots.StorageType) ([]byte, bool, error) {
	width := typ.ByteWidth()
	oldValue, err := slots.ReadBytes(change.OldValue.Bytes(), offset, width)
	if err != nil {
		return nil, false, errors.Wrapf(err, "slot %s old value", change.Key.Hex())
	}
	newValue, err := slots.ReadBytes(change.NewValue.Bytes(), offset, width)
	if err != nil {
		return nil, false, errors.Wrapf(err, "slot %s new value", change.Key.Hex())
	}
	if string(oldValue) == string(newValue) {
		return nil, false, nil
	}
	return copyBytes(newValue), true, nil
}

// ExtractAttribute returns an update attribute for loc when change targets
// loc's slot and the field window changed. It returns nil otherwise.
func ExtractAttribute(change model.StorageChange, loc slots.Location) (*model.Attribute, error) {
	if change.Key != loc.Slot {
		return nil, nil
	}
	value, changed, err := NewValueIfChanged(change, loc.Offset, loc.Type)
	if err != nil {
		return nil, errors.Wrapf(err, "extract %s", loc.Name)
	}
	if !changed {
		return nil, nil
	}
	return &model.Attribute{Name: loc.Name, Value: value, Change: model.ChangeUpdate}, nil
}

// ExtractAttributes collects attributes for each location in declaration order.
func ExtractAttributes(idx *Index, locations []slots.Location) ([]model.Attribute, error) {
	attributes := make([]model.Attribute, 0, len(locations))
	for _, loc := range locations {
		change, ok := idx.Lookup(loc.Slot)
		if !ok {
			continue
		}
		attr, err := ExtractAttribute(change, loc)
		if err != nil {
			return nil, err
		}
		if attr != nil {
			attributes = append(attributes, *attr)
		}
	}
	return attributes, nil
}

// NewestElement resolves the element appended to the dynamic array at loc,
// given the change to the array's length header. Only the last element is
// resolvable; several appends in one transaction report the final one, and
// AppendCount tells callers when that happened.
func NewestElement(idx *Index, header model.StorageChange, loc slots.Location) ([]byte, bool, error) {
	itemType, err := loc.Type.ItemType()
	if err != nil {
		return nil, false, errors.Wrapf(err, "resolve %s", loc.Name)
	}
	length, changed, err := NewValueIfChanged(header, loc.Offset, loc.Type)
	if err != nil || !changed {
		return nil, false, err
	}

	elementSlot := slots.ArrayElementSlot(loc.Slot, slots.ArrayLength(length))
	element, ok := idx.Lookup(elementSlot)
	if !ok {
		return nil, false, &MissingDerivedSlotError{Name: loc.Name, Container: loc.Slot, Derived: elementSlot}
	}
	value, err := slots.ReadBytes(element.NewValue.Bytes(), 0, itemType.ByteWidth())
	if err != nil {
		return nil, false, errors.Wrapf(err, "read %s element", loc.Name)
	}
	return copyBytes(value), true, nil
}

// AppendCount returns how many elements the length change at header added to
// the dynamic array at loc. A shrinking or unchanged length reports zero.
func AppendCount(header model.StorageChange, loc slots.Location) (uint64, error) {
	if _, err := loc.Type.ItemType(); err != nil {
		return 0, errors.Wrapf(err, "count %s appends", loc.Name)
	}
	oldWindow, err := slots.ReadBytes(header.OldValue.Bytes(), loc.Offset, loc.Type.ByteWidth())
	if err != nil {
		return 0, err
	}
	newWindow, err := slots.ReadBytes(header.NewValue.Bytes(), loc.Offset, loc.Type.ByteWidth())
	if err != nil {
		return 0, err
	}
	oldLen, newLen := slots.ArrayLength(oldWindow), slots.ArrayLength(newWindow)
	if !newLen.Gt(oldLen) {
		return 0, nil
	}
	added := new(uint256.Int).Sub(newLen, oldLen)
	if !added.IsUint64() {
		return math.MaxUint64, nil
	}
	return added.Uint64(), nil
}

// ChangedValue returns the new value at loc when its slot was written and the
// field window changed.
func ChangedValue(idx *Index, loc slots.Location) ([]byte, bool, error) {
	change, ok := idx.Lookup(loc.Slot)
	if !ok {
		return nil, false, nil
	}
	return NewValueIfChanged(change, loc.Offset, loc.Type)
}

func copyBytes(in []byte) []byte {
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
