package slots

import (
	"fmt"

	"github.com/pkg/errors"
)

// WordSize is the width of a storage slot word.
const WordSize = 32

// ErrSchemaMismatch is returned when a container accessor is applied to the wrong StorageType.
var ErrSchemaMismatch = errors.New("storage type schema mismatch")

// Kind enumerates the StorageType variants.
type Kind int

const (
	KindAddress Kind = iota + 1
	KindBool
	KindUint256
	KindArray
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindBool:
		return "bool"
	case KindUint256:
		return "uint256"
	case KindArray:
		return "array"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// StorageType is a node of the recursive storage type tree. Arrays carry an item
// type, mappings a key and a value type. Values are immutable once built.
type StorageType struct {
	kind  Kind
	item  *StorageType
	key   *StorageType
	value *StorageType
}

var (
	addressType = &StorageType{kind: KindAddress}
	boolType    = &StorageType{kind: KindBool}
	uint256Type = &StorageType{kind: KindUint256}
)

// Address returns the 20-byte address scalar type.
func Address() *StorageType { return addressType }

// Bool returns the 1-byte bool scalar type.
func Bool() *StorageType { return boolType }

// Uint256 returns the 32-byte integer scalar type.
func Uint256() *StorageType { return uint256Type }

// ArrayOf returns a dynamic array type holding items of the given type.
func ArrayOf(item *StorageType) *StorageType {
	return &StorageType{kind: KindArray, item: item}
}

// MappingOf returns a mapping type from key to value.
func MappingOf(key, value *StorageType) *StorageType {
	return &StorageType{kind: KindMapping, key: key, value: value}
}

// Kind reports the variant.
func (t *StorageType) Kind() Kind {
	return t.kind
}

// ByteWidth returns the number of bytes the type occupies inside its slot word.
// Containers occupy a full word for their header.
func (t *StorageType) ByteWidth() int {
	switch t.kind {
	case KindAddress:
		return 20
	case KindBool:
		return 1
	default:
		return WordSize
	}
}

// ItemType returns the element type of an array.
func (t *StorageType) ItemType() (*StorageType, error) {
	if t.kind != KindArray {
		return nil, errors.Wrapf(ErrSchemaMismatch, "%s is not an array", t)
	}
	return t.item, nil
}

// KeyType returns the key type of a mapping.
func (t *StorageType) KeyType() (*StorageType, error) {
	if t.kind != KindMapping {
		return nil, errors.Wrapf(ErrSchemaMismatch, "%s is not a mapping", t)
	}
	return t.key, nil
}

// ValueType returns the value type of a mapping.
func (t *StorageType) ValueType() (*StorageType, error) {
	if t.kind != KindMapping {
		return nil, errors.Wrapf(ErrSchemaMismatch, "%s is not a mapping", t)
	}
	return t.value, nil
}

func (t *StorageType) String() string {
	switch t.kind {
	case KindArray:
		return fmt.Sprintf("%s[]", t.item)
	case KindMapping:
		return fmt.Sprintf("mapping(%s => %s)", t.key, t.value)
	default:
		return t.kind.String()
	}
}
