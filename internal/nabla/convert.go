package nabla

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asAddresses(value interface{}) ([]common.Address, error) {
	switch v := value.(type) {
	case []common.Address:
		out := make([]common.Address, len(v))
		copy(out, v)
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported address slice type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asBool(value interface{}) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("unsupported bool type %T", value)
	}
	return v, nil
}

func asString(value interface{}) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unsupported string type %T", value)
	}
	return v, nil
}

// field reads a named decoded value and converts it.
func field[T any](values map[string]interface{}, name string, conv func(interface{}) (T, error)) (T, error) {
	raw, ok := values[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("missing field %s", name)
	}
	v, err := conv(raw)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("field %s: %w", name, err)
	}
	return v, nil
}
