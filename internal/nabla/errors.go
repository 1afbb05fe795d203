package nabla

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"nablaScope/internal/slots"
	"nablaScope/internal/statediff"
)

// CallUnavailableError reports a required eth_call that could not be served.
type CallUnavailableError struct {
	Contract common.Address
	Method   string
	Err      error
}

func (e *CallUnavailableError) Error() string {
	return fmt.Sprintf("call %s on %s: %v", e.Method, e.Contract.Hex(), e.Err)
}

func (e *CallUnavailableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether processing the same input again may succeed.
// Schema, bounds and missing-slot failures are deterministic for a block.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, slots.ErrSchemaMismatch) {
		return false
	}
	var bounds *slots.BoundsError
	if errors.As(err, &bounds) {
		return false
	}
	var missing *statediff.MissingDerivedSlotError
	if errors.As(err, &missing) {
		return false
	}
	return true
}
