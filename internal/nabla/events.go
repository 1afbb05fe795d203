package nabla

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event is the closed set of portal events. Handlers switch over the concrete
// types; the unexported method keeps other packages from adding variants.
type Event interface {
	EventName() string
	portalEvent()
}

type AssetRegistered struct {
	Sender common.Address
	Asset  common.Address
	Router common.Address
}

type AssetUnregistered struct {
	Sender common.Address
	Asset  common.Address
	Router common.Address
}

// Swap holds the payload shared by the three swap events.
type Swap struct {
	Sender     common.Address
	To         common.Address
	AmountIn   *big.Int
	AmountOut  *big.Int
	TokenPath  []common.Address
	RouterPath []common.Address
}

type EthForExactTokensSwapped struct{ Swap }

type ExactTokensForEthSwapped struct{ Swap }

type ExactTokensForTokensSwapped struct{ Swap }

type GuardActivated struct {
	Sender common.Address
}

type GuardOracleSet struct {
	Sender      common.Address
	GuardOracle common.Address
}

type GuardDeactivated struct {
	Sender common.Address
}

type OracleAdapterSet struct {
	Sender        common.Address
	OracleAdapter common.Address
}

type Paused struct {
	Account common.Address
}

type Unpaused struct {
	Account common.Address
}

type GatedAccessEnabled struct {
	Sender common.Address
}

type GatedAccessDisabled struct {
	Sender common.Address
}

type OwnershipTransferred struct {
	PreviousOwner common.Address
	NewOwner      common.Address
}

type GateUpdated struct {
	Sender common.Address
	Gate   common.Address
}

func (AssetRegistered) EventName() string             { return "AssetRegistered" }
func (AssetUnregistered) EventName() string           { return "AssetUnregistered" }
func (EthForExactTokensSwapped) EventName() string    { return "EthForExactTokensSwapped" }
func (ExactTokensForEthSwapped) EventName() string    { return "ExactTokensForEthSwapped" }
func (ExactTokensForTokensSwapped) EventName() string { return "ExactTokensForTokensSwapped" }
func (GuardActivated) EventName() string              { return "GuardActivated" }
func (GuardOracleSet) EventName() string              { return "GuardOracleSet" }
func (GuardDeactivated) EventName() string            { return "GuardDeactivated" }
func (OracleAdapterSet) EventName() string            { return "OracleAdapterSet" }
func (Paused) EventName() string                      { return "Paused" }
func (Unpaused) EventName() string                    { return "Unpaused" }
func (GatedAccessEnabled) EventName() string          { return "GatedAccessEnabled" }
func (GatedAccessDisabled) EventName() string         { return "GatedAccessDisabled" }
func (OwnershipTransferred) EventName() string        { return "OwnershipTransferred" }
func (GateUpdated) EventName() string                 { return "GateUpdated" }

func (AssetRegistered) portalEvent()             {}
func (AssetUnregistered) portalEvent()           {}
func (EthForExactTokensSwapped) portalEvent()    {}
func (ExactTokensForEthSwapped) portalEvent()    {}
func (ExactTokensForTokensSwapped) portalEvent() {}
func (GuardActivated) portalEvent()              {}
func (GuardOracleSet) portalEvent()              {}
func (GuardDeactivated) portalEvent()            {}
func (OracleAdapterSet) portalEvent()            {}
func (Paused) portalEvent()                      {}
func (Unpaused) portalEvent()                    {}
func (GatedAccessEnabled) portalEvent()          {}
func (GatedAccessDisabled) portalEvent()         {}
func (OwnershipTransferred) portalEvent()        {}
func (GateUpdated) portalEvent()                 {}
