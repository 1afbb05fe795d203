package nabla

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type eventDecoder struct {
	name  string
	build func(values map[string]interface{}) (Event, error)
}

// eventPriority is the order in which portal event signatures are tried.
var eventPriority = []eventDecoder{
	{"AssetRegistered", func(v map[string]interface{}) (Event, error) {
		sender, asset, router, err := registrationFields(v)
		return AssetRegistered{Sender: sender, Asset: asset, Router: router}, err
	}},
	{"AssetUnregistered", func(v map[string]interface{}) (Event, error) {
		sender, asset, router, err := registrationFields(v)
		return AssetUnregistered{Sender: sender, Asset: asset, Router: router}, err
	}},
	{"EthForExactTokensSwapped", func(v map[string]interface{}) (Event, error) {
		swap, err := swapFields(v)
		return EthForExactTokensSwapped{swap}, err
	}},
	{"ExactTokensForEthSwapped", func(v map[string]interface{}) (Event, error) {
		swap, err := swapFields(v)
		return ExactTokensForEthSwapped{swap}, err
	}},
	{"ExactTokensForTokensSwapped", func(v map[string]interface{}) (Event, error) {
		swap, err := swapFields(v)
		return ExactTokensForTokensSwapped{swap}, err
	}},
	{"GuardActivated", func(v map[string]interface{}) (Event, error) {
		sender, err := field(v, "sender", asAddress)
		return GuardActivated{Sender: sender}, err
	}},
	{"GuardOracleSet", func(v map[string]interface{}) (Event, error) {
		sender, err := field(v, "sender", asAddress)
		if err != nil {
			return nil, err
		}
		oracle, err := field(v, "guardOracle", asAddress)
		return GuardOracleSet{Sender: sender, GuardOracle: oracle}, err
	}},
	{"GuardDeactivated", func(v map[string]interface{}) (Event, error) {
		sender, err := field(v, "sender", asAddress)
		return GuardDeactivated{Sender: sender}, err
	}},
	{"OracleAdapterSet", func(v map[string]interface{}) (Event, error) {
		sender, err := field(v, "sender", asAddress)
		if err != nil {
			return nil, err
		}
		adapter, err := field(v, "oracleAdapter", asAddress)
		return OracleAdapterSet{Sender: sender, OracleAdapter: adapter}, err
	}},
	{"Paused", func(v map[string]interface{}) (Event, error) {
		account, err := field(v, "account", asAddress)
		return Paused{Account: account}, err
	}},
	{"Unpaused", func(v map[string]interface{}) (Event, error) {
		account, err := field(v, "account", asAddress)
		return Unpaused{Account: account}, err
	}},
	{"GatedAccessEnabled", func(v map[string]interface{}) (Event, error) {
		sender, err := field(v, "sender", asAddress)
		return GatedAccessEnabled{Sender: sender}, err
	}},
	{"GatedAccessDisabled", func(v map[string]interface{}) (Event, error) {
		sender, err := field(v, "sender", asAddress)
		return GatedAccessDisabled{Sender: sender}, err
	}},
	{"OwnershipTransferred", func(v map[string]interface{}) (Event, error) {
		previous, err := field(v, "previousOwner", asAddress)
		if err != nil {
			return nil, err
		}
		next, err := field(v, "newOwner", asAddress)
		return OwnershipTransferred{PreviousOwner: previous, NewOwner: next}, err
	}},
	{"GateUpdated", func(v map[string]interface{}) (Event, error) {
		sender, err := field(v, "sender", asAddress)
		if err != nil {
			return nil, err
		}
		gate, err := field(v, "gate", asAddress)
		return GateUpdated{Sender: sender, Gate: gate}, err
	}},
}

// DecodeEvent classifies a portal log. The first event whose signature,
// topic count and data layout all match wins; false means the log is not a
// known portal event and should be skipped.
func DecodeEvent(log types.Log) (Event, bool) {
	portal, err := PortalABI()
	if err != nil {
		return nil, false
	}
	for _, decoder := range eventPriority {
		event, ok := portal.Events[decoder.name]
		if !ok {
			continue
		}
		values, ok := matchAndDecode(event, log)
		if !ok {
			continue
		}
		decoded, err := decoder.build(values)
		if err != nil {
			continue
		}
		return decoded, true
	}
	return nil, false
}

func matchAndDecode(event abi.Event, log types.Log) (map[string]interface{}, bool) {
	indexed := indexedArguments(event.Inputs)
	if len(log.Topics) != len(indexed)+1 || log.Topics[0] != event.ID {
		return nil, false
	}
	values := make(map[string]interface{}, len(event.Inputs))
	if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
		return nil, false
	}
	if len(event.Inputs.NonIndexed()) == 0 {
		return values, true
	}
	if err := event.Inputs.UnpackIntoMap(values, log.Data); err != nil {
		return nil, false
	}
	return values, true
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func registrationFields(v map[string]interface{}) (sender, asset, router common.Address, err error) {
	if sender, err = field(v, "sender", asAddress); err != nil {
		return
	}
	if asset, err = field(v, "asset", asAddress); err != nil {
		return
	}
	router, err = field(v, "router", asAddress)
	return
}

func swapFields(v map[string]interface{}) (Swap, error) {
	var swap Swap
	var err error
	if swap.Sender, err = field(v, "sender", asAddress); err != nil {
		return Swap{}, err
	}
	if swap.To, err = field(v, "to", asAddress); err != nil {
		return Swap{}, err
	}
	if swap.AmountIn, err = field(v, "amountIn", asBigInt); err != nil {
		return Swap{}, err
	}
	if swap.AmountOut, err = field(v, "amountOut", asBigInt); err != nil {
		return Swap{}, err
	}
	if swap.TokenPath, err = field(v, "tokenPath", asAddresses); err != nil {
		return Swap{}, err
	}
	if swap.RouterPath, err = field(v, "routerPath", asAddresses); err != nil {
		return Swap{}, err
	}
	return swap, nil
}
