package nabla

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const portalABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "asset", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "router", "type": "address"}
    ],
    "name": "AssetRegistered",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "asset", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "router", "type": "address"}
    ],
    "name": "AssetUnregistered",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amountIn", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountOut", "type": "uint256"},
      {"indexed": false, "internalType": "address[]", "name": "tokenPath", "type": "address[]"},
      {"indexed": false, "internalType": "address[]", "name": "routerPath", "type": "address[]"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"}
    ],
    "name": "EthForExactTokensSwapped",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amountIn", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountOut", "type": "uint256"},
      {"indexed": false, "internalType": "address[]", "name": "tokenPath", "type": "address[]"},
      {"indexed": false, "internalType": "address[]", "name": "routerPath", "type": "address[]"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"}
    ],
    "name": "ExactTokensForEthSwapped",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amountIn", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountOut", "type": "uint256"},
      {"indexed": false, "internalType": "address[]", "name": "tokenPath", "type": "address[]"},
      {"indexed": false, "internalType": "address[]", "name": "routerPath", "type": "address[]"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"}
    ],
    "name": "ExactTokensForTokensSwapped",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"}
    ],
    "name": "GuardActivated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "guardOracle", "type": "address"}
    ],
    "name": "GuardOracleSet",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"}
    ],
    "name": "GuardDeactivated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "oracleAdapter", "type": "address"}
    ],
    "name": "OracleAdapterSet",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "account", "type": "address"}
    ],
    "name": "Paused",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "account", "type": "address"}
    ],
    "name": "Unpaused",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"}
    ],
    "name": "GatedAccessEnabled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"}
    ],
    "name": "GatedAccessDisabled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "previousOwner", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "newOwner", "type": "address"}
    ],
    "name": "OwnershipTransferred",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "gate", "type": "address"}
    ],
    "name": "GateUpdated",
    "type": "event"
  }
]`

const routerABIJSON = `[
  {
    "inputs": [{"internalType": "address", "name": "", "type": "address"}],
    "name": "poolByAsset",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const swapPoolABIJSON = `[
  {"inputs": [], "name": "asset", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"internalType": "string", "name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"internalType": "string", "name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
  {
    "inputs": [],
    "name": "coverage",
    "outputs": [
      {"internalType": "int256", "name": "reserves_", "type": "int256"},
      {"internalType": "int256", "name": "liabilities_", "type": "int256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {"inputs": [], "name": "poolCap", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "maxCoverageRatioForSwapIn", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "paused", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "isGated", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "view", "type": "function"}
]`

var (
	portalABI     abi.ABI
	portalABIOnce sync.Once
	portalABIErr  error

	routerABI     abi.ABI
	routerABIOnce sync.Once
	routerABIErr  error

	swapPoolABI     abi.ABI
	swapPoolABIOnce sync.Once
	swapPoolABIErr  error
)

// PortalABI returns the parsed portal ABI.
func PortalABI() (abi.ABI, error) {
	portalABIOnce.Do(func() {
		portalABI, portalABIErr = abi.JSON(strings.NewReader(portalABIJSON))
	})
	return portalABI, portalABIErr
}

// RouterABI returns the parsed router ABI.
func RouterABI() (abi.ABI, error) {
	routerABIOnce.Do(func() {
		routerABI, routerABIErr = abi.JSON(strings.NewReader(routerABIJSON))
	})
	return routerABI, routerABIErr
}

// SwapPoolABI returns the parsed swap pool ABI.
func SwapPoolABI() (abi.ABI, error) {
	swapPoolABIOnce.Do(func() {
		swapPoolABI, swapPoolABIErr = abi.JSON(strings.NewReader(swapPoolABIJSON))
	})
	return swapPoolABI, swapPoolABIErr
}
