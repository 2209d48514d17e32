package network

import (
	"errors"
	"fmt"
	"math/big"
)

// 预定义的网络 ID（常量）
const (
	MainnetChainID  = 1
	OptimismChainID = 10
	BSCChainID      = 56
	GnosisChainID   = 100
	PolygonChainID  = 137
	BaseChainID     = 8453
	ArbitrumChainID = 42161
	SepoliaChainID  = 11155111
	AnvilChainID    = 31337
	HoleskyChainID  = 17000
)

// ErrMismatch is returned by Verify when an endpoint serves another chain.
var ErrMismatch = errors.New("network mismatch")

// Name 返回 Chain ID 对应的网络名称
func Name(chainID int64) string {
	switch chainID {
	case MainnetChainID:
		return "Ethereum Mainnet"
	case OptimismChainID:
		return "OP Mainnet"
	case BSCChainID:
		return "BNB Smart Chain"
	case GnosisChainID:
		return "Gnosis"
	case PolygonChainID:
		return "Polygon PoS"
	case BaseChainID:
		return "Base"
	case ArbitrumChainID:
		return "Arbitrum One"
	case SepoliaChainID:
		return "Sepolia Testnet"
	case AnvilChainID:
		return "Anvil Local"
	case HoleskyChainID:
		return "Holesky Testnet"
	default:
		return fmt.Sprintf("Unknown Network (Chain ID: %d)", chainID)
	}
}

// Verify compares the chain id reported by an endpoint with the expected one.
func Verify(actual *big.Int, expectedChainID int64) error {
	if actual == nil {
		return fmt.Errorf("%w: endpoint reported no chain id", ErrMismatch)
	}
	if actual.Cmp(big.NewInt(expectedChainID)) != 0 {
		return fmt.Errorf("%w: expected %s (ID: %d), got %s (ID: %s)",
			ErrMismatch, Name(expectedChainID), expectedChainID, nameOf(actual), actual.String())
	}
	return nil
}

func nameOf(id *big.Int) string {
	if !id.IsInt64() {
		return "Unknown Network"
	}
	return Name(id.Int64())
}
