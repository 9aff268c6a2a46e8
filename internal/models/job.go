package models

import (
	"math/big"
	"time"
)

// Trade directions as sent by the webhook provider.
const (
	DirectionBuy  = 0
	DirectionSell = 1
)

// SwapJobParams is the explicit-amount job shape: swap PurchaseAmount of the
// from-token into the to-token. The scheduler owns the job; the executor only
// reads it.
type SwapJobParams struct {
	WalletAddress            string    `json:"walletAddress" validate:"required,eth_addr"`
	FromTokenContractAddress string    `json:"fromTokenContractAddress" validate:"required,eth_addr"`
	ToTokenContractAddress   string    `json:"toTokenContractAddress" validate:"required,eth_addr"`
	PurchaseAmount           float64   `json:"purchaseAmount" validate:"required,gt=0"`
	Name                     string    `json:"name"`
	ScheduleID               string    `json:"scheduleId"`
	VincentAppVersion        int       `json:"vincentAppVersion" validate:"required"`
	CreatedAt                time.Time `json:"createdAt"`
}

// OrderJobParams is the direction-derived job shape: the from-token, to-token
// and amount are derived from (direction, quantity, tokenContractAddress)
// against the USDC stable asset plus a price lookup.
type OrderJobParams struct {
	WalletAddress        string    `json:"walletAddress" validate:"required,eth_addr"`
	TokenContractAddress string    `json:"tokenContractAddress" validate:"required,eth_addr"`
	Direction            int       `json:"direction"`
	Quantity             float64   `json:"quantity" validate:"required"`
	Name                 string    `json:"name"`
	ScheduleID           string    `json:"scheduleId"`
	VincentAppVersion    int       `json:"vincentAppVersion" validate:"required"`
	CreatedAt            time.Time `json:"createdAt"`
}

// TokenInfo is ERC-20 metadata read fresh from chain for every execution.
// Decimals are deliberately not cached across jobs.
type TokenInfo struct {
	Address  string
	Name     string
	Symbol   string
	Decimals uint8
}

// GasEstimate is the cost projection for one on-chain operation, recomputed
// for every approval and swap attempt.
type GasEstimate struct {
	EstimatedGas *big.Int
	MaxFeePerGas *big.Int
}

// Cost returns estimated gas units times the max fee per unit, in wei.
func (g GasEstimate) Cost() *big.Int {
	if g.EstimatedGas == nil || g.MaxFeePerGas == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(g.EstimatedGas, g.MaxFeePerGas)
}
