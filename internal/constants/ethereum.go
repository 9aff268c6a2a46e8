package constants

import "math/big"

// Base mainnet is the only chain the executor trades on.
const (
	BaseChainID = "8453"

	// USDC on Base, the stable leg of every direction-derived trade.
	USDCAddress = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"

	// WETH on Base.
	WETHAddress = "0x4200000000000000000000000000000000000006"

	// Uniswap V3 SwapRouter02 on Base, the spender approvals are granted to.
	UniswapV3RouterAddress = "0x2626664c2603336E57B271c5C0b26F421741e481"
)

var MaxUint256 = func() *big.Int {
	val := new(big.Int)
	val.SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	return val
}()

// CoinrankingIDByToken maps supported Base token contract addresses (checksummed)
// to their Coinranking coin UUIDs. Tokens outside this map cannot be priced.
var CoinrankingIDByToken = map[string]string{
	// AXL
	"0x23ee2343B892b1BB63503a4FAbc840E0e2C6810f": "tpnGd1xa_q",
	// COMP
	"0x9e1028F5F1D5eDE59748FFceE5532509976840E0": "7Dg6y_Ywg",
	// SNX
	"0x22e6966B799c4D5B13BE962E1D117b56327FDa66": "sgxZRXbK0FDc",
	// AAVE
	"0x63706e401c06ac8513145b7687A14804d17f814b": "ixgUfzmLR",
	// XCN
	"0x9c632E6Aaa3eA73f91554f8A3cB2ED2F29605e0C": "RMI3WkSpS",
	// AERO
	"0x940181a94A35A4569E4529A3CDfB74e38FD98631": "cbh_u5L08",
	// LINK
	"0xd403D1624DAEF243FbcBd4A80d8A6F36afFe32b2": "VLqpJwogdhHNb",
}

// TokenAddressBySymbol maps webhook trade symbols to Base token contract
// addresses. Order events for symbols outside this map are skipped.
var TokenAddressBySymbol = map[string]string{
	"AAVEUSD": "0x63706e401c06ac8513145b7687A14804d17f814b",
	"AEROUSD": "0x940181a94A35A4569E4529A3CDfB74e38FD98631",
	"AXLUSD":  "0x23ee2343B892b1BB63503a4FAbc840E0e2C6810f",
	"COMPUSD": "0x9e1028F5F1D5eDE59748FFceE5532509976840E0",
	"LINKUSD": "0xd403D1624DAEF243FbcBd4A80d8A6F36afFe32b2",
	"SNXUSD":  "0x22e6966B799c4D5B13BE962E1D117b56327FDa66",
	"XCNUSD":  "0x9c632E6Aaa3eA73f91554f8A3cB2ED2F29605e0C",
}
