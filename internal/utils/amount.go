package utils

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// FormatAmount renders a token amount as a decimal string rounded to the
// token's decimal precision. This is the exact shape the external tool
// expects for amountIn.
func FormatAmount(amount float64, decimals uint8) string {
	return strconv.FormatFloat(amount, 'f', int(decimals), 64)
}

// ParseUnits converts a token amount into base units (10^decimals), rounding
// to the token's decimal precision first. Fails on negative amounts.
func ParseUnits(amount float64, decimals uint8) (*big.Int, error) {
	if amount < 0 {
		return nil, fmt.Errorf("negative amount: %v", amount)
	}
	text := FormatAmount(amount, decimals)

	intPart := text
	fracPart := ""
	if idx := strings.IndexByte(text, '.'); idx >= 0 {
		intPart = text[:idx]
		fracPart = text[idx+1:]
	}
	if len(fracPart) < int(decimals) {
		fracPart += strings.Repeat("0", int(decimals)-len(fracPart))
	}

	units, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse amount %q", text)
	}
	return units, nil
}

// FormatUnits renders a base-unit value as a human-readable decimal string.
// Used only for logs and error messages.
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	quo, rem := new(big.Int).QuoRem(value, scale, new(big.Int))
	if rem.Sign() == 0 {
		return quo.String()
	}
	frac := strings.TrimRight(fmt.Sprintf("%0*s", decimals, rem.Abs(rem).String()), "0")
	return quo.String() + "." + frac
}
