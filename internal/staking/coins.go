package staking

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the fixed precision of TON and of the jettons handled here.
const Decimals = 9

// maxCoinsBits is the widest value a VarUInteger 16 can carry.
const maxCoinsBits = 120

// ParseCoins converts a decimal string such as "1.5" into nano units.
func ParseCoins(s string) (*big.Int, error) {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q is negative", s)
	}
	nano := d.Shift(Decimals)
	if !nano.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, Decimals)
	}
	v := nano.BigInt()
	if v.BitLen() > maxCoinsBits {
		return nil, fmt.Errorf("amount %q overflows", s)
	}
	return v, nil
}

// ParseNano is ParseCoins for values that must fit 64 bits, such as TON amounts and the price.
func ParseNano(s string) (uint64, error) {
	v, err := ParseCoins(s)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	return v.Uint64(), nil
}

// MustParseCoins is ParseCoins for constants.
func MustParseCoins(s string) *big.Int {
	v, err := ParseCoins(s)
	if err != nil {
		panic(err)
	}
	return v
}

// MustParseNano is ParseNano for constants.
func MustParseNano(s string) uint64 {
	v, err := ParseNano(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatCoins renders nano units as a trimmed decimal string. nil reads as zero.
func FormatCoins(nano *big.Int) string {
	if nano == nil {
		return "0"
	}
	return decimal.NewFromBigInt(nano, -Decimals).String()
}

// FormatNano is FormatCoins for 64-bit values.
func FormatNano(nano uint64) string {
	return FormatCoins(new(big.Int).SetUint64(nano))
}
