package icx

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the number of loop digits in one ICX; IRC-2 tokens on ICON
// conventionally use the same.
const Decimals = 18

// ToLoop converts a decimal ICX amount such as "1.5" to loop.
func ToLoop(amount string) (*big.Int, error) {
	return ToUnits(amount, Decimals)
}

// ToUnits converts a decimal amount to its integer representation with
// the given number of decimals. Precision beyond that is an error.
func ToUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: negative", amount)
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("invalid amount %q: more than %d decimals", amount, decimals)
	}
	return scaled.BigInt(), nil
}

// FromLoop converts loop to ICX.
func FromLoop(loop *big.Int) decimal.Decimal {
	return FromUnits(loop, Decimals)
}

// FromUnits converts an integer amount with decimals to a decimal.
func FromUnits(v *big.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -decimals)
}

// FormatICX renders loop as an ICX amount without trailing zeros.
func FormatICX(loop *big.Int) string {
	return FromLoop(loop).String()
}

// HexToBig parses ICON's hex integer encoding, including a leading minus.
func HexToBig(s string) (*big.Int, error) {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "0x")
	if digits == "" || !strings.HasPrefix(strings.TrimPrefix(s, "-"), "0x") {
		return nil, fmt.Errorf("invalid hex integer %q", s)
	}
	v, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex integer %q", s)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}

// HexToInt64 parses a hex integer that fits in int64.
func HexToInt64(s string) (int64, error) {
	v, err := HexToBig(s)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("hex integer %q overflows int64", s)
	}
	return v.Int64(), nil
}

// BigToHex encodes v the way ICON expects: 0x-prefixed lowercase hex.
func BigToHex(v *big.Int) string {
	if v.Sign() < 0 {
		return "-0x" + new(big.Int).Neg(v).Text(16)
	}
	return "0x" + v.Text(16)
}

// IntToHex encodes an int64.
func IntToHex(v int64) string {
	if v < 0 {
		return "-0x" + strconv.FormatUint(uint64(-v), 16)
	}
	return "0x" + strconv.FormatInt(v, 16)
}
