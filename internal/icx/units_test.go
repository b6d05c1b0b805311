package icx_test

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToLoop(t *testing.T) {
	v, err := icx.ToLoop("1")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", v.String())

	v, err = icx.ToLoop("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = icx.ToLoop("0.000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())

	v, err = icx.ToLoop(" 0 ")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())
}

func TestToLoopRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "0.0000000000000000001"} {
		_, err := icx.ToLoop(in)
		assert.Error(t, err, in)
	}
}

func TestToUnitsCustomDecimals(t *testing.T) {
	v, err := icx.ToUnits("2.5", 6)
	require.NoError(t, err)
	assert.Equal(t, "2500000", v.String())
}

func TestFromLoop(t *testing.T) {
	v, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", icx.FormatICX(v))
	assert.Equal(t, "0", icx.FormatICX(big.NewInt(0)))
	assert.Equal(t, "0.000000000000000001", icx.FormatICX(big.NewInt(1)))
	assert.True(t, icx.FromLoop(nil).IsZero())
}

func TestHexToBig(t *testing.T) {
	v, err := icx.HexToBig("0xde0b6b3a7640000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", v.String())

	v, err = icx.HexToBig("-0x10")
	require.NoError(t, err)
	assert.Equal(t, int64(-16), v.Int64())

	for _, bad := range []string{"", "0x", "10", "0xzz"} {
		_, err := icx.HexToBig(bad)
		assert.Error(t, err, bad)
	}
}

func TestHexRoundTrip(t *testing.T) {
	assert.Equal(t, "0x0", icx.BigToHex(big.NewInt(0)))
	assert.Equal(t, "-0x10", icx.BigToHex(big.NewInt(-16)))
	assert.Equal(t, "0x53", icx.IntToHex(83))
	assert.Equal(t, "-0x1", icx.IntToHex(-1))

	n, err := icx.HexToInt64(icx.IntToHex(1_700_000_000_000_000))
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000_000), n)

	_, err = icx.HexToInt64("0x10000000000000000")
	assert.Error(t, err)
}
