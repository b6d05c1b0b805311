package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageFormattersCarryPrefix(t *testing.T) {
	cases := []struct {
		name   string
		fn     func(string) string
		prefix string
	}{
		{"success", Success, "✓"},
		{"warn", Warn, "⚠"},
		{"err", Err, "✗"},
		{"info", Info, "ℹ"},
		{"hint", Hint, "💡"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.fn("keystore imported")
			assert.Contains(t, out, tc.prefix)
			assert.Contains(t, out, "keystore imported")
		})
	}
}

func TestInfoDifferentFromHint(t *testing.T) {
	assert.NotEqual(t, Info("x"), Hint("x"))
}

func TestPlainFormattersKeepText(t *testing.T) {
	assert.Contains(t, Addr("hx5bfdb090f43a808005ffc27c25b213145e80b7cd"), "hx5bfdb090")
	assert.Contains(t, Val("1.5 ICX"), "1.5 ICX")
	assert.Contains(t, Meta("block 100"), "block 100")
	assert.Contains(t, NetworkName("lisbon"), "lisbon")
}

func TestDangerBoxFramesContent(t *testing.T) {
	out := DangerBox("this deletes 3 files")
	assert.Contains(t, out, "this deletes 3 files")
	assert.Contains(t, out, "┏")
}

// ---------------------------------------------------------------------------
// TruncateAddr
// ---------------------------------------------------------------------------

func TestTruncateAddrShortAddress(t *testing.T) {
	assert.Equal(t, "hx12", TruncateAddr("hx12"))
}

func TestTruncateAddrExactBoundary(t *testing.T) {
	assert.Equal(t, "hx1234567890", TruncateAddr("hx1234567890"))
}

func TestTruncateAddrLongAddress(t *testing.T) {
	assert.Equal(t, "hx5bfd…b7cd", TruncateAddr("hx5bfdb090f43a808005ffc27c25b213145e80b7cd"))
}

func TestTruncateAddrEmptyString(t *testing.T) {
	assert.Equal(t, "", TruncateAddr(""))
}

func TestBannerShowsVersion(t *testing.T) {
	out := Banner("0.3.0")
	assert.Contains(t, out, "v0.3.0")
	assert.Contains(t, out, "ICON")
}
