package protocol

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mohsinsiddi/icon-cli/internal/icx"
)

// Token is an IRC-2 token on mainnet.
type Token struct {
	Symbol   string
	Contract string
	Decimals int32
}

// Tokens is the known token table, keyed by upper-case symbol.
var Tokens = map[string]Token{
	"BALN":  {Symbol: "BALN", Contract: "cxf61cd5a45dc9f91c15aa65831a30a90d59a09619", Decimals: 18},
	"BNUSD": {Symbol: "bnUSD", Contract: "cx88fd7df7ddff82f7cc735c871dc519838cb235bb", Decimals: 18},
	"OMM":   {Symbol: "OMM", Contract: "cx1a29259a59f463a67bb2ef84398b30ca56b5830a", Decimals: 18},
	"SICX":  {Symbol: "sICX", Contract: "cx2609b924e33ef00b648a409245c7ea394c467824", Decimals: 18},
	"TAP":   {Symbol: "TAP", Contract: "cxc0b5b52c9f8b4251a47e91dda3bd61e5512cd782", Decimals: 18},
}

// LookupToken finds a token by symbol, case-insensitively.
func LookupToken(symbol string) (Token, error) {
	t, ok := Tokens[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return Token{}, fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
	}
	return t, nil
}

// Balance returns owner's balance in the token's smallest unit.
func (t Token) Balance(ctx context.Context, c Caller, owner string) (*big.Int, error) {
	return callBig(ctx, c, t.Contract, "balanceOf", map[string]any{"_owner": owner})
}

// Format renders an amount in whole tokens.
func (t Token) Format(v *big.Int) decimal.Decimal {
	return icx.FromUnits(v, t.Decimals)
}

// Transfer builds an IRC-2 transfer. data is passed to the receiving
// contract's tokenFallback and may be nil.
func (t Token) Transfer(to string, value *big.Int, data []byte, nid int64) *icx.Transaction {
	params := map[string]any{"_to": to, "_value": icx.BigToHex(value)}
	if data != nil {
		params["_data"] = "0x" + hex.EncodeToString(data)
	}
	return icx.NewCall(t.Contract, "transfer", params, nil, nid)
}
