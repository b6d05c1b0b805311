// Package protocol builds calls and transactions for the ICON chain
// score and for the Balanced, CPS and OMM contracts.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
)

// Errors.
var (
	ErrMainnetOnly        = errors.New("only available on mainnet")
	ErrUnknownContract    = errors.New("unknown contract")
	ErrUnknownToken       = errors.New("unknown token")
	ErrNoPosition         = errors.New("no Balanced position")
	ErrNotLiquidatable    = errors.New("position is not liquidatable")
	ErrNothingToRebalance = errors.New("no rebalancing needed")
)

// MainnetNID is the network id of ICON mainnet.
const MainnetNID = 1

// Caller performs read-only contract calls. *icx.Client satisfies it.
type Caller interface {
	CallInto(ctx context.Context, req icx.CallRequest, out any) error
}

func requireMainnet(n config.NetworkDescriptor) error {
	if n.NID != MainnetNID {
		return fmt.Errorf("%w: network %q has nid %d", ErrMainnetOnly, n.Name, n.NID)
	}
	return nil
}

func call(ctx context.Context, c Caller, to, method string, params map[string]any, out any) error {
	err := c.CallInto(ctx, icx.CallRequest{To: to, Method: method, Params: params}, out)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", to, method, err)
	}
	return nil
}

func callBig(ctx context.Context, c Caller, to, method string, params map[string]any) (*big.Int, error) {
	var hex string
	if err := call(ctx, c, to, method, params, &hex); err != nil {
		return nil, err
	}
	return icx.HexToBig(hex)
}

// decodeHex rewrites every 0x-prefixed string value in m as a decimal
// string. Other values are left alone.
func decodeHex(m map[string]any) map[string]any {
	for k, v := range m {
		s, ok := v.(string)
		if !ok || !strings.HasPrefix(s, "0x") {
			continue
		}
		if n, err := icx.HexToBig(s); err == nil {
			m[k] = n.String()
		}
	}
	return m
}
