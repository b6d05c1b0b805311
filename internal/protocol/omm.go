package protocol

import (
	"context"
	"math/big"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
)

// fullVote is 100% in OMM's 18-decimal percentage encoding.
var fullVote = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// OMM reads stake and manages delegation on the OMM lending protocol.
type OMM struct {
	c   Caller
	nid int64
}

// NewOMM returns an OMM helper for network, which must be mainnet.
func NewOMM(c Caller, network config.NetworkDescriptor) (*OMM, error) {
	if err := requireMainnet(network); err != nil {
		return nil, err
	}
	return &OMM{c: c, nid: network.NID}, nil
}

// StakedBalance returns the OMM staked by owner.
func (o *OMM) StakedBalance(ctx context.Context, owner string) (*big.Int, error) {
	return callBig(ctx, o.c, Tokens["OMM"].Contract, "staked_balanceOf", map[string]any{"_owner": owner})
}

// UpdateDelegation points all of the sender's OMM voting power at prep.
func (o *OMM) UpdateDelegation(prep string) *icx.Transaction {
	params := map[string]any{
		"_delegations": []map[string]any{
			{"_address": prep, "_votes_in_per": icx.BigToHex(fullVote)},
		},
	}
	return icx.NewCall(mustContract(OMMDelegation), "updateDelegations", params, nil, o.nid)
}
