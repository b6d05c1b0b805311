package protocol

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Mohsinsiddi/icon-cli/internal/icx"
)

// IScore is the claimable reward of an account.
type IScore struct {
	BlockHeight  int64
	IScore       *big.Int
	EstimatedICX *big.Int // loop
}

// Delegation is one stake delegation to a validator.
type Delegation struct {
	Address string
	Value   *big.Int
}

// Delegations summarises an account's delegations.
type Delegations struct {
	Delegations    []Delegation
	TotalDelegated *big.Int
	VotingPower    *big.Int
}

// PRep is a validator as reported by getPReps.
type PRep struct {
	Name      string
	Address   string
	Grade     string
	Delegated *big.Int
	Power     *big.Int
}

// ICXUSDPrice reads the ICX/USD rate from the Band oracle. The oracle
// only runs on mainnet.
func ICXUSDPrice(ctx context.Context, c Caller) (decimal.Decimal, error) {
	var ref struct {
		Rate string `json:"rate"`
	}
	if err := call(ctx, c, mustContract(BandOracle), "get_ref_data", map[string]any{"_symbol": "ICX"}, &ref); err != nil {
		return decimal.Zero, err
	}
	rate, err := icx.HexToBig(ref.Rate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("oracle rate: %w", err)
	}
	return decimal.NewFromBigInt(rate, -9), nil
}

// QueryIScore returns the unclaimed reward of address.
func QueryIScore(ctx context.Context, c Caller, address string) (*IScore, error) {
	var raw struct {
		BlockHeight  string `json:"blockHeight"`
		IScore       string `json:"iscore"`
		EstimatedICX string `json:"estimatedICX"`
	}
	if err := call(ctx, c, ChainScore, "queryIScore", map[string]any{"address": address}, &raw); err != nil {
		return nil, err
	}
	var (
		out IScore
		err error
	)
	if out.BlockHeight, err = icx.HexToInt64(raw.BlockHeight); err != nil {
		return nil, err
	}
	if out.IScore, err = icx.HexToBig(raw.IScore); err != nil {
		return nil, err
	}
	if out.EstimatedICX, err = icx.HexToBig(raw.EstimatedICX); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDelegation returns the delegations of address.
func GetDelegation(ctx context.Context, c Caller, address string) (*Delegations, error) {
	var raw struct {
		Delegations []struct {
			Address string `json:"address"`
			Value   string `json:"value"`
		} `json:"delegations"`
		TotalDelegated string `json:"totalDelegated"`
		VotingPower    string `json:"votingPower"`
	}
	if err := call(ctx, c, ChainScore, "getDelegation", map[string]any{"address": address}, &raw); err != nil {
		return nil, err
	}
	out := &Delegations{TotalDelegated: new(big.Int), VotingPower: new(big.Int)}
	for _, d := range raw.Delegations {
		v, err := icx.HexToBig(d.Value)
		if err != nil {
			return nil, err
		}
		out.Delegations = append(out.Delegations, Delegation{Address: d.Address, Value: v})
	}
	if raw.TotalDelegated != "" {
		v, err := icx.HexToBig(raw.TotalDelegated)
		if err != nil {
			return nil, err
		}
		out.TotalDelegated = v
	}
	if raw.VotingPower != "" {
		v, err := icx.HexToBig(raw.VotingPower)
		if err != nil {
			return nil, err
		}
		out.VotingPower = v
	}
	return out, nil
}

// GetPReps returns the validators ranked start..end (1-based, inclusive).
// Zero bounds let the node choose.
func GetPReps(ctx context.Context, c Caller, start, end int64) ([]PRep, error) {
	params := map[string]any{}
	if start > 0 {
		params["startRanking"] = icx.IntToHex(start)
	}
	if end > 0 {
		params["endRanking"] = icx.IntToHex(end)
	}
	var raw struct {
		PReps []map[string]any `json:"preps"`
	}
	if err := call(ctx, c, ChainScore, "getPReps", params, &raw); err != nil {
		return nil, err
	}
	out := make([]PRep, 0, len(raw.PReps))
	for _, p := range raw.PReps {
		out = append(out, prepFromMap(p))
	}
	return out, nil
}

// GetPRep returns one validator by address.
func GetPRep(ctx context.Context, c Caller, address string) (*PRep, error) {
	var raw map[string]any
	if err := call(ctx, c, ChainScore, "getPRep", map[string]any{"address": address}, &raw); err != nil {
		return nil, err
	}
	p := prepFromMap(raw)
	return &p, nil
}

func prepFromMap(m map[string]any) PRep {
	str := func(k string) string { s, _ := m[k].(string); return s }
	num := func(k string) *big.Int {
		if v, err := icx.HexToBig(str(k)); err == nil {
			return v
		}
		return new(big.Int)
	}
	return PRep{
		Name:      str("name"),
		Address:   str("address"),
		Grade:     str("grade"),
		Delegated: num("delegated"),
		Power:     num("power"),
	}
}

// ClaimIScore builds the transaction that claims the sender's reward.
func ClaimIScore(nid int64) *icx.Transaction {
	return icx.NewCall(ChainScore, "claimIScore", nil, nil, nid)
}

// SetDelegation builds a transaction replacing the sender's delegations.
func SetDelegation(delegations []Delegation, nid int64) *icx.Transaction {
	list := make([]map[string]any, 0, len(delegations))
	for _, d := range delegations {
		list = append(list, map[string]any{"address": d.Address, "value": icx.BigToHex(d.Value)})
	}
	return icx.NewCall(ChainScore, "setDelegation", map[string]any{"delegations": list}, nil, nid)
}
