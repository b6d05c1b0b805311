package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/log"
)

// LiquidationRatio is the collateral ratio below which a Balanced
// position can be liquidated.
var LiquidationRatio = decimal.RequireFromString("1.5")

// sICX transfer payload that deposits the tokens as collateral:
// {"_asset":"","_amount":0}
const depositCollateralData = `{"_asset":"","_amount":0}`

// Position is a Balanced loan position.
type Position struct {
	ID         int64               `json:"pos_id"`
	Address    string              `json:"address"`
	Created    int64               `json:"created"` // microseconds
	Standing   string              `json:"standing"`
	Collateral *big.Int            `json:"collateral"` // loop
	TotalDebt  *big.Int            `json:"total_debt"` // loop
	Ratio      decimal.Decimal     `json:"ratio"`
	Assets     map[string]*big.Int `json:"assets"`
}

// Liquidatable reports whether the ratio is positive and under
// LiquidationRatio.
func (p *Position) Liquidatable() bool {
	return p.Ratio.IsPositive() && p.Ratio.LessThan(LiquidationRatio)
}

// RebalanceStatus is the state of the Balanced rebalancer.
type RebalanceStatus struct {
	Forward bool
	Reverse bool
	Amount  *big.Int
}

// Needed reports whether a rebalance call would do anything.
func (s RebalanceStatus) Needed() bool { return s.Forward || s.Reverse }

// Balanced reads and builds transactions for the Balanced protocol.
type Balanced struct {
	c   Caller
	nid int64
}

// NewBalanced returns a Balanced helper for network, which must be mainnet.
func NewBalanced(c Caller, network config.NetworkDescriptor) (*Balanced, error) {
	if err := requireMainnet(network); err != nil {
		return nil, err
	}
	return &Balanced{c: c, nid: network.NID}, nil
}

// PositionCount returns the number of borrowers.
func (b *Balanced) PositionCount(ctx context.Context) (int64, error) {
	n, err := callBig(ctx, b.c, mustContract(BalancedLoans), "borrowerCount", nil)
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}

// PositionAddress returns the owner of the position at index.
func (b *Balanced) PositionAddress(ctx context.Context, index int64) (string, error) {
	var addr string
	err := call(ctx, b.c, mustContract(BalancedLoans), "getPositionAddress",
		map[string]any{"_index": icx.IntToHex(index)}, &addr)
	return addr, err
}

// Position returns the position held by address, or ErrNoPosition.
func (b *Balanced) Position(ctx context.Context, address string) (*Position, error) {
	var raw map[string]json.RawMessage
	if err := call(ctx, b.c, mustContract(BalancedLoans), "getAccountPositions",
		map[string]any{"_owner": address}, &raw); err != nil {
		return nil, err
	}
	if _, ok := raw["pos_id"]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPosition, address)
	}
	p, err := decodePosition(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding position of %s: %w", address, err)
	}
	if p.Address == "" {
		p.Address = address
	}
	return p, nil
}

// PositionAt returns the position at index.
func (b *Balanced) PositionAt(ctx context.Context, index int64) (*Position, error) {
	addr, err := b.PositionAddress(ctx, index)
	if err != nil {
		return nil, err
	}
	return b.Position(ctx, addr)
}

// ScanOptions selects and orders positions for Positions.
type ScanOptions struct {
	// Start and End are inclusive indexes. End 0 means the last position.
	Start, End int64
	// Workers bounds concurrent calls. Defaults to 8.
	Workers int
	// MinRatio and MaxRatio filter by collateral ratio in percent.
	// A zero MaxRatio disables the upper bound.
	MinRatio, MaxRatio decimal.Decimal
	// SortKey is one of pos_id, ratio, collateral, total_debt, created.
	SortKey string
	Reverse bool
	// Progress is called once per fetched index.
	Progress func(done, total int)
}

// SortKeys lists the keys accepted by ScanOptions.SortKey.
var SortKeys = []string{"pos_id", "ratio", "collateral", "total_debt", "created"}

// Positions fetches positions Start..End concurrently, drops those
// outside the ratio window and sorts the rest.
func (b *Balanced) Positions(ctx context.Context, opts ScanOptions) ([]Position, error) {
	less, err := positionLess(opts.SortKey)
	if err != nil {
		return nil, err
	}
	if opts.Start < 1 {
		opts.Start = 1
	}
	if opts.End == 0 {
		if opts.End, err = b.PositionCount(ctx); err != nil {
			return nil, err
		}
	}
	if opts.End < opts.Start {
		return []Position{}, nil
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}

	total := int(opts.End - opts.Start + 1)
	results := make([]*Position, total)
	var (
		mu      sync.Mutex
		fetched int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < total; i++ {
		i := i
		idx := opts.Start + int64(i)
		g.Go(func() error {
			p, err := b.PositionAt(gctx, idx)
			switch {
			case err == nil:
				results[i] = p
			case errors.Is(err, ErrNoPosition):
				log.Protocol.Debug().Int64("index", idx).Msg("index has no position")
			default:
				return fmt.Errorf("position %d: %w", idx, err)
			}
			if opts.Progress != nil {
				mu.Lock()
				fetched++
				opts.Progress(fetched, total)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	out := make([]Position, 0, total)
	for _, p := range results {
		if p == nil {
			continue
		}
		pct := p.Ratio.Mul(hundred)
		if pct.LessThan(opts.MinRatio) {
			continue
		}
		if opts.MaxRatio.IsPositive() && pct.GreaterThan(opts.MaxRatio) {
			continue
		}
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if opts.Reverse {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out, nil
}

func positionLess(key string) (func(a, b Position) bool, error) {
	switch key {
	case "", "pos_id":
		return func(a, b Position) bool { return a.ID < b.ID }, nil
	case "ratio":
		return func(a, b Position) bool { return a.Ratio.LessThan(b.Ratio) }, nil
	case "collateral":
		return func(a, b Position) bool { return a.Collateral.Cmp(b.Collateral) < 0 }, nil
	case "total_debt":
		return func(a, b Position) bool { return a.TotalDebt.Cmp(b.TotalDebt) < 0 }, nil
	case "created":
		return func(a, b Position) bool { return a.Created < b.Created }, nil
	}
	return nil, fmt.Errorf("unknown sort key %q (want one of %v)", key, SortKeys)
}

// RebalanceStatus reads the rebalancer state.
func (b *Balanced) RebalanceStatus(ctx context.Context) (RebalanceStatus, error) {
	var raw []string
	if err := call(ctx, b.c, mustContract(BalancedRebalance), "getRebalancingStatus", nil, &raw); err != nil {
		return RebalanceStatus{}, err
	}
	if len(raw) < 3 {
		return RebalanceStatus{}, fmt.Errorf("getRebalancingStatus: expected 3 values, got %d", len(raw))
	}
	amount, err := icx.HexToBig(raw[1])
	if err != nil {
		return RebalanceStatus{}, err
	}
	return RebalanceStatus{Forward: raw[0] == "0x1", Amount: amount, Reverse: raw[2] == "0x1"}, nil
}

// DividendsReady reports whether the dividends contract has a
// distribution pending.
func (b *Balanced) DividendsReady(ctx context.Context) (bool, error) {
	v, err := callBig(ctx, b.c, mustContract(BalancedDividends), "distribute", nil)
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

// DepositICX deposits value loop of ICX as collateral.
func (b *Balanced) DepositICX(value *big.Int) *icx.Transaction {
	return b.depositAndBorrow(value, new(big.Int))
}

// Borrow borrows amount of bnUSD against existing collateral.
func (b *Balanced) Borrow(amount *big.Int) *icx.Transaction {
	return b.depositAndBorrow(nil, amount)
}

func (b *Balanced) depositAndBorrow(value, amount *big.Int) *icx.Transaction {
	params := map[string]any{"_asset": "bnUSD", "_amount": icx.BigToHex(amount)}
	return icx.NewCall(mustContract(BalancedLoans), "depositAndBorrow", params, value, b.nid)
}

// DepositSICX deposits sICX as collateral through a token transfer.
func (b *Balanced) DepositSICX(amount *big.Int) *icx.Transaction {
	return Tokens["SICX"].Transfer(mustContract(BalancedLoans), amount, []byte(depositCollateralData), b.nid)
}

// WithdrawCollateral withdraws amount of sICX collateral.
func (b *Balanced) WithdrawCollateral(amount *big.Int) *icx.Transaction {
	return icx.NewCall(mustContract(BalancedLoans), "withdrawCollateral",
		map[string]any{"_value": icx.BigToHex(amount)}, nil, b.nid)
}

// Liquidate checks that owner's position is under water and builds the
// liquidation transaction.
func (b *Balanced) Liquidate(ctx context.Context, owner string) (*icx.Transaction, *Position, error) {
	p, err := b.Position(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	if !p.Liquidatable() {
		return nil, p, fmt.Errorf("%w: %s has ratio %s", ErrNotLiquidatable, owner, p.Ratio.StringFixed(4))
	}
	tx := icx.NewCall(mustContract(BalancedLoans), "liquidate", map[string]any{"_owner": owner}, nil, b.nid)
	return tx, p, nil
}

// Rebalance builds a rebalance call when the rebalancer reports work.
func (b *Balanced) Rebalance(ctx context.Context) (*icx.Transaction, error) {
	st, err := b.RebalanceStatus(ctx)
	if err != nil {
		return nil, err
	}
	if !st.Needed() {
		return nil, ErrNothingToRebalance
	}
	return icx.NewCall(mustContract(BalancedRebalance), "rebalance", map[string]any{}, nil, b.nid), nil
}

// Swap sells amount of from for to on the Balanced DEX, requiring at
// least minReceive back.
func (b *Balanced) Swap(from, to Token, amount, minReceive *big.Int) (*icx.Transaction, error) {
	payload, err := json.Marshal(map[string]any{
		"method": "_swap",
		"params": map[string]any{
			"toToken":        to.Contract,
			"minimumReceive": minReceive.String(),
		},
	})
	if err != nil {
		return nil, err
	}
	return from.Transfer(mustContract(BalancedDex), amount, payload, b.nid), nil
}

// DistributeDividends triggers a dividends distribution.
func (b *Balanced) DistributeDividends() *icx.Transaction {
	return icx.NewCall(mustContract(BalancedDividends), "distribute", nil, nil, b.nid)
}

// ExecuteVote executes a passed governance vote.
func (b *Balanced) ExecuteVote(index int64) *icx.Transaction {
	return icx.NewCall(mustContract(BalancedGovernance), "executeVoteAction",
		map[string]any{"vote_index": icx.IntToHex(index)}, nil, b.nid)
}

func decodePosition(raw map[string]json.RawMessage) (*Position, error) {
	str := func(k string) string {
		var s string
		_ = json.Unmarshal(raw[k], &s)
		return s
	}
	bigOf := func(k string) (*big.Int, error) {
		s := str(k)
		if s == "" {
			return new(big.Int), nil
		}
		return icx.HexToBig(s)
	}

	p := &Position{Address: str("address"), Standing: str("standing"), Assets: map[string]*big.Int{}}
	id, err := bigOf("pos_id")
	if err != nil {
		return nil, err
	}
	p.ID = id.Int64()
	created, err := bigOf("created")
	if err != nil {
		return nil, err
	}
	p.Created = created.Int64()
	if p.Collateral, err = bigOf("collateral"); err != nil {
		return nil, err
	}
	if p.TotalDebt, err = bigOf("total_debt"); err != nil {
		return nil, err
	}
	ratio, err := bigOf("ratio")
	if err != nil {
		return nil, err
	}
	p.Ratio = decimal.NewFromBigInt(ratio, -icx.Decimals)

	var assets map[string]string
	if len(raw["assets"]) > 0 {
		if err := json.Unmarshal(raw["assets"], &assets); err != nil {
			return nil, fmt.Errorf("assets: %w", err)
		}
	}
	for sym, hex := range assets {
		v, err := icx.HexToBig(hex)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", sym, err)
		}
		p.Assets[sym] = v
	}
	return p, nil
}
