package protocol_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/icx/icxtest"
	"github.com/Mohsinsiddi/icon-cli/internal/protocol"
)

const (
	owner = "hx5bfdb090f43a808005ffc27c25b213145e80b7cd"
	prep  = "hxfba37e91ccc13ec1dab115811f73e429cde44d48"
)

var (
	mainnet, _ = config.BuiltinNetwork("mainnet")
	lisbon, _  = config.BuiltinNetwork("lisbon")
)

func ctx() context.Context { return context.Background() }

func contract(t *testing.T, name string) string {
	t.Helper()
	addr, err := protocol.Contract(name, "mainnet")
	require.NoError(t, err)
	return addr
}

func callParams(params map[string]any) map[string]any {
	data, _ := params["data"].(map[string]any)
	p, _ := data["params"].(map[string]any)
	return p
}

// txData returns the wire-level data object of a built transaction.
func txData(t *testing.T, tx *icx.Transaction) map[string]any {
	t.Helper()
	p, err := tx.Params()
	require.NoError(t, err)
	data, ok := p["data"].(map[string]any)
	require.True(t, ok)
	return data
}

func newNode(t *testing.T) (*icxtest.Node, *icx.Client) {
	node := icxtest.NewNode(t)
	return node, icx.NewClient(node.URL)
}

// ---------------------------------------------------------------------------
// Contracts and tokens
// ---------------------------------------------------------------------------

func TestContractLookup(t *testing.T) {
	addr, err := protocol.Contract(protocol.BalancedLoans, "mainnet")
	require.NoError(t, err)
	assert.Equal(t, "cx66d4d90f5f113eba575bf793570135f9b10cece1", addr)

	_, err = protocol.Contract(protocol.BalancedLoans, "lisbon")
	assert.ErrorIs(t, err, protocol.ErrUnknownContract)
	_, err = protocol.Contract("nope", "mainnet")
	assert.ErrorIs(t, err, protocol.ErrUnknownContract)
}

func TestContractNamesSorted(t *testing.T) {
	names := protocol.ContractNames()
	assert.Len(t, names, len(protocol.Contracts))
	assert.IsIncreasing(t, names)
}

func TestLookupTokenIgnoresCase(t *testing.T) {
	tok, err := protocol.LookupToken(" sicx ")
	require.NoError(t, err)
	assert.Equal(t, "sICX", tok.Symbol)

	_, err = protocol.LookupToken("DOGE")
	assert.ErrorIs(t, err, protocol.ErrUnknownToken)
}

func TestTokenBalance(t *testing.T) {
	node, c := newNode(t)
	baln := protocol.Tokens["BALN"]
	node.HandleCall(baln.Contract, "balanceOf", func(p map[string]any) (any, error) {
		assert.Equal(t, owner, callParams(p)["_owner"])
		return "0xde0b6b3a7640000", nil
	})

	bal, err := baln.Balance(ctx(), c, owner)
	require.NoError(t, err)
	assert.Equal(t, "1", baln.Format(bal).String())
}

// ---------------------------------------------------------------------------
// Chain score
// ---------------------------------------------------------------------------

func TestICXUSDPrice(t *testing.T) {
	node, c := newNode(t)
	node.HandleCall(contract(t, protocol.BandOracle), "get_ref_data", func(p map[string]any) (any, error) {
		assert.Equal(t, "ICX", callParams(p)["_symbol"])
		return map[string]any{"rate": "0xee6b280"}, nil
	})

	price, err := protocol.ICXUSDPrice(ctx(), c)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("0.25")), price.String())
}

func TestQueryIScore(t *testing.T) {
	node, c := newNode(t)
	node.CallResult(protocol.ChainScore, "queryIScore", map[string]any{
		"blockHeight":  "0x10",
		"iscore":       "0x3e8",
		"estimatedICX": "0x1",
	})

	is, err := protocol.QueryIScore(ctx(), c, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(16), is.BlockHeight)
	assert.Equal(t, int64(1000), is.IScore.Int64())
	assert.Equal(t, int64(1), is.EstimatedICX.Int64())
}

func TestGetDelegation(t *testing.T) {
	node, c := newNode(t)
	node.CallResult(protocol.ChainScore, "getDelegation", map[string]any{
		"delegations":    []map[string]any{{"address": prep, "value": "0x64"}},
		"totalDelegated": "0x64",
		"votingPower":    "0x0",
	})

	d, err := protocol.GetDelegation(ctx(), c, owner)
	require.NoError(t, err)
	require.Len(t, d.Delegations, 1)
	assert.Equal(t, prep, d.Delegations[0].Address)
	assert.Equal(t, int64(100), d.Delegations[0].Value.Int64())
	assert.Equal(t, int64(100), d.TotalDelegated.Int64())
}

func TestGetPReps(t *testing.T) {
	node, c := newNode(t)
	node.HandleCall(protocol.ChainScore, "getPReps", func(p map[string]any) (any, error) {
		assert.Equal(t, "0x1", callParams(p)["startRanking"])
		assert.Equal(t, "0x2", callParams(p)["endRanking"])
		return map[string]any{"preps": []map[string]any{
			{"name": "ICX_Station", "address": prep, "delegated": "0xa", "grade": "0x0"},
		}}, nil
	})

	preps, err := protocol.GetPReps(ctx(), c, 1, 2)
	require.NoError(t, err)
	require.Len(t, preps, 1)
	assert.Equal(t, "ICX_Station", preps[0].Name)
	assert.Equal(t, int64(10), preps[0].Delegated.Int64())
}

func TestClaimIScoreTransaction(t *testing.T) {
	tx := protocol.ClaimIScore(1)
	assert.Equal(t, protocol.ChainScore, tx.To)
	assert.Equal(t, "claimIScore", txData(t, tx)["method"])
}

func TestSetDelegationTransaction(t *testing.T) {
	tx := protocol.SetDelegation([]protocol.Delegation{{Address: prep, Value: big.NewInt(255)}}, 1)
	params := txData(t, tx)["params"].(map[string]any)
	list := params["delegations"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, map[string]any{"address": prep, "value": "0xff"}, list[0])
}

// ---------------------------------------------------------------------------
// Balanced
// ---------------------------------------------------------------------------

func TestBalancedRequiresMainnet(t *testing.T) {
	_, err := protocol.NewBalanced(nil, lisbon)
	assert.ErrorIs(t, err, protocol.ErrMainnetOnly)
	_, err = protocol.NewCPS(nil, lisbon)
	assert.ErrorIs(t, err, protocol.ErrMainnetOnly)
	_, err = protocol.NewOMM(nil, lisbon)
	assert.ErrorIs(t, err, protocol.ErrMainnetOnly)
}

func positionDoc(id int64, addr, ratioHex string) map[string]any {
	return map[string]any{
		"pos_id":     fmt.Sprintf("0x%x", id),
		"address":    addr,
		"created":    "0x5c0a4d8e6a2c0",
		"standing":   "Mining",
		"collateral": "0x1bc16d674ec80000",
		"total_debt": "0xde0b6b3a7640000",
		"ratio":      ratioHex,
		"assets":     map[string]any{"sICX": "0x1bc16d674ec80000", "bnUSD": "0xde0b6b3a7640000"},
	}
}

// fakeLoans serves four indexes: three positions and one closed account.
func fakeLoans(t *testing.T, node *icxtest.Node) *atomic.Int32 {
	loans := contract(t, protocol.BalancedLoans)
	addrs := map[string]string{
		"0x1": "hx0000000000000000000000000000000000000001",
		"0x2": "hx0000000000000000000000000000000000000002",
		"0x3": "hx0000000000000000000000000000000000000003",
		"0x4": "hx0000000000000000000000000000000000000004",
	}
	docs := map[string]map[string]any{
		addrs["0x1"]: positionDoc(1, addrs["0x1"], "0x136dcc951d8c0000"), // 1.4
		addrs["0x2"]: positionDoc(2, addrs["0x2"], "0x30927f74c9de0000"), // 3.5
		addrs["0x3"]: positionDoc(3, addrs["0x3"], "0x1bc16d674ec80000"), // 2.0
		addrs["0x4"]: {},
	}
	var lookups atomic.Int32
	node.CallResult(loans, "borrowerCount", "0x4")
	node.HandleCall(loans, "getPositionAddress", func(p map[string]any) (any, error) {
		lookups.Add(1)
		return addrs[callParams(p)["_index"].(string)], nil
	})
	node.HandleCall(loans, "getAccountPositions", func(p map[string]any) (any, error) {
		return docs[callParams(p)["_owner"].(string)], nil
	})
	return &lookups
}

func TestPositionDecodes(t *testing.T) {
	node, c := newNode(t)
	fakeLoans(t, node)
	b, err := protocol.NewBalanced(c, mainnet)
	require.NoError(t, err)

	p, err := b.PositionAt(ctx(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "Mining", p.Standing)
	assert.True(t, p.Ratio.Equal(decimal.RequireFromString("1.4")))
	assert.Equal(t, "2", icx.FormatICX(p.Collateral))
	assert.Equal(t, "1", icx.FormatICX(p.Assets["bnUSD"]))
	assert.True(t, p.Liquidatable())
}

func TestPositionMissing(t *testing.T) {
	node, c := newNode(t)
	fakeLoans(t, node)
	b, _ := protocol.NewBalanced(c, mainnet)

	_, err := b.Position(ctx(), "hx0000000000000000000000000000000000000004")
	assert.ErrorIs(t, err, protocol.ErrNoPosition)
}

func TestPositionCount(t *testing.T) {
	node, c := newNode(t)
	fakeLoans(t, node)
	b, _ := protocol.NewBalanced(c, mainnet)

	n, err := b.PositionCount(ctx())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestPositionsFiltersAndSorts(t *testing.T) {
	node, c := newNode(t)
	lookups := fakeLoans(t, node)
	b, _ := protocol.NewBalanced(c, mainnet)

	var progress []int
	got, err := b.Positions(ctx(), protocol.ScanOptions{
		Workers:  2,
		MinRatio: decimal.NewFromInt(150),
		MaxRatio: decimal.NewFromInt(400),
		SortKey:  "ratio",
		Reverse:  true,
		Progress: func(done, total int) {
			assert.Equal(t, 4, total)
			progress = append(progress, done)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(4), lookups.Load())
	assert.Equal(t, []int{1, 2, 3, 4}, progress)

	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestPositionsRangeAndDefaultSort(t *testing.T) {
	node, c := newNode(t)
	fakeLoans(t, node)
	b, _ := protocol.NewBalanced(c, mainnet)

	got, err := b.Positions(ctx(), protocol.ScanOptions{Start: 1, End: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
}

func TestPositionsUnknownSortKey(t *testing.T) {
	b, _ := protocol.NewBalanced(nil, mainnet)
	_, err := b.Positions(ctx(), protocol.ScanOptions{SortKey: "color"})
	assert.Error(t, err)
}

func TestPositionsPropagatesRPCError(t *testing.T) {
	node, c := newNode(t)
	loans := contract(t, protocol.BalancedLoans)
	node.CallResult(loans, "borrowerCount", "0x2")
	node.HandleCall(loans, "getPositionAddress", func(map[string]any) (any, error) {
		return nil, fmt.Errorf("boom")
	})
	b, _ := protocol.NewBalanced(c, mainnet)

	_, err := b.Positions(ctx(), protocol.ScanOptions{})
	assert.ErrorIs(t, err, icx.ErrRPC)
}

func TestLiquidate(t *testing.T) {
	node, c := newNode(t)
	fakeLoans(t, node)
	b, _ := protocol.NewBalanced(c, mainnet)

	tx, p, err := b.Liquidate(ctx(), "hx0000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	data := txData(t, tx)
	assert.Equal(t, "liquidate", data["method"])
	assert.Equal(t, map[string]any{"_owner": "hx0000000000000000000000000000000000000001"}, data["params"])

	_, _, err = b.Liquidate(ctx(), "hx0000000000000000000000000000000000000003")
	assert.ErrorIs(t, err, protocol.ErrNotLiquidatable)
}

func TestRebalanceNothingToDo(t *testing.T) {
	node, c := newNode(t)
	node.CallResult(contract(t, protocol.BalancedRebalance), "getRebalancingStatus", []string{"0x0", "0x0", "0x0"})
	b, _ := protocol.NewBalanced(c, mainnet)

	_, err := b.Rebalance(ctx())
	assert.ErrorIs(t, err, protocol.ErrNothingToRebalance)
}

func TestRebalance(t *testing.T) {
	node, c := newNode(t)
	rebalancer := contract(t, protocol.BalancedRebalance)
	node.CallResult(rebalancer, "getRebalancingStatus", []string{"0x0", "0xde0b6b3a7640000", "0x1"})
	b, _ := protocol.NewBalanced(c, mainnet)

	st, err := b.RebalanceStatus(ctx())
	require.NoError(t, err)
	assert.True(t, st.Reverse)
	assert.False(t, st.Forward)
	assert.Equal(t, "1", icx.FormatICX(st.Amount))

	tx, err := b.Rebalance(ctx())
	require.NoError(t, err)
	assert.Equal(t, rebalancer, tx.To)
	assert.Equal(t, "rebalance", txData(t, tx)["method"])
}

func TestDividendsReady(t *testing.T) {
	node, c := newNode(t)
	node.CallResult(contract(t, protocol.BalancedDividends), "distribute", "0x1")
	b, _ := protocol.NewBalanced(c, mainnet)

	ready, err := b.DividendsReady(ctx())
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestDepositAndBorrowTransactions(t *testing.T) {
	b, _ := protocol.NewBalanced(nil, mainnet)
	loans := contract(t, protocol.BalancedLoans)

	dep := b.DepositICX(big.NewInt(1000))
	assert.Equal(t, loans, dep.To)
	assert.Equal(t, int64(1000), dep.Value.Int64())
	assert.Equal(t, map[string]any{"_asset": "bnUSD", "_amount": "0x0"}, txData(t, dep)["params"])

	borrow := b.Borrow(big.NewInt(16))
	assert.Nil(t, borrow.Value)
	assert.Equal(t, map[string]any{"_asset": "bnUSD", "_amount": "0x10"}, txData(t, borrow)["params"])

	w := b.WithdrawCollateral(big.NewInt(16))
	assert.Equal(t, "withdrawCollateral", txData(t, w)["method"])
}

func TestDepositSICXSendsCollateralPayload(t *testing.T) {
	b, _ := protocol.NewBalanced(nil, mainnet)
	tx := b.DepositSICX(big.NewInt(1))

	assert.Equal(t, protocol.Tokens["SICX"].Contract, tx.To)
	data := txData(t, tx)
	assert.Equal(t, "transfer", data["method"])
	params := data["params"].(map[string]any)
	assert.Equal(t, contract(t, protocol.BalancedLoans), params["_to"])
	assert.Equal(t, "0x7b225f6173736574223a22222c225f616d6f756e74223a307d", params["_data"])
}

func TestSwapPayload(t *testing.T) {
	b, _ := protocol.NewBalanced(nil, mainnet)
	from, to := protocol.Tokens["SICX"], protocol.Tokens["BNUSD"]

	tx, err := b.Swap(from, to, big.NewInt(10), big.NewInt(9))
	require.NoError(t, err)
	params := txData(t, tx)["params"].(map[string]any)
	assert.Equal(t, contract(t, protocol.BalancedDex), params["_to"])

	raw, err := hex.DecodeString(params["_data"].(string)[2:])
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "_swap", payload["method"])
	assert.Equal(t, map[string]any{"toToken": to.Contract, "minimumReceive": "9"}, payload["params"])
}

func TestExecuteVote(t *testing.T) {
	b, _ := protocol.NewBalanced(nil, mainnet)
	tx := b.ExecuteVote(12)
	data := txData(t, tx)
	assert.Equal(t, "executeVoteAction", data["method"])
	assert.Equal(t, map[string]any{"vote_index": "0xc"}, data["params"])
}

// ---------------------------------------------------------------------------
// CPS
// ---------------------------------------------------------------------------

func TestCPSRemainingFund(t *testing.T) {
	node, c := newNode(t)
	node.CallResult(contract(t, protocol.CPSContract), "get_remaining_fund", map[string]any{"ICX": "0x64", "bnUSD": "0xa"})
	s, err := protocol.NewCPS(c, mainnet)
	require.NoError(t, err)

	f, err := s.RemainingFund(ctx())
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.ICX.Int64())
	assert.Equal(t, int64(10), f.BnUSD.Int64())
}

func TestCPSAllActiveProposalsDeduplicates(t *testing.T) {
	node, c := newNode(t)
	cps := contract(t, protocol.CPSContract)
	node.CallResult(cps, "get_contributors", []string{owner, prep, owner})
	var calls atomic.Int32
	node.HandleCall(cps, "get_active_proposals", func(p map[string]any) (any, error) {
		calls.Add(1)
		who := callParams(p)["_wallet_address"].(string)
		return []map[string]any{{"ipfs_hash": who, "new_progress_report": "0x1"}}, nil
	})
	s, _ := protocol.NewCPS(c, mainnet)

	recs, err := s.AllActiveProposals(ctx(), 4)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, recs, 2)
	assert.Equal(t, "1", recs[0]["new_progress_report"])
}

func TestCPSProgressReports(t *testing.T) {
	node, c := newNode(t)
	node.HandleCall(contract(t, protocol.CPSContract), "get_progress_reports", func(p map[string]any) (any, error) {
		assert.Equal(t, "_waiting", callParams(p)["_status"])
		return map[string]any{"data": []map[string]any{{"report_hash": "abc", "budget": "0x2"}}}, nil
	})
	s, _ := protocol.NewCPS(c, mainnet)

	recs, err := s.ProgressReports(ctx())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2", recs[0]["budget"])
	assert.Equal(t, "abc", recs[0]["report_hash"])
}

func TestCPSRemainingProjectsRejectsType(t *testing.T) {
	s, _ := protocol.NewCPS(nil, mainnet)
	_, err := s.RemainingProjects(ctx(), prep, "grant")
	assert.Error(t, err)
}

func TestCPSVotes(t *testing.T) {
	s, _ := protocol.NewCPS(nil, mainnet)

	_, err := s.VoteProposal(protocol.ProposalVote{Vote: "_maybe"})
	assert.Error(t, err)

	tx, err := s.VoteProposal(protocol.ProposalVote{Vote: protocol.VoteApprove, Reason: "ok", IPFSKey: "k"})
	require.NoError(t, err)
	data := txData(t, tx)
	assert.Equal(t, "vote_proposal", data["method"])
	assert.Equal(t, map[string]any{
		"_vote": "_approve", "_vote_reason": "ok", "_ipfs_key": "k", "_vote_change": "0x0",
	}, data["params"])

	_, err = s.VoteProgressReport("", protocol.ProposalVote{Vote: protocol.VoteReject})
	assert.Error(t, err)
	tx, err = s.VoteProgressReport("r1", protocol.ProposalVote{Vote: protocol.VoteReject, VoteChange: true})
	require.NoError(t, err)
	params := txData(t, tx)["params"].(map[string]any)
	assert.Equal(t, "r1", params["_report_key"])
	assert.Equal(t, "0x1", params["_vote_change"])
}

// ---------------------------------------------------------------------------
// OMM
// ---------------------------------------------------------------------------

func TestOMMStakedBalance(t *testing.T) {
	node, c := newNode(t)
	node.CallResult(protocol.Tokens["OMM"].Contract, "staked_balanceOf", "0x3")
	o, err := protocol.NewOMM(c, mainnet)
	require.NoError(t, err)

	v, err := o.StakedBalance(ctx(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int64())
}

func TestOMMUpdateDelegation(t *testing.T) {
	o, _ := protocol.NewOMM(nil, mainnet)
	tx := o.UpdateDelegation(prep)
	params := txData(t, tx)["params"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"_address": prep, "_votes_in_per": "0xde0b6b3a7640000"}}, params["_delegations"])
}
