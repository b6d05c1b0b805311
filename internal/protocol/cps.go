package protocol

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
)

// Vote values accepted by the CPS contract.
const (
	VoteApprove = "_approve"
	VoteReject  = "_reject"
	VoteAbstain = "_abstain"
)

// Project types accepted by RemainingProjects.
const (
	ProjectProposal       = "proposal"
	ProjectProgressReport = "progress_reports"
)

// Record is a CPS proposal or progress report. Hex integers are
// rendered as decimal strings.
type Record map[string]any

// Fund is the CPS treasury balance.
type Fund struct {
	ICX   *big.Int
	BnUSD *big.Int
}

// CPSValidator is a validator registered with CPS.
type CPSValidator struct {
	Name      string
	Address   string
	Delegated *big.Int
}

// ProposalVote is the payload of a proposal vote.
type ProposalVote struct {
	Vote       string
	Reason     string
	IPFSKey    string
	VoteChange bool
}

// CPS reads and votes on the Contribution Proposal System.
type CPS struct {
	c    Caller
	nid  int64
	addr string
}

// NewCPS returns a CPS helper for network, which must be mainnet.
func NewCPS(c Caller, network config.NetworkDescriptor) (*CPS, error) {
	if err := requireMainnet(network); err != nil {
		return nil, err
	}
	return &CPS{c: c, nid: network.NID, addr: mustContract(CPSContract)}, nil
}

// Contributors returns the addresses that have submitted proposals.
func (s *CPS) Contributors(ctx context.Context) ([]string, error) {
	var out []string
	err := call(ctx, s.c, s.addr, "get_contributors", nil, &out)
	return out, err
}

// PReps returns the validators registered with CPS.
func (s *CPS) PReps(ctx context.Context) ([]CPSValidator, error) {
	var raw []map[string]any
	if err := call(ctx, s.c, s.addr, "get_PReps", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]CPSValidator, 0, len(raw))
	for _, m := range raw {
		p := prepFromMap(m)
		out = append(out, CPSValidator{Name: p.Name, Address: p.Address, Delegated: p.Delegated})
	}
	return out, nil
}

// RemainingFund returns the treasury balance.
func (s *CPS) RemainingFund(ctx context.Context) (*Fund, error) {
	var raw struct {
		ICX   string `json:"ICX"`
		BnUSD string `json:"bnUSD"`
	}
	if err := call(ctx, s.c, s.addr, "get_remaining_fund", nil, &raw); err != nil {
		return nil, err
	}
	f := &Fund{ICX: new(big.Int), BnUSD: new(big.Int)}
	var err error
	if raw.ICX != "" {
		if f.ICX, err = icx.HexToBig(raw.ICX); err != nil {
			return nil, err
		}
	}
	if raw.BnUSD != "" {
		if f.BnUSD, err = icx.HexToBig(raw.BnUSD); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// PeriodStatus returns the current application or voting period.
func (s *CPS) PeriodStatus(ctx context.Context) (Record, error) {
	var raw map[string]any
	if err := call(ctx, s.c, s.addr, "get_period_status", nil, &raw); err != nil {
		return nil, err
	}
	return decodeHex(raw), nil
}

// ActiveProposals returns the active proposals of one contributor.
func (s *CPS) ActiveProposals(ctx context.Context, contributor string) ([]Record, error) {
	var raw []map[string]any
	if err := call(ctx, s.c, s.addr, "get_active_proposals",
		map[string]any{"_wallet_address": contributor}, &raw); err != nil {
		return nil, err
	}
	return records(raw), nil
}

// AllActiveProposals collects the active proposals of every contributor,
// querying up to workers contributors at once.
func (s *CPS) AllActiveProposals(ctx context.Context, workers int) ([]Record, error) {
	contributors, err := s.Contributors(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(contributors))
	unique := contributors[:0]
	for _, c := range contributors {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	sort.Strings(unique)
	if workers <= 0 {
		workers = 8
	}

	out := make([][]Record, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, addr := range unique {
		i, addr := i, addr
		g.Go(func() error {
			recs, err := s.ActiveProposals(gctx, addr)
			if err != nil {
				return err
			}
			out[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []Record
	for _, recs := range out {
		all = append(all, recs...)
	}
	return all, nil
}

// ProgressReports returns progress reports awaiting votes.
func (s *CPS) ProgressReports(ctx context.Context) ([]Record, error) {
	var raw struct {
		Data []map[string]any `json:"data"`
	}
	params := map[string]any{"_status": "_waiting", "_start_index": icx.IntToHex(0)}
	if err := call(ctx, s.c, s.addr, "get_progress_reports", params, &raw); err != nil {
		return nil, err
	}
	return records(raw.Data), nil
}

// RemainingProjects returns the proposals or progress reports that
// validator has not voted on yet.
func (s *CPS) RemainingProjects(ctx context.Context, validator, projectType string) ([]Record, error) {
	if projectType != ProjectProposal && projectType != ProjectProgressReport {
		return nil, fmt.Errorf("unknown project type %q", projectType)
	}
	var raw []map[string]any
	params := map[string]any{"_wallet_address": validator, "_project_type": projectType}
	if err := call(ctx, s.c, s.addr, "get_remaining_project", params, &raw); err != nil {
		return nil, err
	}
	return records(raw), nil
}

// VoteProposal builds a proposal vote.
func (s *CPS) VoteProposal(v ProposalVote) (*icx.Transaction, error) {
	if err := validVote(v.Vote); err != nil {
		return nil, err
	}
	return icx.NewCall(s.addr, "vote_proposal", voteParams(v), nil, s.nid), nil
}

// VoteProgressReport builds a progress report vote.
func (s *CPS) VoteProgressReport(reportKey string, v ProposalVote) (*icx.Transaction, error) {
	if err := validVote(v.Vote); err != nil {
		return nil, err
	}
	if reportKey == "" {
		return nil, fmt.Errorf("report key is required")
	}
	params := voteParams(v)
	params["_report_key"] = reportKey
	return icx.NewCall(s.addr, "vote_progress_report", params, nil, s.nid), nil
}

func voteParams(v ProposalVote) map[string]any {
	change := int64(0)
	if v.VoteChange {
		change = 1
	}
	return map[string]any{
		"_vote":        v.Vote,
		"_vote_reason": v.Reason,
		"_ipfs_key":    v.IPFSKey,
		"_vote_change": icx.IntToHex(change),
	}
}

func validVote(v string) error {
	switch v {
	case VoteApprove, VoteReject, VoteAbstain:
		return nil
	}
	return fmt.Errorf("invalid vote %q (want %s, %s or %s)", v, VoteApprove, VoteReject, VoteAbstain)
}

func records(raw []map[string]any) []Record {
	out := make([]Record, 0, len(raw))
	for _, m := range raw {
		out = append(out, Record(decodeHex(m)))
	}
	return out
}
