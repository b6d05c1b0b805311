package cmd

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/protocol"
	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	positionIndex    int64
	positionsStart   int64
	positionsEnd     int64
	positionsWorkers int
	positionsMin     string
	positionsMax     string
	positionsSort    string
	positionsReverse bool
	cpsProjectType   string
	cpsWorkers       int
)

// ---------------------------------------------------------------------------
// Balanced
// ---------------------------------------------------------------------------

var balancedQueryCmd = &cobra.Command{
	Use:   "balanced",
	Short: "Balanced loans, rebalancing and dividends (mainnet)",
}

func newBalanced() (*protocol.Balanced, error) {
	s, err := newSession()
	if err != nil {
		return nil, err
	}
	return protocol.NewBalanced(s.client, s.network)
}

var balancedPositionCmd = &cobra.Command{
	Use:   "position [address]",
	Short: "Show the loan position of an address, or the one at --index",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBalanced()
		if err != nil {
			return err
		}
		ctx := cmdContext(cmd)
		var pos *protocol.Position
		if cmd.Flags().Changed("index") {
			pos, err = withSpinner("Fetching position...", func() (*protocol.Position, error) {
				return b.PositionAt(ctx, positionIndex)
			})
		} else {
			addr, rerr := resolveAddress(optionalArg(args))
			if rerr != nil {
				return rerr
			}
			pos, err = withSpinner("Fetching position...", func() (*protocol.Position, error) {
				return b.Position(ctx, addr)
			})
		}
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, pos, func() error {
			fmt.Fprintln(out, ui.KeyValueBlock(fmt.Sprintf("Position #%d", pos.ID), positionPairs(pos)))
			return nil
		})
	},
}

func positionPairs(p *protocol.Position) [][2]string {
	ratio := ui.Val(percent(p.Ratio))
	if p.Liquidatable() {
		ratio = ui.StyleError.Render(percent(p.Ratio) + " liquidatable")
	}
	pairs := [][2]string{
		{"Address", ui.Addr(p.Address)},
		{"Created", time.UnixMicro(p.Created).UTC().Format(time.RFC3339)},
		{"Standing", p.Standing},
		{"Collateral", icx.FormatICX(p.Collateral) + " sICX"},
		{"Total Debt", icx.FormatICX(p.TotalDebt) + " bnUSD"},
		{"Ratio", ratio},
	}
	symbols := make([]string, 0, len(p.Assets))
	for sym := range p.Assets {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		pairs = append(pairs, [2]string{"  " + sym, icx.FormatICX(p.Assets[sym])})
	}
	return pairs
}

func percent(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func parsePercent(flag, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "%"))
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("--%s: invalid percentage %q", flag, s)
	}
	return d, nil
}

var balancedPositionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Scan loan positions by index, filtered by collateral ratio",
	Long: `Fetch positions concurrently and list them.

Examples:
  icon query balanced positions --max 150 --sort ratio        # liquidatable
  icon query balanced positions --start 1 --end 500 --min 150 --max 200
  icon query balanced positions --sort collateral --reverse --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		minRatio, err := parsePercent("min", positionsMin)
		if err != nil {
			return err
		}
		maxRatio, err := parsePercent("max", positionsMax)
		if err != nil {
			return err
		}
		b, err := newBalanced()
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Scanning positions...")
		spin.Start()
		positions, err := b.Positions(cmdContext(cmd), protocol.ScanOptions{
			Start:    positionsStart,
			End:      positionsEnd,
			Workers:  positionsWorkers,
			MinRatio: minRatio,
			MaxRatio: maxRatio,
			SortKey:  positionsSort,
			Reverse:  positionsReverse,
			Progress: func(done, total int) {
				spin.SetMsg(fmt.Sprintf("Scanning positions %d/%d...", done, total))
			},
		})
		spin.Stop()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		return printResult(out, positions, func() error {
			if len(positions) == 0 {
				fmt.Fprintln(out, ui.Info("No positions match."))
				return nil
			}
			t := ui.NewTable([]ui.Column{
				{Title: "ID", Right: true},
				{Title: "Address", Width: 44},
				{Title: "Collateral (sICX)", Right: true},
				{Title: "Debt (bnUSD)", Right: true},
				{Title: "Ratio", Right: true},
			})
			for _, p := range positions {
				ratio := percent(p.Ratio)
				if p.Liquidatable() {
					ratio = ui.StyleError.Render(ratio)
				}
				t.AddRow(ui.Row{
					strconv.FormatInt(p.ID, 10),
					ui.Addr(p.Address),
					icx.FromLoop(p.Collateral).StringFixed(2),
					icx.FromLoop(p.TotalDebt).StringFixed(2),
					ratio,
				})
			}
			fmt.Fprintln(out, t.Render())
			fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d position(s)", len(positions))))
			return nil
		})
	},
}

var balancedRebalanceStatusCmd = &cobra.Command{
	Use:   "rebalance-status",
	Short: "Show whether the sICX/bnUSD pool needs rebalancing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBalanced()
		if err != nil {
			return err
		}
		st, err := withSpinner("Querying rebalancer...", func() (protocol.RebalanceStatus, error) {
			return b.RebalanceStatus(cmdContext(cmd))
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, st, func() error {
			direction := "none"
			switch {
			case st.Forward:
				direction = "forward (sell sICX for bnUSD)"
			case st.Reverse:
				direction = "reverse (buy sICX with bnUSD)"
			}
			fmt.Fprintln(out, ui.KeyValueBlock("Rebalance Status", [][2]string{
				{"Needed", fmt.Sprintf("%t", st.Needed())},
				{"Direction", direction},
				{"Amount", icx.FormatICX(st.Amount)},
			}))
			return nil
		})
	},
}

var balancedDividendsCmd = &cobra.Command{
	Use:   "dividends",
	Short: "Show whether dividends are ready to be distributed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBalanced()
		if err != nil {
			return err
		}
		ready, err := withSpinner("Querying dividends...", func() (bool, error) {
			return b.DividendsReady(cmdContext(cmd))
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, map[string]bool{"ready": ready}, func() error {
			if ready {
				fmt.Fprintln(out, ui.Success("Dividends are ready: icon tx balanced distribute"))
			} else {
				fmt.Fprintln(out, ui.Info("Nothing to distribute."))
			}
			return nil
		})
	},
}

// ---------------------------------------------------------------------------
// CPS
// ---------------------------------------------------------------------------

var cpsQueryCmd = &cobra.Command{
	Use:   "cps",
	Short: "Contribution Proposal System (mainnet)",
}

func newCPS() (*protocol.CPS, error) {
	s, err := newSession()
	if err != nil {
		return nil, err
	}
	return protocol.NewCPS(s.client, s.network)
}

// printRecords shows the named columns of each record; --json prints
// them whole.
func printRecords(cmd *cobra.Command, records []protocol.Record, cols ...string) error {
	out := cmd.OutOrStdout()
	return printResult(out, records, func() error {
		if len(records) == 0 {
			fmt.Fprintln(out, ui.Info("Nothing found."))
			return nil
		}
		columns := make([]ui.Column, len(cols))
		for i, c := range cols {
			columns[i] = ui.Column{Title: c, Width: 0}
		}
		t := ui.NewTable(columns)
		for _, r := range records {
			row := make(ui.Row, len(cols))
			for i, c := range cols {
				if v, ok := r[c]; ok {
					row[i] = fmt.Sprint(v)
				}
			}
			t.AddRow(row)
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d record(s); --json shows every field", len(records))))
		return nil
	})
}

var cpsContributorsCmd = &cobra.Command{
	Use:   "contributors",
	Short: "List proposal contributors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCPS()
		if err != nil {
			return err
		}
		list, err := withSpinner("Querying CPS...", func() ([]string, error) {
			return c.Contributors(cmdContext(cmd))
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, list, func() error {
			for _, a := range list {
				fmt.Fprintln(out, ui.Addr(a))
			}
			return nil
		})
	},
}

var cpsPRepsCmd = &cobra.Command{
	Use:   "preps",
	Short: "List validators registered with CPS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCPS()
		if err != nil {
			return err
		}
		preps, err := withSpinner("Querying CPS...", func() ([]protocol.CPSValidator, error) {
			return c.PReps(cmdContext(cmd))
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, preps, func() error {
			t := ui.NewTable([]ui.Column{{Title: "Name", Width: 24}, {Title: "Address", Width: 44}, {Title: "Delegated (ICX)", Right: true}})
			for _, p := range preps {
				delegated := "—"
				if p.Delegated != nil {
					delegated = icx.FromLoop(p.Delegated).StringFixed(0)
				}
				t.AddRow(ui.Row{ui.Val(p.Name), ui.Addr(p.Address), delegated})
			}
			fmt.Fprintln(out, t.Render())
			return nil
		})
	},
}

var cpsFundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Show the remaining CPS treasury",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCPS()
		if err != nil {
			return err
		}
		fund, err := withSpinner("Querying CPS...", func() (*protocol.Fund, error) {
			return c.RemainingFund(cmdContext(cmd))
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, fund, func() error {
			fmt.Fprintln(out, ui.KeyValueBlock("CPS Treasury", [][2]string{
				{"ICX", ui.Val(icx.FormatICX(fund.ICX))},
				{"bnUSD", ui.Val(icx.FormatICX(fund.BnUSD))},
			}))
			return nil
		})
	},
}

var cpsPeriodCmd = &cobra.Command{
	Use:   "period",
	Short: "Show the current CPS period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCPS()
		if err != nil {
			return err
		}
		rec, err := withSpinner("Querying CPS...", func() (protocol.Record, error) {
			return c.PeriodStatus(cmdContext(cmd))
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, rec, func() error {
			keys := make([]string, 0, len(rec))
			for k := range rec {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([][2]string, 0, len(keys))
			for _, k := range keys {
				pairs = append(pairs, [2]string{k, fmt.Sprint(rec[k])})
			}
			fmt.Fprintln(out, ui.KeyValueBlock("CPS Period", pairs))
			return nil
		})
	},
}

var cpsProposalsCmd = &cobra.Command{
	Use:   "proposals [contributor]",
	Short: "List active proposals of one contributor, or of all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCPS()
		if err != nil {
			return err
		}
		ctx := cmdContext(cmd)
		var records []protocol.Record
		if len(args) == 1 {
			addr, rerr := resolveAddress(args[0])
			if rerr != nil {
				return rerr
			}
			records, err = withSpinner("Querying CPS...", func() ([]protocol.Record, error) {
				return c.ActiveProposals(ctx, addr)
			})
		} else {
			records, err = withSpinner("Querying every contributor...", func() ([]protocol.Record, error) {
				return c.AllActiveProposals(ctx, cpsWorkers)
			})
		}
		if err != nil {
			return err
		}
		return printRecords(cmd, records, "ipfs_hash", "project_title", "status", "total_budget")
	},
}

var cpsProgressReportsCmd = &cobra.Command{
	Use:   "progress-reports",
	Short: "List progress reports waiting for votes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCPS()
		if err != nil {
			return err
		}
		records, err := withSpinner("Querying CPS...", func() ([]protocol.Record, error) {
			return c.ProgressReports(cmdContext(cmd))
		})
		if err != nil {
			return err
		}
		return printRecords(cmd, records, "report_hash", "progress_report_title", "ipfs_hash", "status")
	},
}

var cpsRemainingCmd = &cobra.Command{
	Use:   "remaining [validator]",
	Short: "List projects a validator has not voted on yet",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveAddress(optionalArg(args))
		if err != nil {
			return err
		}
		c, err := newCPS()
		if err != nil {
			return err
		}
		records, err := withSpinner("Querying CPS...", func() ([]protocol.Record, error) {
			return c.RemainingProjects(cmdContext(cmd), addr, cpsProjectType)
		})
		if err != nil {
			return err
		}
		return printRecords(cmd, records, "ipfs_hash", "report_hash", "project_title", "progress_report_title")
	},
}

// ---------------------------------------------------------------------------
// OMM
// ---------------------------------------------------------------------------

var ommQueryCmd = &cobra.Command{
	Use:   "omm",
	Short: "OMM staking (mainnet)",
}

var ommStakeCmd = &cobra.Command{
	Use:   "stake [address]",
	Short: "Show staked OMM of an address",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveAddress(optionalArg(args))
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		o, err := protocol.NewOMM(s.client, s.network)
		if err != nil {
			return err
		}
		staked, err := withSpinner("Querying OMM...", func() (*big.Int, error) {
			return o.StakedBalance(cmdContext(cmd), addr)
		})
		if err != nil {
			return err
		}
		tok := protocol.Tokens["OMM"]
		amount := tok.Format(staked)
		out := cmd.OutOrStdout()
		return printResult(out, map[string]any{"address": addr, "staked": amount}, func() error {
			fmt.Fprintln(out, ui.KeyValueBlock("OMM Stake", [][2]string{
				{"Address", ui.Addr(addr)},
				{"Staked", ui.Val(amount.String() + " OMM")},
			}))
			return nil
		})
	},
}

func init() {
	balancedPositionCmd.Flags().Int64Var(&positionIndex, "index", 0, "position index instead of an address")
	f := balancedPositionsCmd.Flags()
	f.Int64Var(&positionsStart, "start", 1, "first position index")
	f.Int64Var(&positionsEnd, "end", 0, "last position index, inclusive (default: last)")
	f.IntVar(&positionsWorkers, "workers", 8, "concurrent requests")
	f.StringVar(&positionsMin, "min", "", "minimum collateral ratio in percent")
	f.StringVar(&positionsMax, "max", "", "maximum collateral ratio in percent")
	f.StringVar(&positionsSort, "sort", "pos_id", "sort key: "+strings.Join(protocol.SortKeys, ", "))
	f.BoolVar(&positionsReverse, "reverse", false, "reverse the sort order")
	balancedQueryCmd.AddCommand(balancedPositionCmd, balancedPositionsCmd, balancedRebalanceStatusCmd, balancedDividendsCmd)

	cpsProposalsCmd.Flags().IntVar(&cpsWorkers, "workers", 8, "concurrent requests when listing every contributor")
	cpsRemainingCmd.Flags().StringVar(&cpsProjectType, "type", protocol.ProjectProposal, "project type: proposal or progress_reports")
	cpsQueryCmd.AddCommand(cpsContributorsCmd, cpsPRepsCmd, cpsFundCmd, cpsPeriodCmd, cpsProposalsCmd, cpsProgressReportsCmd, cpsRemainingCmd)

	ommQueryCmd.AddCommand(ommStakeCmd)
}
