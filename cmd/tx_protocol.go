package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/protocol"
	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/spf13/cobra"
)

var (
	depositSICX bool
	swapMin     string
	voteReason  string
	voteChange  bool
)

// protocolTx runs the common path of a protocol transaction: check the
// mode and network, build, unlock, then submit.
func protocolTx(cmd *cobra.Command, title string, build func(s *session) (*icx.Transaction, [][2]string, error)) error {
	s, err := txSession()
	if err != nil {
		return err
	}
	tx, extra, err := build(s)
	if err != nil {
		return err
	}
	signer, err := unlockSigner()
	if err != nil {
		return err
	}
	_, err = submit(cmdContext(cmd), cmd.OutOrStdout(), s, signer, tx, title, extra)
	return err
}

func balancedFor(s *session) (*protocol.Balanced, error) {
	return protocol.NewBalanced(s.client, s.network)
}

// ---------------------------------------------------------------------------
// Balanced
// ---------------------------------------------------------------------------

var balancedTxCmd = &cobra.Command{
	Use:   "balanced",
	Short: "Balanced loans, swaps and maintenance (mainnet)",
}

var balancedDepositCmd = &cobra.Command{
	Use:   "deposit <amount>",
	Short: "Deposit ICX (or sICX with --sicx) as collateral",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseICX(args[0])
		if err != nil {
			return err
		}
		return protocolTx(cmd, "Deposit Collateral", func(s *session) (*icx.Transaction, [][2]string, error) {
			b, err := balancedFor(s)
			if err != nil {
				return nil, nil, err
			}
			if depositSICX {
				return b.DepositSICX(amount), [][2]string{{"Collateral", ui.Val(icx.FormatICX(amount) + " sICX")}}, nil
			}
			return b.DepositICX(amount), nil, nil
		})
	},
}

var balancedBorrowCmd = &cobra.Command{
	Use:   "borrow <amount>",
	Short: "Borrow bnUSD against deposited collateral",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseICX(args[0])
		if err != nil {
			return err
		}
		return protocolTx(cmd, "Borrow bnUSD", func(s *session) (*icx.Transaction, [][2]string, error) {
			b, err := balancedFor(s)
			if err != nil {
				return nil, nil, err
			}
			return b.Borrow(amount), [][2]string{{"Borrow", ui.Val(icx.FormatICX(amount) + " bnUSD")}}, nil
		})
	},
}

var balancedWithdrawCmd = &cobra.Command{
	Use:   "withdraw <amount>",
	Short: "Withdraw sICX collateral",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseICX(args[0])
		if err != nil {
			return err
		}
		return protocolTx(cmd, "Withdraw Collateral", func(s *session) (*icx.Transaction, [][2]string, error) {
			b, err := balancedFor(s)
			if err != nil {
				return nil, nil, err
			}
			return b.WithdrawCollateral(amount), [][2]string{{"Withdraw", ui.Val(icx.FormatICX(amount) + " sICX")}}, nil
		})
	},
}

var balancedLiquidateCmd = &cobra.Command{
	Use:   "liquidate <address>",
	Short: "Liquidate a position under the liquidation ratio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := resolveRecipient(args[0])
		if err != nil {
			return err
		}
		return protocolTx(cmd, "Liquidate Position", func(s *session) (*icx.Transaction, [][2]string, error) {
			b, err := balancedFor(s)
			if err != nil {
				return nil, nil, err
			}
			tx, pos, err := b.Liquidate(cmdContext(cmd), owner)
			if err != nil {
				return nil, nil, err
			}
			return tx, [][2]string{
				{"Position", fmt.Sprintf("#%d %s", pos.ID, ui.Addr(pos.Address))},
				{"Ratio", ui.StyleError.Render(percent(pos.Ratio))},
				{"Collateral", icx.FormatICX(pos.Collateral) + " sICX"},
			}, nil
		})
	},
}

var balancedRebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Rebalance the sICX/bnUSD pool when the rebalancer reports work",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return protocolTx(cmd, "Rebalance", func(s *session) (*icx.Transaction, [][2]string, error) {
			b, err := balancedFor(s)
			if err != nil {
				return nil, nil, err
			}
			tx, err := b.Rebalance(cmdContext(cmd))
			return tx, nil, err
		})
	},
}

var balancedSwapCmd = &cobra.Command{
	Use:   "swap <amount> <from-token> <to-token>",
	Short: "Swap tokens on the Balanced DEX",
	Long: `Sell <amount> of one token for another on the Balanced DEX.

Example:
  icon tx balanced swap 100 sicx bnusd --min 20`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := protocol.LookupToken(args[1])
		if err != nil {
			return err
		}
		to, err := protocol.LookupToken(args[2])
		if err != nil {
			return err
		}
		if from.Symbol == to.Symbol {
			return fmt.Errorf("cannot swap %s for itself", from.Symbol)
		}
		amount, err := icx.ToUnits(args[0], from.Decimals)
		if err != nil || amount.Sign() <= 0 {
			return fmt.Errorf("invalid amount %q", args[0])
		}
		minReceive, err := icx.ToUnits(swapMin, to.Decimals)
		if err != nil || minReceive.Sign() < 0 {
			return fmt.Errorf("--min: invalid amount %q", swapMin)
		}
		return protocolTx(cmd, "Swap", func(s *session) (*icx.Transaction, [][2]string, error) {
			b, err := balancedFor(s)
			if err != nil {
				return nil, nil, err
			}
			tx, err := b.Swap(from, to, amount, minReceive)
			return tx, [][2]string{
				{"Sell", ui.Val(args[0] + " " + from.Symbol)},
				{"Buy", to.Symbol},
				{"Minimum", swapMin + " " + to.Symbol},
			}, err
		})
	},
}

var balancedDistributeCmd = &cobra.Command{
	Use:   "distribute",
	Short: "Distribute pending dividends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return protocolTx(cmd, "Distribute Dividends", func(s *session) (*icx.Transaction, [][2]string, error) {
			b, err := balancedFor(s)
			if err != nil {
				return nil, nil, err
			}
			return b.DistributeDividends(), nil, nil
		})
	},
}

var balancedExecuteVoteCmd = &cobra.Command{
	Use:   "execute-vote <index>",
	Short: "Execute a passed governance vote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || index <= 0 {
			return fmt.Errorf("invalid vote index %q", args[0])
		}
		return protocolTx(cmd, "Execute Vote", func(s *session) (*icx.Transaction, [][2]string, error) {
			b, err := balancedFor(s)
			if err != nil {
				return nil, nil, err
			}
			return b.ExecuteVote(index), [][2]string{{"Vote", args[0]}}, nil
		})
	},
}

// ---------------------------------------------------------------------------
// CPS
// ---------------------------------------------------------------------------

var cpsTxCmd = &cobra.Command{
	Use:   "cps",
	Short: "Vote on CPS proposals and progress reports (mainnet)",
}

func proposalVote(ipfsKey, vote string) protocol.ProposalVote {
	return protocol.ProposalVote{
		Vote:       "_" + strings.TrimLeft(strings.ToLower(vote), "_"),
		Reason:     voteReason,
		IPFSKey:    ipfsKey,
		VoteChange: voteChange,
	}
}

var cpsVoteProposalCmd = &cobra.Command{
	Use:   "vote-proposal <ipfs-key> <approve|reject|abstain>",
	Short: "Vote on a proposal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protocolTx(cmd, "Vote Proposal", func(s *session) (*icx.Transaction, [][2]string, error) {
			c, err := protocol.NewCPS(s.client, s.network)
			if err != nil {
				return nil, nil, err
			}
			v := proposalVote(args[0], args[1])
			tx, err := c.VoteProposal(v)
			return tx, [][2]string{{"Proposal", args[0]}, {"Vote", v.Vote}, {"Reason", voteReason}}, err
		})
	},
}

var cpsVoteReportCmd = &cobra.Command{
	Use:   "vote-report <report-key> <ipfs-key> <approve|reject|abstain>",
	Short: "Vote on a progress report",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return protocolTx(cmd, "Vote Progress Report", func(s *session) (*icx.Transaction, [][2]string, error) {
			c, err := protocol.NewCPS(s.client, s.network)
			if err != nil {
				return nil, nil, err
			}
			v := proposalVote(args[1], args[2])
			tx, err := c.VoteProgressReport(args[0], v)
			return tx, [][2]string{{"Report", args[0]}, {"Vote", v.Vote}, {"Reason", voteReason}}, err
		})
	},
}

// ---------------------------------------------------------------------------
// OMM
// ---------------------------------------------------------------------------

var ommTxCmd = &cobra.Command{
	Use:   "omm",
	Short: "OMM staking delegation (mainnet)",
}

var ommDelegateCmd = &cobra.Command{
	Use:   "delegate <validator>",
	Short: "Delegate all staked OMM votes to one validator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prep, err := resolveRecipient(args[0])
		if err != nil {
			return err
		}
		return protocolTx(cmd, "OMM Delegation", func(s *session) (*icx.Transaction, [][2]string, error) {
			o, err := protocol.NewOMM(s.client, s.network)
			if err != nil {
				return nil, nil, err
			}
			return o.UpdateDelegation(prep), [][2]string{{"Validator", ui.Addr(prep)}, {"Share", "100%"}}, nil
		})
	},
}

func init() {
	balancedDepositCmd.Flags().BoolVar(&depositSICX, "sicx", false, "deposit sICX instead of ICX")
	balancedSwapCmd.Flags().StringVar(&swapMin, "min", "0", "minimum amount to receive")
	balancedTxCmd.AddCommand(
		balancedDepositCmd,
		balancedBorrowCmd,
		balancedWithdrawCmd,
		balancedLiquidateCmd,
		balancedRebalanceCmd,
		balancedSwapCmd,
		balancedDistributeCmd,
		balancedExecuteVoteCmd,
	)

	for _, c := range []*cobra.Command{cpsVoteProposalCmd, cpsVoteReportCmd} {
		c.Flags().StringVar(&voteReason, "reason", "", "reason recorded with the vote")
		c.Flags().BoolVar(&voteChange, "change", false, "change an earlier vote")
	}
	cpsTxCmd.AddCommand(cpsVoteProposalCmd, cpsVoteReportCmd)

	ommTxCmd.AddCommand(ommDelegateCmd)
}
