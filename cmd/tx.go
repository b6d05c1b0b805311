package cmd

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/batch"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/protocol"
	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/spf13/cobra"
)

var (
	sendMessage   string
	sendToken     string
	callParams    string
	callValue     string
	batchContinue bool
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Sign and send transactions",
	Long: `Transaction commands sign with --keystore (default: the default keystore).

The step limit is estimated with a 10% margin unless --step-limit is given.
Every transaction is previewed and confirmed unless --yes is set; --simulate
prints the signed request without sending it. Refused in read-only mode.`,
}

var txSendCmd = &cobra.Command{
	Use:   "send <to> <amount>",
	Short: "Send ICX or an IRC-2 token",
	Long: `Send ICX, or a token with --token. <to> may be an address, keystore
nickname or saved label.

Examples:
  icon tx send hx1234... 1.5
  icon tx send treasury 100 --token bnusd -k alice
  icon tx send bob 0.1 --message "lunch"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := resolveRecipient(args[0])
		if err != nil {
			return err
		}
		s, signer, err := beginTx()
		if err != nil {
			return err
		}

		var tx *icx.Transaction
		extra := [][2]string{}
		if sendToken != "" {
			tok, err := protocol.LookupToken(sendToken)
			if err != nil {
				return err
			}
			amount, err := icx.ToUnits(args[1], tok.Decimals)
			if err != nil || amount.Sign() <= 0 {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			var data []byte
			if sendMessage != "" {
				data = []byte(sendMessage)
			}
			tx = tok.Transfer(to, amount, data, s.network.NID)
			extra = append(extra,
				[2]string{"Recipient", ui.Addr(to)},
				[2]string{"Amount", ui.Val(args[1] + " " + tok.Symbol)},
			)
		} else {
			amount, err := parseICX(args[1])
			if err != nil {
				return err
			}
			if sendMessage != "" {
				tx = icx.NewMessage(to, sendMessage, amount, s.network.NID)
				extra = append(extra, [2]string{"Message", sendMessage})
			} else {
				tx = icx.NewTransfer(to, amount, s.network.NID)
			}
		}
		_, err = submit(cmdContext(cmd), cmd.OutOrStdout(), s, signer, tx, "Transfer Preview", extra)
		return err
	},
}

var txCallCmd = &cobra.Command{
	Use:   "call <contract> <method>",
	Short: "Call a contract method in a transaction",
	Long: `Send a call transaction. Parameters are a JSON object; integers must be
0x-prefixed hex strings.

Example:
  icon tx call cx... setDelegation --params '{"delegations":[...]}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		contract, err := resolveContract(args[0])
		if err != nil {
			return err
		}
		params, err := parseParams(callParams)
		if err != nil {
			return err
		}
		var value *big.Int
		if callValue != "" {
			if value, err = parseICX(callValue); err != nil {
				return err
			}
		}
		s, signer, err := beginTx()
		if err != nil {
			return err
		}
		tx := icx.NewCall(contract, args[1], params, value, s.network.NID)
		_, err = submit(cmdContext(cmd), cmd.OutOrStdout(), s, signer, tx, "Call Preview", [][2]string{
			{"Method", ui.Val(args[1])},
			{"Params", ui.Meta(callParams)},
		})
		return err
	},
}

var txSendBatchCmd = &cobra.Command{
	Use:   "send-batch <csv>",
	Short: "Send ICX to every row of a CSV file",
	Long: `Send ICX transfers listed in a CSV file with the header to,value,message.
Values are in ICX; to may be an address, keystore nickname or saved label.

Transfers are sent one by one. The run stops at the first failure unless
--continue is set. A result file is written to the history directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		transfers, err := batch.Read(f, resolveRecipient)
		f.Close()
		if err != nil {
			return err
		}
		s, signer, err := beginTx()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		t := ui.NewTable([]ui.Column{
			{Title: "#", Right: true},
			{Title: "To", Width: 44},
			{Title: "ICX", Right: true},
			{Title: "Message", Width: 24},
		})
		for _, tr := range transfers {
			t.AddRow(ui.Row{fmt.Sprint(tr.Line), ui.Addr(tr.To), icx.FormatICX(tr.Amount), tr.Message})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.KeyValueBlock("Batch Preview", [][2]string{
			{"From", ui.Addr(signer.wallet.Address()) + " " + ui.Meta("("+signer.entry.Name+")")},
			{"Transfers", fmt.Sprint(len(transfers))},
			{"Total", ui.Val(icx.FormatICX(batch.Total(transfers)) + " ICX")},
			{"Network", ui.NetworkName(s.network.Name)},
		}))
		if txSimulate {
			fmt.Fprintln(out, ui.Info("Simulation only, nothing sent."))
			return nil
		}
		if !txYes && !prompter.Confirm(fmt.Sprintf("Send %d transfers?", len(transfers))) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}

		opts, err := sendOptions()
		if err != nil {
			return err
		}
		results := runBatch(cmd, s, signer, transfers, opts)

		path := filepath.Join(store.HistoryDir(), fmt.Sprintf("batch-%s.csv", time.Now().UTC().Format("20060102-150405")))
		if err := writeBatchResults(path, results); err != nil {
			return err
		}
		failed := 0
		for _, r := range results {
			if r.Status == batch.StatusFailed {
				failed++
			}
		}
		fmt.Fprintln(out, ui.Meta("Results written to "+path))
		if failed > 0 {
			return fmt.Errorf("%d of %d transfers failed", failed, len(results))
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("%d transfers sent.", len(results))))
		return nil
	},
}

func runBatch(cmd *cobra.Command, s *session, signer *txSigner, transfers []batch.Transfer, opts icx.SendOptions) []batch.Result {
	ctx := cmdContext(cmd)
	out := cmd.OutOrStdout()
	sender := icx.NewSender(s.client)
	results := make([]batch.Result, 0, len(transfers))
	stopped := false

	spin := ui.NewSpinner("Sending...")
	spin.Start()
	defer spin.Stop()
	for i, tr := range transfers {
		r := batch.Result{Line: tr.Line, To: tr.To, Value: icx.FormatICX(tr.Amount)}
		if stopped {
			r.Status = batch.StatusSkipped
			results = append(results, r)
			continue
		}
		spin.SetMsg(fmt.Sprintf("Sending %d/%d...", i+1, len(transfers)))

		tx := icx.NewTransfer(tr.To, tr.Amount, s.network.NID)
		if tr.Message != "" {
			tx = icx.NewMessage(tr.To, tr.Message, tr.Amount, s.network.NID)
		}
		rcpt, err := sender.Send(ctx, signer.wallet, tx, opts)
		if rcpt != nil {
			r.TxHash = rcpt.Hash
		}
		switch {
		case err != nil:
			r.Status = batch.StatusFailed
			r.Error = err.Error()
			fmt.Fprintln(out, ui.Err(fmt.Sprintf("row %d: %v", tr.Line, err)))
			stopped = !batchContinue
		case rcpt.Result != nil:
			r.Status = batch.StatusSuccess
		default:
			r.Status = batch.StatusSent
		}
		results = append(results, r)
	}
	return results
}

func writeBatchResults(path string, results []batch.Result) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	if err := batch.WriteResults(f, results); err != nil {
		f.Close()
		return fmt.Errorf("writing results: %w", err)
	}
	return f.Close()
}

// ---------------------------------------------------------------------------
// Governance
// ---------------------------------------------------------------------------

var govTxCmd = &cobra.Command{
	Use:   "gov",
	Short: "Staking rewards and delegation",
}

var govClaimIScoreCmd = &cobra.Command{
	Use:   "claim-iscore",
	Short: "Claim accumulated I-Score as ICX",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, signer, err := beginTx()
		if err != nil {
			return err
		}
		ctx := cmdContext(cmd)
		extra := [][2]string{}
		if is, err := protocol.QueryIScore(ctx, s.client, signer.wallet.Address()); err == nil {
			extra = append(extra, [2]string{"Claimable", ui.Val(icx.FormatICX(is.EstimatedICX) + " ICX")})
		}
		_, err = submit(ctx, cmd.OutOrStdout(), s, signer, protocol.ClaimIScore(s.network.NID), "Claim I-Score", extra)
		return err
	},
}

var govDelegateCmd = &cobra.Command{
	Use:   "delegate <validator=amount>...",
	Short: "Replace all stake delegations",
	Long: `Set the full list of delegations; validators left out lose their share.
Amounts are in ICX. An empty list is not accepted, delegate 0 explicitly.

Example:
  icon tx gov delegate hxaaa...=1000 hxbbb...=500`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delegations := make([]protocol.Delegation, 0, len(args))
		extra := make([][2]string, 0, len(args))
		for _, a := range args {
			addr, amount, ok := strings.Cut(a, "=")
			if !ok {
				return fmt.Errorf("expected validator=amount, got %q", a)
			}
			resolved, err := resolveRecipient(addr)
			if err != nil {
				return err
			}
			v, err := icx.ToLoop(amount)
			if err != nil || v.Sign() < 0 {
				return fmt.Errorf("invalid amount %q", amount)
			}
			delegations = append(delegations, protocol.Delegation{Address: resolved, Value: v})
			extra = append(extra, [2]string{ui.TruncateAddr(resolved), icx.FormatICX(v) + " ICX"})
		}
		s, signer, err := beginTx()
		if err != nil {
			return err
		}
		_, err = submit(cmdContext(cmd), cmd.OutOrStdout(), s, signer, protocol.SetDelegation(delegations, s.network.NID), "Set Delegation", extra)
		return err
	},
}

func init() {
	pf := txCmd.PersistentFlags()
	pf.StringVarP(&txKeystore, "keystore", "k", "", "keystore to sign with (default: config)")
	pf.StringVar(&txStepLimit, "step-limit", "", "step limit, decimal or 0x hex (default: estimate + 10%)")
	pf.BoolVar(&txSimulate, "simulate", false, "print the signed request without sending it")
	pf.BoolVarP(&txYes, "yes", "y", false, "skip the confirmation prompt")
	pf.BoolVar(&txWait, "wait", false, "wait for the transaction result")

	txSendCmd.Flags().StringVar(&sendMessage, "message", "", "attach a UTF-8 message")
	txSendCmd.Flags().StringVar(&sendToken, "token", "", "send an IRC-2 token instead of ICX (bnusd, sicx, baln, omm, tap)")
	txCallCmd.Flags().StringVar(&callParams, "params", "", "method parameters as a JSON object")
	txCallCmd.Flags().StringVar(&callValue, "value", "", "ICX to send with the call")
	txSendBatchCmd.Flags().BoolVar(&batchContinue, "continue", false, "keep going after a failed transfer")

	govTxCmd.AddCommand(govClaimIScoreCmd, govDelegateCmd)
	txCmd.AddCommand(
		txSendCmd,
		txCallCmd,
		txSendBatchCmd,
		govTxCmd,
		balancedTxCmd,
		cpsTxCmd,
		ommTxCmd,
	)
}
