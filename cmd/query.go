package cmd

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/addressbook"
	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/protocol"
	"github.com/Mohsinsiddi/icon-cli/internal/tracker"
	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	queryToken    string
	queryParams   string
	queryHeight   int64
	queryLimit    int
	querySkip     int
	queryPRepFrom int64
	queryPRepTo   int64

	queryPriceSource   string
	queryPriceCurrency string
)

var queryCmd = &cobra.Command{
	Use:     "query",
	Aliases: []string{"q"},
	Short:   "Read chain and protocol state",
	Long: `Read-only queries. Addresses may be given as hx/cx addresses, keystore
nicknames or saved labels; without one the default keystore is used.`,
}

func optionalArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return ""
}

var queryBalanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Show the ICX or IRC-2 token balance of an address",
	Long: `Show an ICX balance, or a token balance with --token.

Examples:
  icon query balance
  icon query balance alice --token bnusd
  icon -n lisbon query balance hx1234...`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveAddress(optionalArg(args))
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmdContext(cmd)
		out := cmd.OutOrStdout()

		if queryToken != "" {
			tok, err := protocol.LookupToken(queryToken)
			if err != nil {
				return err
			}
			bal, err := withSpinner("Fetching token balance...", func() (*big.Int, error) {
				return tok.Balance(ctx, s.client, addr)
			})
			if err != nil {
				return err
			}
			amount := tok.Format(bal)
			return printResult(out, map[string]any{"address": addr, "token": tok.Symbol, "contract": tok.Contract, "balance": amount}, func() error {
				fmt.Fprintln(out, ui.KeyValueBlock("Token Balance on "+s.network.Name, [][2]string{
					{"Address", ui.Addr(addr)},
					{"Token", tok.Symbol + " " + ui.Meta(tok.Contract)},
					{"Balance", ui.Val(amount.String() + " " + tok.Symbol)},
				}))
				return nil
			})
		}

		bal, err := withSpinner(fmt.Sprintf("Fetching balance on %s...", s.network.Name), func() (*big.Int, error) {
			return s.client.GetBalance(ctx, addr)
		})
		if err != nil {
			return err
		}
		icxAmount := icx.FromLoop(bal)
		usd := "—"
		var usdValue *decimal.Decimal
		if s.network.NID == protocol.MainnetNID {
			if price, err := protocol.ICXUSDPrice(ctx, s.client); err == nil {
				v := icxAmount.Mul(price).Round(2)
				usdValue = &v
				usd = "$" + v.StringFixed(2)
			}
		}
		return printResult(out, map[string]any{"address": addr, "network": s.network.Name, "balance": icxAmount, "usd": usdValue}, func() error {
			fmt.Fprintln(out, ui.KeyValueBlock("Balance on "+s.network.Name, [][2]string{
				{"Address", ui.Addr(addr)},
				{"Network", ui.NetworkName(s.network.Name) + fmt.Sprintf(" (nid %d)", s.network.NID)},
				{"Balance", ui.Val(icx.FormatICX(bal) + " ICX")},
				{"USD Value", usd},
			}))
			return nil
		})
	},
}

var queryBlockCmd = &cobra.Command{
	Use:   "block [height]",
	Short: "Show the latest block or the block at a height",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmdContext(cmd)
		b, err := withSpinner("Fetching block...", func() (*icx.Block, error) {
			if len(args) == 0 {
				return s.client.GetLastBlock(ctx)
			}
			h, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || h < 0 {
				return nil, fmt.Errorf("invalid height %q", args[0])
			}
			return s.client.GetBlockByHeight(ctx, h)
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, b, func() error {
			fmt.Fprintln(out, ui.KeyValueBlock(fmt.Sprintf("Block %d", b.Height), [][2]string{
				{"Hash", "0x" + strings.TrimPrefix(b.Hash, "0x")},
				{"Parent", ui.Meta("0x" + strings.TrimPrefix(b.PrevHash, "0x"))},
				{"Time", time.UnixMicro(b.Timestamp).UTC().Format(time.RFC3339)},
				{"Proposer", ui.Addr(b.PeerID)},
				{"Transactions", strconv.Itoa(len(b.Transactions))},
			}))
			return nil
		})
	},
}

var querySupplyCmd = &cobra.Command{
	Use:   "supply",
	Short: "Show the total ICX supply",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		supply, err := withSpinner("Fetching supply...", func() (*big.Int, error) {
			return s.client.GetTotalSupply(cmdContext(cmd))
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, map[string]any{"network": s.network.Name, "total_supply": icx.FormatICX(supply)}, func() error {
			fmt.Fprintf(out, "%s ICX on %s\n", ui.Val(icx.FormatICX(supply)), ui.NetworkName(s.network.Name))
			return nil
		})
	},
}

func txHashArg(args []string) (string, error) {
	h := strings.ToLower(args[0])
	if !strings.HasPrefix(h, "0x") {
		h = "0x" + h
	}
	if !addressbook.ValidTxHash(h) {
		return "", fmt.Errorf("invalid transaction hash %q", args[0])
	}
	return h, nil
}

var queryTxCmd = &cobra.Command{
	Use:   "tx <hash>",
	Short: "Show a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := txHashArg(args)
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		tx, err := withSpinner("Fetching transaction...", func() (*icx.TransactionInfo, error) {
			return s.client.GetTransactionByHash(cmdContext(cmd), hash)
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, tx, func() error {
			value := "0"
			if v, err := icx.HexToBig(tx.Value); err == nil {
				value = icx.FormatICX(v)
			}
			height, _ := icx.HexToInt64(tx.BlockHeight)
			pairs := [][2]string{
				{"From", ui.Addr(tx.From)},
				{"To", ui.Addr(tx.To)},
				{"Value", ui.Val(value + " ICX")},
				{"Block", strconv.FormatInt(height, 10)},
				{"Step Limit", hexDecimal(tx.StepLimit)},
				{"Data Type", tx.DataType},
			}
			if len(tx.Data) > 0 {
				pairs = append(pairs, [2]string{"Data", ui.Meta(string(tx.Data))})
			}
			fmt.Fprintln(out, ui.KeyValueBlock("Transaction "+ui.TruncateAddr(hash), pairs))
			if link := trackerLink(s.network, "transaction", hash); link != "" {
				fmt.Fprintln(out, ui.Meta(link))
			}
			return nil
		})
	},
}

var queryTxResultCmd = &cobra.Command{
	Use:   "tx-result <hash>",
	Short: "Show the execution result of a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := txHashArg(args)
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		r, err := withSpinner("Fetching result...", func() (*icx.TransactionResult, error) {
			return s.client.GetTransactionResult(cmdContext(cmd), hash)
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, r, func() error {
			status := ui.StyleSuccess.Render("success")
			if !r.Success() {
				status = ui.StyleError.Render("failed")
			}
			pairs := [][2]string{
				{"Status", status},
				{"Block", hexDecimal(r.BlockHeight)},
				{"Step Used", hexDecimal(r.StepUsed)},
				{"Fee", ui.Val(txFee(r) + " ICX")},
				{"Event Logs", strconv.Itoa(len(r.EventLogs))},
			}
			if r.ScoreAddress != "" {
				pairs = append(pairs, [2]string{"Deployed", ui.Addr(r.ScoreAddress)})
			}
			if r.Failure != nil {
				pairs = append(pairs, [2]string{"Failure", ui.Err(r.Failure.Message + " (" + r.Failure.Code + ")")})
			}
			fmt.Fprintln(out, ui.KeyValueBlock("Result "+ui.TruncateAddr(hash), pairs))
			return nil
		})
	},
}

func hexDecimal(h string) string {
	v, err := icx.HexToBig(h)
	if err != nil {
		return h
	}
	return v.String()
}

func txFee(r *icx.TransactionResult) string {
	used, err1 := icx.HexToBig(r.StepUsed)
	price, err2 := icx.HexToBig(r.StepPrice)
	if err1 != nil || err2 != nil {
		return "—"
	}
	return icx.FormatICX(new(big.Int).Mul(used, price))
}

var queryABICmd = &cobra.Command{
	Use:   "abi <contract>",
	Short: "Show the external API of a contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveContract(args[0])
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		api, err := withSpinner("Fetching API...", func() ([]icx.ScoreAPI, error) {
			return s.client.GetScoreAPI(cmdContext(cmd), addr)
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, api, func() error {
			t := ui.NewTable([]ui.Column{
				{Title: "Type", Width: 10},
				{Title: "Name", Width: 28},
				{Title: "Inputs", Width: 48},
				{Title: "Outputs", Width: 12},
				{Title: "Flags", Width: 16},
			})
			for _, a := range api {
				var flags []string
				if a.Readonly == "0x1" {
					flags = append(flags, "readonly")
				}
				if a.Payable == "0x1" {
					flags = append(flags, "payable")
				}
				t.AddRow(ui.Row{ui.Meta(a.Type), ui.Val(a.Name), formatArgs(a.Inputs), formatArgs(a.Outputs), strings.Join(flags, ",")})
			}
			fmt.Fprintln(out, t.Render())
			return nil
		})
	},
}

func formatArgs(args []icx.ScoreArg) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a.Name == "" {
			parts = append(parts, a.Type)
			continue
		}
		parts = append(parts, a.Name+": "+a.Type)
	}
	return strings.Join(parts, ", ")
}

// resolveContract accepts a cx address or a known protocol contract name.
func resolveContract(arg string) (string, error) {
	if addressbook.ValidContractAddress(arg) {
		return strings.ToLower(arg), nil
	}
	n, err := activeNetwork()
	if err != nil {
		return "", err
	}
	if addr, err := protocol.Contract(arg, n.Name); err == nil {
		return addr, nil
	}
	addr, err := book().Resolve(arg)
	if err != nil {
		return "", err
	}
	if !addressbook.ValidContractAddress(addr) {
		return "", fmt.Errorf("%w: %s is not a contract", addressbook.ErrInvalidAddress, addr)
	}
	return addr, nil
}

// parseParams decodes a JSON object of method parameters.
func parseParams(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("--params must be a JSON object: %w", err)
	}
	return params, nil
}

var queryCallCmd = &cobra.Command{
	Use:   "call <contract> <method>",
	Short: "Call a read-only contract method",
	Long: `Call a read-only method. Parameters are a JSON object of strings, with
integers as 0x-prefixed hex, as the ICON JSON-RPC API expects.

Example:
  icon query call cx88fd7df7ddff82f7cc735c871dc519838cb235bb balanceOf --params '{"_owner":"hx..."}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveContract(args[0])
		if err != nil {
			return err
		}
		params, err := parseParams(queryParams)
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		raw, err := withSpinner("Calling "+args[1]+"...", func() (json.RawMessage, error) {
			return s.client.Call(cmdContext(cmd), icx.CallRequest{To: addr, Method: args[1], Params: params, Height: queryHeight})
		})
		if err != nil {
			return err
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		return ui.PrintJSON(cmd.OutOrStdout(), v)
	},
}

var queryPriceCmd = &cobra.Command{
	Use:   "price [symbol...]",
	Short: "Show token prices from the Band oracle or the market",
	Long: `Show token prices.

The default source is the Band oracle on mainnet, which quotes ICX in USD.
--source market asks CoinGecko and accepts ICX, sICX, BALN, bnUSD and OMM
in any fiat currency CoinGecko supports.`,
	Example: `  icon query price
  icon query price --source market icx baln
  icon query price --source market --currency eur sicx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch strings.ToLower(queryPriceSource) {
		case "oracle":
			if len(args) > 0 && !(len(args) == 1 && strings.EqualFold(args[0], "icx")) {
				return fmt.Errorf("the oracle only quotes ICX; use --source market for %s", strings.Join(args, ", "))
			}
			if !strings.EqualFold(queryPriceCurrency, "usd") {
				return fmt.Errorf("the oracle only quotes USD; use --source market for %s", queryPriceCurrency)
			}
			// The oracle only exists on mainnet, whatever network is selected.
			mainnet, _ := config.BuiltinNetwork(config.DefaultNetworkName)
			client := newClient(mainnet)
			p, err := withSpinner("Fetching price...", func() (decimal.Decimal, error) {
				return protocol.ICXUSDPrice(cmdContext(cmd), client)
			})
			if err != nil {
				return err
			}
			return printResult(out, map[string]any{"symbol": "ICX", "usd": p}, func() error {
				fmt.Fprintln(out, ui.Val("1 ICX = $"+p.StringFixed(4)))
				return nil
			})
		case "market":
			symbols := args
			if len(symbols) == 0 {
				symbols = []string{"ICX"}
			}
			f := newPriceFetcher(queryPriceCurrency)
			prices, err := withSpinner("Fetching prices...", func() (map[string]decimal.Decimal, error) {
				return f.GetPrices(cmdContext(cmd), symbols)
			})
			if err != nil {
				return err
			}
			cur := strings.ToUpper(f.Currency())
			return printResult(out, map[string]any{"currency": f.Currency(), "prices": prices}, func() error {
				seen := make(map[string]bool)
				for _, s := range symbols {
					sym := strings.ToUpper(s)
					if seen[sym] {
						continue
					}
					seen[sym] = true
					fmt.Fprintf(out, "1 %s = %s %s\n", sym, ui.Val(prices[sym].StringFixed(4)), cur)
				}
				return nil
			})
		}
		return fmt.Errorf("unknown price source %q (want oracle or market)", queryPriceSource)
	},
}

var queryIScoreCmd = &cobra.Command{
	Use:   "iscore [address]",
	Short: "Show the claimable I-Score of an address",
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
		is, err := withSpinner("Querying I-Score...", func() (*protocol.IScore, error) {
			return protocol.QueryIScore(cmdContext(cmd), s.client, addr)
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, is, func() error {
			fmt.Fprintln(out, ui.KeyValueBlock("I-Score", [][2]string{
				{"Address", ui.Addr(addr)},
				{"I-Score", is.IScore.String()},
				{"Claimable", ui.Val(icx.FormatICX(is.EstimatedICX) + " ICX")},
				{"Block", strconv.FormatInt(is.BlockHeight, 10)},
			}))
			return nil
		})
	},
}

var queryDelegationCmd = &cobra.Command{
	Use:   "delegation [address]",
	Short: "Show the stake delegations of an address",
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
		d, err := withSpinner("Querying delegations...", func() (*protocol.Delegations, error) {
			return protocol.GetDelegation(cmdContext(cmd), s.client, addr)
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, d, func() error {
			t := ui.NewTable([]ui.Column{{Title: "Validator", Width: 44}, {Title: "Delegated (ICX)", Width: 24, Right: true}})
			for _, del := range d.Delegations {
				t.AddRow(ui.Row{ui.Addr(del.Address), icx.FormatICX(del.Value)})
			}
			fmt.Fprintln(out, t.Render())
			fmt.Fprintln(out, ui.Meta(fmt.Sprintf("Total delegated %s ICX, voting power %s ICX",
				icx.FormatICX(d.TotalDelegated), icx.FormatICX(d.VotingPower))))
			return nil
		})
	},
}

var queryPRepsCmd = &cobra.Command{
	Use:   "preps",
	Short: "List validators by delegation ranking",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		preps, err := withSpinner("Fetching validators...", func() ([]protocol.PRep, error) {
			return protocol.GetPReps(cmdContext(cmd), s.client, queryPRepFrom, queryPRepTo)
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, preps, func() error {
			t := ui.NewTable([]ui.Column{
				{Title: "#", Right: true},
				{Title: "Name", Width: 24},
				{Title: "Address", Width: 44},
				{Title: "Grade"},
				{Title: "Delegated (ICX)", Right: true},
			})
			for i, p := range preps {
				t.AddRow(ui.Row{
					strconv.FormatInt(queryPRepFrom+int64(i), 10),
					ui.Val(p.Name),
					ui.Addr(p.Address),
					p.Grade,
					icx.FromLoop(p.Delegated).StringFixed(0),
				})
			}
			fmt.Fprintln(out, t.Render())
			return nil
		})
	},
}

var queryAddressCmd = &cobra.Command{
	Use:   "address [address]",
	Short: "Show tracker details of an address",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveAddress(optionalArg(args))
		if err != nil {
			return err
		}
		n, err := activeNetwork()
		if err != nil {
			return err
		}
		tc, err := newTracker(n)
		if err != nil {
			return err
		}
		d, err := withSpinner("Querying tracker...", func() (*tracker.AddressDetails, error) {
			return tc.AddressDetails(cmdContext(cmd), addr)
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, d, func() error {
			kind := "wallet"
			switch {
			case d.IsPrep:
				kind = "validator"
			case d.IsToken:
				kind = "token contract"
			case d.IsContract:
				kind = "contract"
			}
			pairs := [][2]string{
				{"Address", ui.Addr(d.Address)},
				{"Kind", kind},
				{"Balance", ui.Val(strconv.FormatFloat(d.Balance, 'f', -1, 64) + " ICX")},
				{"Transactions", strconv.FormatInt(d.TransactionCount, 10)},
				{"Logs", strconv.FormatInt(d.LogCount, 10)},
			}
			if d.Name != "" {
				pairs = append([][2]string{{"Name", d.Name}}, pairs...)
			}
			fmt.Fprintln(out, ui.KeyValueBlock("Address on "+n.Name, pairs))
			if link := trackerLink(n, "address", addr); link != "" {
				fmt.Fprintln(out, ui.Meta(link))
			}
			return nil
		})
	},
}

var queryTxsCmd = &cobra.Command{
	Use:   "txs [address]",
	Short: "List recent transactions of an address from the tracker",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveAddress(optionalArg(args))
		if err != nil {
			return err
		}
		n, err := activeNetwork()
		if err != nil {
			return err
		}
		tc, err := newTracker(n)
		if err != nil {
			return err
		}
		page, err := withSpinner("Querying tracker...", func() (*tracker.Page, error) {
			return tc.AddressTransactions(cmdContext(cmd), addr, queryLimit, querySkip)
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return printResult(out, page, func() error {
			if len(page.Transactions) == 0 {
				fmt.Fprintln(out, ui.Info("No transactions found."))
				return nil
			}
			t := ui.NewTable([]ui.Column{
				{Title: "Hash", Width: 14},
				{Title: "Time", Width: 20},
				{Title: "Method", Width: 16},
				{Title: "From", Width: 14},
				{Title: "To", Width: 14},
				{Title: "Value (ICX)", Width: 16, Right: true},
				{Title: "Status", Width: 6},
			})
			for _, tx := range page.Transactions {
				status := ui.StyleSuccess.Render("✓")
				if !tx.Success() {
					status = ui.StyleError.Render("✗")
				}
				method := tx.Method
				if method == "" {
					method = "transfer"
				}
				t.AddRow(ui.Row{
					ui.TruncateAddr(tx.Hash),
					tx.Time().UTC().Format("2006-01-02 15:04:05"),
					method,
					ui.TruncateAddr(tx.FromAddress),
					ui.TruncateAddr(tx.ToAddress),
					strconv.FormatFloat(tx.ValueDecimal, 'f', -1, 64),
					status,
				})
			}
			fmt.Fprintln(out, t.Render())
			if page.Total >= 0 {
				fmt.Fprintln(out, ui.Meta(fmt.Sprintf("showing %d-%d of %d", querySkip+1, querySkip+len(page.Transactions), page.Total)))
			}
			return nil
		})
	},
}

var queryAddressQRCmd = &cobra.Command{
	Use:   "address-qr [address]",
	Short: "Show an address as a QR code",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveAddress(optionalArg(args))
		if err != nil {
			return err
		}
		return printQR(cmd, addr)
	},
}

func init() {
	queryBalanceCmd.Flags().StringVar(&queryToken, "token", "", "IRC-2 token symbol (bnusd, sicx, baln, omm, tap)")
	queryCallCmd.Flags().StringVar(&queryParams, "params", "", "method parameters as a JSON object")
	queryCallCmd.Flags().Int64Var(&queryHeight, "height", 0, "block height to query (default: latest)")
	queryTxsCmd.Flags().IntVar(&queryLimit, "limit", 10, "number of transactions (max 100)")
	queryTxsCmd.Flags().IntVar(&querySkip, "skip", 0, "transactions to skip")
	queryPRepsCmd.Flags().Int64Var(&queryPRepFrom, "start", 1, "first ranking")
	queryPRepsCmd.Flags().Int64Var(&queryPRepTo, "end", 22, "last ranking")
	queryPriceCmd.Flags().StringVar(&queryPriceSource, "source", "oracle", "price source: oracle or market")
	queryPriceCmd.Flags().StringVar(&queryPriceCurrency, "currency", "usd", "quote currency")
	queryAddressQRCmd.Flags().StringVar(&keystoreQRPNG, "png", "", "write a PNG to this path instead of printing")

	queryCmd.AddCommand(
		queryBalanceCmd,
		queryBlockCmd,
		querySupplyCmd,
		queryTxCmd,
		queryTxResultCmd,
		queryABICmd,
		queryCallCmd,
		queryPriceCmd,
		queryIScoreCmd,
		queryDelegationCmd,
		queryPRepsCmd,
		queryAddressCmd,
		queryTxsCmd,
		queryAddressQRCmd,
		balancedQueryCmd,
		cpsQueryCmd,
		ommQueryCmd,
	)
}
