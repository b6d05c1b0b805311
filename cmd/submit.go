package cmd

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/Mohsinsiddi/icon-cli/internal/wallet"
)

// Transaction flags shared by every tx subcommand.
var (
	txKeystore  string
	txStepLimit string
	txSimulate  bool
	txYes       bool
	txWait      bool
)

// txSigner is the unlocked keystore a tx command signs with.
type txSigner struct {
	entry  config.KeystoreEntry
	wallet *wallet.Wallet
}

// beginTx checks the mode, resolves the network and unlocks the keystore.
func beginTx() (*session, *txSigner, error) {
	s, err := txSession()
	if err != nil {
		return nil, nil, err
	}
	signer, err := unlockSigner()
	if err != nil {
		return nil, nil, err
	}
	return s, signer, nil
}

// txSession is beginTx without unlocking, for commands that validate
// more before asking for a passphrase.
func txSession() (*session, error) {
	if err := requireWritable(); err != nil {
		return nil, err
	}
	return newSession()
}

func unlockSigner() (*txSigner, error) {
	e, w, err := unlock(txKeystore)
	if err != nil {
		return nil, err
	}
	return &txSigner{entry: e, wallet: w}, nil
}

func sendOptions() (icx.SendOptions, error) {
	opts := icx.SendOptions{
		Wait:         txWait,
		WaitTimeout:  config.TxConfirmTimeout,
		PollInterval: config.TxPollInterval,
	}
	if txStepLimit != "" {
		v, err := parseInt(txStepLimit)
		if err != nil {
			return opts, fmt.Errorf("--step-limit: %w", err)
		}
		opts.StepLimit = v
	}
	return opts, nil
}

// submit previews tx, asks for confirmation and broadcasts it. With
// --simulate the signed request is printed and nothing is sent.
func submit(ctx context.Context, out io.Writer, s *session, signer *txSigner, tx *icx.Transaction, title string, extra [][2]string) (*icx.Receipt, error) {
	opts, err := sendOptions()
	if err != nil {
		return nil, err
	}
	sender := icx.NewSender(s.client)
	if _, err := withSpinner("Estimating steps...", func() (struct{}, error) {
		return struct{}{}, sender.Prepare(ctx, signer.wallet, tx, opts)
	}); err != nil {
		return nil, err
	}

	if txSimulate {
		params, err := tx.Params()
		if err != nil {
			return nil, err
		}
		return nil, ui.PrintJSON(out, params)
	}

	fmt.Fprintln(out, ui.KeyValueBlock(title, previewPairs(s, signer, tx, extra)))
	if !txYes && !prompter.Confirm("Broadcast this transaction?") {
		fmt.Fprintln(out, ui.Meta("Cancelled."))
		return nil, nil
	}

	opts.StepLimit = tx.StepLimit
	msg := "Broadcasting transaction..."
	if opts.Wait {
		msg = "Broadcasting and waiting for the result..."
	}
	rcpt, err := withSpinner(msg, func() (*icx.Receipt, error) {
		return sender.Send(ctx, signer.wallet, tx, opts)
	})
	if rcpt != nil {
		printReceipt(out, s.network, rcpt)
	}
	return rcpt, err
}

func previewPairs(s *session, signer *txSigner, tx *icx.Transaction, extra [][2]string) [][2]string {
	value := "0 ICX"
	if tx.Value != nil {
		value = icx.FormatICX(tx.Value) + " ICX"
	}
	pairs := [][2]string{
		{"From", ui.Addr(signer.wallet.Address()) + " " + ui.Meta("("+signer.entry.Name+")")},
		{"To", ui.Addr(tx.To)},
		{"Value", ui.Val(value)},
	}
	pairs = append(pairs, extra...)
	pairs = append(pairs,
		[2]string{"Step Limit", stepLimitString(tx.StepLimit)},
		[2]string{"Network", ui.NetworkName(s.network.Name) + fmt.Sprintf(" (nid %d)", s.network.NID)},
	)
	return pairs
}

func stepLimitString(v *big.Int) string {
	if v == nil {
		return "—"
	}
	return v.String()
}

func printReceipt(out io.Writer, n config.NetworkDescriptor, rcpt *icx.Receipt) {
	fmt.Fprintln(out, ui.Success("Transaction sent!"))
	fmt.Fprintln(out, ui.Addr("Hash: "+rcpt.Hash))
	if link := trackerLink(n, "transaction", rcpt.Hash); link != "" {
		fmt.Fprintln(out, ui.Meta(link))
	}
	if r := rcpt.Result; r != nil {
		if r.Success() {
			height, _ := icx.HexToInt64(r.BlockHeight)
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Executed in block %d", height)))
		} else {
			fmt.Fprintln(out, ui.Err("Transaction failed"))
		}
	}
}
