package icx

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/log"
)

// DefaultStepMargin is the percentage added to an estimated step limit.
const DefaultStepMargin = 10

// SendOptions controls how a transaction is completed and broadcast.
type SendOptions struct {
	// StepLimit skips estimation when set.
	StepLimit *big.Int
	// StepMargin is added on top of an estimate, in percent.
	StepMargin int
	// Wait polls for the transaction result after broadcasting.
	Wait         bool
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// Receipt is what Send reports back.
type Receipt struct {
	Hash   string
	Result *TransactionResult // nil unless waited for
}

// Sender fills in, signs and broadcasts transactions.
type Sender struct {
	client *Client
	now    func() time.Time
}

// NewSender returns a sender using client.
func NewSender(client *Client) *Sender {
	return &Sender{client: client, now: time.Now}
}

// WithClock overrides the clock used for transaction timestamps.
func (s *Sender) WithClock(now func() time.Time) *Sender {
	s.now = now
	return s
}

// Prepare sets the sender address and timestamp, estimates the step
// limit when none is given, and signs tx.
func (s *Sender) Prepare(ctx context.Context, signer Signer, tx *Transaction, opts SendOptions) error {
	tx.From = signer.Address()
	tx.Timestamp = s.now().UnixMicro()
	tx.Signature = ""

	switch {
	case opts.StepLimit != nil:
		tx.StepLimit = opts.StepLimit
	case tx.StepLimit == nil:
		est, err := s.client.EstimateStep(ctx, tx)
		if err != nil {
			return err
		}
		margin := opts.StepMargin
		if margin <= 0 {
			margin = DefaultStepMargin
		}
		tx.StepLimit = withMargin(est, margin)
		log.Tx.Debug().Str("estimate", est.String()).Str("limit", tx.StepLimit.String()).Msg("step limit")
	}
	return tx.Sign(signer)
}

// Send prepares tx, broadcasts it and optionally waits for its result.
func (s *Sender) Send(ctx context.Context, signer Signer, tx *Transaction, opts SendOptions) (*Receipt, error) {
	if err := s.Prepare(ctx, signer, tx, opts); err != nil {
		return nil, err
	}
	hash, err := s.client.SendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	log.Tx.Info().Str("tx", hash).Str("to", tx.To).Msg("transaction sent")

	rcpt := &Receipt{Hash: hash}
	if !opts.Wait {
		return rcpt, nil
	}

	waitCtx := ctx
	if opts.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.WaitTimeout)
		defer cancel()
	}
	res, err := s.client.WaitTransactionResult(waitCtx, hash, opts.PollInterval)
	if err != nil {
		return rcpt, err
	}
	rcpt.Result = res
	if !res.Success() && res.Failure != nil {
		return rcpt, fmt.Errorf("transaction %s failed: %s (%s)", hash, res.Failure.Message, res.Failure.Code)
	}
	return rcpt, nil
}

func withMargin(v *big.Int, percent int) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(int64(100+percent)))
	return out.Div(out, big.NewInt(100))
}
