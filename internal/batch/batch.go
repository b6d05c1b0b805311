// Package batch reads CSV transfer lists and writes their outcomes.
package batch

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/Mohsinsiddi/icon-cli/internal/addressbook"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
)

// ErrInvalidRow is wrapped by every row validation error.
var ErrInvalidRow = errors.New("invalid batch row")

// Row is one line of a transfer CSV with header to,value,message.
type Row struct {
	To      string `csv:"to"`
	Value   string `csv:"value"`
	Message string `csv:"message"`
}

// Transfer is a validated row.
type Transfer struct {
	Line    int // 1-based data row, header excluded
	To      string
	Amount  *big.Int // loop
	Message string
}

// Resolver turns a saved-address label or an address into an address.
type Resolver func(labelOrAddress string) (string, error)

// Read parses and validates a transfer list. Values are in ICX. When
// resolve is nil every destination must be a literal address.
func Read(r io.Reader, resolve Resolver) ([]Transfer, error) {
	var rows []*Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRow, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidRow)
	}

	out := make([]Transfer, 0, len(rows))
	for i, row := range rows {
		line := i + 1
		to := strings.TrimSpace(row.To)
		switch {
		case resolve != nil:
			addr, err := resolve(to)
			if err != nil {
				return nil, fmt.Errorf("%w %d: %w", ErrInvalidRow, line, err)
			}
			to = addr
		case !addressbook.ValidAddress(to):
			return nil, fmt.Errorf("%w %d: %q is not an address", ErrInvalidRow, line, to)
		}
		amount, err := icx.ToLoop(strings.TrimSpace(row.Value))
		if err != nil {
			return nil, fmt.Errorf("%w %d: value %q: %w", ErrInvalidRow, line, row.Value, err)
		}
		if amount.Sign() <= 0 {
			return nil, fmt.Errorf("%w %d: value must be positive", ErrInvalidRow, line)
		}
		out = append(out, Transfer{Line: line, To: strings.ToLower(to), Amount: amount, Message: row.Message})
	}
	return out, nil
}

// Total sums the amounts of ts.
func Total(ts []Transfer) *big.Int {
	sum := new(big.Int)
	for _, t := range ts {
		sum.Add(sum, t.Amount)
	}
	return sum
}

// Result records what happened to one transfer.
type Result struct {
	Line   int    `csv:"line"`
	To     string `csv:"to"`
	Value  string `csv:"value"`
	TxHash string `csv:"tx_hash"`
	Status string `csv:"status"`
	Error  string `csv:"error"`
}

// Result statuses.
const (
	StatusSent    = "sent"
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// WriteResults writes results as CSV with a header line.
func WriteResults(w io.Writer, results []Result) error {
	rows := make([]*Result, len(results))
	for i := range results {
		rows[i] = &results[i]
	}
	return gocsv.Marshal(&rows, w)
}
