// Package tracker reads account data from an ICON tracker (block
// explorer) REST API.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/log"
)

// ErrTracker wraps every non-2xx tracker response.
var ErrTracker = errors.New("tracker request failed")

// MaxLimit is the largest page the tracker serves.
const MaxLimit = 100

// AddressDetails is the tracker's summary of an address.
type AddressDetails struct {
	Address          string  `json:"address"`
	Name             string  `json:"name"`
	Balance          float64 `json:"balance"`
	Type             string  `json:"type"`
	TransactionCount int64   `json:"transaction_count"`
	LogCount         int64   `json:"log_count"`
	IsContract       bool    `json:"is_contract"`
	IsPrep           bool    `json:"is_prep"`
	IsToken          bool    `json:"is_token"`
}

// Transaction is one row of an address's history.
type Transaction struct {
	Hash           string  `json:"hash"`
	Method         string  `json:"method"`
	FromAddress    string  `json:"from_address"`
	ToAddress      string  `json:"to_address"`
	BlockNumber    int64   `json:"block_number"`
	BlockTimestamp int64   `json:"block_timestamp"` // microseconds
	ValueDecimal   float64 `json:"value_decimal"`
	Status         string  `json:"status"`
	Type           string  `json:"type"`
	TransactionFee string  `json:"transaction_fee"`
}

// Time returns the block time.
func (t Transaction) Time() time.Time { return time.UnixMicro(t.BlockTimestamp) }

// Success reports whether the transaction succeeded.
func (t Transaction) Success() bool { return t.Status == "0x1" }

// Page is one page of transactions and the tracker's total count.
type Page struct {
	Transactions []Transaction
	Total        int64 // -1 when the tracker does not report it
}

// Client queries one tracker.
type Client struct {
	base   string
	client *http.Client
}

// NewClient returns a client for a tracker base URL such as
// https://tracker.icon.community.
func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// AddressDetails fetches the summary for addr.
func (c *Client) AddressDetails(ctx context.Context, addr string) (*AddressDetails, error) {
	var out AddressDetails
	if _, err := c.get(ctx, "/api/v1/addresses/details/"+url.PathEscape(addr), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddressTransactions fetches up to limit transactions of addr, newest
// first, skipping the first skip.
func (c *Client) AddressTransactions(ctx context.Context, addr string, limit, skip int) (*Page, error) {
	if limit <= 0 || limit > MaxLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	}
	if skip < 0 {
		return nil, fmt.Errorf("skip must not be negative")
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(skip))

	page := &Page{Total: -1}
	hdr, err := c.get(ctx, "/api/v1/transactions/address/"+url.PathEscape(addr), q, &page.Transactions)
	if err != nil {
		return nil, err
	}
	if n, err := strconv.ParseInt(hdr.Get("X-Total-Count"), 10, 64); err == nil {
		page.Total = n
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) (http.Header, error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTracker, err)
	}
	defer resp.Body.Close()
	log.RPC.Debug().Str("url", u).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("tracker request")

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrTracker, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("parsing tracker response: %w", err)
	}
	return resp.Header, nil
}
