// Package price fetches market prices of ICON tokens from CoinGecko.
package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/log"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public CoinGecko API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Errors.
var (
	ErrMarket        = errors.New("market price request failed")
	ErrUnknownSymbol = errors.New("no market price for symbol")
)

// coinGeckoIDs maps token symbols to CoinGecko coin IDs.
var coinGeckoIDs = map[string]string{
	"ICX":   "icon",
	"SICX":  "staked-icx",
	"BALN":  "balance-tokens",
	"BNUSD": "balanced-dollars",
	"OMM":   "omm-tokens",
}

// Symbols returns the symbols with a market price, sorted.
func Symbols() []string {
	out := make([]string, 0, len(coinGeckoIDs))
	for s := range coinGeckoIDs {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Fetcher retrieves token prices from CoinGecko.
type Fetcher struct {
	client   *http.Client
	baseURL  string
	currency string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURL points the fetcher at another API root.
func WithBaseURL(u string) Option {
	return func(f *Fetcher) { f.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client = &http.Client{Timeout: d} }
}

// NewFetcher creates a fetcher quoting in currency, "usd" when empty.
func NewFetcher(currency string, opts ...Option) *Fetcher {
	if currency == "" {
		currency = "usd"
	}
	f := &Fetcher{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  DefaultBaseURL,
		currency: strings.ToLower(currency),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Currency returns the quote currency.
func (f *Fetcher) Currency() string { return f.currency }

// GetPrice returns the price of one token.
func (f *Fetcher) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := f.GetPrices(ctx, []string{symbol})
	if err != nil {
		return decimal.Zero, err
	}
	return prices[strings.ToUpper(symbol)], nil
}

// GetPrices fetches several tokens in one request. The result is keyed by
// upper-case symbol and holds every requested symbol.
func (f *Fetcher) GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	ids := make(map[string]string, len(symbols))
	uniqueIDs := make(map[string]struct{})
	for _, s := range symbols {
		key := strings.ToUpper(strings.TrimSpace(s))
		id, ok := coinGeckoIDs[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownSymbol, s, strings.Join(Symbols(), ", "))
		}
		ids[key] = id
		uniqueIDs[id] = struct{}{}
	}
	idList := make([]string, 0, len(uniqueIDs))
	for id := range uniqueIDs {
		idList = append(idList, id)
	}
	sort.Strings(idList)

	prices, err := f.fetchBatch(ctx, idList)
	if err != nil {
		return nil, err
	}

	result := make(map[string]decimal.Decimal, len(ids))
	for sym, id := range ids {
		p, ok := prices[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no %s quote", ErrMarket, sym, f.currency)
		}
		result[sym] = p
	}
	return result, nil
}

func (f *Fetcher) fetchBatch(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", f.currency)
	u := f.baseURL + "/simple/price?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarket, err)
	}
	defer resp.Body.Close()
	log.RPC.Debug().Str("url", u).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("price request")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrMarket, resp.StatusCode)
	}

	// Response: {"icon":{"usd":0.1234}, ...}
	var raw map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", ErrMarket, err)
	}

	prices := make(map[string]decimal.Decimal, len(raw))
	for id, currencies := range raw {
		if p, ok := currencies[f.currency]; ok {
			prices[id] = p
		}
	}
	return prices, nil
}
