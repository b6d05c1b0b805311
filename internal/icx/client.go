// Package icx is a JSON-RPC v3 client for ICON nodes.
package icx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/log"
)

// ErrRPC is wrapped by every error returned from a JSON-RPC call.
var ErrRPC = errors.New("rpc failure")

// JSON-RPC error codes the client reacts to.
const (
	CodeServerError = -32000
	CodePending     = -31002
	CodeExecuting   = -31003
	CodeNotFound    = -31004
)

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Is makes errors.Is(err, ErrRPC) hold for node errors.
func (e *RPCError) Is(target error) bool { return target == ErrRPC }

// Client talks to one ICON node.
type Client struct {
	url      string
	debugURL string
	client   *http.Client
	id       atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client = &http.Client{Timeout: d} }
}

// WithDebugEndpoint overrides the debug endpoint used for step
// estimation. Some public nodes serve it from a separate host.
func WithDebugEndpoint(url string) Option {
	return func(c *Client) { c.debugURL = strings.TrimRight(url, "/") }
}

// NewClient returns a client for a node's base endpoint, for example
// https://ctz.solidwallet.io. The /api/v3 suffix is added when missing.
func NewClient(endpoint string, opts ...Option) *Client {
	base := strings.TrimRight(endpoint, "/")
	base = strings.TrimSuffix(base, "/api/v3")
	c := &Client{
		url:      base + "/api/v3",
		debugURL: base + "/api/v3d",
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the JSON-RPC endpoint.
func (c *Client) URL() string { return c.url }

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// GetBalance returns the ICX balance of address in loop.
func (c *Client) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	var hex string
	if err := c.call(ctx, c.url, "icx_getBalance", map[string]any{"address": address}, &hex); err != nil {
		return nil, err
	}
	return HexToBig(hex)
}

// GetTotalSupply returns the ICX total supply in loop.
func (c *Client) GetTotalSupply(ctx context.Context) (*big.Int, error) {
	var hex string
	if err := c.call(ctx, c.url, "icx_getTotalSupply", nil, &hex); err != nil {
		return nil, err
	}
	return HexToBig(hex)
}

// GetLastBlock returns the latest block.
func (c *Client) GetLastBlock(ctx context.Context) (*Block, error) {
	var b Block
	if err := c.call(ctx, c.url, "icx_getLastBlock", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBlockByHeight returns the block at height.
func (c *Client) GetBlockByHeight(ctx context.Context, height int64) (*Block, error) {
	var b Block
	params := map[string]any{"height": IntToHex(height)}
	if err := c.call(ctx, c.url, "icx_getBlockByHeight", params, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetTransactionByHash returns a transaction as submitted.
func (c *Client) GetTransactionByHash(ctx context.Context, hash string) (*TransactionInfo, error) {
	var tx TransactionInfo
	if err := c.call(ctx, c.url, "icx_getTransactionByHash", map[string]any{"txHash": hash}, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTransactionResult returns the execution result of a transaction.
func (c *Client) GetTransactionResult(ctx context.Context, hash string) (*TransactionResult, error) {
	var r TransactionResult
	if err := c.call(ctx, c.url, "icx_getTransactionResult", map[string]any{"txHash": hash}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// WaitTransactionResult polls until the transaction is executed or ctx
// is done. Pending and executing answers are retried; anything else is
// returned.
func (c *Client) WaitTransactionResult(ctx context.Context, hash string, interval time.Duration) (*TransactionResult, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		r, err := c.GetTransactionResult(ctx, hash)
		var rpcErr *RPCError
		if err == nil {
			return r, nil
		}
		if !errors.As(err, &rpcErr) || (rpcErr.Code != CodePending && rpcErr.Code != CodeExecuting) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("waiting for %s: %w", hash, ctxErr)
			}
			return nil, err
		}
		log.RPC.Debug().Str("tx", hash).Int("code", rpcErr.Code).Msg("waiting for result")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Call runs a read-only contract method and returns its raw result.
func (c *Client) Call(ctx context.Context, req CallRequest) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.call(ctx, c.url, "icx_call", req.params(), &out); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", req.To, req.Method, err)
	}
	return out, nil
}

// CallInto is Call decoding the result into out.
func (c *Client) CallInto(ctx context.Context, req CallRequest, out any) error {
	raw, err := c.Call(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s.%s: decoding result: %w", req.To, req.Method, err)
	}
	return nil
}

// GetScoreAPI returns the external API of a contract.
func (c *Client) GetScoreAPI(ctx context.Context, address string) ([]ScoreAPI, error) {
	var api []ScoreAPI
	if err := c.call(ctx, c.url, "icx_getScoreApi", map[string]any{"address": address}, &api); err != nil {
		return nil, err
	}
	return api, nil
}

// EstimateStep asks the node's debug endpoint for the steps tx consumes.
func (c *Client) EstimateStep(ctx context.Context, tx *Transaction) (*big.Int, error) {
	params, err := tx.Params()
	if err != nil {
		return nil, err
	}
	delete(params, "stepLimit")
	delete(params, "signature")

	var hex string
	if err := c.call(ctx, c.debugURL, "debug_estimateStep", params, &hex); err != nil {
		return nil, fmt.Errorf("estimating steps: %w", err)
	}
	return HexToBig(hex)
}

// SendTransaction broadcasts a signed transaction and returns its hash.
func (c *Client) SendTransaction(ctx context.Context, tx *Transaction) (string, error) {
	if tx.Signature == "" {
		return "", fmt.Errorf("sending transaction: not signed")
	}
	params, err := tx.Params()
	if err != nil {
		return "", err
	}
	var hash string
	if err := c.call(ctx, c.url, "icx_sendTransaction", params, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

func (c *Client) call(ctx context.Context, url, method string, params, out any) error {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.id.Add(1),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRPC, method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: reading response: %w", ErrRPC, method, err)
	}
	log.RPC.Debug().
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("rpc call")

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("%w: %s: parsing response (HTTP %d): %w", ErrRPC, method, resp.StatusCode, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("%w: %s: parsing result: %w", ErrRPC, method, err)
	}
	return nil
}
