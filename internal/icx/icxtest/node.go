// Package icxtest provides an in-process ICON JSON-RPC node for tests.
package icxtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/icon-cli/internal/icx"
)

// Handler answers one JSON-RPC method. Returning an *icx.RPCError sends
// that error object; any other error becomes a -32000 server error.
type Handler func(params map[string]any) (any, error)

// Request is a recorded JSON-RPC request.
type Request struct {
	Path   string
	Method string
	Params map[string]any
}

// Node is a mock ICON node.
type Node struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	calls    map[string]Handler
	requests []Request
}

// NewNode starts a node that is closed when t finishes.
func NewNode(t testing.TB) *Node {
	t.Helper()
	n := &Node{
		handlers: make(map[string]Handler),
		calls:    make(map[string]Handler),
	}
	n.Server = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.Close)
	return n
}

// Handle registers a handler for method.
func (n *Node) Handle(method string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// Result answers method with a fixed result.
func (n *Node) Result(method string, result any) {
	n.Handle(method, func(map[string]any) (any, error) { return result, nil })
}

// HandleCall registers a handler for icx_call to a contract method.
func (n *Node) HandleCall(to, method string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[to+"."+method] = h
}

// CallResult answers an icx_call with a fixed result.
func (n *Node) CallResult(to, method string, result any) {
	n.HandleCall(to, method, func(map[string]any) (any, error) { return result, nil })
}

// Requests returns the recorded requests for method.
func (n *Node) Requests(method string) []Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Request
	for _, r := range n.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func (n *Node) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int64          `json:"id"`
		Method string         `json:"method"`
		Params map[string]any `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.requests = append(n.requests, Request{Path: r.URL.Path, Method: req.Method, Params: req.Params})
	h, ok := n.handlers[req.Method]
	if req.Method == "icx_call" {
		h, ok = n.calls[callKey(req.Params)]
	}
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = &icx.RPCError{Code: -32601, Message: "method not found"}
	} else if result, err := h(req.Params); err != nil {
		var rpcErr *icx.RPCError
		if !errors.As(err, &rpcErr) {
			rpcErr = &icx.RPCError{Code: icx.CodeServerError, Message: err.Error()}
		}
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func callKey(params map[string]any) string {
	to, _ := params["to"].(string)
	data, _ := params["data"].(map[string]any)
	method, _ := data["method"].(string)
	return to + "." + method
}

// CallParams extracts data.params from a recorded icx_call or call
// transaction.
func CallParams(r Request) map[string]any {
	data, _ := r.Params["data"].(map[string]any)
	p, _ := data["params"].(map[string]any)
	return p
}
