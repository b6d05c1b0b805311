// Package rpc measures the health of ICON API endpoints.
package rpc

import (
	"context"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/log"
)

const (
	// Nodes more than this many blocks behind the best height of the same
	// nid are stale.
	staleBlockThreshold = 3

	pingTimeout = 5 * time.Second
)

// Status of a checked endpoint.
const (
	StatusOK    = "ok"
	StatusStale = "stale"
	StatusDown  = "down"
)

// Pinger is the part of the ICON client a health check needs.
type Pinger interface {
	GetLastBlock(ctx context.Context) (*icx.Block, error)
}

// Endpoint is the measured state of a network's API endpoint.
type Endpoint struct {
	Network config.NetworkDescriptor `json:"network"`
	Latency time.Duration            `json:"latency_ns"`
	Height  int64                    `json:"height"`
	Status  string                   `json:"status"`
	Error   string                   `json:"error,omitempty"`
}

// Healthy reports whether the endpoint answered and is not stale.
func (e Endpoint) Healthy() bool { return e.Status == StatusOK }

// HealthCheck fetches the last block through c. A positive bestHeight
// marks the endpoint stale when it lags by more than staleBlockThreshold.
func HealthCheck(ctx context.Context, n config.NetworkDescriptor, c Pinger, bestHeight int64) (Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	blk, err := c.GetLastBlock(ctx)
	ep := Endpoint{Network: n, Latency: time.Since(start), Status: StatusDown}
	if err != nil {
		ep.Error = err.Error()
		log.RPC.Debug().Err(err).Str("network", n.Name).Msg("endpoint down")
		return ep, err
	}

	ep.Height = blk.Height
	ep.Status = StatusOK
	if bestHeight > 0 && bestHeight-blk.Height > staleBlockThreshold {
		ep.Status = StatusStale
	}
	log.RPC.Debug().
		Str("network", n.Name).
		Int64("height", ep.Height).
		Dur("latency", ep.Latency).
		Msg("endpoint checked")
	return ep, nil
}
