package rpc

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
)

// ErrNoHealthyEndpoint is returned when every checked endpoint is down or
// stale.
var ErrNoHealthyEndpoint = errors.New("no healthy endpoint available")

// Dialer returns the client used to check a network.
type Dialer func(n config.NetworkDescriptor) Pinger

// Benchmark checks every network in parallel, preserving input order.
// Endpoints that share a nid are compared with each other, and those
// lagging the best height are marked stale.
func Benchmark(ctx context.Context, networks []config.NetworkDescriptor, dial Dialer) []Endpoint {
	results := make([]Endpoint, len(networks))
	var wg sync.WaitGroup

	for i, n := range networks {
		i, n := i, n
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = HealthCheck(ctx, n, dial(n), 0)
		}()
	}
	wg.Wait()

	best := make(map[int64]int64)
	for _, e := range results {
		if e.Status == StatusOK && e.Height > best[e.Network.NID] {
			best[e.Network.NID] = e.Height
		}
	}
	for i := range results {
		e := &results[i]
		if e.Status == StatusOK && best[e.Network.NID]-e.Height > staleBlockThreshold {
			e.Status = StatusStale
		}
	}
	return results
}

// Fastest returns the healthy endpoint with the lowest latency.
func Fastest(endpoints []Endpoint) (*Endpoint, error) {
	var healthy []*Endpoint
	for i := range endpoints {
		if endpoints[i].Healthy() {
			healthy = append(healthy, &endpoints[i])
		}
	}
	if len(healthy) == 0 {
		return nil, ErrNoHealthyEndpoint
	}
	sort.SliceStable(healthy, func(i, j int) bool { return healthy[i].Latency < healthy[j].Latency })
	return healthy[0], nil
}
