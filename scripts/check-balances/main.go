// check-balances: queries the ICX balance of every imported keystore and
// saved address on every built-in ICON network in parallel and prints a
// summary table.
//
// Run from the module root:
//
//	go run ./scripts/check-balances [extra addresses...]
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/addressbook"
	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"golang.org/x/sync/errgroup"
)

// ── config ────────────────────────────────────────────────────────────────────

const (
	rpcTimeout  = 12 * time.Second
	parallelism = 8
)

// ── types ─────────────────────────────────────────────────────────────────────

type target struct {
	label   string
	address string
}

type result struct {
	network string
	label   string
	wallet  string // short form
	balance string
	err     string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	targets, err := loadTargets(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "check-balances:", err)
		os.Exit(1)
	}
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "check-balances: no keystores, saved addresses or arguments to check")
		os.Exit(1)
	}

	var (
		mu      sync.Mutex
		results []result
	)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(parallelism)

	for _, n := range config.BuiltinNetworks() {
		client := icx.NewClient(n.APIEndpoint, icx.WithTimeout(rpcTimeout))
		for _, tg := range targets {
			n, tg := n, tg
			g.Go(func() error {
				r := result{network: n.Name, label: tg.label, wallet: shortAddr(tg.address)}

				cctx, cancel := context.WithTimeout(ctx, rpcTimeout)
				defer cancel()
				bal, err := client.GetBalance(cctx, tg.address)
				if err != nil {
					r.balance = "—"
					r.err = shortErr(err)
				} else {
					r.balance = icx.FormatICX(bal)
				}

				mu.Lock()
				results = append(results, r)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	printTable(results)
}

// loadTargets collects the keystores and saved addresses of the active
// config directory plus any addresses given on the command line.
func loadTargets(args []string) ([]target, error) {
	var out []target
	seen := make(map[string]bool)
	add := func(label, addr string) {
		addr = strings.ToLower(addr)
		if seen[addr] {
			return
		}
		seen[addr] = true
		out = append(out, target{label: label, address: addr})
	}

	for _, a := range args {
		if !addressbook.ValidAddress(a) {
			return nil, fmt.Errorf("%q is not an ICON address", a)
		}
		add("(arg)", a)
	}

	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	dir, err := config.ResolveDir("", env)
	if err != nil {
		return nil, err
	}
	cfg, err := config.NewStore(dir).Read()
	if err != nil {
		// No config yet: only the arguments are checked.
		if len(out) > 0 {
			return out, nil
		}
		return nil, err
	}
	for _, e := range cfg.Keystores {
		add(e.Name, e.Address)
	}
	labels := make([]string, 0, len(cfg.SavedAddresses))
	for l := range cfg.SavedAddresses {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		add(l, cfg.SavedAddresses[l])
	}
	return out, nil
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	// Sort by network → label.
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.network != b.network {
			return a.network < b.network
		}
		return a.label < b.label
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "NETWORK\tLABEL\tWALLET\tBALANCE (ICX)\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 8)+"\t"+
		strings.Repeat("-", 12)+"\t"+
		strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 24)+"\t"+
		strings.Repeat("-", 12))

	last := ""
	for _, r := range results {
		if r.network != last {
			if last != "" {
				fmt.Fprintln(w, "\t\t\t\t") // blank separator between networks
			}
			last = r.network
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.network, r.label, r.wallet, r.balance, r.err)
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
