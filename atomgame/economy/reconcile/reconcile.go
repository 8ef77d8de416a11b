// Package reconcile merges a client's optimistic balance report with the
// server's authoritative recomputation.
package reconcile

import "github.com/atomicprogress/atomgame/atomgame/economy"

// Result describes one merge.
type Result struct {
	// Final is the authoritative outcome: per-resource max(server, client).
	Final economy.Balances
	// Surplus is how far the client was ahead per resource, zero where the
	// server value won.
	Surplus economy.Balances
	// ClientAhead is true when the client exceeded the server on any
	// resource; only then is an audit ledger entry warranted.
	ClientAhead bool
}

// Merge never lets a reconciliation roll a balance backward: each resource
// takes the larger of the server-computed and client-reported values. A
// client running ahead (buffered clicks, optimistic ticking) keeps its
// progress; the accepted surplus is bounded in practice by how far the
// client can advance between reconciliations, and is surfaced for audit.
func Merge(server, client economy.Balances) Result {
	final := economy.Max(server, client)
	surplus := economy.Balances{}
	ahead := false
	if client.Energons > server.Energons {
		surplus.Energons = client.Energons - server.Energons
		ahead = true
	}
	if client.Neutrons > server.Neutrons {
		surplus.Neutrons = client.Neutrons - server.Neutrons
		ahead = true
	}
	if client.Particles > server.Particles {
		surplus.Particles = client.Particles - server.Particles
		ahead = true
	}
	return Result{Final: final, Surplus: surplus, ClientAhead: ahead}
}
