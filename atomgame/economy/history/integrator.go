// Package history reconstructs total production over past intervals from the
// resource ledger, for audits and offline catch-up recomputation.
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/atomicprogress/atomgame/atomgame/economy"
)

// RateEvent is one instant at which the production rate changed, with the
// per-resource delta it caused.
type RateEvent struct {
	At    time.Time
	Delta economy.Rates
}

// Integrate performs piecewise-constant-rate integration of initial plus the
// chronological rate events over [start, end]. Events outside the interval
// are ignored; events need not be sorted. The result is independent of how
// finely rate changes were batched, and additive over any partition of the
// interval into contiguous sub-intervals.
func Integrate(initial economy.Rates, events []RateEvent, start, end time.Time) economy.Balances {
	if !end.After(start) {
		return economy.Balances{}
	}

	inWindow := make([]RateEvent, 0, len(events))
	for _, ev := range events {
		if ev.At.Before(start) || ev.At.After(end) {
			continue
		}
		inWindow = append(inWindow, ev)
	}
	sort.Slice(inWindow, func(i, j int) bool { return inWindow[i].At.Before(inWindow[j].At) })

	total := economy.Balances{}
	rate := initial
	prev := start
	for _, ev := range inWindow {
		total = total.Add(rate.Over(ev.At.Sub(prev).Seconds()))
		rate = rate.Add(ev.Delta)
		prev = ev.At
	}
	return total.Add(rate.Over(end.Sub(prev).Seconds()))
}

// LedgerSource is the slice of the ledger repository the integrator needs.
type LedgerSource interface {
	RateEvents(ctx context.Context, playerID int64, until time.Time) ([]*models.LedgerEntry, error)
}

// Integrator replays a player's rate-changing ledger entries.
type Integrator struct {
	ledger LedgerSource
}

// NewIntegrator creates an integrator over the given ledger source.
func NewIntegrator(ledger LedgerSource) *Integrator {
	return &Integrator{ledger: ledger}
}

// Totals reconstructs the resources produced for the player over
// [start, end]. The base rate in effect at start is recovered by summing all
// rate deltas recorded before start, so the result depends only on the
// ledger, not on the player's current complexes.
func (i *Integrator) Totals(ctx context.Context, playerID int64, start, end time.Time) (economy.Balances, error) {
	entries, err := i.ledger.RateEvents(ctx, playerID, end)
	if err != nil {
		return economy.Balances{}, fmt.Errorf("failed to load rate events: %w", err)
	}

	var initial economy.Rates
	events := make([]RateEvent, 0, len(entries))
	for _, e := range entries {
		delta := economy.Rates{
			Energons:  e.EnergonRateDelta,
			Neutrons:  e.NeutronRateDelta,
			Particles: e.ParticleRateDelta,
		}
		if e.Timestamp.Before(start) {
			initial = initial.Add(delta)
			continue
		}
		events = append(events, RateEvent{At: e.Timestamp, Delta: delta})
	}
	return Integrate(initial, events, start, end), nil
}
