package risk

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/tradelock/clock"
)

// Promises records, per calendar day, whether the pledge was confirmed.
type Promises map[clock.DayKey]bool

func (p Promises) Clone() Promises {
	out := make(Promises, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

type PromiseStore interface {
	LoadPromises() (Promises, error)
	SavePromises(Promises) error
	LoadMarker() (clock.DayKey, error)
	SaveMarker(clock.DayKey) error
}

// PledgeDue is true when a lock happened on an earlier day and today's pledge
// has not been confirmed yet. A marker stamped today means today itself is
// locked, which the lock engine already enforces.
func PledgeDue(today, marker clock.DayKey, promised Promises) bool {
	if marker == "" || marker == today {
		return false
	}
	return !promised[today]
}

// MatchPledge compares text to the pledge, ignoring only surrounding
// whitespace.
func MatchPledge(pledge, text string) bool {
	return strings.TrimSpace(text) == pledge
}

// PromiseGate blocks editing after a locked day until the pledge is retyped.
// It never unlocks a bucket; lock expiry is purely by date.
type PromiseGate struct {
	store  PromiseStore
	clock  clock.Clock
	pledge string
}

func NewPromiseGate(store PromiseStore, clk clock.Clock, pledge string) *PromiseGate {
	return &PromiseGate{store: store, clock: clk, pledge: pledge}
}

func (g *PromiseGate) Pledge() string { return g.pledge }

// Required reports whether editing is blocked behind the pledge today.
func (g *PromiseGate) Required() (bool, error) {
	marker, err := g.store.LoadMarker()
	if err != nil {
		return false, fmt.Errorf("load lock marker: %w", err)
	}
	promised, err := g.store.LoadPromises()
	if err != nil {
		return false, fmt.Errorf("load promises: %w", err)
	}
	return PledgeDue(clock.Today(g.clock), marker, promised), nil
}

// Submit confirms today's pledge. Wrong text changes nothing.
func (g *PromiseGate) Submit(text string) error {
	due, err := g.Required()
	if err != nil {
		return err
	}
	if !due {
		return ErrPledgeNotRequired
	}
	if !MatchPledge(g.pledge, text) {
		return ErrPledgeMismatch
	}

	promised, err := g.store.LoadPromises()
	if err != nil {
		return fmt.Errorf("load promises: %w", err)
	}
	next := promised.Clone()
	next[clock.Today(g.clock)] = true
	if err := g.store.SavePromises(next); err != nil {
		return fmt.Errorf("save promises: %w", err)
	}
	if err := g.store.SaveMarker(""); err != nil {
		return fmt.Errorf("clear lock marker: %w", err)
	}
	return nil
}
