package risk

import (
	"strings"

	"github.com/rustyeddy/tradelock/clock"
)

// LossDraft stages a loss while its reason is collected. It is never
// persisted.
type LossDraft struct {
	Bucket     clock.Bucket `json:"bucket"`
	Row        int          `json:"row"`
	SecondLoss bool         `json:"secondLoss"`
	Amount     string       `json:"amount"`
}

// CheckDisclosure validates a reason and confession against d and returns
// the trimmed reason. The two rules are independent: a blank reason is
// refused first, then a missing confession on a second loss.
func CheckDisclosure(d LossDraft, reason string, confessed bool) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", ErrReasonRequired
	}
	if d.SecondLoss && !confessed {
		return "", ErrConfessionRequired
	}
	return reason, nil
}

// DisclosureGate holds at most one open draft; it is the only path that can
// mark an entry as a loss.
type DisclosureGate struct {
	draft *LossDraft
}

// Open replaces any open draft. completedLosses is the bucket's completed
// loss count before this one.
func (g *DisclosureGate) Open(b clock.Bucket, row, completedLosses int, amount string) LossDraft {
	d := LossDraft{Bucket: b, Row: row, SecondLoss: completedLosses >= 1, Amount: amount}
	g.draft = &d
	return d
}

func (g *DisclosureGate) Pending() (LossDraft, bool) {
	if g.draft == nil {
		return LossDraft{}, false
	}
	return *g.draft, true
}

// Validate checks the open draft. On error the draft stays open.
func (g *DisclosureGate) Validate(reason string, confessed bool) (LossDraft, string, error) {
	if g.draft == nil {
		return LossDraft{}, "", ErrNoPendingLoss
	}
	r, err := CheckDisclosure(*g.draft, reason, confessed)
	if err != nil {
		return *g.draft, "", err
	}
	return *g.draft, r, nil
}

// Close discards the draft.
func (g *DisclosureGate) Close() { g.draft = nil }
