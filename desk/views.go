package desk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradelock/clock"
	"github.com/rustyeddy/tradelock/journal"
	"github.com/rustyeddy/tradelock/risk"
)

// TodayView is what the trading screen shows for the current day.
type TodayView struct {
	Date           clock.DayKey         `json:"date"`
	Bucket         clock.Bucket         `json:"bucket"`
	DayName        string               `json:"dayName"`
	WeekName       string               `json:"weekName"`
	Trades         []journal.TradeEntry `json:"trades"`
	Total          decimal.Decimal      `json:"total"`
	Losses         int                  `json:"losses"`
	MaxLosses      int                  `json:"maxLosses"`
	Locked         bool                 `json:"locked"`
	Status         string               `json:"status"`
	Remaining      clock.Remaining      `json:"remaining"`
	PledgeRequired bool                 `json:"pledgeRequired"`
	Pledge         string               `json:"pledge,omitempty"`
	PendingLoss    *risk.LossDraft      `json:"pendingLoss,omitempty"`
}

func status(locked bool, losses, max int) string {
	if locked {
		return "Locked"
	}
	return fmt.Sprintf("Active - Loss %d/%d", losses, max)
}

// Today snapshots the current bucket.
func (d *Desk) Today() (TodayView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	b := clock.BucketOf(now)
	due, err := d.pledgeDue()
	if err != nil {
		return TodayView{}, err
	}

	v := TodayView{
		Date:           clock.KeyOf(now),
		Bucket:         b,
		DayName:        b.DayName(),
		WeekName:       b.WeekName(),
		Trades:         append([]journal.TradeEntry{}, d.ledger.Trades(b)...),
		Total:          d.ledger.DayTotal(b),
		Losses:         d.ledger.CountLosses(b),
		MaxLosses:      d.policy.MaxLossesPerDay,
		Locked:         d.locks.IsLocked(b),
		Remaining:      clock.UntilMidnight(now),
		PledgeRequired: due,
	}
	v.Status = status(v.Locked, v.Losses, v.MaxLosses)
	if due {
		v.Pledge = d.promise.Pledge()
	}
	if p, ok := d.loss.Pending(); ok {
		v.PendingLoss = &p
	}
	return v, nil
}

type DaySummary struct {
	Bucket  clock.Bucket    `json:"bucket"`
	DayName string          `json:"dayName"`
	Trades  int             `json:"trades"`
	Losses  int             `json:"losses"`
	Total   decimal.Decimal `json:"total"`
	Locked  bool            `json:"locked"`
	Today   bool            `json:"today"`
}

type WeekSummary struct {
	Week     int             `json:"week"`
	WeekName string          `json:"weekName"`
	Days     []DaySummary    `json:"days"`
	Total    decimal.Decimal `json:"total"`
	Active   bool            `json:"active"`
}

// History summarises every week of the grid. A week is Active when it has
// trades or is the current week.
func (d *Desk) History() []WeekSummary {
	d.mu.Lock()
	defer d.mu.Unlock()

	today := clock.Current(d.clock)
	out := make([]WeekSummary, 0, clock.Weeks)
	for w := 0; w < clock.Weeks; w++ {
		ws := WeekSummary{
			Week:     w,
			WeekName: clock.Bucket{Week: w}.WeekName(),
			Total:    d.ledger.WeekTotal(w),
			Active:   d.ledger.HasTrades(w) || w == today.Week,
		}
		for day := 0; day < clock.DaysPerWeek; day++ {
			b := clock.Bucket{Week: w, Day: day}
			ws.Days = append(ws.Days, DaySummary{
				Bucket:  b,
				DayName: b.DayName(),
				Trades:  len(d.ledger.Trades(b)),
				Losses:  d.ledger.CountLosses(b),
				Total:   d.ledger.DayTotal(b),
				Locked:  d.locks.IsLocked(b),
				Today:   b == today,
			})
		}
		out = append(out, ws)
	}
	return out
}

// Losses returns every loss that carries a reason.
func (d *Desk) Losses() []journal.LossRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ledger.Losses()
}

func (d *Desk) Notes() journal.Notes {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append(journal.Notes{}, d.notes...)
}

// AddNote stores a dated note in front of the others.
func (d *Desk) AddNote(text string) (journal.Note, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := journal.NewNote(text, d.clock.Now())
	if err != nil {
		return journal.Note{}, err
	}
	next := d.notes.Prepend(n)
	if err := d.repo.SaveNotes(next); err != nil {
		return journal.Note{}, fmt.Errorf("save notes: %w", err)
	}
	d.notes = next
	return n, nil
}

// DeleteNote removes a note by id. It reports whether one was removed.
func (d *Desk) DeleteNote(noteID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next, ok := d.notes.Without(noteID)
	if !ok {
		return false, nil
	}
	if err := d.repo.SaveNotes(next); err != nil {
		return false, fmt.Errorf("save notes: %w", err)
	}
	d.notes = next
	return true, nil
}
