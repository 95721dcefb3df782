// journal/journal.go
package journal

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradelock/clock"
)

// TradeType is the outcome a trade entry has been marked with.
type TradeType string

const (
	Unset  TradeType = ""
	Profit TradeType = "profit"
	Loss   TradeType = "loss"
)

// Valid reports whether t is one of the known outcomes.
func (t TradeType) Valid() bool {
	switch t {
	case Unset, Profit, Loss:
		return true
	}
	return false
}

var (
	ErrRowOutOfRange = errors.New("trade row out of range")
	ErrBadBucket     = errors.New("bucket outside the journal grid")
)

// TradeEntry is one row of a journal day. Amount is kept as the string the
// user typed; it only becomes a number when aggregated.
type TradeEntry struct {
	ID     string    `json:"id"`
	Type   TradeType `json:"type"`
	Amount string    `json:"amount"`
	Reason string    `json:"reason,omitempty"`
}

// HasAmount reports whether an amount was entered at all.
func (e TradeEntry) HasAmount() bool { return strings.TrimSpace(e.Amount) != "" }

// Value parses Amount. Empty or unparseable amounts are zero.
func (e TradeEntry) Value() decimal.Decimal {
	return ParseAmount(e.Amount)
}

// CompletedLoss is a loss with a positive amount attached. Only completed
// losses count toward the daily limit.
func (e TradeEntry) CompletedLoss() bool {
	return e.Type == Loss && e.HasAmount() && e.Value().IsPositive()
}

// Signed is +amount for a profit, -amount for a loss and zero otherwise.
func (e TradeEntry) Signed() decimal.Decimal {
	if !e.HasAmount() {
		return decimal.Zero
	}
	switch e.Type {
	case Profit:
		return e.Value()
	case Loss:
		return e.Value().Neg()
	}
	return decimal.Zero
}

// ParseAmount converts a user-entered amount to a decimal, zero on failure.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ValidAmount reports whether s may be stored as an amount: empty, or a
// non-negative decimal.
func ValidAmount(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	d, err := decimal.NewFromString(s)
	return err == nil && !d.IsNegative()
}

// Ledger maps week -> day -> ordered trade entries.
//
// A Ledger value is treated as an immutable snapshot: every mutation returns
// a new Ledger and leaves the receiver untouched, so a snapshot handed to the
// store is never modified behind its back.
type Ledger map[int]map[int][]TradeEntry

// NewLedger returns a ledger with every bucket initialised to an empty list.
func NewLedger() Ledger {
	l := make(Ledger, clock.Weeks)
	for w := 0; w < clock.Weeks; w++ {
		l[w] = make(map[int][]TradeEntry, clock.DaysPerWeek)
		for d := 0; d < clock.DaysPerWeek; d++ {
			l[w][d] = []TradeEntry{}
		}
	}
	return l
}

// Clone deep-copies the ledger, filling any missing bucket with an empty list.
func (l Ledger) Clone() Ledger {
	out := NewLedger()
	for w, days := range l {
		if _, ok := out[w]; !ok {
			out[w] = make(map[int][]TradeEntry, len(days))
		}
		for d, trades := range days {
			cp := make([]TradeEntry, len(trades))
			copy(cp, trades)
			out[w][d] = cp
		}
	}
	return out
}

// Trades returns a copy of the entries in bucket b; untouched buckets are empty.
func (l Ledger) Trades(b clock.Bucket) []TradeEntry {
	trades := l[b.Week][b.Day]
	out := make([]TradeEntry, len(trades))
	copy(out, trades)
	return out
}

// Append returns a new snapshot with e added at the end of bucket b.
func (l Ledger) Append(b clock.Bucket, e TradeEntry) (Ledger, error) {
	if !b.Valid() {
		return l, ErrBadBucket
	}
	next := l.Clone()
	next[b.Week][b.Day] = append(next[b.Week][b.Day], e)
	return next, nil
}

// Update returns a new snapshot with fn applied to row of bucket b.
func (l Ledger) Update(b clock.Bucket, row int, fn func(*TradeEntry)) (Ledger, error) {
	if !b.Valid() {
		return l, ErrBadBucket
	}
	trades := l[b.Week][b.Day]
	if row < 0 || row >= len(trades) {
		return l, ErrRowOutOfRange
	}
	next := l.Clone()
	fn(&next[b.Week][b.Day][row])
	return next, nil
}

// Remove returns a new snapshot without row of bucket b; later rows shift down.
func (l Ledger) Remove(b clock.Bucket, row int) (Ledger, error) {
	if !b.Valid() {
		return l, ErrBadBucket
	}
	trades := l[b.Week][b.Day]
	if row < 0 || row >= len(trades) {
		return l, ErrRowOutOfRange
	}
	next := l.Clone()
	day := next[b.Week][b.Day]
	next[b.Week][b.Day] = append(day[:row], day[row+1:]...)
	return next, nil
}

// Entry returns row of bucket b.
func (l Ledger) Entry(b clock.Bucket, row int) (TradeEntry, error) {
	trades := l[b.Week][b.Day]
	if row < 0 || row >= len(trades) {
		return TradeEntry{}, ErrRowOutOfRange
	}
	return trades[row], nil
}

// CountLosses counts completed losses in bucket b.
func (l Ledger) CountLosses(b clock.Bucket) int {
	n := 0
	for _, t := range l[b.Week][b.Day] {
		if t.CompletedLoss() {
			n++
		}
	}
	return n
}

// DayTotal is the sum of profits minus the sum of losses in bucket b.
func (l Ledger) DayTotal(b clock.Bucket) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range l[b.Week][b.Day] {
		sum = sum.Add(t.Signed())
	}
	return sum
}

// WeekTotal sums DayTotal over the seven days of week.
func (l Ledger) WeekTotal(week int) decimal.Decimal {
	sum := decimal.Zero
	for d := 0; d < clock.DaysPerWeek; d++ {
		sum = sum.Add(l.DayTotal(clock.Bucket{Week: week, Day: d}))
	}
	return sum
}

// HasTrades reports whether any day of week has at least one entry.
func (l Ledger) HasTrades(week int) bool {
	for _, trades := range l[week] {
		if len(trades) > 0 {
			return true
		}
	}
	return false
}

// Stats summarises every amount-bearing entry in the ledger.
type Stats struct {
	TotalProfit decimal.Decimal `json:"totalProfit"`
	TotalLoss   decimal.Decimal `json:"totalLoss"`
	Net         decimal.Decimal `json:"net"`
	Wins        int             `json:"wins"`
	Losses      int             `json:"losses"`
	TotalTrades int             `json:"totalTrades"`
	WinRate     float64         `json:"winRate"`
}

// Stats scans the whole grid. Entries without an amount are ignored; the win
// rate is rounded to one decimal and is 0 when nothing counted.
func (l Ledger) Stats() Stats {
	s := Stats{TotalProfit: decimal.Zero, TotalLoss: decimal.Zero}
	for w := 0; w < clock.Weeks; w++ {
		for d := 0; d < clock.DaysPerWeek; d++ {
			for _, t := range l[w][d] {
				if !t.HasAmount() {
					continue
				}
				switch t.Type {
				case Profit:
					s.TotalProfit = s.TotalProfit.Add(t.Value())
					s.Wins++
				case Loss:
					s.TotalLoss = s.TotalLoss.Add(t.Value())
					s.Losses++
				}
			}
		}
	}
	s.TotalTrades = s.Wins + s.Losses
	if s.TotalTrades > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.Wins)).
			Div(decimal.NewFromInt(int64(s.TotalTrades))).
			Mul(decimal.NewFromInt(100)).
			Round(1).
			InexactFloat64()
	}
	s.Net = s.TotalProfit.Sub(s.TotalLoss)
	return s
}

// LossRecord is a loss that carries a reason.
type LossRecord struct {
	Bucket clock.Bucket    `json:"bucket"`
	Reason string          `json:"reason"`
	Amount decimal.Decimal `json:"amount"`
}

// Losses collects every loss entry with a non-empty reason, in grid order.
func (l Ledger) Losses() []LossRecord {
	var out []LossRecord
	for w := 0; w < clock.Weeks; w++ {
		for d := 0; d < clock.DaysPerWeek; d++ {
			for _, t := range l[w][d] {
				reason := strings.TrimSpace(t.Reason)
				if t.Type != Loss || reason == "" {
					continue
				}
				out = append(out, LossRecord{
					Bucket: clock.Bucket{Week: w, Day: d},
					Reason: reason,
					Amount: t.Value(),
				})
			}
		}
	}
	return out
}
