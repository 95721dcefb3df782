package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradelock/clock"
	"github.com/rustyeddy/tradelock/desk"
	"github.com/rustyeddy/tradelock/journal"
	"github.com/rustyeddy/tradelock/regret"
)

func TestMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"1234.5", "$1,234.50"},
		{"-40", "-$40.00"},
		{"0.005", "$0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Money(decimal.RequireFromString(tt.in)))
		})
	}
}

func sample() Data {
	b := clock.Bucket{Week: 2, Day: 3}
	return Data{
		Generated: time.Date(2026, time.October, 15, 18, 0, 0, 0, time.UTC),
		Today: desk.TodayView{
			Bucket:   b,
			DayName:  b.DayName(),
			WeekName: b.WeekName(),
			Status:   "Locked",
			Locked:   true,
			Total:    decimal.NewFromInt(-70),
			Trades: []journal.TradeEntry{
				{ID: "a", Type: journal.Loss, Amount: "50", Reason: "chased | pumped"},
				{ID: "b", Type: journal.Loss, Amount: "20", Reason: "revenge"},
			},
			Remaining: clock.Remaining{Hours: 6},
		},
		History: []desk.WeekSummary{{
			WeekName: "Week 3",
			Active:   true,
			Total:    decimal.NewFromInt(-70),
			Days:     []desk.DaySummary{{Trades: 2, Total: decimal.NewFromInt(-70), Locked: true}},
		}},
		Stats: journal.Stats{TotalLoss: decimal.NewFromInt(70), Net: decimal.NewFromInt(-70), Losses: 2},
		Wall: &regret.Wall{
			Mode:        regret.ModeOffline,
			TotalLosses: 2,
			TotalAmount: decimal.NewFromInt(70),
			Categories: []regret.Category{
				{Category: "FOMO", Count: 2, TotalAmount: decimal.NewFromInt(70), Examples: []string{"chased"}},
			},
		},
		Notes: journal.Notes{{ID: "n", Text: "walk away", Date: "15 Oct 2026"}},
	}
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	out := Markdown(sample())
	for _, want := range []string{
		"## Today: Thursday, Week 3",
		"**Status:** Locked",
		"**Unlocks in:** 6h 0m",
		`chased \| pumped`,
		"-$50.00",
		"## Wall of Regret",
		"**FOMO** x2, -$70.00",
		"- walk away",
		"| Week 3 |",
	} {
		assert.Contains(t, out, want)
	}
}

func TestMarkdownEmptyDay(t *testing.T) {
	t.Parallel()

	out := Markdown(Data{Today: desk.TodayView{Status: "Active - Loss 0/2"}})
	assert.Contains(t, out, "No trades yet today.")
	assert.NotContains(t, out, "Wall of Regret")
	assert.NotContains(t, out, "## Notes")
}

func TestHTML(t *testing.T) {
	t.Parallel()

	page, err := HTML(Markdown(sample()))
	require.NoError(t, err)
	s := string(page)
	assert.True(t, strings.HasPrefix(s, "<!doctype html>"))
	assert.Contains(t, s, "<table>")
	assert.Contains(t, s, "<h2>Wall of Regret</h2>")
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	out, err := Terminal("# Hello\n\nworld", 40)
	require.NoError(t, err)
	assert.Contains(t, out, "world")
}
