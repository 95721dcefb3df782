package journal

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradelock/clock"
)

var today = clock.Bucket{Week: 2, Day: 3}

func ledgerWith(t *testing.T, b clock.Bucket, entries ...TradeEntry) Ledger {
	t.Helper()
	l := NewLedger()
	var err error
	for _, e := range entries {
		l, err = l.Append(b, e)
		require.NoError(t, err)
	}
	return l
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewLedgerInitialisesGrid(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	assert.Len(t, l, clock.Weeks)
	for w := 0; w < clock.Weeks; w++ {
		assert.Len(t, l[w], clock.DaysPerWeek)
		for d := 0; d < clock.DaysPerWeek; d++ {
			assert.NotNil(t, l[w][d])
			assert.Empty(t, l[w][d])
		}
	}
}

func TestUntouchedBucketReadsEmpty(t *testing.T) {
	t.Parallel()

	var l Ledger
	assert.Empty(t, l.Trades(today))
	assert.Equal(t, 0, l.CountLosses(today))
	assert.True(t, l.DayTotal(today).IsZero())
}

func TestMutationsReturnNewSnapshots(t *testing.T) {
	t.Parallel()

	base := ledgerWith(t, today, TradeEntry{ID: "a"})
	next, err := base.Update(today, 0, func(e *TradeEntry) { e.Amount = "100" })
	require.NoError(t, err)

	assert.Equal(t, "", base.Trades(today)[0].Amount)
	assert.Equal(t, "100", next.Trades(today)[0].Amount)

	appended, err := next.Append(today, TradeEntry{ID: "b"})
	require.NoError(t, err)
	assert.Len(t, next.Trades(today), 1)
	assert.Len(t, appended.Trades(today), 2)
}

func TestRemoveShiftsRows(t *testing.T) {
	t.Parallel()

	l := ledgerWith(t, today, TradeEntry{ID: "a"}, TradeEntry{ID: "b"}, TradeEntry{ID: "c"})
	next, err := l.Remove(today, 1)
	require.NoError(t, err)

	got := next.Trades(today)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Len(t, l.Trades(today), 3)

	_, err = l.Remove(today, 3)
	assert.ErrorIs(t, err, ErrRowOutOfRange)
	_, err = l.Update(today, -1, func(*TradeEntry) {})
	assert.ErrorIs(t, err, ErrRowOutOfRange)
	_, err = l.Append(clock.Bucket{Week: 9}, TradeEntry{})
	assert.ErrorIs(t, err, ErrBadBucket)
}

func TestCountLossesOnlyCompleted(t *testing.T) {
	t.Parallel()

	l := ledgerWith(t, today,
		TradeEntry{Type: Loss, Amount: "100"},
		TradeEntry{Type: Loss, Amount: ""},
		TradeEntry{Type: Loss, Amount: "0"},
		TradeEntry{Type: Loss, Amount: "abc"},
		TradeEntry{Type: Profit, Amount: "40"},
		TradeEntry{Type: Loss, Amount: "12.5"},
	)
	assert.Equal(t, 2, l.CountLosses(today))
}

func TestDayTotal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []TradeEntry
		want    string
	}{
		{"empty", nil, "0"},
		{"profit only", []TradeEntry{{Type: Profit, Amount: "100"}, {Type: Profit, Amount: "2.5"}}, "102.5"},
		{"mixed", []TradeEntry{{Type: Profit, Amount: "100"}, {Type: Loss, Amount: "30"}}, "70"},
		{"ignores empty and garbage", []TradeEntry{{Type: Loss, Amount: ""}, {Type: Profit, Amount: "x1"}, {Type: Loss, Amount: "10"}}, "-10"},
		{"unset type ignored", []TradeEntry{{Type: Unset, Amount: "500"}, {Type: Profit, Amount: "1"}}, "1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := ledgerWith(t, today, tt.entries...)
			assert.True(t, dec(tt.want).Equal(l.DayTotal(today)), "got %s", l.DayTotal(today))
		})
	}
}

func TestWeekTotalIsSumOfDays(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	var err error
	amounts := []string{"10", "20", "5", "7.25", "0", "3", "1"}
	for d, a := range amounts {
		l, err = l.Append(clock.Bucket{Week: 1, Day: d}, TradeEntry{Type: Profit, Amount: a})
		require.NoError(t, err)
		l, err = l.Append(clock.Bucket{Week: 1, Day: d}, TradeEntry{Type: Loss, Amount: "1"})
		require.NoError(t, err)
	}
	l, err = l.Append(clock.Bucket{Week: 0, Day: 0}, TradeEntry{Type: Profit, Amount: "1000"})
	require.NoError(t, err)

	sum := decimal.Zero
	for d := 0; d < clock.DaysPerWeek; d++ {
		sum = sum.Add(l.DayTotal(clock.Bucket{Week: 1, Day: d}))
	}
	assert.True(t, sum.Equal(l.WeekTotal(1)))
	assert.True(t, dec("39.25").Equal(l.WeekTotal(1)), "got %s", l.WeekTotal(1))
	assert.True(t, l.HasTrades(1))
	assert.False(t, l.HasTrades(3))
}

func TestStats(t *testing.T) {
	t.Parallel()

	t.Run("no trades", func(t *testing.T) {
		s := NewLedger().Stats()
		assert.Equal(t, 0.0, s.WinRate)
		assert.Equal(t, 0, s.TotalTrades)
		assert.True(t, s.Net.IsZero())
	})

	t.Run("mixed", func(t *testing.T) {
		l := ledgerWith(t, today,
			TradeEntry{Type: Profit, Amount: "100"},
			TradeEntry{Type: Profit, Amount: "50"},
			TradeEntry{Type: Loss, Amount: "30"},
			TradeEntry{Type: Loss, Amount: ""},
			TradeEntry{Type: Unset, Amount: "99"},
		)
		s := l.Stats()
		assert.Equal(t, 2, s.Wins)
		assert.Equal(t, 1, s.Losses)
		assert.Equal(t, 3, s.TotalTrades)
		assert.Equal(t, 66.7, s.WinRate)
		assert.True(t, dec("150").Equal(s.TotalProfit))
		assert.True(t, dec("30").Equal(s.TotalLoss))
		assert.True(t, dec("120").Equal(s.Net))
	})
}

func TestLossesCarryReason(t *testing.T) {
	t.Parallel()

	l := ledgerWith(t, today,
		TradeEntry{Type: Loss, Amount: "10", Reason: " no SL "},
		TradeEntry{Type: Loss, Amount: "5"},
		TradeEntry{Type: Profit, Amount: "5", Reason: "stale"},
	)
	losses := l.Losses()
	require.Len(t, losses, 1)
	assert.Equal(t, "no SL", losses[0].Reason)
	assert.Equal(t, today, losses[0].Bucket)
	assert.True(t, dec("10").Equal(losses[0].Amount))
}

func TestValidAmount(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"", "0", "100", "12.50", " 3 "} {
		assert.True(t, ValidAmount(ok), ok)
	}
	for _, bad := range []string{"-1", "abc", "1,000"} {
		assert.False(t, ValidAmount(bad), bad)
	}
}

func TestLedgerJSONShape(t *testing.T) {
	t.Parallel()

	l := ledgerWith(t, today, TradeEntry{ID: "01J", Type: Loss, Amount: "5", Reason: "fomo"})
	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"2":{`)
	assert.Contains(t, string(b), `"3":[{"id":"01J","type":"loss","amount":"5","reason":"fomo"}]`)
}
