package regret

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradelock/advisor"
	"github.com/rustyeddy/tradelock/journal"
)

type mapClassifier struct {
	configured bool
	labels     map[string]string
	failOn     string
	err        error
	cleared    int
}

func (m *mapClassifier) IsConfigured() bool { return m.configured }

func (m *mapClassifier) ClearCache() { m.cleared++ }

func (m *mapClassifier) Classify(_ context.Context, text string) (string, error) {
	if m.failOn != "" && text == m.failOn {
		return "", m.err
	}
	if l, ok := m.labels[strings.ToLower(text)]; ok {
		return l, nil
	}
	return text, nil
}

func loss(reason, amount string) journal.LossRecord {
	return journal.LossRecord{Reason: reason, Amount: decimal.RequireFromString(amount)}
}

func TestAggregatorRanking(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	agg.Add("Greed", loss("held too long", "10"))
	agg.Add("FOMO", loss("chased", "5"))
	agg.Add("FOMO", loss("chased", "5"))
	agg.Add("Revenge", loss("angry", "50"))
	agg.Add("Revenge", loss("mad", "1"))
	agg.Add("FOMO", loss("pump", "1"))
	agg.Add("FOMO", loss("breakout", "1"))
	agg.Add("FOMO", loss("news", "1"))

	got := agg.Ranked()
	require.Len(t, got, 3)

	assert.Equal(t, "FOMO", got[0].Category)
	assert.Equal(t, 5, got[0].Count)
	assert.Equal(t, []string{"chased", "pump", "breakout"}, got[0].Examples, "max 3 unique examples")
	assert.True(t, decimal.NewFromInt(13).Equal(got[0].TotalAmount))

	assert.Equal(t, "Revenge", got[1].Category)
	assert.Equal(t, "Greed", got[2].Category)
}

func TestAggregatorTieBreaksOnAmount(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	agg.Add("Small", loss("a", "1"))
	agg.Add("Big", loss("b", "100"))

	got := agg.Ranked()
	assert.Equal(t, "Big", got[0].Category)
	assert.Equal(t, "Small", got[1].Category)
}

func TestAnalyzeAI(t *testing.T) {
	t.Parallel()

	c := &mapClassifier{configured: true, labels: map[string]string{
		"chased the pump": "FOMO",
		"fomo again":      "FOMO",
		"revenge":         "Revenge Trade",
	}}
	a := NewAnalyzer(c, zerolog.Nop())

	var steps []int
	w := a.Analyze(context.Background(), []journal.LossRecord{
		loss("chased the pump", "20"),
		loss("revenge", "100"),
		loss("FOMO again", "5"),
	}, func(done, total int) {
		assert.Equal(t, 3, total)
		steps = append(steps, done)
	})

	assert.Equal(t, ModeAI, w.Mode)
	assert.Nil(t, w.Error)
	assert.Equal(t, 3, w.TotalLosses)
	assert.True(t, decimal.NewFromInt(125).Equal(w.TotalAmount))
	assert.Equal(t, []int{1, 2, 3}, steps)
	require.Len(t, w.Categories, 2)
	assert.Equal(t, "FOMO", w.Categories[0].Category)
	assert.Equal(t, 2, w.Categories[0].Count)
}

func TestAnalyzeErrorKeepsLastResult(t *testing.T) {
	t.Parallel()

	c := &mapClassifier{configured: true, labels: map[string]string{"fomo": "FOMO"}}
	a := NewAnalyzer(c, zerolog.Nop())
	ctx := context.Background()

	first := a.Analyze(ctx, []journal.LossRecord{loss("fomo", "1")}, nil)
	require.Nil(t, first.Error)

	c.failOn = "greed"
	c.err = &advisor.Error{Op: "classify", Status: 429, Msg: "slow down", Retryable: true}
	w := a.Analyze(ctx, []journal.LossRecord{loss("fomo", "1"), loss("greed", "2")}, nil)

	require.NotNil(t, w.Error)
	assert.Equal(t, "slow down", w.Error.Message)
	assert.True(t, w.Error.Retryable)
	assert.Equal(t, first.Categories, w.Categories)

	a.Invalidate()
	c.err = errors.New("network down")
	w = a.Analyze(ctx, []journal.LossRecord{loss("greed", "2")}, nil)
	require.NotNil(t, w.Error)
	assert.Contains(t, w.Error.Message, "network down")
	assert.Empty(t, w.Categories)
}

func TestRefreshClearsCacheAndKeepsLastOnFailure(t *testing.T) {
	t.Parallel()

	c := &mapClassifier{configured: true, labels: map[string]string{"fomo": "FOMO"}}
	a := NewAnalyzer(c, zerolog.Nop())
	ctx := context.Background()

	first := a.Analyze(ctx, []journal.LossRecord{loss("fomo", "1")}, nil)
	require.Nil(t, first.Error)
	assert.Zero(t, c.cleared)

	c.failOn = "greed"
	c.err = errors.New("network down")
	w := a.Refresh(ctx, []journal.LossRecord{loss("fomo", "1"), loss("greed", "2")}, nil)
	assert.Equal(t, 1, c.cleared)
	require.NotNil(t, w.Error)
	assert.Equal(t, first.Categories, w.Categories)

	c.failOn = ""
	w = a.Refresh(ctx, []journal.LossRecord{loss("fomo", "1"), loss("greed", "2")}, nil)
	assert.Equal(t, 2, c.cleared)
	require.Nil(t, w.Error)
	assert.Len(t, w.Categories, 2)
}

func TestRefreshOffline(t *testing.T) {
	t.Parallel()

	w := NewAnalyzer(nil, zerolog.Nop()).Refresh(context.Background(), []journal.LossRecord{loss("fomo", "1")}, nil)
	assert.Equal(t, ModeOffline, w.Mode)
	require.Len(t, w.Categories, 1)
}

func TestAnalyzeOffline(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(&mapClassifier{configured: false}, zerolog.Nop())
	w := a.Analyze(context.Background(), []journal.LossRecord{
		loss("No stop loss", "10"),
		loss("no stoploss", "20"),
		loss("revenge trade", "5"),
		loss("No Stop Loss", "1"),
	}, nil)

	assert.Equal(t, ModeOffline, w.Mode)
	require.Len(t, w.Categories, 2)
	assert.Equal(t, "No stop loss", w.Categories[0].Category)
	assert.Equal(t, 3, w.Categories[0].Count)
	assert.Equal(t, []string{"No stop loss", "no stoploss", "No Stop Loss"}, w.Categories[0].Examples)
	assert.Equal(t, "revenge trade", w.Categories[1].Category)
}

func TestAnalyzeNoLosses(t *testing.T) {
	t.Parallel()

	w := NewAnalyzer(nil, zerolog.Nop()).Analyze(context.Background(), nil, nil)
	assert.Equal(t, 0, w.TotalLosses)
	assert.NotNil(t, w.Categories)
	assert.Empty(t, w.Categories)
}
