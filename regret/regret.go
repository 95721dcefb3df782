// Package regret builds the "wall of regret": every loss reason grouped into
// a ranked list of recurring mistakes.
package regret

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradelock/advisor"
	"github.com/rustyeddy/tradelock/journal"
)

// MaxExamples caps the distinct reasons kept per category.
const MaxExamples = 3

type Mode string

const (
	ModeAI      Mode = "ai"
	ModeOffline Mode = "offline"
)

type Category struct {
	Category    string          `json:"category"`
	Examples    []string        `json:"examples"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Banner is a failed analysis the user can retry.
type Banner struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type Wall struct {
	Mode        Mode            `json:"mode"`
	Categories  []Category      `json:"categories"`
	TotalLosses int             `json:"totalLosses"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Error       *Banner         `json:"error,omitempty"`
}

// Classifier labels one loss reason.
type Classifier interface {
	IsConfigured() bool
	Classify(ctx context.Context, text string) (string, error)
	ClearCache()
}

// Progress is told how many reasons have been looked at so far.
type Progress func(done, total int)

// Aggregator accumulates losses into categories keyed by label.
type Aggregator struct {
	order []string
	byKey map[string]*Category
}

func NewAggregator() *Aggregator {
	return &Aggregator{byKey: map[string]*Category{}}
}

func (a *Aggregator) Add(label string, loss journal.LossRecord) {
	c, ok := a.byKey[label]
	if !ok {
		c = &Category{Category: label, Examples: []string{}, TotalAmount: decimal.Zero}
		a.byKey[label] = c
		a.order = append(a.order, label)
	}
	c.Count++
	c.TotalAmount = c.TotalAmount.Add(loss.Amount)
	if len(c.Examples) < MaxExamples && !contains(c.Examples, loss.Reason) {
		c.Examples = append(c.Examples, loss.Reason)
	}
}

// Ranked returns categories by count, then total amount, both descending.
// Ties keep first-seen order.
func (a *Aggregator) Ranked() []Category {
	out := make([]Category, 0, len(a.order))
	for _, k := range a.order {
		out = append(out, *a.byKey[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].TotalAmount.GreaterThan(out[j].TotalAmount)
	})
	return out
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func totals(losses []journal.LossRecord) (int, decimal.Decimal) {
	sum := decimal.Zero
	for _, l := range losses {
		sum = sum.Add(l.Amount)
	}
	return len(losses), sum
}

// similar is true when two normalised reasons are within an edit distance of
// 30% of the longer one (at least 2).
func similar(a, b string) bool {
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	limit := longest * 3 / 10
	if limit < 2 {
		limit = 2
	}
	return levenshtein.ComputeDistance(a, b) <= limit
}

// GroupOffline clusters reasons by spelling similarity, labelling each group
// with the first reason seen.
func GroupOffline(losses []journal.LossRecord, progress Progress) []Category {
	agg := NewAggregator()
	type rep struct{ norm, label string }
	var reps []rep

	for i, l := range losses {
		norm := strings.ToLower(strings.TrimSpace(l.Reason))
		label := ""
		for _, r := range reps {
			if similar(norm, r.norm) {
				label = r.label
				break
			}
		}
		if label == "" {
			label = l.Reason
			reps = append(reps, rep{norm: norm, label: label})
		}
		agg.Add(label, l)
		if progress != nil {
			progress(i+1, len(losses))
		}
	}
	return agg.Ranked()
}

// Analyzer builds walls and remembers the last successful AI result.
type Analyzer struct {
	classifier Classifier
	log        zerolog.Logger

	mu   sync.Mutex
	last []Category
}

func NewAnalyzer(c Classifier, log zerolog.Logger) *Analyzer {
	return &Analyzer{classifier: c, log: log}
}

// Analyze builds the wall for losses. With AI configured each reason is
// classified in turn; the first failure stops the run and the wall shows the
// previous result with a banner. Without AI reasons are grouped offline.
func (a *Analyzer) Analyze(ctx context.Context, losses []journal.LossRecord, progress Progress) Wall {
	n, sum := totals(losses)
	w := Wall{TotalLosses: n, TotalAmount: sum, Categories: []Category{}}

	if a.classifier == nil || !a.classifier.IsConfigured() {
		w.Mode = ModeOffline
		w.Categories = GroupOffline(losses, progress)
		return w
	}
	w.Mode = ModeAI

	agg := NewAggregator()
	for i, l := range losses {
		label, err := a.classifier.Classify(ctx, l.Reason)
		if err != nil {
			a.log.Warn().Err(err).Int("done", i).Int("total", len(losses)).Msg("regret analysis stopped")
			w.Error = banner(err)
			a.mu.Lock()
			w.Categories = append(w.Categories, a.last...)
			a.mu.Unlock()
			return w
		}
		agg.Add(label, l)
		if progress != nil {
			progress(i+1, len(losses))
		}
	}

	w.Categories = agg.Ranked()
	a.mu.Lock()
	a.last = w.Categories
	a.mu.Unlock()
	return w
}

// Invalidate forgets the remembered result, e.g. after the key changes.
func (a *Analyzer) Invalidate() {
	a.mu.Lock()
	a.last = nil
	a.mu.Unlock()
}

func banner(err error) *Banner {
	var ae *advisor.Error
	if errors.As(err, &ae) {
		msg := ae.Msg
		if msg == "" {
			msg = "AI analysis failed"
		}
		return &Banner{Message: msg, Retryable: ae.Retryable}
	}
	return &Banner{Message: "AI analysis failed: " + err.Error(), Retryable: true}
}

// Refresh clears the classifier's cache and analyzes again. The remembered
// result survives until the new run succeeds.
func (a *Analyzer) Refresh(ctx context.Context, losses []journal.LossRecord, progress Progress) Wall {
	if a.classifier != nil {
		a.classifier.ClearCache()
	}
	return a.Analyze(ctx, losses, progress)
}
