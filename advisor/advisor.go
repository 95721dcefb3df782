package advisor

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/tradelock/journal"
	"github.com/rustyeddy/tradelock/metrics"
)

// MinKeyLength is the shortest key treated as configured.
const MinKeyLength = 10

type Options struct {
	Completer         Completer // nil disables AI entirely
	APIKey            string
	Timeout           time.Duration
	RequestsPerMinute int
	Rand              *rand.Rand
	Logger            zerolog.Logger
	Metrics           *metrics.Metrics
}

// Advisor is safe for concurrent use.
type Advisor struct {
	completer Completer
	timeout   time.Duration
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	group     singleflight.Group
	log       zerolog.Logger
	metrics   *metrics.Metrics

	mu    sync.RWMutex
	key   string
	cache map[string]string
	gen   uint64

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(opts Options) *Advisor {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}

	a := &Advisor{
		completer: opts.Completer,
		timeout:   opts.Timeout,
		limiter:   rate.NewLimiter(limit, 1),
		log:       opts.Logger,
		metrics:   opts.Metrics,
		key:       strings.TrimSpace(opts.APIKey),
		cache:     map[string]string{},
		rng:       opts.Rand,
	}

	name := "ai"
	if a.completer != nil {
		name = a.completer.Name()
	}
	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("ai breaker state change")
			a.metrics.BreakerState(name, int(to))
		},
	})
	return a
}

// IsConfigured reports whether AI calls will be attempted.
func (a *Advisor) IsConfigured() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.completer != nil && len(a.key) > MinKeyLength
}

// SetAPIKey replaces the key and forgets every cached classification.
func (a *Advisor) SetAPIKey(key string) {
	a.mu.Lock()
	a.key = strings.TrimSpace(key)
	a.mu.Unlock()
	a.ClearCache()
}

func (a *Advisor) APIKey() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.key
}

func (a *Advisor) ClearCache() {
	a.mu.Lock()
	a.cache = map[string]string{}
	a.gen++
	a.mu.Unlock()
}

// complete runs one rate-limited call through the breaker.
func (a *Advisor) complete(ctx context.Context, op string, req Request) (string, error) {
	if !a.IsConfigured() {
		return "", &Error{Op: op, Msg: ErrNotConfigured.Error(), Err: ErrNotConfigured}
	}
	req.APIKey = a.APIKey()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.limiter.Wait(ctx); err != nil {
		return "", &Error{Op: op, Msg: "rate limited", Retryable: true, Err: err}
	}

	start := time.Now()
	out, err := a.breaker.Execute(func() (interface{}, error) {
		return a.completer.Complete(ctx, req)
	})
	a.metrics.AILatency(a.completer.Name(), time.Since(start))
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &Error{Op: op, Msg: "AI temporarily unavailable", Retryable: true, Err: err}
	}
	if err != nil {
		return "", asError(op, err)
	}
	return out.(string), nil
}

func normalise(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// cleanLabel keeps the first line of a model answer without surrounding
// quotes.
func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimPrefix(s, `'`)
	s = strings.TrimSuffix(s, `"`)
	s = strings.TrimSuffix(s, `'`)
	return strings.TrimSpace(s)
}

// Classify names the mistake category of a loss reason. Results are memoised
// by lower-cased trimmed text and concurrent calls for the same text share
// one request.
func (a *Advisor) Classify(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	key := normalise(text)

	a.mu.RLock()
	label, ok := a.cache[key]
	gen := a.gen
	a.mu.RUnlock()
	if ok {
		a.metrics.AIRequest("classify", "cached")
		return label, nil
	}

	v, err, _ := a.group.Do(key, func() (interface{}, error) {
		a.mu.RLock()
		label, ok := a.cache[key]
		a.mu.RUnlock()
		if ok {
			return label, nil
		}

		out, err := a.complete(ctx, "classify", Request{
			Prompt:      buildClassifyPrompt(text),
			MaxTokens:   20,
			Temperature: 0.3,
		})
		if err != nil {
			return "", err
		}
		label = cleanLabel(out)
		if label == "" {
			label = text
		}

		a.mu.Lock()
		if a.gen == gen {
			a.cache[key] = label
		}
		a.mu.Unlock()
		return label, nil
	})
	if err != nil {
		a.metrics.AIRequest("classify", "error")
		a.log.Warn().Err(err).Str("reason", text).Msg("classification failed")
		return "", err
	}
	a.metrics.AIRequest("classify", "ok")
	return v.(string), nil
}

func (a *Advisor) pick(pool []string) string {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return Pick(pool, a.rng)
}

func (a *Advisor) chance(p float64) bool {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.Float64() < p
}

// generate asks the model and falls back to fallback() on any failure or an
// empty answer.
func (a *Advisor) generate(ctx context.Context, op string, req Request, fallback func() string) string {
	if !a.IsConfigured() {
		a.metrics.AIRequest(op, "fallback")
		return fallback()
	}
	out, err := a.complete(ctx, op, req)
	if err != nil {
		a.log.Warn().Err(err).Str("op", op).Msg("ai call failed, using fallback")
		a.metrics.AIRequest(op, "fallback")
		return fallback()
	}
	if out == "" {
		a.metrics.AIRequest(op, "fallback")
		return fallback()
	}
	a.metrics.AIRequest(op, "ok")
	return out
}

// Reaction comments on a single trade. It never fails.
func (a *Advisor) Reaction(ctx context.Context, kind journal.TradeType, amount decimal.Decimal, reason string) string {
	pool := lossReactions
	if kind == journal.Profit {
		pool = winReactions
	}
	return a.generate(ctx, "reaction", Request{
		Prompt:      buildReactionPrompt(kind, amount, reason),
		MaxTokens:   100,
		Temperature: 0.8,
	}, func() string { return fill(a.pick(pool), amount) })
}

// DailySummary reviews a day's trades. It never fails.
func (a *Advisor) DailySummary(ctx context.Context, trades []journal.TradeEntry, net decimal.Decimal) string {
	pool := summaryWin
	if net.IsNegative() {
		pool = summaryLoss
	}
	return a.generate(ctx, "summary", Request{
		Prompt:      buildSummaryPrompt(trades, net),
		MaxTokens:   150,
		Temperature: 0.8,
	}, func() string { return fill(a.pick(pool), net) })
}

// LockMessage is shown when the day locks. It never fails.
func (a *Advisor) LockMessage(ctx context.Context, reasons []string) string {
	return a.generate(ctx, "lock_message", Request{
		Prompt:      buildLockPrompt(reasons),
		MaxTokens:   120,
		Temperature: 0.9,
	}, func() string { return a.pick(lockMessages) })
}

// PopUp picks a context-aware nudge. In priority order: a warning when one
// loss is on the board (40%), a no-trades note (50%), a loss note while red
// (50%), a profit note while green (50%), and otherwise a greeting.
func (a *Advisor) PopUp(trades []journal.TradeEntry, dayTotal decimal.Decimal, lossCount int) string {
	if lossCount == 1 && a.chance(0.4) {
		return a.pick(warningMessages)
	}
	if len(trades) == 0 && a.chance(0.5) {
		return a.pick(noTradeMessages)
	}
	if dayTotal.IsNegative() && a.chance(0.5) {
		return a.pick(lossMessages)
	}
	if dayTotal.IsPositive() && a.chance(0.5) {
		return a.pick(profitMessages)
	}
	return a.pick(greetings)
}

func (a *Advisor) Quote() string {
	return a.pick(quotes)
}
