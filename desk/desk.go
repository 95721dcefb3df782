// Package desk is the trading desk: it serialises every user action against
// the ledger, the loss-disclosure and promise gates and the lock engine, and
// persists the result.
package desk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradelock/clock"
	"github.com/rustyeddy/tradelock/journal"
	"github.com/rustyeddy/tradelock/metrics"
	"github.com/rustyeddy/tradelock/pkg/id"
	"github.com/rustyeddy/tradelock/regret"
	"github.com/rustyeddy/tradelock/risk"
)

// MinAPIKeyLength is the shortest key accepted from the user.
const MinAPIKeyLength = 10

var ErrAPIKeyTooShort = &risk.Violation{Code: "API_KEY_TOO_SHORT", Msg: "API key is too short", Level: risk.Error}

// Repository is everything the desk persists.
type Repository interface {
	risk.LockStore
	risk.PromiseStore

	LoadLedger() (journal.Ledger, error)
	SaveLedger(journal.Ledger) error
	LoadNotes() (journal.Notes, error)
	SaveNotes(journal.Notes) error
	LoadAPIKey() (string, error)
	SaveAPIKey(string) error
	Reset() error
}

// Advisor is the AI side the desk talks to directly.
type Advisor interface {
	LockMessage(ctx context.Context, reasons []string) string
	SetAPIKey(key string)
}

type Options struct {
	Repo     Repository
	Clock    clock.Clock
	Policy   risk.Policy
	Notifier Notifier
	Advisor  Advisor
	Regret   *regret.Analyzer
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger

	// AfterFunc schedules the lock alert; time.AfterFunc when nil.
	AfterFunc func(time.Duration, func())
}

// Desk guards all state with one mutex, so HTTP handlers, CLI calls and
// sweep ticks never interleave.
type Desk struct {
	repo     Repository
	clock    clock.Clock
	policy   risk.Policy
	notifier Notifier
	advisor  Advisor
	regret   *regret.Analyzer
	metrics  *metrics.Metrics
	log      zerolog.Logger
	after    func(time.Duration, func())

	mu      sync.Mutex
	ledger  journal.Ledger
	notes   journal.Notes
	locks   *risk.LockEngine
	promise *risk.PromiseGate
	loss    risk.DisclosureGate

	alerts sync.WaitGroup
}

// New loads persisted state and purges stale locks.
func New(opts Options) (*Desk, error) {
	if opts.Repo == nil {
		return nil, errors.New("desk needs a repository")
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Policy.MaxLossesPerDay == 0 {
		opts.Policy = risk.DefaultPolicy()
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}

	d := &Desk{
		repo:     opts.Repo,
		clock:    opts.Clock,
		policy:   opts.Policy,
		notifier: opts.Notifier,
		advisor:  opts.Advisor,
		regret:   opts.Regret,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		after:    opts.AfterFunc,
	}

	var err error
	if d.ledger, err = d.repo.LoadLedger(); err != nil {
		return nil, err
	}
	if d.notes, err = d.repo.LoadNotes(); err != nil {
		return nil, err
	}
	if d.locks, err = risk.NewLockEngine(d.repo, d.clock, d.log); err != nil {
		return nil, err
	}
	d.promise = risk.NewPromiseGate(d.repo, d.clock, d.policy.Pledge)

	// A key saved through SetAPIKey wins over the one from the environment.
	key, err := d.repo.LoadAPIKey()
	if err != nil {
		return nil, err
	}
	if key != "" && d.advisor != nil {
		d.advisor.SetAPIKey(key)
	}

	if _, err := d.sweepLocked(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Desk) Policy() risk.Policy { return d.policy }

func (d *Desk) toast(level risk.Level, b clock.Bucket, msg string) {
	d.notifier.Notify(Notice{Kind: KindToast, Level: level, Message: msg, Bucket: b, At: d.clock.Now()})
}

// reject reports a violation and hands it back unchanged.
func (d *Desk) reject(b clock.Bucket, err error) error {
	var v *risk.Violation
	if errors.As(err, &v) {
		d.metrics.Violation(v.Code)
		d.toast(v.Level, b, v.Msg)
		d.log.Debug().Str("code", v.Code).Str("bucket", b.Key()).Msg("action rejected")
	}
	return err
}

func (d *Desk) pledgeDue() (bool, error) {
	return d.promise.Required()
}

// checkEdit applies the today, lock and pledge rules to b.
func (d *Desk) checkEdit(b clock.Bucket) error {
	due, err := d.pledgeDue()
	if err != nil {
		return err
	}
	err = risk.CheckEdit(risk.EditState{
		Target:        b,
		Today:         clock.Current(d.clock),
		Locked:        d.locks.IsLocked(b),
		PledgePending: due,
	})
	if err != nil {
		return d.reject(b, err)
	}
	return nil
}

func (d *Desk) checkRow(b clock.Bucket, row int) error {
	if _, err := d.ledger.Entry(b, row); err != nil {
		if errors.Is(err, journal.ErrRowOutOfRange) {
			return d.reject(b, risk.ErrTradeNotFound)
		}
		return err
	}
	return nil
}

// commit saves next and only then makes it the live ledger.
func (d *Desk) commit(next journal.Ledger) error {
	if err := d.repo.SaveLedger(next); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	d.ledger = next
	return nil
}

// AddTrade appends an empty row to b, which must be today.
func (d *Desk) AddTrade(b clock.Bucket) (journal.TradeEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEdit(b); err != nil {
		return journal.TradeEntry{}, err
	}

	e := journal.TradeEntry{ID: id.NewAt(d.clock.Now()), Type: journal.Unset}
	next, err := d.ledger.Append(b, e)
	if err != nil {
		return journal.TradeEntry{}, err
	}
	if err := d.commit(next); err != nil {
		return journal.TradeEntry{}, err
	}
	d.metrics.TradeAdded()
	d.log.Debug().Str("bucket", b.Key()).Str("id", e.ID).Msg("trade added")
	return e, nil
}

// SetField edits the amount or the type of a row. A loss can only be set
// through RequestLoss and ConfirmLoss.
func (d *Desk) SetField(b clock.Bucket, row int, field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEdit(b); err != nil {
		return err
	}
	if err := d.checkRow(b, row); err != nil {
		return err
	}

	var fn func(*journal.TradeEntry)
	switch field {
	case "type":
		t := journal.TradeType(value)
		switch {
		case t == journal.Loss:
			return d.reject(b, risk.ErrUseDisclosure)
		case !t.Valid():
			return d.reject(b, risk.ErrInvalidType)
		}
		fn = func(e *journal.TradeEntry) {
			if e.Type == journal.Loss && t != journal.Loss {
				e.Reason = ""
			}
			e.Type = t
		}
	case "amount":
		v := strings.TrimSpace(value)
		if !journal.ValidAmount(v) {
			return d.reject(b, risk.ErrInvalidAmount)
		}
		fn = func(e *journal.TradeEntry) { e.Amount = v }
	default:
		return d.reject(b, risk.ErrUnknownField)
	}

	next, err := d.ledger.Update(b, row, fn)
	if err != nil {
		return err
	}
	// Only ConfirmLoss locks a day; an amount edit never does.
	return d.commit(next)
}

// DeleteTrade removes a row of today; later rows shift up. Deleting never
// unlocks a day, and a locked day refuses deletes.
func (d *Desk) DeleteTrade(b clock.Bucket, row int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEdit(b); err != nil {
		return err
	}
	if err := d.checkRow(b, row); err != nil {
		return err
	}
	next, err := d.ledger.Remove(b, row)
	if err != nil {
		return err
	}
	if err := d.commit(next); err != nil {
		return err
	}
	if p, ok := d.loss.Pending(); ok && p.Bucket == b {
		d.loss.Close()
	}
	return nil
}

// RequestLoss opens the disclosure for row without touching the ledger.
func (d *Desk) RequestLoss(b clock.Bucket, row int) (risk.LossDraft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEdit(b); err != nil {
		return risk.LossDraft{}, err
	}
	if err := d.checkRow(b, row); err != nil {
		return risk.LossDraft{}, err
	}
	e, _ := d.ledger.Entry(b, row)
	return d.loss.Open(b, row, d.ledger.CountLosses(b), e.Amount), nil
}

func (d *Desk) PendingLoss() (risk.LossDraft, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loss.Pending()
}

// CancelLoss discards the open disclosure, if any.
func (d *Desk) CancelLoss() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loss.Close()
}

type LossResult struct {
	Entry  journal.TradeEntry `json:"entry"`
	Losses int                `json:"losses"`
	Locked bool               `json:"locked"`
}

// ConfirmLoss records the open draft as a loss with reason. The ledger is
// saved before the lock is evaluated; reaching the loss limit locks the day
// and schedules the lock alert. If the lock cannot be saved the loss stays
// recorded: the result carries the entry with Locked false alongside the
// error, and the next confirmed loss on that day tries the lock again.
func (d *Desk) ConfirmLoss(reason string, confessed bool) (LossResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	draft, ok := d.loss.Pending()
	if !ok {
		return LossResult{}, d.reject(clock.Current(d.clock), risk.ErrNoPendingLoss)
	}
	// The day may have rolled over or locked since the draft was opened.
	if err := d.checkEdit(draft.Bucket); err != nil {
		d.loss.Close()
		return LossResult{}, err
	}
	if err := d.checkRow(draft.Bucket, draft.Row); err != nil {
		d.loss.Close()
		return LossResult{}, err
	}

	draft, reason, err := d.loss.Validate(reason, confessed)
	if err != nil {
		return LossResult{}, d.reject(draft.Bucket, err)
	}

	next, err := d.ledger.Update(draft.Bucket, draft.Row, func(e *journal.TradeEntry) {
		e.Type = journal.Loss
		e.Reason = reason
	})
	if err != nil {
		return LossResult{}, err
	}
	if err := d.commit(next); err != nil {
		return LossResult{}, err
	}
	d.loss.Close()
	d.metrics.LossRecorded()

	entry, _ := d.ledger.Entry(draft.Bucket, draft.Row)
	res := LossResult{Entry: entry, Losses: d.ledger.CountLosses(draft.Bucket)}

	if res.Losses >= d.policy.MaxLossesPerDay {
		if err := d.lock(draft.Bucket); err != nil {
			d.log.Error().Err(err).Str("bucket", draft.Bucket.Key()).Msg("loss recorded but day lock failed")
			return res, fmt.Errorf("loss recorded, locking %s: %w", draft.Bucket, err)
		}
		res.Locked = true
		return res, nil
	}

	d.toast(risk.Warning, draft.Bucket, "Loss recorded with its reason.")
	return res, nil
}

func (d *Desk) lock(b clock.Bucket) error {
	if _, err := d.locks.Lock(b); err != nil {
		return err
	}
	d.metrics.DayLocked()

	var reasons []string
	for _, e := range d.ledger.Trades(b) {
		if e.Type == journal.Loss && strings.TrimSpace(e.Reason) != "" {
			reasons = append(reasons, e.Reason)
		}
	}
	d.scheduleLockAlert(b, reasons)
	return nil
}

func (d *Desk) scheduleLockAlert(b clock.Bucket, reasons []string) {
	d.alerts.Add(1)
	d.after(d.policy.LockAlertDelay, func() {
		defer d.alerts.Done()

		n := Notice{
			Kind:      KindLock,
			Level:     risk.Error,
			Bucket:    b,
			Remaining: clock.UntilMidnight(d.clock.Now()),
			At:        d.clock.Now(),
		}
		n.Message = fmt.Sprintf("%s is locked after %d losses. Trading reopens in %s.",
			b, d.policy.MaxLossesPerDay, n.Remaining)
		if d.advisor != nil {
			n.AI = d.advisor.LockMessage(context.Background(), reasons)
		}
		d.notifier.Notify(n)
	})
}

// SubmitPledge confirms today's pledge after a locked day.
func (d *Desk) SubmitPledge(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := clock.Current(d.clock)
	if err := d.promise.Submit(text); err != nil {
		return d.reject(b, err)
	}
	d.metrics.PledgeConfirmed()
	d.toast(risk.Success, b, "Promise accepted. Trade with discipline today.")
	return nil
}

func (d *Desk) PledgeRequired() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pledgeDue()
}

func (d *Desk) IsLocked(b clock.Bucket) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locks.IsLocked(b)
}

// Sweep purges stale locks now.
func (d *Desk) Sweep() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sweepLocked()
}

func (d *Desk) sweepLocked() ([]string, error) {
	purged, err := d.locks.Sweep()
	if err != nil {
		return nil, err
	}
	d.metrics.LocksSwept(len(purged))
	return purged, nil
}

// Run sweeps stale locks every Policy.SweepInterval until ctx is done.
func (d *Desk) Run(ctx context.Context) error {
	t := time.NewTicker(d.policy.SweepInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := d.Sweep(); err != nil {
				d.log.Error().Err(err).Msg("lock sweep failed")
			}
		}
	}
}

// Close waits for scheduled lock alerts to be delivered.
func (d *Desk) Close() {
	d.alerts.Wait()
}

func (d *Desk) Ledger() journal.Ledger {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ledger.Clone()
}

func (d *Desk) Stats() journal.Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ledger.Stats()
}

func (d *Desk) DayTotal(b clock.Bucket) decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ledger.DayTotal(b)
}

func (d *Desk) CountLosses(b clock.Bucket) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ledger.CountLosses(b)
}

func (d *Desk) ExportCSV(w io.Writer) error {
	return journal.WriteCSV(w, d.Ledger())
}

// Reset empties the ledger, the locks and the notes.
func (d *Desk) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.repo.Reset(); err != nil {
		return err
	}
	if err := d.locks.Clear(); err != nil {
		return err
	}
	d.ledger = journal.NewLedger()
	d.notes = journal.Notes{}
	d.loss.Close()
	if d.regret != nil {
		d.regret.Invalidate()
	}
	d.log.Info().Msg("all data reset")
	d.toast(risk.Success, clock.Current(d.clock), "All data has been reset.")
	return nil
}

// SetAPIKey stores the AI key and hands it to the advisor. An empty key
// turns AI off.
func (d *Desk) SetAPIKey(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key = strings.TrimSpace(key)
	if key != "" && len(key) < MinAPIKeyLength {
		return d.reject(clock.Current(d.clock), ErrAPIKeyTooShort)
	}
	if err := d.repo.SaveAPIKey(key); err != nil {
		return err
	}
	if d.advisor != nil {
		d.advisor.SetAPIKey(key)
	}
	if d.regret != nil {
		d.regret.Invalidate()
	}
	return nil
}

// Regret builds the wall of regret from every recorded loss. The AI calls
// run outside the desk lock.
func (d *Desk) Regret(ctx context.Context, progress regret.Progress) regret.Wall {
	d.mu.Lock()
	losses := d.ledger.Losses()
	d.mu.Unlock()

	a := d.regret
	if a == nil {
		a = regret.NewAnalyzer(nil, d.log)
	}
	return a.Analyze(ctx, losses, progress)
}

// RefreshRegret classifies every reason again, bypassing the classifier's
// cache. The previous wall is kept until the new run succeeds.
func (d *Desk) RefreshRegret(ctx context.Context, progress regret.Progress) regret.Wall {
	d.mu.Lock()
	losses := d.ledger.Losses()
	d.mu.Unlock()

	a := d.regret
	if a == nil {
		a = regret.NewAnalyzer(nil, d.log)
	}
	return a.Refresh(ctx, losses, progress)
}
