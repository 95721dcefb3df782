package risk

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradelock/clock"
)

// LockRecord stamps the calendar day a bucket was locked on.
type LockRecord struct {
	DateKey   clock.DayKey `json:"dateKey"`
	Timestamp int64        `json:"timestamp"`
}

// LockTable is keyed by Bucket.Key() ("w-d").
type LockTable map[string]LockRecord

func (t LockTable) Clone() LockTable {
	out := make(LockTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// LockStore persists the lock table and the "a lock happened" marker. An
// empty marker means none is set.
type LockStore interface {
	LoadLocks() (LockTable, error)
	SaveLocks(LockTable) error
	SaveMarker(clock.DayKey) error
}

// LockEngine decides which buckets are locked. A record is only active on
// the calendar day it was stamped; after that it is stale and gets purged by
// Sweep. Locks are event-stamped: removing trades later never unlocks a day.
//
// LockEngine is not safe for concurrent use.
type LockEngine struct {
	store LockStore
	clock clock.Clock
	log   zerolog.Logger
	locks LockTable
}

func NewLockEngine(store LockStore, clk clock.Clock, log zerolog.Logger) (*LockEngine, error) {
	locks, err := store.LoadLocks()
	if err != nil {
		return nil, fmt.Errorf("load locks: %w", err)
	}
	if locks == nil {
		locks = LockTable{}
	}
	return &LockEngine{store: store, clock: clk, log: log, locks: locks}, nil
}

// Lock stamps b as locked today and arms the marker the promise gate checks
// on a later day.
func (e *LockEngine) Lock(b clock.Bucket) (LockRecord, error) {
	now := e.clock.Now()
	rec := LockRecord{DateKey: clock.KeyOf(now), Timestamp: now.UnixMilli()}

	next := e.locks.Clone()
	next[b.Key()] = rec
	if err := e.store.SaveLocks(next); err != nil {
		return LockRecord{}, fmt.Errorf("save locks: %w", err)
	}
	e.locks = next

	if err := e.store.SaveMarker(rec.DateKey); err != nil {
		return rec, fmt.Errorf("save lock marker: %w", err)
	}

	e.log.Info().Str("bucket", b.Key()).Str("date", string(rec.DateKey)).Msg("day locked")
	return rec, nil
}

// IsLocked is true iff b has a record stamped today.
func (e *LockEngine) IsLocked(b clock.Bucket) bool {
	rec, ok := e.locks[b.Key()]
	return ok && rec.DateKey == clock.Today(e.clock)
}

// Record returns the lock record for b, if any, stale or not.
func (e *LockEngine) Record(b clock.Bucket) (LockRecord, bool) {
	rec, ok := e.locks[b.Key()]
	return rec, ok
}

// Sweep deletes every record not stamped today and returns the purged keys
// in sorted order. It works on a copy so the live table is replaced whole.
func (e *LockEngine) Sweep() ([]string, error) {
	today := clock.Today(e.clock)
	next := e.locks.Clone()

	var purged []string
	for key, rec := range e.locks {
		if rec.DateKey != today {
			delete(next, key)
			purged = append(purged, key)
		}
	}
	if len(purged) == 0 {
		return nil, nil
	}
	sort.Strings(purged)

	if err := e.store.SaveLocks(next); err != nil {
		return nil, fmt.Errorf("save locks: %w", err)
	}
	e.locks = next

	e.log.Info().Strs("buckets", purged).Msg("expired day locks")
	return purged, nil
}

// Clear removes every lock record.
func (e *LockEngine) Clear() error {
	if err := e.store.SaveLocks(LockTable{}); err != nil {
		return fmt.Errorf("save locks: %w", err)
	}
	e.locks = LockTable{}
	return nil
}
