package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradelock/clock"
	"github.com/rustyeddy/tradelock/journal"
	"github.com/rustyeddy/tradelock/risk"
)

// Keys of the persisted records.
const (
	KeyJournal  = "trading_journal"
	KeyLocks    = "locked_days"
	KeyPromises = "trading_promise"
	KeyNotes    = "trading_notes"
	KeyMarker   = "yesterday_locked"
	KeyAPIKey   = "openrouter_api_key"
)

const opTimeout = 3 * time.Second

// Repository reads and writes typed records over a KV. A record that fails
// to decode is logged and replaced by its empty default; the next save
// overwrites it.
type Repository struct {
	kv  KV
	log zerolog.Logger
}

func NewRepository(kv KV, log zerolog.Logger) *Repository {
	return &Repository{kv: kv, log: log}
}

func (r *Repository) Close() error { return r.kv.Close() }

func (r *Repository) get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	b, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return b, err
}

func (r *Repository) set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return r.kv.Set(ctx, key, value)
}

func (r *Repository) del(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return r.kv.Delete(ctx, key)
}

// loadJSON decodes key into v. It reports false when the key is absent or
// the stored value is corrupt.
func (r *Repository) loadJSON(key string, v any) (bool, error) {
	b, err := r.get(key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if b == nil {
		return false, nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("corrupt record, using default")
		return false, nil
	}
	return true, nil
}

func (r *Repository) saveJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.set(key, b); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// LoadLedger always returns a fully initialised grid.
func (r *Repository) LoadLedger() (journal.Ledger, error) {
	var raw journal.Ledger
	ok, err := r.loadJSON(KeyJournal, &raw)
	if err != nil {
		return nil, err
	}
	l := journal.NewLedger()
	if !ok {
		return l, nil
	}
	for w, days := range raw {
		for d, trades := range days {
			b := clock.Bucket{Week: w, Day: d}
			if !b.Valid() {
				r.log.Warn().Str("bucket", b.Key()).Msg("dropping trades outside the month grid")
				continue
			}
			if trades != nil {
				l[w][d] = trades
			}
		}
	}
	return l, nil
}

func (r *Repository) SaveLedger(l journal.Ledger) error {
	return r.saveJSON(KeyJournal, l)
}

func (r *Repository) LoadLocks() (risk.LockTable, error) {
	t := risk.LockTable{}
	ok, err := r.loadJSON(KeyLocks, &t)
	if err != nil {
		return nil, err
	}
	if !ok || t == nil {
		return risk.LockTable{}, nil
	}
	return t, nil
}

func (r *Repository) SaveLocks(t risk.LockTable) error {
	return r.saveJSON(KeyLocks, t)
}

func (r *Repository) LoadPromises() (risk.Promises, error) {
	p := risk.Promises{}
	ok, err := r.loadJSON(KeyPromises, &p)
	if err != nil {
		return nil, err
	}
	if !ok || p == nil {
		return risk.Promises{}, nil
	}
	return p, nil
}

func (r *Repository) SavePromises(p risk.Promises) error {
	return r.saveJSON(KeyPromises, p)
}

func (r *Repository) LoadNotes() (journal.Notes, error) {
	var n journal.Notes
	ok, err := r.loadJSON(KeyNotes, &n)
	if err != nil {
		return nil, err
	}
	if !ok {
		return journal.Notes{}, nil
	}
	return n, nil
}

func (r *Repository) SaveNotes(n journal.Notes) error {
	return r.saveJSON(KeyNotes, n)
}

// LoadMarker returns the raw date key of the last lock, or "".
func (r *Repository) LoadMarker() (clock.DayKey, error) {
	b, err := r.get(KeyMarker)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", KeyMarker, err)
	}
	return clock.DayKey(b), nil
}

// SaveMarker stores k; an empty key removes the marker.
func (r *Repository) SaveMarker(k clock.DayKey) error {
	if k == "" {
		if err := r.del(KeyMarker); err != nil {
			return fmt.Errorf("clear %s: %w", KeyMarker, err)
		}
		return nil
	}
	if err := r.set(KeyMarker, []byte(k)); err != nil {
		return fmt.Errorf("save %s: %w", KeyMarker, err)
	}
	return nil
}

func (r *Repository) LoadAPIKey() (string, error) {
	b, err := r.get(KeyAPIKey)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", KeyAPIKey, err)
	}
	return string(b), nil
}

// SaveAPIKey stores the AI key; an empty key removes it.
func (r *Repository) SaveAPIKey(key string) error {
	if key == "" {
		return r.del(KeyAPIKey)
	}
	if err := r.set(KeyAPIKey, []byte(key)); err != nil {
		return fmt.Errorf("save %s: %w", KeyAPIKey, err)
	}
	return nil
}

// Reset deletes the ledger, the lock table and the notes.
func (r *Repository) Reset() error {
	for _, k := range []string{KeyJournal, KeyLocks, KeyNotes} {
		if err := r.del(k); err != nil {
			return fmt.Errorf("reset %s: %w", k, err)
		}
	}
	return nil
}
