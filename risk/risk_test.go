package risk

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradelock/clock"
)

type fakeStore struct {
	locks    LockTable
	promises Promises
	marker   clock.DayKey
	saves    int
	failSave error
}

func (f *fakeStore) LoadLocks() (LockTable, error) { return f.locks.Clone(), nil }
func (f *fakeStore) SaveLocks(t LockTable) error {
	if f.failSave != nil {
		return f.failSave
	}
	f.saves++
	f.locks = t.Clone()
	return nil
}
func (f *fakeStore) LoadPromises() (Promises, error) { return f.promises.Clone(), nil }
func (f *fakeStore) SavePromises(p Promises) error {
	f.promises = p.Clone()
	return nil
}
func (f *fakeStore) LoadMarker() (clock.DayKey, error) { return f.marker, nil }
func (f *fakeStore) SaveMarker(k clock.DayKey) error {
	f.marker = k
	return nil
}

var thursday = time.Date(2026, time.October, 15, 10, 0, 0, 0, time.Local)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 2, p.MaxLossesPerDay)
	assert.Equal(t, DefaultPledge, p.Pledge)
	assert.NoError(t, p.Validate())
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
		errMsg string
	}{
		{"zero losses", func(p *Policy) { p.MaxLossesPerDay = 0 }, "max losses per day"},
		{"blank pledge", func(p *Policy) { p.Pledge = "  " }, "pledge text is required"},
		{"padded pledge", func(p *Policy) { p.Pledge = " x " }, "whitespace"},
		{"no sweep", func(p *Policy) { p.SweepInterval = 0 }, "sweep interval"},
		{"negative delay", func(p *Policy) { p.LockAlertDelay = -time.Second }, "lock alert delay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestViolationIs(t *testing.T) {
	t.Parallel()

	wrapped := errors.Join(errors.New("context"), ErrLocked)
	assert.ErrorIs(t, wrapped, ErrLocked)
	assert.NotErrorIs(t, wrapped, ErrNotToday)

	var v *Violation
	require.ErrorAs(t, wrapped, &v)
	assert.Equal(t, "DAY_LOCKED", v.Code)
	assert.Equal(t, Error, v.Level)
}

func TestCheckEdit(t *testing.T) {
	t.Parallel()

	today := clock.Bucket{Week: 2, Day: 3}
	tests := []struct {
		name string
		s    EditState
		want error
	}{
		{"ok", EditState{Target: today, Today: today}, nil},
		{"other day", EditState{Target: clock.Bucket{Week: 2, Day: 2}, Today: today}, ErrNotToday},
		{"other day while locked", EditState{Target: clock.Bucket{Week: 0, Day: 3}, Today: today, Locked: true}, ErrNotToday},
		{"locked", EditState{Target: today, Today: today, Locked: true, PledgePending: true}, ErrLocked},
		{"pledge", EditState{Target: today, Today: today, PledgePending: true}, ErrPledgeRequired},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CheckEdit(tt.s)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLockEngine(t *testing.T) {
	clk := clock.NewManual(thursday)
	fs := &fakeStore{locks: LockTable{}}
	e, err := NewLockEngine(fs, clk, zerolog.Nop())
	require.NoError(t, err)

	b := clock.Bucket{Week: 2, Day: 3}
	assert.False(t, e.IsLocked(b))

	rec, err := e.Lock(b)
	require.NoError(t, err)
	assert.Equal(t, clock.DayKey("2026-10-15"), rec.DateKey)
	assert.Equal(t, thursday.UnixMilli(), rec.Timestamp)
	assert.True(t, e.IsLocked(b))
	assert.False(t, e.IsLocked(clock.Bucket{Week: 2, Day: 4}))
	assert.Equal(t, clock.DayKey("2026-10-15"), fs.marker)
	assert.Contains(t, fs.locks, "2-3")

	t.Run("expires next day", func(t *testing.T) {
		clk.Advance(24 * time.Hour)
		assert.False(t, e.IsLocked(b))

		_, ok := e.Record(b)
		assert.True(t, ok, "stale record kept until swept")

		purged, err := e.Sweep()
		require.NoError(t, err)
		assert.Equal(t, []string{"2-3"}, purged)
		assert.Empty(t, fs.locks)

		_, ok = e.Record(b)
		assert.False(t, ok)
	})

	t.Run("sweep with nothing stale does not write", func(t *testing.T) {
		before := fs.saves
		purged, err := e.Sweep()
		require.NoError(t, err)
		assert.Nil(t, purged)
		assert.Equal(t, before, fs.saves)
	})
}

func TestLockEngineSaveFailureKeepsState(t *testing.T) {
	fs := &fakeStore{locks: LockTable{}, failSave: errors.New("disk full")}
	e, err := NewLockEngine(fs, clock.NewManual(thursday), zerolog.Nop())
	require.NoError(t, err)

	_, err = e.Lock(clock.Bucket{Week: 2, Day: 3})
	require.Error(t, err)
	assert.False(t, e.IsLocked(clock.Bucket{Week: 2, Day: 3}))
	assert.Equal(t, clock.DayKey(""), fs.marker)
}

func TestLockEngineClear(t *testing.T) {
	fs := &fakeStore{locks: LockTable{"0-0": {DateKey: "2026-10-15"}}}
	e, err := NewLockEngine(fs, clock.NewManual(thursday), zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, e.IsLocked(clock.Bucket{}))

	require.NoError(t, e.Clear())
	assert.False(t, e.IsLocked(clock.Bucket{}))
	assert.Empty(t, fs.locks)
}

func TestPledgeDue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		marker   clock.DayKey
		promised Promises
		want     bool
	}{
		{"no marker", "", nil, false},
		{"locked today", "2026-10-15", nil, false},
		{"locked yesterday", "2026-10-14", nil, true},
		{"already promised", "2026-10-14", Promises{"2026-10-15": true}, false},
		{"promised another day", "2026-10-14", Promises{"2026-10-14": true}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PledgeDue("2026-10-15", tt.marker, tt.promised))
		})
	}
}

func TestPromiseGate(t *testing.T) {
	fs := &fakeStore{promises: Promises{}, marker: "2026-10-14"}
	g := NewPromiseGate(fs, clock.NewManual(thursday), DefaultPledge)

	due, err := g.Required()
	require.NoError(t, err)
	assert.True(t, due)

	assert.ErrorIs(t, g.Submit("i promise"), ErrPledgeMismatch)
	assert.Equal(t, clock.DayKey("2026-10-14"), fs.marker, "mismatch changes nothing")
	assert.Empty(t, fs.promises)

	require.NoError(t, g.Submit("  "+DefaultPledge+"\n"))
	assert.True(t, fs.promises["2026-10-15"])
	assert.Equal(t, clock.DayKey(""), fs.marker)

	due, err = g.Required()
	require.NoError(t, err)
	assert.False(t, due)

	assert.ErrorIs(t, g.Submit(DefaultPledge), ErrPledgeNotRequired)
}

func TestDisclosureGate(t *testing.T) {
	var g DisclosureGate
	b := clock.Bucket{Week: 2, Day: 3}

	_, _, err := g.Validate("fomo", false)
	assert.ErrorIs(t, err, ErrNoPendingLoss)

	d := g.Open(b, 0, 0, "50")
	assert.False(t, d.SecondLoss)

	_, _, err = g.Validate("   ", false)
	assert.ErrorIs(t, err, ErrReasonRequired)
	_, ok := g.Pending()
	assert.True(t, ok, "draft stays open after a refused reason")

	got, reason, err := g.Validate("  chased  ", false)
	require.NoError(t, err)
	assert.Equal(t, "chased", reason)
	assert.Equal(t, 0, got.Row)

	g.Close()
	_, ok = g.Pending()
	assert.False(t, ok)

	t.Run("second loss needs confession", func(t *testing.T) {
		d := g.Open(b, 1, 1, "")
		assert.True(t, d.SecondLoss)

		_, _, err := g.Validate("revenge", false)
		assert.ErrorIs(t, err, ErrConfessionRequired)

		_, _, err = g.Validate("", true)
		assert.ErrorIs(t, err, ErrReasonRequired)

		_, reason, err := g.Validate("revenge", true)
		require.NoError(t, err)
		assert.Equal(t, "revenge", reason)
	})
}
