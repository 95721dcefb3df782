// Package clock derives the journal's calendar coordinates from wall time.
//
// A journal day is addressed by a Bucket: a week-of-month index (0..3, days
// 22-31 all fall into week 3) and a Monday-first weekday index (0..6). A
// DayKey identifies the calendar date itself and is what locks and promises
// are stamped with.
package clock

import (
	"fmt"
	"sync"
	"time"
)

const (
	Weeks       = 4
	DaysPerWeek = 7
)

// DayKeyFormat is the layout of a DayKey.
const DayKeyFormat = "2006-01-02"

var (
	dayNames  = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	weekNames = [Weeks]string{"Week 1", "Week 2", "Week 3", "Week 4"}
)

// Clock is the source of "now" for everything that cares about same-day-ness.
type Clock interface {
	Now() time.Time
}

// System reads the local wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Manual is a settable clock for tests and simulations.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(t time.Time) *Manual { return &Manual{now: t} }

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// DayKey is a calendar date identity, stable for a whole local day.
type DayKey string

// KeyOf returns the DayKey of t in t's location.
func KeyOf(t time.Time) DayKey { return DayKey(t.Format(DayKeyFormat)) }

// Today returns the DayKey for c.Now().
func Today(c Clock) DayKey { return KeyOf(c.Now()) }

// Bucket addresses one journal day.
type Bucket struct {
	Week int `json:"week"`
	Day  int `json:"day"`
}

// Valid reports whether b is inside the 4x7 journal grid.
func (b Bucket) Valid() bool {
	return b.Week >= 0 && b.Week < Weeks && b.Day >= 0 && b.Day < DaysPerWeek
}

// Key is the "w-d" form used by the lock table.
func (b Bucket) Key() string { return fmt.Sprintf("%d-%d", b.Week, b.Day) }

func (b Bucket) DayName() string {
	if b.Day < 0 || b.Day >= DaysPerWeek {
		return "?"
	}
	return dayNames[b.Day]
}

func (b Bucket) WeekName() string {
	if b.Week < 0 || b.Week >= Weeks {
		return "?"
	}
	return weekNames[b.Week]
}

func (b Bucket) String() string { return b.DayName() + ", " + b.WeekName() }

// WeekdayIndex maps t's weekday to a Monday-first index; Sunday is 6.
func WeekdayIndex(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 6
	}
	return wd - 1
}

// WeekOfMonthIndex returns ceil(dayOfMonth/7)-1 capped at 3.
func WeekOfMonthIndex(t time.Time) int {
	w := (t.Day()+6)/7 - 1
	if w > Weeks-1 {
		w = Weeks - 1
	}
	return w
}

// BucketOf returns the journal bucket t falls into.
func BucketOf(t time.Time) Bucket {
	return Bucket{Week: WeekOfMonthIndex(t), Day: WeekdayIndex(t)}
}

// Current returns the bucket for c.Now().
func Current(c Clock) Bucket { return BucketOf(c.Now()) }

// Remaining is a whole hours + whole minutes duration.
type Remaining struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func (r Remaining) String() string { return fmt.Sprintf("%dh %dm", r.Hours, r.Minutes) }

// UntilMidnight returns the time left until the next local midnight after t.
func UntilMidnight(t time.Time) Remaining {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	diff := midnight.Sub(t)
	return Remaining{
		Hours:   int(diff / time.Hour),
		Minutes: int((diff % time.Hour) / time.Minute),
	}
}
