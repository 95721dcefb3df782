package desk

import (
	"sync"
	"time"

	"github.com/rustyeddy/tradelock/clock"
	"github.com/rustyeddy/tradelock/risk"
)

type NoticeKind string

const (
	KindToast NoticeKind = "toast"
	KindLock  NoticeKind = "lock"
)

// Notice is a message for whoever is watching: a short toast, or the lock
// alert raised after a day locks.
type Notice struct {
	Kind      NoticeKind      `json:"kind"`
	Level     risk.Level      `json:"level"`
	Message   string          `json:"message"`
	Bucket    clock.Bucket    `json:"bucket"`
	Remaining clock.Remaining `json:"remaining"`
	AI        string          `json:"ai,omitempty"`
	At        time.Time       `json:"at"`
}

type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}

// Feed buffers the most recent notices until they are drained.
type Feed struct {
	mu    sync.Mutex
	max   int
	items []Notice
}

func NewFeed(max int) *Feed {
	if max <= 0 {
		max = 50
	}
	return &Feed{max: max}
}

func (f *Feed) Notify(n Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	if len(f.items) > f.max {
		f.items = f.items[len(f.items)-f.max:]
	}
}

// Drain returns buffered notices oldest first and empties the feed.
func (f *Feed) Drain() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.items
	f.items = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notice) {
	for _, x := range m {
		x.Notify(n)
	}
}
