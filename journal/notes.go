package journal

import (
	"errors"
	"strings"
	"time"

	"github.com/rustyeddy/tradelock/pkg/id"
)

// NoteDateFormat is how a note's date is displayed, e.g. "15 Oct 2026".
const NoteDateFormat = "2 Jan 2006"

var ErrEmptyNote = errors.New("note text is empty")

// Note is a free-form lesson learned.
type Note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Date string `json:"date"`
}

// Notes are kept newest first.
type Notes []Note

// NewNote builds a note stamped at t from trimmed text.
func NewNote(text string, t time.Time) (Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Note{}, ErrEmptyNote
	}
	return Note{ID: id.NewAt(t), Text: text, Date: t.Format(NoteDateFormat)}, nil
}

// Prepend returns a new list with n in front.
func (ns Notes) Prepend(n Note) Notes {
	out := make(Notes, 0, len(ns)+1)
	out = append(out, n)
	return append(out, ns...)
}

// Without returns a new list minus the note with the given id, and whether
// one was removed.
func (ns Notes) Without(noteID string) (Notes, bool) {
	out := make(Notes, 0, len(ns))
	found := false
	for _, n := range ns {
		if n.ID == noteID {
			found = true
			continue
		}
		out = append(out, n)
	}
	return out, found
}
