package journal

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradelock/clock"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	l := ledgerWith(t, clock.Bucket{Week: 0, Day: 6},
		TradeEntry{ID: "A", Type: Profit, Amount: "12.5"},
		TradeEntry{ID: "B", Type: Loss, Amount: "4", Reason: "late, tired"},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, l))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{"0", "6", "Sunday", "0", "A", "profit", "12.5", ""}, rows[1])
	assert.Equal(t, []string{"0", "6", "Sunday", "1", "B", "loss", "4", "late, tired"}, rows[2])
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, ExportCSV(path, NewLedger()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "week,day,day_name,row,id,type,amount,reason\n", string(data))
}

func TestNotes(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 10, 15, 8, 0, 0, 0, time.Local)

	_, err := NewNote("   ", at)
	assert.ErrorIs(t, err, ErrEmptyNote)

	first, err := NewNote(" wait for confirmation ", at)
	require.NoError(t, err)
	assert.Equal(t, "wait for confirmation", first.Text)
	assert.Equal(t, "15 Oct 2026", first.Date)

	second, err := NewNote("always set SL", at.Add(time.Minute))
	require.NoError(t, err)

	var notes Notes
	notes = notes.Prepend(first).Prepend(second)
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID)

	left, ok := notes.Without(second.ID)
	assert.True(t, ok)
	assert.Len(t, left, 1)
	assert.Len(t, notes, 2)

	_, ok = notes.Without("missing")
	assert.False(t, ok)
}
