// journal/csv.go
package journal

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/rustyeddy/tradelock/clock"
)

// CSVHeader is the column layout written by WriteCSV.
var CSVHeader = []string{"week", "day", "day_name", "row", "id", "type", "amount", "reason"}

// WriteCSV writes one row per trade entry in grid order. Indexes are
// zero-based, the same as bucket and row addresses.
func WriteCSV(w io.Writer, l Ledger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	for wk := 0; wk < clock.Weeks; wk++ {
		for d := 0; d < clock.DaysPerWeek; d++ {
			b := clock.Bucket{Week: wk, Day: d}
			for row, t := range l[wk][d] {
				err := cw.Write([]string{
					strconv.Itoa(wk),
					strconv.Itoa(d),
					b.DayName(),
					strconv.Itoa(row),
					t.ID,
					string(t.Type),
					t.Amount,
					t.Reason,
				})
				if err != nil {
					return err
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the ledger to path, replacing any existing file.
func ExportCSV(path string, l Ledger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, l); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
