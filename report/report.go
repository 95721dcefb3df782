// Package report renders the journal as Markdown, and from there as HTML for
// the browser or styled text for the terminal.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/rustyeddy/tradelock/desk"
	"github.com/rustyeddy/tradelock/journal"
	"github.com/rustyeddy/tradelock/regret"
)

// Data is everything a report can show. Wall and Notes are optional.
type Data struct {
	Generated time.Time
	Today     desk.TodayView
	History   []desk.WeekSummary
	Stats     journal.Stats
	Wall      *regret.Wall
	Notes     journal.Notes
}

// Money formats d as dollars, keeping the sign.
func Money(d decimal.Decimal) string {
	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

// Markdown builds the full report.
func Markdown(d Data) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Trading Journal\n\n_Generated %s_\n\n", d.Generated.Format("Mon 2 Jan 2006 15:04"))

	t := d.Today
	fmt.Fprintf(&b, "## Today: %s, %s\n\n", t.DayName, t.WeekName)
	fmt.Fprintf(&b, "**Status:** %s  \n", t.Status)
	fmt.Fprintf(&b, "**Day total:** %s  \n", Money(t.Total))
	if t.Locked {
		fmt.Fprintf(&b, "**Unlocks in:** %s  \n", t.Remaining)
	}
	if t.PledgeRequired {
		fmt.Fprintf(&b, "**Pledge due:** _%s_  \n", t.Pledge)
	}
	b.WriteString("\n")

	if len(t.Trades) > 0 {
		b.WriteString("| # | Type | Amount | Reason |\n|---|---|---|---|\n")
		for i, e := range t.Trades {
			typ := string(e.Type)
			if typ == "" {
				typ = "-"
			}
			amount := "-"
			if e.HasAmount() {
				amount = Money(e.Signed())
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, typ, amount, escape(e.Reason))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No trades yet today.\n\n")
	}

	s := d.Stats
	b.WriteString("## Overall\n\n")
	fmt.Fprintf(&b, "- Net: **%s**\n", Money(s.Net))
	fmt.Fprintf(&b, "- Profit: %s over %d wins\n", Money(s.TotalProfit), s.Wins)
	fmt.Fprintf(&b, "- Loss: %s over %d losses\n", Money(s.TotalLoss.Neg()), s.Losses)
	fmt.Fprintf(&b, "- Win rate: %.1f%%\n\n", s.WinRate)

	if len(d.History) > 0 {
		b.WriteString("## History\n\n| Week | Mon | Tue | Wed | Thu | Fri | Sat | Sun | Total |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
		for _, w := range d.History {
			if !w.Active {
				continue
			}
			fmt.Fprintf(&b, "| %s |", w.WeekName)
			for _, day := range w.Days {
				cell := "·"
				if day.Trades > 0 {
					cell = Money(day.Total)
				}
				if day.Locked {
					cell += " 🔒"
				}
				fmt.Fprintf(&b, " %s |", cell)
			}
			fmt.Fprintf(&b, " **%s** |\n", Money(w.Total))
		}
		b.WriteString("\n")
	}

	if d.Wall != nil {
		writeWall(&b, *d.Wall)
	}

	if len(d.Notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range d.Notes {
			fmt.Fprintf(&b, "- %s _(%s)_\n", n.Text, n.Date)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeWall(b *strings.Builder, w regret.Wall) {
	b.WriteString("## Wall of Regret\n\n")
	if w.TotalLosses == 0 {
		b.WriteString("No losses with reasons yet.\n\n")
		return
	}
	fmt.Fprintf(b, "%d losses, %s in total (%s grouping).\n\n", w.TotalLosses, Money(w.TotalAmount.Neg()), w.Mode)
	if w.Error != nil {
		fmt.Fprintf(b, "> **Analysis failed:** %s\n\n", w.Error.Message)
	}
	for i, c := range w.Categories {
		fmt.Fprintf(b, "%d. **%s** x%d, %s\n", i+1, c.Category, c.Count, Money(c.TotalAmount.Neg()))
		for _, ex := range c.Examples {
			fmt.Fprintf(b, "   - \"%s\"\n", ex)
		}
	}
	b.WriteString("\n")
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

const page = `<!doctype html>
<html><head><meta charset="utf-8"><title>Trading Journal</title>
<style>body{font-family:sans-serif;max-width:60rem;margin:2rem auto}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.25rem .5rem}</style>
</head><body>
%s</body></html>
`

// HTML renders src as a standalone page.
func HTML(src string) ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return []byte(fmt.Sprintf(page, buf.String())), nil
}

// Terminal renders src for a terminal width columns wide.
func Terminal(src string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("terminal renderer: %w", err)
	}
	out, err := r.Render(src)
	if err != nil {
		return "", fmt.Errorf("render terminal: %w", err)
	}
	return out, nil
}
