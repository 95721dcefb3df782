// Package cli holds the terminal presentation used by the tradelock
// commands: styles, prompts and report rendering.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/rustyeddy/tradelock/desk"
	"github.com/rustyeddy/tradelock/journal"
	"github.com/rustyeddy/tradelock/regret"
	"github.com/rustyeddy/tradelock/report"
	"github.com/rustyeddy/tradelock/risk"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	alertStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#EF4444")).
			Padding(1, 2).
			Width(64)

	aiStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6")).
		Italic(true)
)

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width is the terminal width of stdout, 80 when unknown.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func levelStyle(l risk.Level) lipgloss.Style {
	switch l {
	case risk.Success:
		return successStyle
	case risk.Warning:
		return warningStyle
	default:
		return errorStyle
	}
}

// PrintNotice writes a toast or the boxed lock alert.
func PrintNotice(w io.Writer, n desk.Notice) {
	if n.Kind == desk.KindLock {
		body := lockedStyle.Render("🔒 DAY LOCKED") + "\n\n" + n.Message
		if n.AI != "" {
			body += "\n\n" + aiStyle.Render(n.AI)
		}
		fmt.Fprintln(w, alertStyle.Render(body))
		return
	}
	fmt.Fprintln(w, levelStyle(n.Level).Render(n.Message))
}

// PrintError styles a rejected action; other errors are printed plainly.
func PrintError(w io.Writer, err error) {
	var v *risk.Violation
	if errors.As(err, &v) {
		fmt.Fprintln(w, levelStyle(v.Level).Render("✗ "+v.Msg))
		return
	}
	fmt.Fprintln(w, errorStyle.Render("error: "+err.Error()))
}

func PrintSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✓ "+msg))
}

func PrintAI(w io.Writer, msg string) {
	fmt.Fprintln(w, aiStyle.Render(msg))
}

func entryLine(i int, e journal.TradeEntry) string {
	typ := string(e.Type)
	if typ == "" {
		typ = "-"
	}
	amount := mutedStyle.Render("(no amount)")
	if e.HasAmount() {
		amount = report.Money(e.Signed())
	}
	line := fmt.Sprintf("  %d. %-7s %s", i, typ, amount)
	if e.Reason != "" {
		line += mutedStyle.Render("  “" + e.Reason + "”")
	}
	return line
}

// PrintToday writes the trading screen for the current day.
func PrintToday(w io.Writer, v desk.TodayView) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s, %s  (%s)", v.DayName, v.WeekName, v.Date)))

	status := activeStyle.Render(v.Status)
	if v.Locked {
		status = lockedStyle.Render("🔒 "+v.Status) + mutedStyle.Render("  unlocks in "+v.Remaining.String())
	}
	fmt.Fprintln(w, status)

	if v.PledgeRequired {
		fmt.Fprintln(w, warningStyle.Render("Yesterday was locked. Type the pledge to trade today:"))
		fmt.Fprintln(w, "  "+v.Pledge)
	}

	if len(v.Trades) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  no trades yet"))
	}
	for i, e := range v.Trades {
		fmt.Fprintln(w, entryLine(i, e))
	}
	fmt.Fprintf(w, "Day total: %s\n", report.Money(v.Total))

	if v.PendingLoss != nil {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("Loss on row %d is waiting for its reason.", v.PendingLoss.Row)))
	}
}

// PrintStats writes the overall statistics.
func PrintStats(w io.Writer, s journal.Stats) {
	net := successStyle
	if s.Net.IsNegative() {
		net = errorStyle
	}
	fmt.Fprintln(w, titleStyle.Render("Overall"))
	fmt.Fprintf(w, "  Net:      %s\n", net.Render(report.Money(s.Net)))
	fmt.Fprintf(w, "  Profit:   %s (%d wins)\n", report.Money(s.TotalProfit), s.Wins)
	fmt.Fprintf(w, "  Loss:     %s (%d losses)\n", report.Money(s.TotalLoss.Neg()), s.Losses)
	fmt.Fprintf(w, "  Win rate: %.1f%%\n", s.WinRate)
}

// PrintHistory writes one line per day for every week with trades.
func PrintHistory(w io.Writer, weeks []desk.WeekSummary) {
	shown := false
	for _, wk := range weeks {
		if !wk.Active {
			continue
		}
		shown = true
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s  %s", wk.WeekName, report.Money(wk.Total))))
		for _, d := range wk.Days {
			if d.Trades == 0 && !d.Today {
				continue
			}
			marks := ""
			if d.Locked {
				marks += " 🔒"
			}
			if d.Today {
				marks += " ← today"
			}
			fmt.Fprintf(w, "  %-9s %2d trades  %d losses  %s%s\n", d.DayName, d.Trades, d.Losses, report.Money(d.Total), marks)
		}
	}
	if !shown {
		fmt.Fprintln(w, mutedStyle.Render("No trades recorded yet."))
	}
}

// PrintWall writes the wall of regret.
func PrintWall(w io.Writer, wall regret.Wall) {
	fmt.Fprintln(w, titleStyle.Render("Wall of Regret"))
	if wall.Error != nil {
		msg := wall.Error.Message
		if wall.Error.Retryable {
			msg += " (try again later)"
		}
		fmt.Fprintln(w, errorStyle.Render(msg))
	}
	if wall.TotalLosses == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No losses with reasons yet."))
		return
	}
	fmt.Fprintf(w, "%d losses, %s (%s grouping)\n\n", wall.TotalLosses, report.Money(wall.TotalAmount.Neg()), wall.Mode)
	for i, c := range wall.Categories {
		fmt.Fprintf(w, "%d. %s  x%d  %s\n", i+1, lockedStyle.Render(c.Category), c.Count, report.Money(c.TotalAmount.Neg()))
		for _, ex := range c.Examples {
			fmt.Fprintln(w, mutedStyle.Render("     “"+ex+"”"))
		}
	}
}

// PrintNotes writes notes newest first.
func PrintNotes(w io.Writer, notes journal.Notes) {
	if len(notes) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No notes."))
		return
	}
	for _, n := range notes {
		fmt.Fprintf(w, "%s  %s\n", mutedStyle.Render(n.Date+"  "+n.ID), n.Text)
	}
}

// Render shows markdown styled on a terminal and raw otherwise.
func Render(w io.Writer, md string, tty bool) error {
	if !tty {
		_, err := io.WriteString(w, md)
		return err
	}
	out, err := report.Terminal(md, Width())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, strings.TrimLeft(out, "\n"))
	return err
}
