package advisor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradelock/journal"
)

const classifyPrompt = `You help categorise the reasons behind losing trades.

Pick the trading-mistake category that best fits the reason below.
Answer ONLY with a short category name (2-4 words), no explanation.

Common categories:
- Lost Focus
- FOMO
- Revenge Trade
- Emotional/Angry
- Fell Asleep
- No Stop Loss
- Greed
- Against The Trend
- Entered Too Early
- Overtrading
- Distracted

Reason: %q

Category:`

func buildClassifyPrompt(reason string) string {
	return fmt.Sprintf(classifyPrompt, reason)
}

func buildReactionPrompt(kind journal.TradeType, amount decimal.Decimal, reason string) string {
	if kind == journal.Profit {
		return fmt.Sprintf(`You are a supportive but slightly sarcastic trading buddy. The user just made a profit of %s.
Give a short reaction (1-2 sentences) that:
- appreciates the win
- roasts them lightly
- warns against overconfidence

Casual tone. Use emoji.`, FormatAmount(amount))
	}

	because := ""
	if reason != "" {
		because = fmt.Sprintf(" because %q", reason)
	}
	return fmt.Sprintf(`You are a supportive but savage trading buddy. The user just lost %s%s.
Give a short reaction (1-2 sentences) that:
- roasts lightly without being mean
- carries a lesson
- ends supportive

Casual tone. Use emoji. Keep it short.`, FormatAmount(amount), because)
}

func buildSummaryPrompt(trades []journal.TradeEntry, net decimal.Decimal) string {
	wins, losses := 0, 0
	var reasons []string
	for _, t := range trades {
		switch t.Type {
		case journal.Profit:
			wins++
		case journal.Loss:
			losses++
			if r := strings.TrimSpace(t.Reason); r != "" {
				reasons = append(reasons, r)
			}
		}
	}

	sign, tone := "+", "Appreciate it but remind them to stay humble"
	if net.IsNegative() {
		sign, tone = "-", "Roast them but still encourage them"
	}

	var b strings.Builder
	b.WriteString("You are an honest, supportive trading buddy who can be savage when needed.\n\n")
	b.WriteString("Today's trading:\n")
	fmt.Fprintf(&b, "- Total trades: %d\n", len(trades))
	fmt.Fprintf(&b, "- Wins: %d, Losses: %d\n", wins, losses)
	fmt.Fprintf(&b, "- Net P/L: %s%s\n", sign, FormatAmount(net))
	if len(reasons) > 0 {
		fmt.Fprintf(&b, "- Loss reasons: %s\n", strings.Join(reasons, ", "))
	}
	b.WriteString("\nWrite a short summary (2-4 sentences) that:\n")
	b.WriteString("1. Evaluates today's performance\n")
	fmt.Fprintf(&b, "2. %s\n", tone)
	b.WriteString("3. Gives one actionable tip for tomorrow\n\n")
	b.WriteString("Casual tone. Use emoji. Not too formal.")
	return b.String()
}

func buildLockPrompt(reasons []string) string {
	return fmt.Sprintf(`The user just got locked out of trading for hitting the daily loss limit. Their loss reasons: "%s".

Write a message with:
1. A funny savage roast (1 sentence)
2. Some real wisdom (1 sentence)
3. Motivation for tomorrow (1 sentence)

Casual tone. Use emoji. At most 3 sentences.`, strings.Join(reasons, `", "`))
}
