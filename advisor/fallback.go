package advisor

import (
	"math/rand"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	winReactions = []string{
		"Profit $AMOUNT! 🔥 Nice. One green trade does not make you Warren Buffett though. Stay humble! 😎",
		"$AMOUNT in the bag! 💰 Keep going, but take profits before unrealized turns into realized loss 🤡",
		"Green $AMOUNT! 🌿 Good money. Don't get comfortable, the market can turn any time. Lock it in! 🔒",
		"+$AMOUNT! 🎯 Skill or luck? Either way, write down the setup so you can repeat it 📝",
		"Profit $AMOUNT! ✅ Well done. Overconfidence is a trader's enemy, stay disciplined on the next one 💪",
		"$AMOUNT up! 🚀 Treat yourself, just don't go all-in straight away. Slow and steady 🐢",
	}

	lossReactions = []string{
		"Loss $AMOUNT... 😬 Call it tuition. Just don't pay for the same lesson twice! 💪",
		"-$AMOUNT 🥲 Even the best traders lose. What separates pros from amateurs is how they handle it. Get back up! 🔥",
		"Down $AMOUNT... 😔 Losses are part of the game. Review what went wrong, write it down, move on ⚔️",
		"Loss $AMOUNT 📉 Ouch. At least you logged it honestly, that's step one of discipline 🎯",
		"-$AMOUNT fed to the market 😅 Fine. Keep your head up and take it back another day 💎",
		"$AMOUNT gone... 🫠 Trading is a marathon, not a sprint. One loss doesn't define you 🏃",
	}

	summaryWin = []string{
		"Green day! 🌿 Total $AMOUNT. Good job, but stay disciplined tomorrow. Rest well 😴",
		"Profit $AMOUNT today! 🔥 Close the charts and enjoy it. Don't get greedy and keep adding 🛑",
		"Today was a good day, +$AMOUNT 💰 Consistency is key. Don't change the plan over one good day 🎯",
	}

	summaryLoss = []string{
		"Red day, $AMOUNT down... 😔 Every trader has bad days. Review, learn and come back tomorrow 💪",
		"Down $AMOUNT today 📉 Not the end of the world. Evaluate, rest, come back stronger 🔥",
		"Rough one, -$AMOUNT 🥲 No revenge trading, write the lesson down and rest. Tomorrow is a new day ☀️",
	}

	lockMessages = []string{
		"Loss limit hit for today! 🤡 The market isn't on your side today. Step away, review the mistakes, we go again tomorrow 💪🔥",
	}

	greetings = []string{
		"Hey! 👋 How's trading going today?",
		"Don't forget to stretch! 🧘 Sitting in front of charts all day is bad for you.",
		"Pro tip: after two hours of staring at charts, take fifteen minutes off. Your brain needs a reset 🧠",
		"Trading is a marathon, not a sprint. Slow and steady wins the race 🐢",
		"Have you eaten? Low blood sugar makes for bad trades 🍜",
		"Most traders don't lose because of strategy, they lose because of mindset. Keep your cool 😎",
		"If you're in a bad mood, skipping the session is a valid choice 🧘",
	}

	noTradeMessages = []string{
		"No trades yet today? 🤔 Better no trade than a bad trade!",
		"Empty journal so far. Waiting for a clean setup? Good patience 👏",
		"Not trading is also a decision. Sometimes staying out is the smartest move 🧠",
	}

	profitMessages = []string{
		"Green so far today! 🌿 Protect those profits, don't let them turn red.",
		"Already in profit! Thinking about another trade? Watch out for overtrading ⚠️",
		"Profit detected 💰 Greed is the enemy. Knowing when to stop is a skill.",
	}

	lossMessages = []string{
		"Red today... 😔 Review it and no revenge trading!",
		"Losing streak? Maybe step back and review the strategy. No shame in that 💪",
		"Red is part of the game. Just don't double down when luck is against you 🎰",
	}

	warningMessages = []string{
		"⚠️ Careful! One loss already today. One more and trading locks.",
		"One chance left before the lock. Think twice before the next trade 🧠",
		"One loss down, one to go before lockout. Only take A+ setups 🎯",
	}

	quotes = []string{
		`"The goal of a successful trader is to make the best trades. Money is secondary." - Alexander Elder 📚`,
		`"In trading, the impossible happens about twice a year." - Henri M Simoes 🎲`,
		`"Cut your losses and let your profits run." - Trading 101 ✂️📈`,
		`"The trend is your friend until the end." - Ed Seykota 📉📈`,
		`"Plan your trade and trade your plan." - Every Trading Book Ever 📝`,
		`"Risk comes from not knowing what you're doing." - Warren Buffett 🎯`,
	}
)

// Pick returns a uniformly chosen element of pool, or "" for an empty pool.
func Pick(pool []string, rng *rand.Rand) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rng.Intn(len(pool))]
}

// FormatAmount renders the absolute value of amount as US dollars.
func FormatAmount(amount decimal.Decimal) string {
	return money.NewFromFloat(amount.Abs().InexactFloat64(), money.USD).Display()
}

// fill substitutes the formatted amount for $AMOUNT (or a bare AMOUNT).
func fill(msg string, amount decimal.Decimal) string {
	d := FormatAmount(amount)
	return strings.NewReplacer("$AMOUNT", d, "AMOUNT", d).Replace(msg)
}
