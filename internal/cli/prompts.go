package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/rustyeddy/tradelock/risk"
)

// PromptLossReason asks why the trade lost and, on a second loss, for the
// confession.
func PromptLossReason(d risk.LossDraft) (string, bool, error) {
	var reason string
	prompt := &survey.Multiline{
		Message: "Why did this trade lose?",
		Help:    "Be honest. The reason is shown on the wall of regret.",
	}
	err := survey.AskOne(prompt, &reason, survey.WithValidator(func(val interface{}) error {
		if strings.TrimSpace(val.(string)) == "" {
			return fmt.Errorf("a reason is required")
		}
		return nil
	}))
	if err != nil {
		return "", false, err
	}

	if !d.SecondLoss {
		return reason, false, nil
	}

	var confessed bool
	confirm := &survey.Confirm{
		Message: "This is your second loss today. Confess that you broke your own rules?",
		Default: false,
	}
	if err := survey.AskOne(confirm, &confessed); err != nil {
		return "", false, err
	}
	return reason, confessed, nil
}

// PromptPledge asks the user to type the pledge.
func PromptPledge(pledge string) (string, error) {
	var text string
	prompt := &survey.Input{
		Message: "Type: " + pledge,
		Help:    "The text must match exactly.",
	}
	err := survey.AskOne(prompt, &text)
	return text, err
}

// ConfirmReset asks before wiping the journal.
func ConfirmReset() (bool, error) {
	var confirmed bool
	prompt := &survey.Confirm{
		Message: "Delete all trades, locks and notes? This cannot be undone.",
		Default: false,
	}
	err := survey.AskOne(prompt, &confirmed)
	return confirmed, err
}

// PromptAPIKey asks for the AI key without echoing it.
func PromptAPIKey() (string, error) {
	var key string
	prompt := &survey.Password{
		Message: "OpenRouter API key (empty to disable AI):",
	}
	err := survey.AskOne(prompt, &key)
	return strings.TrimSpace(key), err
}
