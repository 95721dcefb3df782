package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/tradelock/advisor"
	"github.com/rustyeddy/tradelock/clock"
	"github.com/rustyeddy/tradelock/desk"
	"github.com/rustyeddy/tradelock/internal/cli"
	"github.com/rustyeddy/tradelock/metrics"
	"github.com/rustyeddy/tradelock/regret"
	"github.com/rustyeddy/tradelock/store"
)

// app is everything a command needs, wired from cfg.
type app struct {
	repo    *store.Repository
	desk    *desk.Desk
	advisor *advisor.Advisor
	metrics *metrics.Metrics
}

// completer picks the AI backend named in the config.
func completer() advisor.Completer {
	switch cfg.AI.Provider {
	case "openrouter":
		return advisor.NewOpenRouter(advisor.OpenRouterOptions{
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
			Referer: cfg.AI.Referer,
			Title:   cfg.AI.Title,
			Timeout: cfg.AITimeout(),
		})
	case "gemini":
		return advisor.NewGemini(cfg.AI.Model)
	default:
		return nil
	}
}

// terminalNotifier prints lock alerts; commands report everything else
// themselves.
var terminalNotifier = desk.NotifierFunc(func(n desk.Notice) {
	if n.Kind == desk.KindLock {
		cli.PrintNotice(os.Stdout, n)
	}
})

func openApp(notifier desk.Notifier) (*app, error) {
	kv, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	repo := store.NewRepository(kv, log.Logger)

	policy, err := cfg.Policy()
	if err != nil {
		repo.Close()
		return nil, err
	}

	m := metrics.New()
	adv := advisor.New(advisor.Options{
		Completer:         completer(),
		APIKey:            cfg.APIKey(),
		Timeout:           cfg.AITimeout(),
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
		Logger:            log.Logger,
		Metrics:           m,
	})

	d, err := desk.New(desk.Options{
		Repo:     repo,
		Clock:    clock.System{},
		Policy:   policy,
		Notifier: notifier,
		Advisor:  adv,
		Regret:   regret.NewAnalyzer(adv, log.Logger),
		Metrics:  m,
		Logger:   log.Logger,
	})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("open desk: %w", err)
	}
	return &app{repo: repo, desk: d, advisor: adv, metrics: m}, nil
}

// Close waits for pending lock alerts, then closes the store.
func (a *app) Close() {
	a.desk.Close()
	if err := a.repo.Close(); err != nil {
		log.Warn().Err(err).Msg("close store")
	}
}

// withApp opens the app, runs fn and closes it again.
func withApp(fn func(*app) error) error {
	a, err := openApp(terminalNotifier)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
