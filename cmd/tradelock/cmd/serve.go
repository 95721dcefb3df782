package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/tradelock/desk"
	"github.com/rustyeddy/tradelock/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API",
	Long: `Serve the journal over a JSON API bound to the configured host
(127.0.0.1 by default). Stale locks are swept in the background and
Prometheus metrics are exposed on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// logNotifier records every notice in the server log.
var logNotifier = desk.NotifierFunc(func(n desk.Notice) {
	ev := log.Info()
	if n.Kind == desk.KindLock {
		ev = log.Warn().Str("remaining", n.Remaining.String())
	}
	ev.Str("kind", string(n.Kind)).Str("level", string(n.Level)).Str("bucket", n.Bucket.Key()).Msg(n.Message)
})

func runServe(cmd *cobra.Command, args []string) error {
	feed := desk.NewFeed(100)
	a, err := openApp(desk.Multi{feed, logNotifier})
	if err != nil {
		return err
	}
	defer a.Close()

	sc := server.DefaultConfig()
	sc.Host = cfg.Server.Host
	sc.Port = cfg.Server.Port
	srv := server.New(sc, server.Deps{
		Desk:    a.desk,
		AI:      a.advisor,
		Feed:    feed,
		Metrics: a.metrics,
		Logger:  log.Logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.desk.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	return g.Wait()
}
