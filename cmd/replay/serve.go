package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"crisisReplay/internal/openai"
	"crisisReplay/internal/server"
	"crisisReplay/internal/telegram"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API and the Telegram webhook" }
func (*serveCmd) Usage() string {
	return `replay serve [-addr host:port]

  Serves the JSON API, HTML reports and charts. When TELEGRAM_BOT_TOKEN is set
  the bot webhook is registered at WEBHOOK_PUBLIC_URL and served at
  /telegram/webhook.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address (default :$PORT)")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var webhook http.HandlerFunc
	if a.cfg.TelegramToken != "" {
		opts := []telegram.HandlerOption{telegram.WithHistory(a.store)}
		if a.cfg.OpenAIKey != "" {
			opts = append(opts, telegram.WithOpenAI(openai.NewSummarizer(a.cfg.OpenAIKey), openai.NewRecommender(a.cfg.OpenAIKey)))
		}
		tg, err := telegram.NewBot(a.cfg.TelegramToken, a.cfg.WebhookPublicURL, a.svc, a.logger, opts...)
		if err != nil {
			a.logger.Error("telegram: init failed", zap.Error(err))
			return subcommands.ExitFailure
		}
		webhook = tg.WebhookHandler
	} else {
		a.logger.Info("telegram: no token, bot disabled")
	}

	mux := server.NewHTTPMux(server.NewAPI(a.svc, a.prices, a.store, a.logger), webhook)
	addr := c.addr
	if addr == "" {
		addr = ":" + a.cfg.Port
	}
	if err := server.ListenAndServe(ctx, addr, mux, a.logger); err != nil {
		a.logger.Error("server error", zap.Error(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
