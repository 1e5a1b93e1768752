package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ticketops/internal/app/bootstrap"
	"ticketops/internal/platform/config"

	"github.com/spf13/pflag"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Start the order notifier consumer, the outbox relay and the daily
//    ticket expiry schedule, or run a single expiry pass with --expiry-once.
func main() {
	var expiryOnce bool
	flagSet := pflag.NewFlagSet("ticketops-worker", pflag.ContinueOnError)
	flagSet.BoolVar(&expiryOnce, "expiry-once", false, "run one ticket expiry pass, print the summary and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("parse flags failed: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	if expiryOnce {
		summary, err := app.RunExpiryOnce(ctx)
		fmt.Printf("run=%s mode=%s scanned=%d expired=%d already_expired=%d not_due=%d skipped=%d failed=%d\n",
			summary.RunID, summary.Mode, summary.Scanned, summary.Expired, summary.AlreadyExpired,
			summary.NotDue, summary.Skipped, summary.Failed)
		if err != nil {
			log.Printf("ticket expiry pass failed: %v", err)
		}
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("ticketops worker stopped with error: %v", err)
	}
}
