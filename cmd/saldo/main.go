package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/amqp"
	"saldo/internal/backend"
	"saldo/internal/cache"
	"saldo/internal/cli"
	"saldo/internal/config"
	"saldo/internal/core"
	"saldo/internal/events"
	"saldo/internal/events/kafka"
	apphttp "saldo/internal/http"
	"saldo/internal/ledger"
	"saldo/internal/ledger/cached"
	applog "saldo/internal/log"
	"saldo/internal/services"
	"saldo/internal/worker"
)

const readyTimeout = 2 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, applog.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	var (
		source      ledger.TransactionSource = store.Source
		ledgerCache *cached.Source
	)
	if cfg.CacheSize > 0 {
		var lru *cache.LRUCache[[]core.Transaction]
		ledgerCache, lru = cached.NewLRU(store.Source, cfg.CacheSize, cfg.CacheTTL)
		source = ledgerCache

		manager := cache.NewManager()
		manager.Register(lru)
		manager.StartCleanup(ctx, cfg.CacheTTL)
		defer manager.Stop()
		logger.Info("Ledger cache enabled", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("Failed to close Kafka publisher", "error", err)
			}
		}()
		publisher = kp
		logger.Info("Publishing inconsistency reports", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	formatter, err := cfg.Formatter()
	if err != nil {
		return err
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Dashboards:        services.NewDashboardService(source, publisher, cfg.KafkaTopic),
		Formatter:         formatter,
		DefaultAccount:    cfg.DefaultAccount,
		ListingLimit:      cfg.ListingLimit,
		LoginURL:          cfg.AuthLoginURL,
		RegisterURL:       cfg.AuthRegisterURL,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Ready: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, readyTimeout)
			defer cancel()
			today := core.DateOf(time.Now())
			_, err := store.Source.FetchTransactions(ctx, cfg.DefaultAccount, core.NewRange(today, today))
			return err
		},
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	switch {
	case cfg.AMQPURL == "":
	case ledgerCache == nil:
		logger.Info("AMQP configured but ledger cache disabled, skipping invalidation worker")
	default:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The dashboard still works; entries expire by TTL.
			logger.Warn("AMQP unavailable, cache will rely on TTL expiry", "error", err)
			break
		}
		defer client.Close()
		w := worker.NewInvalidationWorker(ledgerCache, ledgerCache)
		g.Go(func() error { return w.Run(gctx, client) })
	}

	logger.Info("Starting saldo server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"locale", formatter.Locale.String(),
		"currency", formatter.Currency.String())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
