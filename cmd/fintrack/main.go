package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/poller"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	loc, _ := cfg.Location()
	order, _ := core.ParseFeedOrder(cfg.FeedOrder)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	summaries := cache.NewLRUCache[core.Summary](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(summaries)
	caches.StartCleanup(cfg.CacheTTL)
	defer caches.Stop()

	dash := dashboard.NewService(dashboard.NewStore(), summaries, dashboard.Options{
		Location: loc,
		Feed:     core.FeedOptions{Limit: cfg.RecentLimit, Order: order},
	}, logger)

	var publisher amqp.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Events are optional; the dashboard works without them.
			logger.Warn("AMQP unavailable, summary events disabled", log.FieldError, err)
		} else {
			publisher = client
			defer client.Close()
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	p := poller.New(be.Source, dash, poller.Config{
		Interval:     cfg.RefreshInterval,
		FetchTimeout: cfg.APITimeout,
		OnUpdate:     onUpdate(dash, publisher, logger),
	}, logger)
	if err := p.Start(ctx); err != nil {
		logger.Error("Failed to start poller", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Dashboard:     dash,
		Writer:        be.Writer,
		Notifications: be.Notifications,
		Refresh: func(ctx context.Context) {
			if _, err := p.Refresh(ctx); err != nil {
				logger.Warn("Refresh after write failed", log.FieldError, err)
			}
		},
		Logger:            logger,
		RequestsPerMinute: cfg.RateLimitPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := p.Stop(shutdownCtx); err != nil {
			logger.Error("Poller stop error", log.FieldError, err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := p.Wait(shutdownCtx); err != nil {
			logger.Warn("Refreshes still running at shutdown", log.FieldError, err)
		}
	}()

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"capabilities", be.Capabilities(),
		"refresh_interval", cfg.RefreshInterval.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		cancel()
		<-done
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}

// onUpdate logs the headline numbers of each accepted refresh and publishes
// them when a broker is configured.
func onUpdate(dash *dashboard.Service, publisher amqp.Publisher, logger *log.Logger) func(context.Context, poller.Update) {
	logger = logger.WithComponent(log.ComponentPoller)
	return func(ctx context.Context, u poller.Update) {
		res, err := dash.Summary(ctx)
		if err != nil {
			logger.WarnContext(ctx, "Summary unavailable after refresh", log.FieldError, err)
			return
		}
		t := res.Summary.Totals
		fields := log.NewFields().
			WithOperation(log.OpRefresh).
			WithRefresh(u.RefreshID, u.Snapshot.Generation).
			WithTotals(res.Summary.Count, t.Income.String(), t.Expense.String(), t.Balance.String())
		logger.InfoContext(ctx, "Dashboard refreshed", fields.ToSlice()...)

		if publisher == nil {
			return
		}
		msg := amqp.NewSummaryUpdatedMessage(u.Snapshot.Generation, res.Summary.Count, t)
		if err := publisher.PublishSummaryUpdated(ctx, msg); err != nil {
			logger.WarnContext(ctx, "Failed to publish summary update",
				log.FieldOperation, log.OpPublish,
				log.FieldGeneration, u.Snapshot.Generation,
				log.FieldError, err)
		}
	}
}
