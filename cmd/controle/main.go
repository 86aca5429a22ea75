package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"controle/internal/amqp"
	"controle/internal/auth"
	"controle/internal/backend"
	"controle/internal/cache"
	"controle/internal/cli"
	"controle/internal/core"
	apphttp "controle/internal/http"
	"controle/internal/log"
	"controle/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()
	st := result.Backend

	// AMQP is optional; without it movements are not mirrored.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, movement sync disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	cacheManager := cache.NewManager(logger)
	summaries := cache.NewLRUCache[core.Summary](cfg.CacheSize, cfg.CacheTTL)
	cacheManager.Register(summaries)
	cacheManager.StartCleanup(ctx, time.Minute)
	defer cacheManager.Stop()

	provider := auth.NewProvider(st, cfg.JWTSecret, cfg.SessionTTL, auth.WithLogger(logger))
	movements := services.NewMovementService(st, publisher)
	dashboard := services.NewDashboardService(st, summaries)
	movements.OnChange(dashboard.Invalidate)
	unsubscribe := provider.Subscribe(dashboard.HandleSessionEvent)
	defer unsubscribe()

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		SecureCookies:      cfg.SecureCookies,
		NotificationDelay:  cfg.NotificationDelay,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Movements: movements,
		Dashboard: dashboard,
		Reports:   services.NewReportService(st),
		Auth:      provider,
		Ready:     st,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting controle server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
