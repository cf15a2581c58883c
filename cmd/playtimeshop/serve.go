package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fadedpez/playtimeshop/internal/api"
	"github.com/fadedpez/playtimeshop/internal/bot"
	"github.com/fadedpez/playtimeshop/internal/config"
	"github.com/fadedpez/playtimeshop/internal/discord"
	"github.com/fadedpez/playtimeshop/internal/logging"
	"github.com/fadedpez/playtimeshop/internal/metrics"
	"github.com/fadedpez/playtimeshop/pkg/catalog"
	"github.com/fadedpez/playtimeshop/pkg/scheduler"
	"github.com/fadedpez/playtimeshop/pkg/services/shop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the shop: HTTP API, checkpoint scheduler and Discord bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.LogLevel)

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open ledger store: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("[MAIN] Error closing ledger store: %v", err)
		}
	}()

	offers, seeded, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return err
	}
	if seeded {
		logger.Info("[MAIN] Wrote default catalog to %s", cfg.CatalogPath)
	}
	matcher, err := catalog.MatcherFor(cfg.MatchPolicy)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	service, err := shop.NewService(shop.Options{
		Repository:   repo,
		Catalog:      offers,
		Rate:         cfg.RewardRate(),
		Granter:      newGranter(cfg, logger),
		Matcher:      matcher,
		GrantTimeout: cfg.GrantTimeout,
		Logger:       logger,
		Metrics:      metrics.New(registry),
	})
	if err != nil {
		return err
	}
	logger.Info("[MAIN] %d offers, %s", offers.Len(), service.Rate())

	checkpoints := scheduler.NewCheckpointScheduler(service, cfg.CheckpointInterval, logger)
	checkpoints.Start(ctx)

	server := api.NewServer(service, logger)
	server.EnableMetrics(registry)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("[MAIN] HTTP API listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var chatBot *bot.Bot
	if cfg.DiscordEnabled() {
		session, err := discord.NewSession(cfg.Token)
		if err != nil {
			return fmt.Errorf("failed to create Discord session: %w", err)
		}
		chatBot = bot.New(session, service, cfg.CommandPrefix, logger)
		if err := chatBot.Start(); err != nil {
			return err
		}
	} else {
		logger.Info("[MAIN] DISCORD_TOKEN not set, chat commands disabled")
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("[MAIN] Shutting down...")
	case runErr = <-serveErr:
		logger.Error("[MAIN] HTTP server failed: %v", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("[MAIN] Error stopping HTTP server: %v", err)
	}
	if chatBot != nil {
		chatBot.Shutdown()
	}
	checkpoints.Stop()

	// Players still online keep the playtime earned up to now
	if err := service.DisconnectAll(shutdownCtx); err != nil {
		logger.Error("[MAIN] Failed to save points on shutdown: %v", err)
		if runErr == nil {
			runErr = err
		}
	}

	return runErr
}
