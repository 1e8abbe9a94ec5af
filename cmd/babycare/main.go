package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/babycare/internal/bot"
	"github.com/dukerupert/babycare/internal/care"
	"github.com/dukerupert/babycare/internal/clock"
	"github.com/dukerupert/babycare/internal/config"
	"github.com/dukerupert/babycare/internal/conversation"
	"github.com/dukerupert/babycare/internal/database"
	"github.com/dukerupert/babycare/internal/invite"
	"github.com/dukerupert/babycare/internal/logging"
	"github.com/dukerupert/babycare/internal/notify"
	"github.com/dukerupert/babycare/internal/server"
	"github.com/dukerupert/babycare/internal/store"
	"github.com/dukerupert/babycare/internal/telegram"
	ws "github.com/dukerupert/babycare/internal/websocket"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("babycare: %v", err)
	}
}

func run(cfg config.Config) error {
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	clk, err := clock.Load(cfg.Timezone)
	if err != nil {
		return err
	}

	familyStore := store.NewFamilyStore(db)
	settingsStore := store.NewSettingsStore(db)
	babyStore := store.NewBabyStore(db)
	eventStore := store.NewEventStore(db)

	hub := ws.NewHub(logging.Component(logger, "websocket"))
	svc := care.NewService(familyStore, settingsStore, babyStore, eventStore, clk, hub)

	client := telegram.NewClient(cfg.TelegramAPIURL, cfg.BotToken, logging.Component(logger, "telegram"),
		telegram.WithPollTimeout(cfg.PollTimeout))

	dispatcher := notify.NewDispatcher(familyStore, client, cfg.SendTimeout, cfg.DispatchConcurrency,
		logging.Component(logger, "dispatcher"))
	scheduler := notify.NewScheduler(familyStore, settingsStore, eventStore, dispatcher, clk, notify.Cadences{
		FeedEvery:   cfg.FeedCheckInterval,
		DiaperEvery: cfg.DiaperCheckInterval,
		BathEvery:   cfg.BathCheckInterval,
		TipsAt:      cfg.TipsTime(),
	}, logging.Component(logger, "scheduler"))

	tracker := conversation.NewTracker()
	tokens := invite.NewSigner(cfg.TokenSecret, nil)
	b := bot.New(svc, tracker, tokens, client, bot.Config{
		AllowedUsers: cfg.AllowedUsers,
		PublicURL:    cfg.PublicURL,
		InviteTTL:    cfg.InviteTTL,
		DashboardTTL: cfg.DashboardTTL,
	}, logging.Component(logger, "bot"))

	srv := server.New(svc, hub, tokens, logger)
	httpServer := srv.HTTPServer(cfg.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("bot polling", "api", cfg.TelegramAPIURL)
		if err := client.Poll(gctx, b.HandleUpdate); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("poll: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("dashboard listening", "addr", httpServer.Addr, "public_url", cfg.PublicURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		srv.RateLimiter().RunCleanup(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", "error", err)
		}
		tracker.Reset()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
