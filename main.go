package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-sync/internal/config"
	"telegram-sync/internal/database"
	"telegram-sync/internal/media"
	"telegram-sync/internal/scheduler"
	"telegram-sync/internal/server"
	syncer "telegram-sync/internal/sync"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Sentry (if DSN is provided)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.AppEnv,
		Release:     cfg.Version,
		Debug:       cfg.Debug,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	// Creating context for application lifecycle
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to Postgres
	db, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error disconnecting from Postgres: %v", err)
			sentry.CaptureException(err)
		} else {
			log.Println("Disconnected from Postgres.")
		}
	}()

	// Create the telego bot instance used for update fetching and file resolution
	var bot *telego.Bot
	if cfg.Debug {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultDebugLogger())
	} else {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create telego bot: %v", err)
	}

	// --- Sync engine wiring ---
	mirror := media.NewSFTPMirror(cfg)
	resolver := media.NewResolver(bot, cfg.BotToken, mirror)

	filter := syncer.NewFilter(syncer.Policy{
		ChatID:                   cfg.ChatID,
		AllowForwards:            cfg.AllowForwardedPosts,
		AllowedForwardChannelIDs: cfg.AllowedForwardChannelIDs,
	})
	log.Printf("Forwarded posts: %v (allowed sources: %d)",
		cfg.AllowForwardedPosts, len(cfg.AllowedForwardChannelIDs))

	upserter := syncer.NewUpserter(resolver, syncer.ChannelContext{
		ChatID:      cfg.ChatID,
		Name:        cfg.ChannelName,
		Avatar:      cfg.ChannelAvatar,
		Designation: cfg.AuthorDesignation,
		SkipHashtag: cfg.SkipHashtag,
	})

	orchestrator := syncer.NewOrchestrator(db, bot, filter, upserter, cfg.SyncBatchLimit, cfg.SyncInterval)

	// Periodic trigger: logs only, the run summary is not surfaced
	sched := scheduler.New()
	if err := sched.AddSyncJob(cfg.SyncInterval, func(jobCtx context.Context) {
		if summary := orchestrator.Run(jobCtx); !summary.Success {
			log.Printf("Scheduled sync failed: %s", summary.Error)
		}
	}); err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}
	sched.Start()

	// Manual trigger surface
	srv := server.New(cfg.Port, cfg.SecretToken, orchestrator)
	go func() {
		log.Printf("Telegram Sync Service running on port %d", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Initial sync on startup
	go func() {
		log.Println("Running initial sync...")
		if summary := orchestrator.Run(ctx); !summary.Success {
			log.Printf("Initial sync failed: %s", summary.Error)
		}
	}()

	// Wait for context cancellation (e.g., SIGINT, SIGTERM)
	<-ctx.Done()

	log.Println("Shutting down...")
	<-sched.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete.")
}
