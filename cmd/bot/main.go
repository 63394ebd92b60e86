package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"ggsel_notification_bot/internal/app"
	"ggsel_notification_bot/internal/infra/captcha"
	"ggsel_notification_bot/internal/infra/config"
	idb "ggsel_notification_bot/internal/infra/database"
	"ggsel_notification_bot/internal/infra/ggsel"
	"ggsel_notification_bot/internal/infra/logger"
	"ggsel_notification_bot/internal/infra/scheduler"
	"ggsel_notification_bot/internal/infra/supercell"
	"ggsel_notification_bot/internal/infra/telegram"
	"ggsel_notification_bot/internal/infra/web"
)

func main() {
	fmt.Println("GGSel Notification Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	mainLogger := logger.Get().WithField("component", "main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"admin_id":    cfg.AdminTelegramID,
		"seller_id":   cfg.SellerID,
	}).Info("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.EnsureSchema(db); err != nil {
		mainLogger.WithError(err).Fatal("Could not ensure database schema")
	}
	mainLogger.Info("Database connection established")

	invoiceRepo := idb.NewPostgresInvoiceRepository(db)

	// Initialize GGSel client and its background token renewal
	ggselClient := ggsel.NewClient(ggsel.DefaultBaseURL, cfg.GGSelToken, cfg.SellerID,
		logger.Get().WithField("component", "ggsel"))
	if err := ggselClient.Login(ctx); err != nil {
		mainLogger.WithError(err).Fatal("Could not authenticate with GGSel")
	}
	ggselClient.StartTokenRenewal(ctx)
	mainLogger.Info("GGSel client authenticated, token renewal scheduled")

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Get().WithField("component", "telebot").WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	telegramClient := telegram.NewTelebotAdapter(bot)

	// Initialize ReconcilerService and run the one-shot backfill pass
	reconciler := app.NewReconcilerService(
		ggselClient,
		invoiceRepo,
		telegramClient,
		logger.Get().WithField("component", "reconciler"),
		cfg.AdminTelegramID,
		cfg.BackfillCount,
		cfg.PollCount,
	)
	if err := reconciler.Backfill(ctx); err != nil {
		mainLogger.WithError(err).Fatal("Backfill pass failed")
	}

	// Initialize the email-code delivery flow (optional)
	var deliveryService *app.DeliveryService
	if cfg.CaptchaToken != "" {
		solver := captcha.NewSolver(captcha.DefaultBaseURL, cfg.CaptchaToken, captcha.ProxyConfig{
			Type:     cfg.ProxyType,
			Address:  cfg.ProxyAddress,
			Port:     cfg.ProxyPort,
			Login:    cfg.ProxyLogin,
			Password: cfg.ProxyPassword,
		}, logger.Get().WithField("component", "captcha"))
		pinAuth := supercell.NewClient(supercell.DefaultBaseURL,
			logger.Get().WithField("component", "supercell"))
		deliveryService = app.NewDeliveryService(
			solver,
			pinAuth,
			ggselClient,
			telegramClient,
			logger.Get().WithField("component", "delivery"),
			cfg.AdminTelegramID,
		)
		mainLogger.Info("Email-code delivery flow enabled")
	} else {
		mainLogger.Warn("CAPTCHA_TOKEN not set, email-code delivery flow disabled")
	}

	// Register bot command handlers
	telegram.RegisterHandlers(ctx, bot, deliveryService, cfg.AdminTelegramID,
		logger.Get().WithField("component", "handlers"))

	// Start the reconcile scheduler
	reconcileScheduler := scheduler.NewReconcileScheduler(
		reconciler,
		logger.Get().WithField("component", "scheduler"),
		cfg.PollCronSpec,
	)
	if err := reconcileScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start reconcile scheduler")
	}

	// Start the purchase webhook server
	webServer := web.NewServer(
		cfg.HTTPListenAddr,
		ggselClient,
		telegramClient,
		logger.Get().WithField("component", "web"),
		cfg.AdminTelegramID,
		cfg.Environment,
	)
	go func() {
		if err := webServer.Start(); err != nil {
			mainLogger.WithError(err).Error("Webhook server stopped unexpectedly")
		}
	}()

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()
	mainLogger.Info("Application setup complete; bot, scheduler and webhook server running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	cancel() // Stops the token renewal task and in-flight cycles
	reconcileScheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), web.ShutdownTimeout)
	defer shutdownCancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Error("Webhook server shutdown failed")
	}
	bot.Stop()
	mainLogger.Info("Application shut down gracefully")
}
