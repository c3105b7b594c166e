// Package main is the entry point for the star referral bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"star-referral-bot/internal/admin"
	"star-referral-bot/internal/bot"
	"star-referral-bot/internal/config"
	"star-referral-bot/internal/handler"
	"star-referral-bot/internal/membership"
	"star-referral-bot/internal/notify"
	"star-referral-bot/internal/pkg/db"
	"star-referral-bot/internal/pkg/lock"
	"star-referral-bot/internal/repository"
	"star-referral-bot/internal/service"
	"star-referral-bot/internal/session"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("storage", cfg.Storage.Driver).
		Str("session", cfg.Session.Driver).
		Bool("enforce_limits", cfg.Withdrawal.EnforceLimits).
		Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	store := repository.NewMemoryStore()
	if cfg.Storage.Driver == config.DriverPostgres {
		dbPool, err := db.NewPool(ctx, &cfg.Storage.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbPool.Close()

		if err := db.Migrate(ctx, dbPool.Pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		store = repository.NewPostgresStore(dbPool.Pool)
	}

	// Initialize conversation state
	var sessions session.Store = session.NewMemoryStore()
	if cfg.Session.Driver == config.DriverRedis {
		client, err := session.NewRedisClient(ctx, &cfg.Session.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer closeRedis(client)
		sessions = session.NewRedisStore(client)
	}

	defaults, err := service.DefaultSettings(cfg.Defaults)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid default settings")
	}
	settingsService, err := service.NewSettingsService(ctx, store.Settings, defaults)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load settings")
	}

	// Telegram client first: the gate and notifier talk through it
	teleBot, err := bot.NewTelebot(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}
	botUsername := teleBot.Me.Username

	userLock := lock.NewUserLock()
	notifier := notify.NewTelegramNotifier(teleBot, cfg.Admin.ID, cfg.Withdrawal.PayoutChannel, botUsername)

	accountService := service.NewAccountService(store.Users, sessions, userLock, cfg.Session.TTL)
	referralService := service.NewReferralService(store.Users, settingsService, userLock)
	withdrawalService := service.NewWithdrawalService(
		store,
		settingsService,
		sessions,
		notifier,
		userLock,
		cfg.Withdrawal,
		cfg.Session.TTL,
	)

	userHandler := handler.NewUserHandler(handler.Dependencies{
		Accounts:         accountService,
		Referrals:        referralService,
		Withdrawals:      withdrawalService,
		Settings:         settingsService,
		Gate:             membership.NewGate(teleBot),
		Sender:           teleBot,
		BotUsername:      botUsername,
		PromotionContact: cfg.Promotion.Contact,
	})
	adminHandler := handler.NewAdminHandler(admin.NewConsole(accountService, settingsService, store.Users))

	telegramBot := bot.New(teleBot, cfg, userHandler, adminHandler)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close redis client")
		return
	}
	log.Info().Msg("Redis client closed")
}
