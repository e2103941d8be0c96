package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"med_reminder_bot/internal/app"
	"med_reminder_bot/internal/infra/config"
	"med_reminder_bot/internal/infra/logger"
	"med_reminder_bot/internal/infra/scheduler"
	"med_reminder_bot/internal/infra/storage"
	infraTelegram "med_reminder_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Get().WithField("component", "main")
	mainLogger.Infof("Configuration loaded. Timezone: %s, Reminder times: %v, Admin ID: %d",
		cfg.TimezoneName, cfg.SlotLabels(), cfg.AdminTelegramID)

	// Initialize file-backed stores
	confirmationStore, err := storage.NewConfirmationStore(cfg.DataFile)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not open confirmation store: %v", err)
	}
	subscriberStore, err := storage.NewSubscriberStore(cfg.SubscribersFile)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not open subscriber store: %v", err)
	}
	mainLogger.Info("Stores initialized.")

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := logger.Get().WithField("component", "telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID).WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}
	telegramClient := infraTelegram.NewTelebotAdapter(bot)

	// Initialize core services
	tracker := app.NewMessageTracker()
	timers := scheduler.NewEscalationTimers()
	reminderService := app.NewReminderServiceImpl(
		subscriberStore,
		confirmationStore,
		telegramClient,
		tracker,
		timers,
		logger.Get().WithField("component", "reminder_service"),
		cfg.Location,
		cfg.NagDelay,
		cfg.NagLimit,
		len(cfg.ReminderTimes),
	)
	adminService := app.NewAdminService(
		subscriberStore,
		telegramClient,
		logger.Get().WithField("component", "admin_service"),
		cfg.AdminTelegramID,
	)
	mainLogger.Info("Services initialized.")

	// Initialize the daily dispatch scheduler
	reminderScheduler := scheduler.NewReminderScheduler(
		reminderService,
		logger.Get().WithField("component", "scheduler"),
		cfg.Location,
		cfg.ReminderTimes,
	)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.Fatalf("FATAL: Could not start reminder scheduler: %v", err)
	}

	// Register Handlers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handlerLogger := logger.Get().WithField("component", "telegram")
	infraTelegram.RegisterBotCommands(ctx, bot, cfg, subscriberStore, confirmationStore, reminderService, handlerLogger)
	infraTelegram.RegisterResponseHandlers(ctx, bot, reminderService, handlerLogger)
	infraTelegram.RegisterAdminHandlers(ctx, bot, adminService, reminderService, cfg, handlerLogger)
	mainLogger.Info("Handlers registered.")

	mainLogger.Info("Application setup complete. Bot and scheduler are starting...")
	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	reminderScheduler.Stop()
	timers.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
