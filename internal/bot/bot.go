// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"star-referral-bot/internal/admin"
	"star-referral-bot/internal/config"
	"star-referral-bot/internal/handler"
)

// Bot wraps the telebot instance with application handlers.
type Bot struct {
	bot   *tele.Bot
	cfg   *config.Config
	user  *handler.UserHandler
	admin *handler.AdminHandler
}

// NewTelebot creates the telebot instance. It is separate from New because
// the membership gate and notifier need the instance before handlers exist.
func NewTelebot(cfg *config.Config) (*tele.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Bot.PollTimeout},
		OnError: func(err error, c tele.Context) {
			event := log.Error().Err(err)
			if c != nil && c.Sender() != nil {
				event = event.Int64("user_id", c.Sender().ID)
			}
			event.Msg("Handler error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return teleBot, nil
}

// New registers middleware and handlers on teleBot.
func New(teleBot *tele.Bot, cfg *config.Config, user *handler.UserHandler, adminHandler *handler.AdminHandler) *Bot {
	b := &Bot{
		bot:   teleBot,
		cfg:   cfg,
		user:  user,
		admin: adminHandler,
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(PrivateChatMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.user.HandleStart)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin", b.admin.HandleAdmin)
	for _, name := range admin.Names() {
		adminGroup.Handle("/"+name, b.admin.HandleCommand(name))
	}

	b.bot.Handle(tele.OnCallback, b.user.HandleCallback)
	b.bot.Handle(tele.OnText, b.user.HandleText)
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
