// Package handler provides Telegram bot command and callback handlers.
package handler

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"star-referral-bot/internal/notify"
)

// requestTimeout bounds the work done for one update.
const requestTimeout = 15 * time.Second

// MembershipChecker is the membership gate as seen by handlers.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64, channels []string) bool
	InviteLink(channel string) string
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// callbackData returns the callback payload without telebot's "\f" prefix.
func callbackData(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	return strings.TrimPrefix(cb.Data, "\f")
}

// sendTo delivers a message to another user, logging failures.
func sendTo(sender notify.Sender, userID int64, text string) {
	if _, err := sender.Send(&tele.User{ID: userID}, text); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to notify user")
	}
}

// editOrSend replaces the callback message, or sends a new one if editing fails.
func editOrSend(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if err := c.Edit(text, markup); err != nil {
		log.Debug().Err(err).Msg("Edit failed, sending a new message")
		return c.Send(text, markup)
	}
	return nil
}
