// Package notify forwards withdrawal requests to the administrator and the
// payout channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"star-referral-bot/internal/model"
)

// Sender is the subset of *tele.Bot used to deliver messages.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type chatRef string

func (c chatRef) Recipient() string { return string(c) }

// TelegramNotifier sends withdrawal requests over Telegram.
type TelegramNotifier struct {
	sender        Sender
	adminID       int64
	payoutChannel string
	botUsername   string
}

// NewTelegramNotifier creates a notifier. An empty payoutChannel sends to the admin only.
func NewTelegramNotifier(sender Sender, adminID int64, payoutChannel, botUsername string) *TelegramNotifier {
	return &TelegramNotifier{
		sender:        sender,
		adminID:       adminID,
		payoutChannel: payoutChannel,
		botUsername:   botUsername,
	}
}

// FormatWithdrawal renders the request text shared by every destination.
func FormatWithdrawal(w *model.Withdrawal, botUsername string) string {
	username := "no username"
	if w.Username != "" {
		username = "@" + w.Username
	}

	var sb strings.Builder
	sb.WriteString("⭐ New Withdrawal Request (PENDING)\n\n")
	fmt.Fprintf(&sb, "👤 User: %d (%s)\n", w.UserID, username)
	fmt.Fprintf(&sb, "💰 Amount: %s⭐\n", w.Amount.String())
	fmt.Fprintf(&sb, "📝 Post Link: %s\n", w.PostLink)
	fmt.Fprintf(&sb, "🤖 Bot: @%s\n", botUsername)
	fmt.Fprintf(&sb, "🆔 Request: %s", w.ID)
	return sb.String()
}

// WithdrawalRequested delivers the request to the admin and the payout channel.
// Both destinations are attempted; their errors are joined.
func (n *TelegramNotifier) WithdrawalRequested(ctx context.Context, w *model.Withdrawal) error {
	text := FormatWithdrawal(w, n.botUsername)

	destinations := []tele.Recipient{&tele.User{ID: n.adminID}}
	if n.payoutChannel != "" {
		destinations = append(destinations, chatRef(n.payoutChannel))
	}

	var errs []error
	for _, to := range destinations {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := n.sender.Send(to, text, &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
			log.Error().Err(err).
				Str("destination", to.Recipient()).
				Str("withdrawal_id", w.ID.String()).
				Msg("Failed to deliver withdrawal request")
			errs = append(errs, fmt.Errorf("send to %s: %w", to.Recipient(), err))
		}
	}
	return errors.Join(errs...)
}
