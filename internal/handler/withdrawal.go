package handler

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"star-referral-bot/internal/service"
)

// withdrawalRefusal turns a withdrawal error into the callback answer.
func withdrawalRefusal(err error, settings *service.SettingsService) *tele.CallbackResponse {
	switch {
	case errors.Is(err, service.ErrWithdrawalsClosed):
		return &tele.CallbackResponse{Text: "Withdrawals are currently closed!"}
	case errors.Is(err, service.ErrNoPostLink):
		return &tele.CallbackResponse{Text: "⚠️ Please set your post link first!", ShowAlert: true}
	case errors.Is(err, service.ErrInsufficientBalance):
		return &tele.CallbackResponse{Text: "⚠️ Not enough balance!", ShowAlert: true}
	case errors.Is(err, service.ErrBelowMinimum):
		return &tele.CallbackResponse{
			Text:      fmt.Sprintf("⚠️ Minimum withdrawal is %s⭐", settings.Snapshot().MinWithdrawal),
			ShowAlert: true,
		}
	case errors.Is(err, service.ErrAboveMaximum):
		return &tele.CallbackResponse{
			Text:      fmt.Sprintf("⚠️ Maximum withdrawal is %s⭐", settings.Snapshot().MaxWithdrawal),
			ShowAlert: true,
		}
	case errors.Is(err, service.ErrMenuExpired):
		return &tele.CallbackResponse{
			Text:      "⚠️ This withdrawal menu has expired. Open it again from the main menu.",
			ShowAlert: true,
		}
	default:
		log.Error().Err(err).Msg("Withdrawal failed")
		return &tele.CallbackResponse{Text: "❌ Something went wrong, please try again later."}
	}
}
