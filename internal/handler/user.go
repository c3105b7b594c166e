package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"

	"star-referral-bot/internal/menu"
	"star-referral-bot/internal/model"
	"star-referral-bot/internal/notify"
	"star-referral-bot/internal/service"
)

// profileHistoryLimit caps the withdrawals listed on the profile screen.
const profileHistoryLimit = 3

// Dependencies holds the services the user-facing handlers need.
type Dependencies struct {
	Accounts         *service.AccountService
	Referrals        *service.ReferralService
	Withdrawals      *service.WithdrawalService
	Settings         *service.SettingsService
	Gate             MembershipChecker
	Sender           notify.Sender
	BotUsername      string
	PromotionContact string
}

// UserHandler handles /start, menu callbacks and free text.
type UserHandler struct {
	deps Dependencies
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(deps Dependencies) *UserHandler {
	return &UserHandler{deps: deps}
}

// HandleStart handles the /start command, optionally with a REF<id> payload.
// A referral is recorded only on the user's first contact.
func (h *UserHandler) HandleStart(c tele.Context) error {
	ctx, cancel := requestContext()
	defer cancel()

	sender := c.Sender()
	if sender == nil {
		return nil
	}

	_, created, err := h.deps.Accounts.EnsureUser(ctx, sender.ID, sender.Username)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to ensure user")
		return c.Send("❌ Something went wrong, please try again later.")
	}

	if args := c.Args(); created && len(args) > 0 {
		if referrerID, ok := model.ParseReferralCode(args[0]); ok {
			if err := h.registerReferral(ctx, c, sender, referrerID); err != nil {
				return err
			}
		}
	}

	st := h.deps.Settings.Snapshot()
	joins := make([]menu.Join, 0, len(st.RequiredChannels))
	for _, ch := range st.RequiredChannels {
		joins = append(joins, menu.Join{Channel: ch, URL: h.deps.Gate.InviteLink(ch)})
	}
	return c.Send(menu.WelcomeText, menu.BuildJoinKeyboard(joins))
}

func (h *UserHandler) registerReferral(ctx context.Context, c tele.Context, sender *tele.User, referrerID int64) error {
	referrer, err := h.deps.Referrals.Register(ctx, sender.ID, referrerID)
	switch {
	case errors.Is(err, service.ErrSelfReferral),
		errors.Is(err, service.ErrUnknownReferrer),
		errors.Is(err, service.ErrAlreadyReferred):
		log.Debug().Err(err).Int64("user_id", sender.ID).Int64("referrer_id", referrerID).Msg("Referral ignored")
		return nil
	case err != nil:
		log.Error().Err(err).Int64("user_id", sender.ID).Int64("referrer_id", referrerID).Msg("Referral error")
		return c.Send("❌ There was an error processing the referral. Please try again.")
	}

	sendTo(h.deps.Sender, referrer.ID, menu.FormatNewReferral(sender.Username))
	return c.Send(menu.FormatReferredWelcome(referrer))
}

// HandleCallback routes inline button presses. Every button except the
// membership check requires the user to be in all required channels.
func (h *UserHandler) HandleCallback(c tele.Context) error {
	ctx, cancel := requestContext()
	defer cancel()

	sender := c.Sender()
	if sender == nil {
		return nil
	}
	data := callbackData(c)

	if _, _, err := h.deps.Accounts.EnsureUser(ctx, sender.ID, sender.Username); err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to ensure user")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Something went wrong, please try again later."})
	}

	if data == menu.CallbackCheckMembership {
		return h.handleCheckMembership(ctx, c, sender)
	}

	if !h.deps.Gate.IsMember(ctx, sender.ID, h.deps.Settings.Snapshot().RequiredChannels) {
		return c.Respond(&tele.CallbackResponse{Text: "⚠️ Please join our channels first!", ShowAlert: true})
	}

	switch data {
	case menu.CallbackProfile:
		return h.handleProfile(ctx, c, sender.ID)
	case menu.CallbackReferral:
		return h.handleReferral(ctx, c, sender.ID)
	case menu.CallbackWithdraw:
		return h.handleWithdrawMenu(ctx, c, sender.ID)
	case menu.CallbackPromotion:
		_ = c.Respond()
		return c.Send("For promotion of your channel D.M " + h.deps.PromotionContact)
	case menu.CallbackSetWallet:
		_ = c.Respond()
		if err := h.deps.Accounts.BeginSetWallet(ctx, sender.ID); err != nil {
			log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to start post link entry")
			return c.Send("❌ Something went wrong, please try again later.")
		}
		return c.Send("Send your post link where you want to receive your stars ⭐")
	case menu.CallbackBackToMain:
		_ = c.Respond()
		return editOrSend(c, menu.MainMenuText, menu.BuildMainMenu())
	}

	if amount, ok := menu.ParseWithdrawAmount(data); ok {
		return h.handleWithdrawAmount(ctx, c, sender.ID, amount)
	}

	log.Debug().Str("data", data).Msg("Unknown callback")
	return c.Respond()
}

func (h *UserHandler) handleCheckMembership(ctx context.Context, c tele.Context, sender *tele.User) error {
	if !h.deps.Gate.IsMember(ctx, sender.ID, h.deps.Settings.Snapshot().RequiredChannels) {
		return c.Respond(&tele.CallbackResponse{Text: "⚠️ Please join all required channels first!", ShowAlert: true})
	}
	_ = c.Respond(&tele.CallbackResponse{Text: "✅ Membership verified!"})

	res, err := h.deps.Referrals.Complete(ctx, sender.ID, sender.Username)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to complete referral")
	} else if res.Credited {
		sendTo(h.deps.Sender, res.Referrer.ID, menu.FormatReferralSuccess(sender.Username, res.Amount))
	}

	return editOrSend(c, menu.MainMenuText, menu.BuildMainMenu())
}

func (h *UserHandler) handleProfile(ctx context.Context, c tele.Context, userID int64) error {
	user, err := h.deps.Accounts.GetUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load profile")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Something went wrong, please try again later."})
	}
	recent, err := h.deps.Withdrawals.History(ctx, userID, profileHistoryLimit)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to load withdrawal history")
	}
	_ = c.Respond()
	return c.Edit(menu.FormatProfile(user, recent), menu.BuildBackButton())
}

func (h *UserHandler) handleReferral(ctx context.Context, c tele.Context, userID int64) error {
	stats, err := h.deps.Referrals.Stats(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load referral stats")
		return c.Respond(&tele.CallbackResponse{Text: "❌ Something went wrong, please try again later."})
	}
	_ = c.Respond()
	return c.Send(menu.FormatReferral(h.deps.BotUsername, stats), menu.BuildBackButton())
}

func (h *UserHandler) handleWithdrawMenu(ctx context.Context, c tele.Context, userID int64) error {
	m, err := h.deps.Withdrawals.OpenMenu(ctx, userID)
	if err != nil {
		return c.Respond(withdrawalRefusal(err, h.deps.Settings))
	}
	_ = c.Respond()
	return c.Send(menu.FormatWithdrawMenu(m), menu.BuildWithdrawKeyboard(m.Amounts))
}

func (h *UserHandler) handleWithdrawAmount(ctx context.Context, c tele.Context, userID int64, amount decimal.Decimal) error {
	w, err := h.deps.Withdrawals.Submit(ctx, userID, amount)
	if err != nil {
		return c.Respond(withdrawalRefusal(err, h.deps.Settings))
	}

	log.Info().Int64("user_id", userID).Str("withdrawal_id", w.ID.String()).Msg("Withdrawal request forwarded")
	_ = c.Respond(&tele.CallbackResponse{Text: "Withdrawal request sent to admin!"})
	return c.Edit("Withdrawal request sent! Click below to go back.", menu.BuildBackButton())
}

// HandleText saves a post link when the user was asked for one.
// Other text is ignored.
func (h *UserHandler) HandleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	text := c.Text()
	if text == "" || text[0] == '/' {
		return nil
	}

	ctx, cancel := requestContext()
	defer cancel()

	handled, err := h.deps.Accounts.SubmitWallet(ctx, sender.ID, text)
	switch {
	case !handled && err == nil:
		log.Debug().Int64("user_id", sender.ID).Msg("Ignoring free text")
		return nil
	case errors.Is(err, service.ErrInvalidPostLink):
		return c.Send("⚠️ Please send a valid post link.")
	case err != nil:
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to save post link")
		return c.Send("❌ Something went wrong, please try again later.")
	}
	return c.Send("✅ Your post link has been saved successfully!")
}
