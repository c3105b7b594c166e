// Package menu builds the inline keyboards and message texts shown to users.
package menu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"

	"star-referral-bot/internal/model"
	"star-referral-bot/internal/service"
)

// Callback data values
const (
	CallbackProfile         = "profile"
	CallbackReferral        = "referral"
	CallbackWithdraw        = "withdraw"
	CallbackWithdrawAmount  = "withdraw_" // withdraw_3
	CallbackPromotion       = "promotion"
	CallbackSetWallet       = "set_wallet"
	CallbackBackToMain      = "back_to_main"
	CallbackCheckMembership = "check_membership"
)

// WelcomeText is shown with the join keyboard on /start.
const WelcomeText = "🌟 Welcome to STAR Reaction Bot! ⭐\n\n" +
	"⚠️ You must join our channels to use the bot!\n" +
	"After joining, click verify button below to start earning ⭐"

// MainMenuText heads the main menu.
const MainMenuText = "Select an option:"

// Join is one "Join @channel" button.
type Join struct {
	Channel string
	URL     string
}

// BuildJoinKeyboard creates one URL button per channel plus the verify button.
func BuildJoinKeyboard(joins []Join) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	rows := make([]tele.Row, 0, len(joins)+1)
	for _, j := range joins {
		rows = append(rows, markup.Row(markup.URL("Join "+j.Channel, j.URL)))
	}
	rows = append(rows, markup.Row(markup.Data("✅ Check Membership", CallbackCheckMembership)))

	markup.Inline(rows...)
	return markup
}

// BuildMainMenu creates the main menu panel.
func BuildMainMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data("👤 Profile", CallbackProfile),
			markup.Data("⭐ Earn Stars", CallbackReferral),
		),
		markup.Row(markup.Data("💎 Withdraw Stars", CallbackWithdraw)),
		markup.Row(markup.Data("📝 Set Post Link", CallbackSetWallet)),
		markup.Row(markup.Data("📢 Promotion", CallbackPromotion)),
	)
	return markup
}

// BuildBackButton creates a single "Back" button to the main menu.
func BuildBackButton() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("⬅️ Back", CallbackBackToMain)))
	return markup
}

// BuildWithdrawKeyboard creates the amount buttons, two per row.
func BuildWithdrawKeyboard(amounts []int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var rows []tele.Row
	var currentRow []tele.Btn
	for i, amount := range amounts {
		n := strconv.FormatInt(amount, 10)
		currentRow = append(currentRow, markup.Data(n+"⭐", CallbackWithdrawAmount+n))

		if len(currentRow) == 2 || i == len(amounts)-1 {
			rows = append(rows, markup.Row(currentRow...))
			currentRow = nil
		}
	}
	rows = append(rows, markup.Row(markup.Data("⬅️ Back", CallbackBackToMain)))

	markup.Inline(rows...)
	return markup
}

// ParseWithdrawAmount extracts the amount from "withdraw_<n>" callback data.
func ParseWithdrawAmount(data string) (decimal.Decimal, bool) {
	raw, ok := strings.CutPrefix(data, CallbackWithdrawAmount)
	if !ok || raw == "" {
		return decimal.Zero, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(n), true
}

// FormatProfile creates the profile message.
func FormatProfile(u *model.User, recent []*model.Withdrawal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		"👤 Your Profile\n\n"+
			"📱 User ID: %d\n"+
			"💰 Balance: %s ⭐\n"+
			"👥 Referrals: %d\n"+
			"📝 Post Link: %s",
		u.ID, u.Balance, u.Referrals, u.WalletOrDefault("Not set"),
	)
	if len(recent) > 0 {
		sb.WriteString("\n\n📤 Recent withdrawals:")
		for _, w := range recent {
			fmt.Fprintf(&sb, "\n• %s ⭐ (%s) %s", w.Amount, w.Status, w.CreatedAt.Format("2006-01-02"))
		}
	}
	return sb.String()
}

// ReferralLink builds the t.me deep link carrying the referral code.
func ReferralLink(botUsername, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, code)
}

// FormatReferral creates the referral screen.
func FormatReferral(botUsername string, st *service.Stats) string {
	return fmt.Sprintf(
		"🔗 Your referral link: %s\n"+
			"⭐ Reward per referral: %s ⭐\n"+
			"👥 Total referrals: %d\n"+
			"💰 Earned from referrals: %s ⭐",
		ReferralLink(botUsername, st.Code), st.Reward, st.Referrals, st.Earned,
	)
}

// FormatWithdrawMenu creates the amount selection message.
func FormatWithdrawMenu(m *service.Menu) string {
	var sb strings.Builder
	if m.BelowMinimum {
		fmt.Fprintf(&sb, "⚠️ Not enough balance for withdrawal! Minimum is %s⭐\n\n", m.Minimum)
	}
	fmt.Fprintf(&sb, "💳 Select the amount to withdraw\n\nBalance: %s⭐\n", m.Balance)
	if len(m.Channels) > 0 {
		sb.WriteString("\n")
		for _, ch := range m.Channels {
			fmt.Fprintf(&sb, "%s - withdrawals channel\n", ch)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatReferredWelcome greets a user who arrived through a referral link.
func FormatReferredWelcome(referrer *model.User) string {
	return fmt.Sprintf(
		"✨ Welcome! You were referred by %s!\n"+
			"Join all channels and verify membership to activate the referral reward!",
		referrer.DisplayName(),
	)
}

// FormatNewReferral tells the referrer a new user joined through their link.
func FormatNewReferral(username string) string {
	return fmt.Sprintf(
		"🎉 New referral! %s joined using your link!\n"+
			"They need to verify channel membership to activate your reward.",
		mention(username),
	)
}

// FormatReferralSuccess tells the referrer a referral was credited.
func FormatReferralSuccess(username string, amount decimal.Decimal) string {
	return fmt.Sprintf(
		"🎉 Referral Success! %s verified their membership!\nYou earned %s ⭐!",
		mention(username), amount,
	)
}

func mention(username string) string {
	if username == "" {
		return "A new user"
	}
	return "@" + username
}
