package menu

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"star-referral-bot/internal/model"
	"star-referral-bot/internal/service"
)

func TestBuildWithdrawKeyboard(t *testing.T) {
	markup := BuildWithdrawKeyboard([]int64{1, 2, 3, 4, 5, 6, 7})
	require.Len(t, markup.InlineKeyboard, 5, "four amount rows plus back")
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Len(t, markup.InlineKeyboard[3], 1)
	assert.Equal(t, "7⭐", markup.InlineKeyboard[3][0].Text)
	assert.Equal(t, "withdraw_7", markup.InlineKeyboard[3][0].Unique)
	assert.Equal(t, CallbackBackToMain, markup.InlineKeyboard[4][0].Unique)
}

func TestBuildJoinKeyboard(t *testing.T) {
	markup := BuildJoinKeyboard([]Join{
		{Channel: "@a", URL: "https://t.me/a"},
		{Channel: "@b", URL: "https://t.me/+xyz"},
	})
	require.Len(t, markup.InlineKeyboard, 3)
	assert.Equal(t, "Join @a", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "https://t.me/+xyz", markup.InlineKeyboard[1][0].URL)
	assert.Equal(t, CallbackCheckMembership, markup.InlineKeyboard[2][0].Unique)
}

func TestParseWithdrawAmount(t *testing.T) {
	d, ok := ParseWithdrawAmount("withdraw_3")
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.NewFromInt(3)))

	for _, bad := range []string{"withdraw", "withdraw_", "withdraw_x", "withdraw_0", "withdraw_-1", "profile"} {
		_, ok := ParseWithdrawAmount(bad)
		assert.False(t, ok, bad)
	}
}

// TestWithdrawButtonsRoundTripProperty: every amount button's data parses back to its amount.
func TestWithdrawButtonsRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amounts := rapid.SliceOfN(rapid.Int64Range(1, 1000), 1, 10).Draw(t, "amounts")
		markup := BuildWithdrawKeyboard(amounts)

		i := 0
		for _, row := range markup.InlineKeyboard[:len(markup.InlineKeyboard)-1] {
			for _, btn := range row {
				got, ok := ParseWithdrawAmount(btn.Unique)
				if !ok || !got.Equal(decimal.NewFromInt(amounts[i])) {
					t.Fatalf("button %q does not parse to %d", btn.Unique, amounts[i])
				}
				i++
			}
		}
		if i != len(amounts) {
			t.Fatalf("rendered %d buttons for %d amounts", i, len(amounts))
		}
	})
}

func TestFormatProfile(t *testing.T) {
	u, err := model.NewUser(1001, "alice")
	require.NoError(t, err)
	u.Balance = decimal.RequireFromString("1.5")
	u.Referrals = 3

	text := FormatProfile(u, nil)
	assert.Contains(t, text, "📱 User ID: 1001")
	assert.Contains(t, text, "💰 Balance: 1.5 ⭐")
	assert.Contains(t, text, "👥 Referrals: 3")
	assert.Contains(t, text, "📝 Post Link: Not set")
	assert.NotContains(t, text, "Recent withdrawals")

	recent := []*model.Withdrawal{{
		Amount:    decimal.NewFromInt(3),
		Status:    model.WithdrawalPending,
		CreatedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}}
	text = FormatProfile(u, recent)
	assert.Contains(t, text, "📤 Recent withdrawals:")
	assert.Contains(t, text, "• 3 ⭐ (pending) 2026-03-14")
}

func TestFormatReferral(t *testing.T) {
	text := FormatReferral("StarBot", &service.Stats{
		Code:      "REF1001",
		Referrals: 2,
		Reward:    decimal.RequireFromString("0.5"),
		Earned:    decimal.NewFromInt(1),
	})
	assert.Contains(t, text, "https://t.me/StarBot?start=REF1001")
	assert.Contains(t, text, "Reward per referral: 0.5 ⭐")
	assert.Contains(t, text, "Earned from referrals: 1 ⭐")
}

func TestFormatWithdrawMenu(t *testing.T) {
	m := &service.Menu{
		Balance:  decimal.NewFromInt(3),
		Minimum:  decimal.NewFromInt(1),
		Channels: []string{"@freearningstetantes"},
	}
	text := FormatWithdrawMenu(m)
	assert.Contains(t, text, "Balance: 3⭐")
	assert.Contains(t, text, "@freearningstetantes - withdrawals channel")
	assert.NotContains(t, text, "Not enough balance")

	m.BelowMinimum = true
	m.Balance = decimal.Zero
	assert.Contains(t, FormatWithdrawMenu(m), "Not enough balance for withdrawal")
}

func TestReferralNotifications(t *testing.T) {
	assert.Contains(t, FormatNewReferral("bob"), "@bob joined")
	assert.Contains(t, FormatNewReferral(""), "A new user joined")
	assert.Contains(t, FormatReferralSuccess("bob", decimal.RequireFromString("0.5")), "You earned 0.5 ⭐!")
}
