package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"star-referral-bot/internal/config"
	"star-referral-bot/internal/repository"
)

func TestDefaultSettings(t *testing.T) {
	s, err := DefaultSettings(config.DefaultsConfig{
		RequiredChannels:   []string{"freearningstetantes", "@freearningstetantes", " "},
		WithdrawalChannels: []string{"@payout"},
		ReferralAmount:     "0.5",
		MinWithdrawal:      "1",
		MaxWithdrawal:      "10",
		WithdrawalOpen:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"@freearningstetantes"}, s.RequiredChannels)
	assert.Equal(t, []string{"@payout"}, s.WithdrawalChannels)
	assert.True(t, s.ReferralAmount.Equal(dec("0.5")))
	assert.True(t, s.WithdrawalOpen)

	_, err = DefaultSettings(config.DefaultsConfig{ReferralAmount: "x", MinWithdrawal: "1", MaxWithdrawal: "1"})
	assert.Error(t, err)
}

func TestNormalizeChannel(t *testing.T) {
	assert.Equal(t, "@news", NormalizeChannel("news"))
	assert.Equal(t, "@news", NormalizeChannel(" @news "))
	assert.Equal(t, "", NormalizeChannel("  "))
}

func TestSettingsService_SeedAndReload(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemorySettingsRepository()
	defaults, err := DefaultSettings(testDefaults())
	require.NoError(t, err)

	svc, err := NewSettingsService(ctx, repo, defaults)
	require.NoError(t, err)
	require.NoError(t, svc.SetReferralAmount(ctx, dec("1.25")))

	reloaded, err := NewSettingsService(ctx, repo, defaults)
	require.NoError(t, err)
	assert.True(t, reloaded.Snapshot().ReferralAmount.Equal(dec("1.25")), "stored settings win over defaults")
}

func TestSettingsService_Channels(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	added, err := f.settings.AddChannel(ctx, "mychannel")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = f.settings.AddChannel(ctx, "@mychannel")
	require.NoError(t, err)
	assert.False(t, added, "required channels are a set")
	assert.Equal(t, []string{"@freearningstetantes", "@mychannel"}, f.settings.Snapshot().RequiredChannels)

	removed, err := f.settings.RemoveChannel(ctx, "@freearningstetantes")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = f.settings.RemoveChannel(ctx, "@freearningstetantes")
	require.NoError(t, err)
	assert.False(t, removed)

	added, err = f.settings.AddWithdrawalChannel(ctx, "@payouts")
	require.NoError(t, err)
	assert.True(t, added)
	removed, err = f.settings.RemoveWithdrawalChannel(ctx, "payouts")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"@freearningstetantes"}, f.settings.Snapshot().WithdrawalChannels)

	_, err = f.settings.AddChannel(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestSettingsService_Amounts(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.settings.SetMinWithdrawal(ctx, dec("2")))
	require.NoError(t, f.settings.SetMaxWithdrawal(ctx, dec("20")))
	require.NoError(t, f.settings.SetReferralAmount(ctx, dec("0")))

	snap := f.settings.Snapshot()
	assert.True(t, snap.MinWithdrawal.Equal(dec("2")))
	assert.True(t, snap.MaxWithdrawal.Equal(dec("20")))
	assert.True(t, snap.ReferralAmount.IsZero())

	assert.ErrorIs(t, f.settings.SetMinWithdrawal(ctx, dec("-1")), ErrInvalidAmount)
	assert.ErrorIs(t, f.settings.SetMaxWithdrawal(ctx, dec("0")), ErrInvalidAmount)
	assert.ErrorIs(t, f.settings.SetReferralAmount(ctx, dec("-0.5")), ErrInvalidAmount)
}

func TestSettingsService_Toggle(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	open, err := f.settings.ToggleWithdrawal(ctx)
	require.NoError(t, err)
	assert.False(t, open)
	open, err = f.settings.ToggleWithdrawal(ctx)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestSettingsService_SnapshotIsCopy(t *testing.T) {
	f := newFixture(t, false)
	snap := f.settings.Snapshot()
	snap.RequiredChannels[0] = "@mutated"
	assert.Equal(t, "@freearningstetantes", f.settings.Snapshot().RequiredChannels[0])
}
