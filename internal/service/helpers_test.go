package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"star-referral-bot/internal/config"
	"star-referral-bot/internal/model"
	"star-referral-bot/internal/pkg/lock"
	"star-referral-bot/internal/repository"
	"star-referral-bot/internal/session"
)

// recordingNotifier remembers every forwarded withdrawal.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []*model.Withdrawal
	err  error
}

func (n *recordingNotifier) WithdrawalRequested(_ context.Context, w *model.Withdrawal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, w)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fixture struct {
	store       *repository.Store
	sessions    *session.MemoryStore
	settings    *SettingsService
	accounts    *AccountService
	referrals   *ReferralService
	withdrawals *WithdrawalService
	notifier    *recordingNotifier
}

func testDefaults() config.DefaultsConfig {
	return config.DefaultsConfig{
		RequiredChannels:   []string{"@freearningstetantes"},
		WithdrawalChannels: []string{"@freearningstetantes"},
		ReferralAmount:     "0.5",
		MinWithdrawal:      "1",
		MaxWithdrawal:      "10",
		WithdrawalOpen:     true,
	}
}

// fatalfer is satisfied by both *testing.T and *rapid.T.
type fatalfer interface {
	Helper()
	Fatalf(format string, args ...any)
}

// newFixture wires every service on memory backends.
func newFixture(tb fatalfer, enforceLimits bool) *fixture {
	tb.Helper()
	ctx := context.Background()

	store := repository.NewMemoryStore()
	sessions := session.NewMemoryStore()
	locks := lock.NewUserLock()

	defaults, err := DefaultSettings(testDefaults())
	if err != nil {
		tb.Fatalf("default settings: %v", err)
	}
	settings, err := NewSettingsService(ctx, store.Settings, defaults)
	if err != nil {
		tb.Fatalf("settings service: %v", err)
	}

	notifier := &recordingNotifier{}
	return &fixture{
		store:     store,
		sessions:  sessions,
		settings:  settings,
		accounts:  NewAccountService(store.Users, sessions, locks, time.Minute),
		referrals: NewReferralService(store.Users, settings, locks),
		withdrawals: NewWithdrawalService(store, settings, sessions, notifier, locks,
			config.WithdrawalConfig{
				PayoutChannel: "@STAR_REACTION_PAYOUT",
				PresetAmounts: []int64{1, 2, 3, 4, 5, 6, 7},
				EnforceLimits: enforceLimits,
			}, time.Minute),
		notifier: notifier,
	}
}

// userWith creates a user holding balance and, if link is non-empty, a post link.
func (f *fixture) userWith(t *testing.T, id int64, balance string, link string) {
	t.Helper()
	ctx := context.Background()
	_, _, err := f.accounts.EnsureUser(ctx, id, "")
	require.NoError(t, err)
	if d := decimal.RequireFromString(balance); d.IsPositive() {
		_, err = f.accounts.AdminAdd(ctx, id, d)
		require.NoError(t, err)
	}
	if link != "" {
		require.NoError(t, f.accounts.SetWallet(ctx, id, link))
	}
}

func (f *fixture) balance(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	u, err := f.accounts.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u.Balance
}

var errNotify = errors.New("telegram unavailable")

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func itoa(n int) string { return strconv.Itoa(n) }
