package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"star-referral-bot/internal/session"
)

func TestEnsureUser(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	u, created, err := f.accounts.EnsureUser(ctx, 1001, "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "REF1001", u.ReferralCode)
	assert.True(t, u.Balance.IsZero())

	u, created, err = f.accounts.EnsureUser(ctx, 1001, "alice_new")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "alice_new", u.Username)

	stored, err := f.accounts.GetUser(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "alice_new", stored.Username)

	_, err = f.accounts.GetUser(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestWalletFlow(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.userWith(t, 5, "0", "")

	handled, err := f.accounts.SubmitWallet(ctx, 5, "https://t.me/channel/10")
	require.NoError(t, err)
	assert.False(t, handled, "text is ignored until the user asks to set a post link")

	require.NoError(t, f.accounts.BeginSetWallet(ctx, 5))
	handled, err = f.accounts.SubmitWallet(ctx, 5, "  https://t.me/channel/10 ")
	require.NoError(t, err)
	assert.True(t, handled)

	u, err := f.accounts.GetUser(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, u.Wallet)
	assert.Equal(t, "https://t.me/channel/10", *u.Wallet)

	has, err := f.sessions.Has(ctx, 5, session.StateAwaitingPostLink)
	require.NoError(t, err)
	assert.False(t, has)

	assert.ErrorIs(t, f.accounts.SetWallet(ctx, 5, "   "), ErrInvalidPostLink)
	assert.ErrorIs(t, f.accounts.SetWallet(ctx, 404, "x"), ErrUserNotFound)
}

// Scenario: the administrator sends "add_balance 555 3" for a user nobody has seen.
func TestAdminAdd_CreatesUnseenUser(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	u, err := f.accounts.AdminAdd(ctx, 555, dec("3"))
	require.NoError(t, err)
	assert.Equal(t, int64(555), u.ID)
	assert.True(t, u.Balance.Equal(dec("3")))
	assert.Equal(t, "REF555", u.ReferralCode)

	u, err = f.accounts.AdminAdd(ctx, 555, dec("0.5"))
	require.NoError(t, err)
	assert.True(t, u.Balance.Equal(dec("3.5")))

	_, err = f.accounts.AdminAdd(ctx, 555, dec("0"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.accounts.AdminAdd(ctx, 555, dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAdminDeduct(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.userWith(t, 7, "5", "")

	u, err := f.accounts.AdminDeduct(ctx, 7, dec("2"))
	require.NoError(t, err)
	assert.True(t, u.Balance.Equal(dec("3")))

	_, err = f.accounts.AdminDeduct(ctx, 7, dec("3.01"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, f.balance(t, 7).Equal(dec("3")))

	_, err = f.accounts.AdminDeduct(ctx, 8, dec("1"))
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.accounts.AdminDeduct(ctx, 7, dec("0"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// TestConcurrentAdminAddProperty: concurrent grants to one user are all applied.
func TestConcurrentAdminAddProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(t, "grants")
		f := newFixture(t, false)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.accounts.AdminAdd(ctx, 42, dec("0.5")); err != nil {
					t.Errorf("AdminAdd: %v", err)
				}
			}()
		}
		wg.Wait()

		u, err := f.accounts.GetUser(ctx, 42)
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		want := dec("0.5").Mul(dec(itoa(n)))
		if !u.Balance.Equal(want) {
			t.Fatalf("balance = %s, want %s", u.Balance, want)
		}
	})
}
