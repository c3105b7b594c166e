package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser(1001, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), u.ID)
	assert.Equal(t, "REF1001", u.ReferralCode)
	assert.True(t, u.Balance.IsZero())
	assert.Nil(t, u.Wallet)
	assert.Nil(t, u.ReferredBy)

	_, err = NewUser(0, "nobody")
	assert.ErrorIs(t, err, ErrInvalidUserID)
	_, err = NewUser(-5, "nobody")
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestParseReferralCode(t *testing.T) {
	tests := []struct {
		code   string
		wantID int64
		wantOK bool
	}{
		{"REF1001", 1001, true},
		{" REF42 ", 42, true},
		{"REF", 0, false},
		{"REF-3", 0, false},
		{"REF0", 0, false},
		{"ref1001", 0, false},
		{"REFabc", 0, false},
		{"1001", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			id, ok := ParseReferralCode(tt.code)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

// TestReferralCodeRoundTripProperty checks that every derived code parses back to its id.
func TestReferralCodeRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.Int64Range(1, 1<<62).Draw(t, "id")
		got, ok := ParseReferralCode(ReferralCode(id))
		if !ok || got != id {
			t.Fatalf("code %q parsed to (%d, %v)", ReferralCode(id), got, ok)
		}
	})
}

func TestUserReferralLists(t *testing.T) {
	u, err := NewUser(1, "ref")
	require.NoError(t, err)

	u.PendingReferrals = []int64{10, 11, 12}
	assert.True(t, u.HasPending(11))
	assert.True(t, u.RemovePending(11))
	assert.False(t, u.HasPending(11))
	assert.False(t, u.RemovePending(11))
	assert.Equal(t, []int64{10, 12}, u.PendingReferrals)

	u.CompletedReferrals = append(u.CompletedReferrals, CompletedReferral{UserID: 11})
	assert.True(t, u.HasCompleted(11))
	assert.False(t, u.HasCompleted(10))
}

func TestUserClone(t *testing.T) {
	u, err := NewUser(7, "bob")
	require.NoError(t, err)
	link := "https://t.me/c/1/2"
	ref := int64(3)
	u.Wallet = &link
	u.ReferredBy = &ref
	u.PendingReferrals = []int64{8}

	c := u.Clone()
	*c.Wallet = "changed"
	*c.ReferredBy = 99
	c.PendingReferrals[0] = 100

	assert.Equal(t, "https://t.me/c/1/2", *u.Wallet)
	assert.Equal(t, int64(3), *u.ReferredBy)
	assert.Equal(t, []int64{8}, u.PendingReferrals)
}

func TestDisplayNameAndWallet(t *testing.T) {
	u, err := NewUser(55, "")
	require.NoError(t, err)
	assert.Equal(t, "55", u.DisplayName())
	assert.Equal(t, "Not set", u.WalletOrDefault("Not set"))

	u.Username = "carol"
	link := "https://t.me/post/1"
	u.Wallet = &link
	assert.Equal(t, "@carol", u.DisplayName())
	assert.Equal(t, link, u.WalletOrDefault("Not set"))
}
