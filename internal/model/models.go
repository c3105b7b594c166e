// Package model defines the data models for the star referral bot.
package model

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReferralCodePrefix prefixes every referral code, e.g. REF1001.
const ReferralCodePrefix = "REF"

// ErrInvalidUserID is returned when a record is built for a non-positive id.
var ErrInvalidUserID = errors.New("user id must be positive")

// User is the per-user record: balance, referral bookkeeping and post link.
type User struct {
	ID           int64           `db:"telegram_id"`
	Username     string          `db:"username"`
	Balance      decimal.Decimal `db:"balance"`
	Referrals    int             `db:"referrals"`
	ReferralCode string          `db:"referral_code"`
	// Wallet is the post link the user wants stars delivered to. Nil means not set.
	Wallet             *string             `db:"wallet"`
	ReferredBy         *int64              `db:"referred_by"`
	PendingReferrals   []int64             `db:"-"`
	CompletedReferrals []CompletedReferral `db:"-"`
	CreatedAt          time.Time           `db:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at"`
}

// CompletedReferral records a referred user who passed the membership gate.
type CompletedReferral struct {
	UserID      int64     `db:"referred_id"`
	Username    string    `db:"username"`
	CompletedAt time.Time `db:"completed_at"`
}

// NewUser builds a fresh record with a zero balance and the derived referral code.
func NewUser(id int64, username string) (*User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidUserID, id)
	}
	now := time.Now()
	return &User{
		ID:           id,
		Username:     username,
		Balance:      decimal.Zero,
		ReferralCode: ReferralCode(id),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ReferralCode derives the referral code for a user id.
func ReferralCode(id int64) string {
	return ReferralCodePrefix + strconv.FormatInt(id, 10)
}

// ParseReferralCode extracts the referrer id from a start payload like "REF1001".
func ParseReferralCode(code string) (int64, bool) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(code), ReferralCodePrefix)
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HasPending reports whether userID waits in this user's pending referrals.
func (u *User) HasPending(userID int64) bool {
	return slices.Contains(u.PendingReferrals, userID)
}

// HasCompleted reports whether userID already completed a referral for this user.
func (u *User) HasCompleted(userID int64) bool {
	return slices.ContainsFunc(u.CompletedReferrals, func(r CompletedReferral) bool {
		return r.UserID == userID
	})
}

// RemovePending drops userID from the pending list. Returns false if absent.
func (u *User) RemovePending(userID int64) bool {
	i := slices.Index(u.PendingReferrals, userID)
	if i < 0 {
		return false
	}
	u.PendingReferrals = slices.Delete(u.PendingReferrals, i, i+1)
	return true
}

// WalletOrDefault returns the post link or the given placeholder.
func (u *User) WalletOrDefault(placeholder string) string {
	if u.Wallet == nil || *u.Wallet == "" {
		return placeholder
	}
	return *u.Wallet
}

// DisplayName returns "@username" or the numeric id when no username is known.
func (u *User) DisplayName() string {
	if u.Username == "" {
		return strconv.FormatInt(u.ID, 10)
	}
	return "@" + u.Username
}

// Clone returns a deep copy so callers can mutate without aliasing store state.
func (u *User) Clone() *User {
	c := *u
	if u.Wallet != nil {
		w := *u.Wallet
		c.Wallet = &w
	}
	if u.ReferredBy != nil {
		r := *u.ReferredBy
		c.ReferredBy = &r
	}
	c.PendingReferrals = slices.Clone(u.PendingReferrals)
	c.CompletedReferrals = slices.Clone(u.CompletedReferrals)
	return &c
}

// Settings is the process-wide configuration mutated by the admin console.
type Settings struct {
	RequiredChannels   []string        `json:"required_channels"`
	WithdrawalChannels []string        `json:"withdrawal_channels"`
	ReferralAmount     decimal.Decimal `json:"referral_amount"`
	MinWithdrawal      decimal.Decimal `json:"min_withdrawal"`
	MaxWithdrawal      decimal.Decimal `json:"max_withdrawal"`
	WithdrawalOpen     bool            `json:"withdrawal_open"`
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	s.RequiredChannels = slices.Clone(s.RequiredChannels)
	s.WithdrawalChannels = slices.Clone(s.WithdrawalChannels)
	return s
}

// Withdrawal statuses.
const (
	WithdrawalPending = "pending"
)

// Withdrawal is a forwarded request awaiting manual payout.
type Withdrawal struct {
	ID        uuid.UUID       `db:"id"`
	UserID    int64           `db:"user_id"`
	Username  string          `db:"username"`
	Amount    decimal.Decimal `db:"amount"`
	PostLink  string          `db:"post_link"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
}
