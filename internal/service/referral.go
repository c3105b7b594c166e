package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"star-referral-bot/internal/model"
	"star-referral-bot/internal/pkg/lock"
	"star-referral-bot/internal/repository"
)

// ReferralService moves referrals from pending to completed and credits
// the referrer exactly once per referred user.
type ReferralService struct {
	users    repository.UserRepository
	settings *SettingsService
	locks    *lock.UserLock
}

// NewReferralService creates a new ReferralService instance.
func NewReferralService(users repository.UserRepository, settings *SettingsService, locks *lock.UserLock) *ReferralService {
	return &ReferralService{users: users, settings: settings, locks: locks}
}

// CompleteResult describes the outcome of Complete.
type CompleteResult struct {
	Credited bool
	Referrer *model.User
	Amount   decimal.Decimal
}

// Stats is what the referral screen shows.
type Stats struct {
	Code      string
	Referrals int
	Reward    decimal.Decimal
	Earned    decimal.Decimal
}

// Register records that newUserID joined through referrerID's link.
// It returns the updated referrer record.
func (s *ReferralService) Register(ctx context.Context, newUserID, referrerID int64) (*model.User, error) {
	if newUserID == referrerID {
		return nil, ErrSelfReferral
	}

	var referrer *model.User
	err := s.locks.WithLocks([]int64{newUserID, referrerID}, func() error {
		ref, err := s.users.Get(ctx, referrerID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrUnknownReferrer
			}
			return fmt.Errorf("failed to get referrer: %w", err)
		}
		user, err := s.users.Get(ctx, newUserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get user: %w", err)
		}

		if user.ReferredBy != nil || ref.HasPending(newUserID) || ref.HasCompleted(newUserID) {
			return ErrAlreadyReferred
		}

		user.ReferredBy = &referrerID
		ref.PendingReferrals = append(ref.PendingReferrals, newUserID)

		if err := s.users.Save(ctx, ref); err != nil {
			return fmt.Errorf("failed to save referrer: %w", err)
		}
		if err := s.users.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to save referred user: %w", err)
		}
		referrer = ref
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", newUserID).Int64("referrer_id", referrerID).Msg("Referral registered")
	return referrer, nil
}

// Complete credits the user's referrer once the user passed the membership
// gate. Calling it again, or for a user nobody referred, changes nothing.
func (s *ReferralService) Complete(ctx context.Context, userID int64, username string) (*CompleteResult, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.ReferredBy == nil {
		return &CompleteResult{}, nil
	}
	referrerID := *user.ReferredBy
	reward := s.settings.Snapshot().ReferralAmount

	result := &CompleteResult{}
	err = s.locks.WithLockContext(ctx, referrerID, lockTimeout, func() error {
		ref, err := s.users.Get(ctx, referrerID)
		if err != nil {
			return fmt.Errorf("failed to get referrer: %w", err)
		}
		if ref.HasCompleted(userID) || !ref.RemovePending(userID) {
			return nil
		}

		ref.CompletedReferrals = append(ref.CompletedReferrals, model.CompletedReferral{
			UserID:      userID,
			Username:    username,
			CompletedAt: time.Now(),
		})
		ref.Referrals++
		ref.Balance = ref.Balance.Add(reward)

		if err := s.users.Save(ctx, ref); err != nil {
			return fmt.Errorf("failed to credit referrer: %w", err)
		}
		result.Credited = true
		result.Referrer = ref
		result.Amount = reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Credited {
		log.Info().
			Int64("user_id", userID).
			Int64("referrer_id", referrerID).
			Str("amount", reward.String()).
			Msg("Referral completed")
	}
	return result, nil
}

// Stats returns the referral screen numbers. Earned is the completed count
// times the current reward.
func (s *ReferralService) Stats(ctx context.Context, userID int64) (*Stats, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	reward := s.settings.Snapshot().ReferralAmount
	return &Stats{
		Code:      user.ReferralCode,
		Referrals: user.Referrals,
		Reward:    reward,
		Earned:    reward.Mul(decimal.NewFromInt(int64(user.Referrals))),
	}, nil
}
