package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"star-referral-bot/internal/model"
	"star-referral-bot/internal/pkg/lock"
	"star-referral-bot/internal/repository"
	"star-referral-bot/internal/session"
)

// AccountService handles user records: creation, profile, post link and
// administrator balance adjustments.
type AccountService struct {
	users      repository.UserRepository
	sessions   session.Store
	locks      *lock.UserLock
	sessionTTL time.Duration
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	users repository.UserRepository,
	sessions session.Store,
	locks *lock.UserLock,
	sessionTTL time.Duration,
) *AccountService {
	return &AccountService{
		users:      users,
		sessions:   sessions,
		locks:      locks,
		sessionTTL: sessionTTL,
	}
}

// EnsureUser returns the user's record, creating it on first contact.
// The bool reports whether the record was created by this call.
func (s *AccountService) EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, bool, error) {
	user, created, err := s.users.GetOrCreate(ctx, telegramID, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}

	if !created && username != "" && user.Username != username {
		err := s.locks.WithLockContext(ctx, telegramID, lockTimeout, func() error {
			fresh, err := s.users.Get(ctx, telegramID)
			if err != nil {
				return err
			}
			fresh.Username = username
			user = fresh
			return s.users.Save(ctx, fresh)
		})
		if err != nil {
			log.Warn().Err(err).Int64("user_id", telegramID).Msg("Failed to update username")
		}
	}

	return user, created, nil
}

// GetUser retrieves a user by their Telegram ID.
func (s *AccountService) GetUser(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.users.Get(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// BeginSetWallet arms the "next text message is a post link" state.
func (s *AccountService) BeginSetWallet(ctx context.Context, telegramID int64) error {
	return s.sessions.Set(ctx, telegramID, session.StateAwaitingPostLink, s.sessionTTL)
}

// SubmitWallet saves text as the post link if the user was asked for one.
// The bool is false when no post link was expected.
func (s *AccountService) SubmitWallet(ctx context.Context, telegramID int64, text string) (bool, error) {
	armed, err := s.sessions.Take(ctx, telegramID, session.StateAwaitingPostLink)
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}
	if !armed {
		return false, nil
	}
	if err := s.SetWallet(ctx, telegramID, text); err != nil {
		return true, err
	}
	return true, nil
}

// SetWallet stores the user's post link.
func (s *AccountService) SetWallet(ctx context.Context, telegramID int64, link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return ErrInvalidPostLink
	}
	return s.locks.WithLockContext(ctx, telegramID, lockTimeout, func() error {
		user, err := s.GetUser(ctx, telegramID)
		if err != nil {
			return err
		}
		user.Wallet = &link
		return s.users.Save(ctx, user)
	})
}

// AdminAdd credits amount to a user, creating the record for an unseen id.
func (s *AccountService) AdminAdd(ctx context.Context, telegramID int64, amount decimal.Decimal) (*model.User, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var result *model.User
	err := s.locks.WithLockContext(ctx, telegramID, lockTimeout, func() error {
		user, _, err := s.users.GetOrCreate(ctx, telegramID, "")
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		user.Balance = user.Balance.Add(amount)
		if err := s.users.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to save balance: %w", err)
		}
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AdminDeduct removes amount from a user's balance. The balance never goes negative.
func (s *AccountService) AdminDeduct(ctx context.Context, telegramID int64, amount decimal.Decimal) (*model.User, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var result *model.User
	err := s.locks.WithLockContext(ctx, telegramID, lockTimeout, func() error {
		user, err := s.GetUser(ctx, telegramID)
		if err != nil {
			return err
		}
		if user.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}
		user.Balance = user.Balance.Sub(amount)
		if err := s.users.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to save balance: %w", err)
		}
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
