package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"star-referral-bot/internal/config"
	"star-referral-bot/internal/model"
	"star-referral-bot/internal/pkg/lock"
	"star-referral-bot/internal/repository"
	"star-referral-bot/internal/session"
)

// Notifier forwards a submitted withdrawal for manual payout.
type Notifier interface {
	WithdrawalRequested(ctx context.Context, w *model.Withdrawal) error
}

// Menu is what the withdrawal screen shows.
type Menu struct {
	Balance      decimal.Decimal
	Minimum      decimal.Decimal
	BelowMinimum bool
	Channels     []string
	Amounts      []int64
}

// WithdrawalService runs the withdrawal flow: open the menu, pick an amount,
// deduct and forward.
type WithdrawalService struct {
	users       repository.UserRepository
	withdrawals repository.WithdrawalRepository
	settings    *SettingsService
	sessions    session.Store
	notifier    Notifier
	locks       *lock.UserLock

	amounts       []int64
	enforceLimits bool
	menuTTL       time.Duration
}

// NewWithdrawalService creates a new WithdrawalService instance.
func NewWithdrawalService(
	store *repository.Store,
	settings *SettingsService,
	sessions session.Store,
	notifier Notifier,
	locks *lock.UserLock,
	cfg config.WithdrawalConfig,
	menuTTL time.Duration,
) *WithdrawalService {
	amounts := slices.Clone(cfg.PresetAmounts)
	if len(amounts) == 0 {
		amounts = []int64{1, 2, 3, 4, 5, 6, 7}
	}
	return &WithdrawalService{
		users:         store.Users,
		withdrawals:   store.Withdrawals,
		settings:      settings,
		sessions:      sessions,
		notifier:      notifier,
		locks:         locks,
		amounts:       amounts,
		enforceLimits: cfg.EnforceLimits,
		menuTTL:       menuTTL,
	}
}

// OpenMenu checks that the user may withdraw and arms a single-use menu.
// A balance below the minimum only sets BelowMinimum unless limits are enforced.
func (s *WithdrawalService) OpenMenu(ctx context.Context, userID int64) (*Menu, error) {
	st := s.settings.Snapshot()
	if !st.WithdrawalOpen {
		return nil, ErrWithdrawalsClosed
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Wallet == nil || *user.Wallet == "" {
		return nil, ErrNoPostLink
	}

	below := user.Balance.LessThan(st.MinWithdrawal)
	if below && s.enforceLimits {
		return nil, ErrBelowMinimum
	}

	if err := s.sessions.Set(ctx, userID, session.StateWithdrawMenu, s.menuTTL); err != nil {
		return nil, fmt.Errorf("failed to open withdrawal menu: %w", err)
	}

	return &Menu{
		Balance:      user.Balance,
		Minimum:      st.MinWithdrawal,
		BelowMinimum: below,
		Channels:     st.WithdrawalChannels,
		Amounts:      slices.Clone(s.amounts),
	}, nil
}

// Submit deducts amount and forwards the request. The balance is never
// taken below zero and one opened menu yields at most one withdrawal.
func (s *WithdrawalService) Submit(ctx context.Context, userID int64, amount decimal.Decimal) (*model.Withdrawal, error) {
	var w *model.Withdrawal
	err := s.locks.WithLockContext(ctx, userID, lockTimeout, func() error {
		armed, err := s.sessions.Has(ctx, userID, session.StateWithdrawMenu)
		if err != nil {
			return fmt.Errorf("failed to read session: %w", err)
		}
		if !armed {
			return ErrMenuExpired
		}
		if !amount.IsPositive() {
			return ErrInvalidAmount
		}

		st := s.settings.Snapshot()
		if !st.WithdrawalOpen {
			return ErrWithdrawalsClosed
		}

		user, err := s.getUser(ctx, userID)
		if err != nil {
			return err
		}
		if user.Wallet == nil || *user.Wallet == "" {
			return ErrNoPostLink
		}
		if user.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}
		if s.enforceLimits {
			if st.MaxWithdrawal.IsPositive() && amount.GreaterThan(st.MaxWithdrawal) {
				return ErrAboveMaximum
			}
			if amount.LessThan(st.MinWithdrawal) {
				return ErrBelowMinimum
			}
		}

		user.Balance = user.Balance.Sub(amount)
		if err := s.users.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to deduct balance: %w", err)
		}
		if _, err := s.sessions.Take(ctx, userID, session.StateWithdrawMenu); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to close withdrawal menu")
		}

		w = &model.Withdrawal{
			ID:        uuid.New(),
			UserID:    user.ID,
			Username:  user.Username,
			Amount:    amount,
			PostLink:  *user.Wallet,
			Status:    model.WithdrawalPending,
			CreatedAt: time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.withdrawals.Create(ctx, w); err != nil {
		log.Error().Err(err).Str("withdrawal_id", w.ID.String()).Msg("Failed to record withdrawal")
	}
	if err := s.notifier.WithdrawalRequested(ctx, w); err != nil {
		log.Error().Err(err).
			Str("withdrawal_id", w.ID.String()).
			Int64("user_id", userID).
			Msg("Failed to forward withdrawal request")
	}

	log.Info().
		Str("withdrawal_id", w.ID.String()).
		Int64("user_id", userID).
		Str("amount", amount.String()).
		Msg("Withdrawal submitted")
	return w, nil
}

// History returns the user's most recent withdrawals.
func (s *WithdrawalService) History(ctx context.Context, userID int64, limit int) ([]*model.Withdrawal, error) {
	return s.withdrawals.ListByUser(ctx, userID, limit)
}

func (s *WithdrawalService) getUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
