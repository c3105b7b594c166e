// Package repository provides data access layer implementations.
// Two backends exist: an in-memory one (state lives for the process lifetime)
// and PostgreSQL.
package repository

import (
	"context"
	"errors"

	"star-referral-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrSettingsNotFound = errors.New("settings not found")
)

// UserRepository handles user record persistence.
// Records are returned as copies; callers persist changes with Save.
type UserRepository interface {
	Get(ctx context.Context, telegramID int64) (*model.User, error)
	GetOrCreate(ctx context.Context, telegramID int64, username string) (*model.User, bool, error)
	Save(ctx context.Context, user *model.User) error
	Exists(ctx context.Context, telegramID int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// SettingsRepository persists the global settings.
type SettingsRepository interface {
	Load(ctx context.Context) (*model.Settings, error)
	Save(ctx context.Context, settings model.Settings) error
}

// WithdrawalRepository records forwarded withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *model.Withdrawal) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Withdrawal, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Users       UserRepository
	Settings    SettingsRepository
	Withdrawals WithdrawalRepository
}
