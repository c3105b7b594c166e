package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"star-referral-bot/internal/model"
)

// NewMemoryStore returns a Store whose state lives in process memory.
func NewMemoryStore() *Store {
	return &Store{
		Users:       NewMemoryUserRepository(),
		Settings:    NewMemorySettingsRepository(),
		Withdrawals: NewMemoryWithdrawalRepository(),
	}
}

// MemoryUserRepository keeps user records in a map.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*model.User
}

// NewMemoryUserRepository creates an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[int64]*model.User)}
}

// Get retrieves a user by Telegram ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *MemoryUserRepository) Get(_ context.Context, telegramID int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[telegramID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u.Clone(), nil
}

// GetOrCreate retrieves a user, creating a fresh record if it doesn't exist.
// The bool reports whether the record was created by this call.
func (r *MemoryUserRepository) GetOrCreate(_ context.Context, telegramID int64, username string) (*model.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[telegramID]; ok {
		return u.Clone(), false, nil
	}
	u, err := model.NewUser(telegramID, username)
	if err != nil {
		return nil, false, err
	}
	r.users[telegramID] = u
	return u.Clone(), true, nil
}

// Save stores the full record.
func (r *MemoryUserRepository) Save(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := user.Clone()
	c.UpdatedAt = time.Now()
	r.users[user.ID] = c
	return nil
}

// Exists checks if a user with the given Telegram ID exists.
func (r *MemoryUserRepository) Exists(_ context.Context, telegramID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[telegramID]
	return ok, nil
}

// Count returns the number of stored users.
func (r *MemoryUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

// MemorySettingsRepository holds a single settings value.
type MemorySettingsRepository struct {
	mu       sync.RWMutex
	settings *model.Settings
}

// NewMemorySettingsRepository creates an empty MemorySettingsRepository.
func NewMemorySettingsRepository() *MemorySettingsRepository {
	return &MemorySettingsRepository{}
}

// Load returns the stored settings or ErrSettingsNotFound.
func (r *MemorySettingsRepository) Load(_ context.Context) (*model.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings == nil {
		return nil, ErrSettingsNotFound
	}
	s := r.settings.Clone()
	return &s, nil
}

// Save replaces the stored settings.
func (r *MemorySettingsRepository) Save(_ context.Context, settings model.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := settings.Clone()
	r.settings = &s
	return nil
}

// MemoryWithdrawalRepository appends withdrawals to a slice.
type MemoryWithdrawalRepository struct {
	mu          sync.RWMutex
	withdrawals []*model.Withdrawal
}

// NewMemoryWithdrawalRepository creates an empty MemoryWithdrawalRepository.
func NewMemoryWithdrawalRepository() *MemoryWithdrawalRepository {
	return &MemoryWithdrawalRepository{}
}

// Create records a withdrawal.
func (r *MemoryWithdrawalRepository) Create(_ context.Context, w *model.Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *w
	r.withdrawals = append(r.withdrawals, &c)
	return nil
}

// ListByUser returns a user's withdrawals, newest first.
func (r *MemoryWithdrawalRepository) ListByUser(_ context.Context, userID int64, limit int) ([]*model.Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Withdrawal
	for _, w := range slices.Backward(r.withdrawals) {
		if w.UserID != userID {
			continue
		}
		c := *w
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
