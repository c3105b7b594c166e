package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"star-referral-bot/internal/config"
	"star-referral-bot/internal/model"
	"star-referral-bot/internal/repository"
)

// SettingsService holds the live global settings and writes every change
// through to the settings repository.
type SettingsService struct {
	repo repository.SettingsRepository

	mu      sync.RWMutex
	current model.Settings
}

// DefaultSettings builds the first-start settings from configuration.
func DefaultSettings(cfg config.DefaultsConfig) (model.Settings, error) {
	referral, err := decimal.NewFromString(cfg.ReferralAmount)
	if err != nil {
		return model.Settings{}, fmt.Errorf("invalid referral amount: %w", err)
	}
	minimum, err := decimal.NewFromString(cfg.MinWithdrawal)
	if err != nil {
		return model.Settings{}, fmt.Errorf("invalid minimum withdrawal: %w", err)
	}
	maximum, err := decimal.NewFromString(cfg.MaxWithdrawal)
	if err != nil {
		return model.Settings{}, fmt.Errorf("invalid maximum withdrawal: %w", err)
	}

	s := model.Settings{
		ReferralAmount: referral,
		MinWithdrawal:  minimum,
		MaxWithdrawal:  maximum,
		WithdrawalOpen: cfg.WithdrawalOpen,
	}
	for _, ch := range cfg.RequiredChannels {
		s.RequiredChannels = appendUnique(s.RequiredChannels, NormalizeChannel(ch))
	}
	for _, ch := range cfg.WithdrawalChannels {
		s.WithdrawalChannels = appendUnique(s.WithdrawalChannels, NormalizeChannel(ch))
	}
	return s, nil
}

// NewSettingsService loads stored settings, seeding the repository with
// defaults on first start.
func NewSettingsService(ctx context.Context, repo repository.SettingsRepository, defaults model.Settings) (*SettingsService, error) {
	stored, err := repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrSettingsNotFound):
		if err := repo.Save(ctx, defaults); err != nil {
			return nil, fmt.Errorf("failed to seed settings: %w", err)
		}
		return &SettingsService{repo: repo, current: defaults.Clone()}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &SettingsService{repo: repo, current: *stored}, nil
}

// NormalizeChannel trims a handle and makes sure it starts with "@".
func NormalizeChannel(channel string) string {
	channel = strings.TrimSpace(channel)
	if channel == "" || strings.HasPrefix(channel, "@") {
		return channel
	}
	return "@" + channel
}

// Snapshot returns a copy of the current settings.
func (s *SettingsService) Snapshot() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// update applies fn to a copy of the settings, persists it and publishes it.
func (s *SettingsService) update(ctx context.Context, fn func(*model.Settings) error) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	if err := fn(&next); err != nil {
		return model.Settings{}, err
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return model.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	s.current = next
	return next.Clone(), nil
}

// AddChannel adds a required channel. Returns false if it was already present.
func (s *SettingsService) AddChannel(ctx context.Context, channel string) (bool, error) {
	return s.addTo(ctx, channel, func(st *model.Settings) *[]string { return &st.RequiredChannels })
}

// RemoveChannel removes a required channel. Returns false if it was absent.
func (s *SettingsService) RemoveChannel(ctx context.Context, channel string) (bool, error) {
	return s.removeFrom(ctx, channel, func(st *model.Settings) *[]string { return &st.RequiredChannels })
}

// AddWithdrawalChannel adds a channel to the withdrawal menu list.
func (s *SettingsService) AddWithdrawalChannel(ctx context.Context, channel string) (bool, error) {
	return s.addTo(ctx, channel, func(st *model.Settings) *[]string { return &st.WithdrawalChannels })
}

// RemoveWithdrawalChannel removes a channel from the withdrawal menu list.
func (s *SettingsService) RemoveWithdrawalChannel(ctx context.Context, channel string) (bool, error) {
	return s.removeFrom(ctx, channel, func(st *model.Settings) *[]string { return &st.WithdrawalChannels })
}

func (s *SettingsService) addTo(ctx context.Context, channel string, list func(*model.Settings) *[]string) (bool, error) {
	channel = NormalizeChannel(channel)
	if channel == "" {
		return false, ErrInvalidChannel
	}
	var added bool
	_, err := s.update(ctx, func(st *model.Settings) error {
		l := list(st)
		if slices.Contains(*l, channel) {
			return nil
		}
		*l = append(*l, channel)
		added = true
		return nil
	})
	return added, err
}

func (s *SettingsService) removeFrom(ctx context.Context, channel string, list func(*model.Settings) *[]string) (bool, error) {
	channel = NormalizeChannel(channel)
	if channel == "" {
		return false, ErrInvalidChannel
	}
	var removed bool
	_, err := s.update(ctx, func(st *model.Settings) error {
		l := list(st)
		before := len(*l)
		*l = slices.DeleteFunc(*l, func(c string) bool { return c == channel })
		removed = len(*l) != before
		return nil
	})
	return removed, err
}

// SetMinWithdrawal sets the minimum withdrawal amount.
func (s *SettingsService) SetMinWithdrawal(ctx context.Context, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	_, err := s.update(ctx, func(st *model.Settings) error {
		st.MinWithdrawal = amount
		return nil
	})
	return err
}

// SetMaxWithdrawal sets the maximum withdrawal amount.
func (s *SettingsService) SetMaxWithdrawal(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	_, err := s.update(ctx, func(st *model.Settings) error {
		st.MaxWithdrawal = amount
		return nil
	})
	return err
}

// SetReferralAmount sets the reward credited per completed referral.
func (s *SettingsService) SetReferralAmount(ctx context.Context, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	_, err := s.update(ctx, func(st *model.Settings) error {
		st.ReferralAmount = amount
		return nil
	})
	return err
}

// ToggleWithdrawal flips the withdrawal switch and returns the new state.
func (s *SettingsService) ToggleWithdrawal(ctx context.Context) (bool, error) {
	next, err := s.update(ctx, func(st *model.Settings) error {
		st.WithdrawalOpen = !st.WithdrawalOpen
		return nil
	})
	if err != nil {
		return false, err
	}
	return next.WithdrawalOpen, nil
}

func appendUnique(list []string, v string) []string {
	if v == "" || slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
