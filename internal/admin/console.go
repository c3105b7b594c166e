package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"star-referral-bot/internal/model"
	"star-referral-bot/internal/repository"
	"star-referral-bot/internal/service"
)

// Console applies administrator commands through the services.
type Console struct {
	accounts *service.AccountService
	settings *service.SettingsService
	users    repository.UserRepository
}

// NewConsole creates a new Console.
func NewConsole(accounts *service.AccountService, settings *service.SettingsService, users repository.UserRepository) *Console {
	return &Console{accounts: accounts, settings: settings, users: users}
}

// Execute runs cmd on behalf of adminID and returns the reply text.
// Refusals come back as errors; ErrorReply turns them into reply text.
func (c *Console) Execute(ctx context.Context, adminID int64, cmd Command) (string, error) {
	reply, err := c.execute(ctx, cmd)

	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.Int64("admin_id", adminID).
		Str("operation", cmd.Name()).
		Msg("Admin operation executed")

	return reply, err
}

func (c *Console) execute(ctx context.Context, cmd Command) (string, error) {
	switch cmd := cmd.(type) {
	case Help:
		return HelpText(), nil

	case AddBalance:
		user, err := c.accounts.AdminAdd(ctx, cmd.UserID, cmd.Amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added %s ⭐ to user %d\n💰 Current balance: %s ⭐",
			cmd.Amount, cmd.UserID, user.Balance), nil

	case DeductBalance:
		user, err := c.accounts.AdminDeduct(ctx, cmd.UserID, cmd.Amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Deducted %s ⭐ from user %d\n💰 Current balance: %s ⭐",
			cmd.Amount, cmd.UserID, user.Balance), nil

	case AddChannel:
		added, err := c.settings.AddChannel(ctx, cmd.Channel)
		if err != nil {
			return "", err
		}
		current := channelList(c.settings.Snapshot().RequiredChannels)
		if !added {
			return fmt.Sprintf("⚠️ Channel %s is already required!\nCurrent channels: %s", cmd.Channel, current), nil
		}
		return fmt.Sprintf("✅ Added channel: %s\nCurrent channels: %s", cmd.Channel, current), nil

	case RemoveChannel:
		removed, err := c.settings.RemoveChannel(ctx, cmd.Channel)
		if err != nil {
			return "", err
		}
		current := channelList(c.settings.Snapshot().RequiredChannels)
		if !removed {
			return fmt.Sprintf("⚠️ Channel %s not found in required channels!\nCurrent channels: %s", cmd.Channel, current), nil
		}
		return fmt.Sprintf("✅ Removed channel: %s\nRemaining channels: %s", cmd.Channel, current), nil

	case AddWithdrawalChannel:
		added, err := c.settings.AddWithdrawalChannel(ctx, cmd.Channel)
		if err != nil {
			return "", err
		}
		if !added {
			return "Channel already exists!", nil
		}
		return "Added withdrawal channel: " + cmd.Channel, nil

	case RemoveWithdrawalChannel:
		removed, err := c.settings.RemoveWithdrawalChannel(ctx, cmd.Channel)
		if err != nil {
			return "", err
		}
		if !removed {
			return "Channel not found!", nil
		}
		return "Removed withdrawal channel: " + cmd.Channel, nil

	case SetMinWithdrawal:
		if err := c.settings.SetMinWithdrawal(ctx, cmd.Amount); err != nil {
			return "", err
		}
		return fmt.Sprintf("Set minimum withdrawal to %s ⭐", cmd.Amount), nil

	case SetMaxWithdrawal:
		if err := c.settings.SetMaxWithdrawal(ctx, cmd.Amount); err != nil {
			return "", err
		}
		return fmt.Sprintf("Set maximum withdrawal to %s ⭐", cmd.Amount), nil

	case SetReferralAmount:
		if err := c.settings.SetReferralAmount(ctx, cmd.Amount); err != nil {
			return "", err
		}
		return fmt.Sprintf("Set referral amount to %s ⭐", cmd.Amount), nil

	case ToggleWithdrawal:
		open, err := c.settings.ToggleWithdrawal(ctx)
		if err != nil {
			return "", err
		}
		status := "closed"
		if open {
			status = "open"
		}
		return "Withdrawals are now " + status, nil

	case Stats:
		count, err := c.users.Count(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to count users: %w", err)
		}
		return formatStats(count, c.settings.Snapshot()), nil

	default:
		return "", &UnknownCommandError{Name: cmd.Name()}
	}
}

// ErrorReply maps a parse or execution error to the text sent back to the admin.
func ErrorReply(err error) string {
	var usage *UsageError
	var unknown *UnknownCommandError
	switch {
	case errors.As(err, &usage):
		return usage.Error()
	case errors.As(err, &unknown):
		return unknown.Error()
	case errors.Is(err, service.ErrInsufficientBalance):
		return "User doesn't have enough balance"
	case errors.Is(err, service.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, service.ErrInvalidAmount):
		return "Invalid user_id or amount"
	case errors.Is(err, service.ErrInvalidChannel):
		return "Invalid channel"
	default:
		return "❌ Operation failed, please try again later"
	}
}

func channelList(channels []string) string {
	if len(channels) == 0 {
		return "none"
	}
	return strings.Join(channels, ", ")
}

func formatStats(users int64, s model.Settings) string {
	status := "closed"
	if s.WithdrawalOpen {
		status = "open"
	}
	var sb strings.Builder
	sb.WriteString("📊 Bot Statistics\n\n")
	fmt.Fprintf(&sb, "👥 Users: %d\n", users)
	fmt.Fprintf(&sb, "📢 Required channels: %s\n", channelList(s.RequiredChannels))
	fmt.Fprintf(&sb, "💳 Withdrawal channels: %s\n", channelList(s.WithdrawalChannels))
	fmt.Fprintf(&sb, "⭐ Referral reward: %s\n", s.ReferralAmount)
	fmt.Fprintf(&sb, "⬇️ Minimum withdrawal: %s\n", s.MinWithdrawal)
	fmt.Fprintf(&sb, "⬆️ Maximum withdrawal: %s\n", s.MaxWithdrawal)
	fmt.Fprintf(&sb, "🔓 Withdrawals: %s", status)
	return sb.String()
}
