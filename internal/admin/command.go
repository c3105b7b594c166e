// Package admin implements the administrator console: a closed set of typed
// commands, their parser and the executor that applies them.
package admin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"star-referral-bot/internal/service"
)

// Command is one administrator command. The set is closed: only types in
// this package implement it.
type Command interface {
	Name() string
	command()
}

// Help lists the available commands.
type Help struct{}

// AddBalance credits a user, creating the record if needed.
type AddBalance struct {
	UserID int64
	Amount decimal.Decimal
}

// DeductBalance debits a user without going below zero.
type DeductBalance struct {
	UserID int64
	Amount decimal.Decimal
}

// AddChannel adds a required channel.
type AddChannel struct{ Channel string }

// RemoveChannel removes a required channel.
type RemoveChannel struct{ Channel string }

// SetMinWithdrawal sets the minimum withdrawal amount.
type SetMinWithdrawal struct{ Amount decimal.Decimal }

// SetMaxWithdrawal sets the maximum withdrawal amount.
type SetMaxWithdrawal struct{ Amount decimal.Decimal }

// SetReferralAmount sets the reward per completed referral.
type SetReferralAmount struct{ Amount decimal.Decimal }

// ToggleWithdrawal opens or closes withdrawals.
type ToggleWithdrawal struct{}

// AddWithdrawalChannel adds a channel to the withdrawal menu.
type AddWithdrawalChannel struct{ Channel string }

// RemoveWithdrawalChannel removes a channel from the withdrawal menu.
type RemoveWithdrawalChannel struct{ Channel string }

// Stats reports the user count and current settings.
type Stats struct{}

func (Help) Name() string                    { return "help" }
func (AddBalance) Name() string              { return "add_balance" }
func (DeductBalance) Name() string           { return "deduct_balance" }
func (AddChannel) Name() string              { return "add_channel" }
func (RemoveChannel) Name() string           { return "remove_channel" }
func (SetMinWithdrawal) Name() string        { return "set_min_withdrawal" }
func (SetMaxWithdrawal) Name() string        { return "set_max_withdrawal" }
func (SetReferralAmount) Name() string       { return "set_referral_amount" }
func (ToggleWithdrawal) Name() string        { return "toggle_withdrawal" }
func (AddWithdrawalChannel) Name() string    { return "add_withdrawal_channel" }
func (RemoveWithdrawalChannel) Name() string { return "remove_withdrawal_channel" }
func (Stats) Name() string                   { return "stats" }

func (Help) command()                    {}
func (AddBalance) command()              {}
func (DeductBalance) command()           {}
func (AddChannel) command()              {}
func (RemoveChannel) command()           {}
func (SetMinWithdrawal) command()        {}
func (SetMaxWithdrawal) command()        {}
func (SetReferralAmount) command()       {}
func (ToggleWithdrawal) command()        {}
func (AddWithdrawalChannel) command()    {}
func (RemoveWithdrawalChannel) command() {}
func (Stats) command()                   {}

// UsageError is returned when a command's arguments are missing or malformed.
type UsageError struct {
	Command string
	Usage   string
	Reason  string
}

func (e *UsageError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s\nUsage: %s", e.Reason, e.Usage)
	}
	return "Usage: " + e.Usage
}

// UnknownCommandError is returned for names outside the command set.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("Unknown command %q. Use /admin help for available commands.", e.Name)
}

// entry describes how one command is parsed and presented in the help text.
type entry struct {
	name    string
	section string
	usage   string
	summary string
	parse   func(s entry, args []string) (Command, error)
}

// table is the command table; the order drives the help text.
var table = []entry{
	{"add_balance", "💰 Balance Management", "/add_balance [user_id] [amount]", "Add balance to user",
		func(s entry, args []string) (Command, error) {
			id, amount, err := userAmount(s, args)
			return AddBalance{UserID: id, Amount: amount}, err
		}},
	{"deduct_balance", "💰 Balance Management", "/deduct_balance [user_id] [amount]", "Deduct balance from user",
		func(s entry, args []string) (Command, error) {
			id, amount, err := userAmount(s, args)
			return DeductBalance{UserID: id, Amount: amount}, err
		}},
	{"add_channel", "📢 Channel Management", "/add_channel [channel]", "Add a required channel",
		func(s entry, args []string) (Command, error) {
			ch, err := channel(s, args)
			return AddChannel{Channel: ch}, err
		}},
	{"remove_channel", "📢 Channel Management", "/remove_channel [channel]", "Remove a required channel",
		func(s entry, args []string) (Command, error) {
			ch, err := channel(s, args)
			return RemoveChannel{Channel: ch}, err
		}},
	{"add_withdrawal_channel", "📢 Channel Management", "/add_withdrawal_channel [channel]", "Add a withdrawal channel",
		func(s entry, args []string) (Command, error) {
			ch, err := channel(s, args)
			return AddWithdrawalChannel{Channel: ch}, err
		}},
	{"remove_withdrawal_channel", "📢 Channel Management", "/remove_withdrawal_channel [channel]", "Remove a withdrawal channel",
		func(s entry, args []string) (Command, error) {
			ch, err := channel(s, args)
			return RemoveWithdrawalChannel{Channel: ch}, err
		}},
	{"set_min_withdrawal", "⚙️ Settings", "/set_min_withdrawal [amount]", "Set minimum withdrawal amount",
		func(s entry, args []string) (Command, error) {
			amount, err := singleAmount(s, args)
			return SetMinWithdrawal{Amount: amount}, err
		}},
	{"set_max_withdrawal", "⚙️ Settings", "/set_max_withdrawal [amount]", "Set maximum withdrawal amount",
		func(s entry, args []string) (Command, error) {
			amount, err := singleAmount(s, args)
			return SetMaxWithdrawal{Amount: amount}, err
		}},
	{"set_referral_amount", "⚙️ Settings", "/set_referral_amount [amount]", "Set referral reward amount",
		func(s entry, args []string) (Command, error) {
			amount, err := singleAmount(s, args)
			return SetReferralAmount{Amount: amount}, err
		}},
	{"toggle_withdrawal", "⚙️ Settings", "/toggle_withdrawal", "Toggle withdrawals on/off",
		func(entry, []string) (Command, error) { return ToggleWithdrawal{}, nil }},
	{"stats", "⚙️ Settings", "/stats", "Show user count and current settings",
		func(entry, []string) (Command, error) { return Stats{}, nil }},
	{"help", "", "/help", "Show this help",
		func(entry, []string) (Command, error) { return Help{}, nil }},
}

func lookup(name string) (entry, bool) {
	for _, s := range table {
		if s.name == name {
			return s, true
		}
	}
	return entry{}, false
}

// Names returns every command name, in help order.
func Names() []string {
	names := make([]string, 0, len(table))
	for _, s := range table {
		names = append(names, s.name)
	}
	return names
}

// Parse builds a typed command from its name and arguments.
func Parse(name string, args []string) (Command, error) {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "/")
	s, ok := lookup(name)
	if !ok {
		return nil, &UnknownCommandError{Name: name}
	}
	cmd, err := s.parse(s, args)
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

// ParseLine parses "/admin <command> args..." arguments, i.e. the command
// name followed by its arguments.
func ParseLine(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, &UsageError{Command: "admin", Usage: "/admin <command> [args...]",
			Reason: "Please specify a command. Use /admin help for available commands."}
	}
	return Parse(args[0], args[1:])
}

func (s entry) usageError(reason string) *UsageError {
	return &UsageError{Command: s.name, Usage: s.usage, Reason: reason}
}

func userAmount(s entry, args []string) (int64, decimal.Decimal, error) {
	if len(args) < 2 {
		return 0, decimal.Zero, s.usageError("")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, decimal.Zero, s.usageError("Invalid user_id or amount")
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return 0, decimal.Zero, s.usageError("Invalid user_id or amount")
	}
	return id, amount, nil
}

func singleAmount(s entry, args []string) (decimal.Decimal, error) {
	if len(args) < 1 {
		return decimal.Zero, s.usageError("")
	}
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return decimal.Zero, s.usageError("Invalid amount")
	}
	return amount, nil
}

func channel(s entry, args []string) (string, error) {
	if len(args) < 1 {
		return "", s.usageError("")
	}
	ch := service.NormalizeChannel(args[0])
	if ch == "" || ch == "@" {
		return "", s.usageError("Invalid channel")
	}
	return ch, nil
}

// HelpText renders the command list grouped by section.
func HelpText() string {
	var sb strings.Builder
	sb.WriteString("ℹ️ Available Admin Commands:\n")
	section := ""
	for _, s := range table {
		if s.section == "" {
			continue
		}
		if s.section != section {
			section = s.section
			sb.WriteString("\n" + section + ":\n")
		}
		fmt.Fprintf(&sb, "%s - %s\n", s.usage, s.summary)
	}
	sb.WriteString("\nEvery command also works as /admin <command> [args...]")
	return sb.String()
}
