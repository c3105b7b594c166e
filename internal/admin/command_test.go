package admin

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d := decimal.RequireFromString
	tests := []struct {
		name string
		cmd  string
		args []string
		want Command
	}{
		{"help", "help", nil, Help{}},
		{"slash prefix", "/help", nil, Help{}},
		{"add balance", "add_balance", []string{"555", "3"}, AddBalance{UserID: 555, Amount: d("3")}},
		{"fractional amount", "add_balance", []string{"1", "0.5"}, AddBalance{UserID: 1, Amount: d("0.5")}},
		{"deduct balance", "deduct_balance", []string{"7", "2"}, DeductBalance{UserID: 7, Amount: d("2")}},
		{"add channel", "add_channel", []string{"@news"}, AddChannel{Channel: "@news"}},
		{"add channel without at", "add_channel", []string{"news"}, AddChannel{Channel: "@news"}},
		{"remove channel", "remove_channel", []string{"@news"}, RemoveChannel{Channel: "@news"}},
		{"min withdrawal", "set_min_withdrawal", []string{"2"}, SetMinWithdrawal{Amount: d("2")}},
		{"max withdrawal", "set_max_withdrawal", []string{"15"}, SetMaxWithdrawal{Amount: d("15")}},
		{"referral amount", "set_referral_amount", []string{"0.75"}, SetReferralAmount{Amount: d("0.75")}},
		{"toggle", "toggle_withdrawal", nil, ToggleWithdrawal{}},
		{"extra args ignored", "toggle_withdrawal", []string{"now"}, ToggleWithdrawal{}},
		{"add withdrawal channel", "add_withdrawal_channel", []string{"payouts"}, AddWithdrawalChannel{Channel: "@payouts"}},
		{"remove withdrawal channel", "remove_withdrawal_channel", []string{"@payouts"}, RemoveWithdrawalChannel{Channel: "@payouts"}},
		{"stats", "stats", nil, Stats{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.cmd, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_UsageErrors(t *testing.T) {
	tests := []struct {
		cmd  string
		args []string
	}{
		{"add_balance", nil},
		{"add_balance", []string{"555"}},
		{"add_balance", []string{"abc", "3"}},
		{"add_balance", []string{"-5", "3"}},
		{"add_balance", []string{"555", "three"}},
		{"deduct_balance", []string{"1"}},
		{"add_channel", nil},
		{"add_channel", []string{"@"}},
		{"remove_channel", nil},
		{"set_min_withdrawal", nil},
		{"set_referral_amount", []string{"lots"}},
		{"add_withdrawal_channel", nil},
		{"remove_withdrawal_channel", nil},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			_, err := Parse(tt.cmd, tt.args)
			var usage *UsageError
			require.ErrorAs(t, err, &usage)
			assert.Equal(t, tt.cmd, usage.Command)
			assert.Contains(t, usage.Error(), "/"+tt.cmd)
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("set_balance", []string{"1", "2"})
	var unknown *UnknownCommandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "set_balance", unknown.Name)
}

func TestParseLine(t *testing.T) {
	cmd, err := ParseLine([]string{"add_balance", "555", "3"})
	require.NoError(t, err)
	assert.Equal(t, AddBalance{UserID: 555, Amount: decimal.RequireFromString("3")}, cmd)

	_, err = ParseLine(nil)
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
	assert.Contains(t, usage.Error(), "/admin help")
}

func TestNamesMatchCommands(t *testing.T) {
	for _, name := range Names() {
		args := []string{"1", "1"}
		if name == "add_channel" || name == "remove_channel" ||
			name == "add_withdrawal_channel" || name == "remove_withdrawal_channel" {
			args = []string{"@c"}
		}
		cmd, err := Parse(name, args)
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestHelpText(t *testing.T) {
	text := HelpText()
	for _, name := range Names() {
		if name == "help" {
			continue
		}
		assert.Contains(t, text, "/"+name, name)
	}
}
