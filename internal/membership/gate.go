// Package membership checks that a user belongs to every required channel
// and resolves join links for those channels.
package membership

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// API is the subset of *tele.Bot the gate needs.
type API interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
	ChatByUsername(name string) (*tele.Chat, error)
	CreateInviteLink(chat tele.Recipient, link *tele.ChatInviteLink) (*tele.ChatInviteLink, error)
}

// channelRef addresses a public channel by its @handle.
type channelRef string

func (c channelRef) Recipient() string { return string(c) }

// userRef addresses a user by numeric id.
type userRef int64

func (u userRef) Recipient() string { return (&tele.User{ID: int64(u)}).Recipient() }

// Gate performs the channel membership check.
type Gate struct {
	api API
}

// NewGate creates a Gate on top of the Telegram API.
func NewGate(api API) *Gate {
	return &Gate{api: api}
}

// Accepted reports whether a member status counts as joined.
func Accepted(role tele.MemberStatus) bool {
	switch role {
	case tele.Member, tele.Administrator, tele.Creator:
		return true
	default:
		return false
	}
}

// IsMember returns true only if the user holds an accepted status in every
// channel. A lookup that still fails after one retry counts as not joined.
// An empty channel list passes.
func (g *Gate) IsMember(ctx context.Context, userID int64, channels []string) bool {
	for _, channel := range channels {
		if ctx.Err() != nil {
			return false
		}
		role, ok := g.status(channel, userID)
		if !ok || !Accepted(role) {
			log.Debug().
				Int64("user_id", userID).
				Str("channel", channel).
				Str("role", string(role)).
				Bool("lookup_ok", ok).
				Msg("Membership check failed")
			return false
		}
	}
	return true
}

// status looks the user up by @handle, retrying once through the resolved chat.
func (g *Gate) status(channel string, userID int64) (tele.MemberStatus, bool) {
	member, err := g.api.ChatMemberOf(channelRef(channel), userRef(userID))
	if err == nil && member != nil {
		return member.Role, true
	}

	log.Warn().Err(err).Str("channel", channel).Int64("user_id", userID).
		Msg("Membership lookup failed, retrying by chat id")

	chat, err := g.api.ChatByUsername(channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("Failed to resolve channel")
		return "", false
	}
	member, err = g.api.ChatMemberOf(chat, userRef(userID))
	if err != nil || member == nil {
		log.Error().Err(err).Str("channel", channel).Int64("chat_id", chat.ID).
			Int64("user_id", userID).Msg("Membership lookup failed after retry")
		return "", false
	}
	return member.Role, true
}

// InviteLink returns a join URL for the channel: its public invite link,
// a newly created one, or https://t.me/<handle> when both are unavailable.
func (g *Gate) InviteLink(channel string) string {
	fallback := "https://t.me/" + strings.TrimPrefix(channel, "@")

	chat, err := g.api.ChatByUsername(channel)
	if err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("Failed to get channel, using constructed link")
		return fallback
	}
	if chat.InviteLink != "" {
		return chat.InviteLink
	}

	link, err := g.api.CreateInviteLink(chat, &tele.ChatInviteLink{})
	if err != nil || link == nil || link.InviteLink == "" {
		log.Warn().Err(err).Str("channel", channel).Msg("Failed to create invite link, using constructed link")
		return fallback
	}
	return link.InviteLink
}
