package handler

import (
	tele "gopkg.in/telebot.v3"

	"star-referral-bot/internal/admin"
)

// AdminHandler handles administrator commands. Access control is done by
// the admin middleware.
type AdminHandler struct {
	console *admin.Console
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(console *admin.Console) *AdminHandler {
	return &AdminHandler{console: console}
}

// HandleAdmin handles "/admin <command> [args...]".
func (h *AdminHandler) HandleAdmin(c tele.Context) error {
	cmd, err := admin.ParseLine(c.Args())
	if err != nil {
		return c.Reply(admin.ErrorReply(err))
	}
	return h.execute(c, cmd)
}

// HandleCommand returns the handler for "/<name> [args...]".
func (h *AdminHandler) HandleCommand(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		cmd, err := admin.Parse(name, c.Args())
		if err != nil {
			return c.Reply(admin.ErrorReply(err))
		}
		return h.execute(c, cmd)
	}
}

func (h *AdminHandler) execute(c tele.Context, cmd admin.Command) error {
	ctx, cancel := requestContext()
	defer cancel()

	sender := c.Sender()
	if sender == nil {
		return nil
	}
	reply, err := h.console.Execute(ctx, sender.ID, cmd)
	if err != nil {
		return c.Reply(admin.ErrorReply(err))
	}
	return c.Reply(reply)
}
