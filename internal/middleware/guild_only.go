package middleware

import (
	"context"

	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/pkg/cmd"
)

const guildOnlyMessage = "This command can only be used in a server."

// WithGuildOnly drops direct-message invocations.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				if v.Event.GuildID == "" {
					return denied(v.Session, v.Event, guildOnlyMessage)
				}
			case *command.MessageContext:
				if v.Event.GuildID == "" {
					return nil
				}
			}
			return c.Run(ctx, inv)
		})
	}
}
