package middleware

import (
	"context"
	"time"

	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/pkg/cmd"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// WithCommandLogger logs every execution with a per-invocation ID. The
// tagged logger is attached to ctx for the command to reuse via zerolog.Ctx.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			fields := log.With().Str("invocation", uuid.NewString()).Str("command", c.Name())

			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				user := command.Invoker(v.Event)
				fields = fields.
					Str("subcommand", command.ParseOptions(v.Event).Subcommand()).
					Str("guild", v.Event.GuildID).
					Str("channel", v.Event.ChannelID).
					Str("user", user.ID).
					Str("username", user.Username)
			case *command.MessageContext:
				fields = fields.
					Str("guild", v.Event.GuildID).
					Str("channel", v.Event.ChannelID).
					Str("user", v.Event.Author.ID)
			}

			logger := fields.Logger()
			start := time.Now()
			err := c.Run(logger.WithContext(ctx), inv)

			var ev *zerolog.Event
			if err != nil {
				ev = logger.Error().Err(err)
			} else {
				ev = logger.Info()
			}
			ev.Dur("took", time.Since(start)).Msg("Command executed")
			return err
		})
	}
}
