package middleware

import (
	"context"
	"slices"

	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/pkg/cmd"

	"github.com/rs/zerolog/log"
)

// PermissionDeniedMessage is shown to members lacking the moderator role.
const PermissionDeniedMessage = "❌ You don't have permission to use this command."

// WithModeratorRole lets an invocation through only if the member holds the
// authorized moderator role or is the developer. With subcommands given, the
// check applies to those subcommands alone.
func WithModeratorRole(subcommands ...string) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := slashOf(inv.Data)
			if !ok {
				return c.Run(ctx, inv)
			}

			if len(subcommands) > 0 {
				sub := command.ParseOptions(v.Event).Subcommand()
				if !slices.Contains(subcommands, sub) {
					return c.Run(ctx, inv)
				}
			}

			if IsModerator(v) {
				return c.Run(ctx, inv)
			}

			user := command.Invoker(v.Event)
			log.Info().Str("user", user.ID).Str("command", c.Name()).Msg("Moderator check refused invocation")
			return denied(v.Session, v.Event, PermissionDeniedMessage)
		})
	}
}

// IsModerator reports whether the invoking member may run moderator commands.
func IsModerator(v *command.SlashInteractionContext) bool {
	cfg := configOf(v)
	if cfg.IsDeveloper(command.Invoker(v.Event).ID) {
		return true
	}
	if cfg.AuthorizedRoleID == "" {
		return false
	}
	return slices.Contains(command.InvokerRoles(v.Event), cfg.AuthorizedRoleID)
}
