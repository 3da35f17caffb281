package secret

import (
	"context"
	"slices"

	"github.com/keshon/jira-bot/internal/bot"
	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/internal/middleware"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// SecretCommand lets holders of the secret role speak through the bot.
type SecretCommand struct{}

func (c *SecretCommand) Name() string        { return "secret" }
func (c *SecretCommand) Description() string { return "Secret commands" }

func (c *SecretCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "acrylic",
				Description: "Say something as the bot.",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "string", Description: "What to say", Required: true},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "DM this member instead"},
				},
			},
		},
	}
}

func (c *SecretCommand) Run(ctx context.Context, data interface{}) error {
	v, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}

	roleID := v.Config.SecretRoleID
	if roleID == "" || !slices.Contains(command.InvokerRoles(v.Event), roleID) {
		return bot.RespondEphemeral(v.Session, v.Event, middleware.PermissionDeniedMessage)
	}
	if err := bot.RespondDeferredEphemeral(v.Session, v.Event); err != nil {
		return err
	}

	o := command.ParseOptions(v.Event)
	text := o.String("string", "")

	if target := o.User("member"); target != nil {
		if err := bot.DirectMessage(v.Session, target.ID, text); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("target", target.ID).Msg("Secret DM failed")
			return bot.FollowupEphemeral(v.Session, v.Event, "⚠️ Couldn't DM "+bot.Mention(target.ID)+".")
		}
	} else if err := bot.Message(v.Session, v.Event.ChannelID, text); err != nil {
		return err
	}

	return bot.FollowupEphemeral(v.Session, v.Event, "✅ Message sent if possible.")
}

func init() {
	command.RegisterCommand(
		&SecretCommand{},
		middleware.WithGuildOnly(),
		middleware.WithCommandLogger(),
	)
}
