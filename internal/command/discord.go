package command

import (
	"context"

	"github.com/keshon/jira-bot/internal/config"
	"github.com/keshon/jira-bot/internal/moderation"
	"github.com/keshon/jira-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// Discord-specific contexts (what the runtime passes when executing).

type SlashInteractionContext struct {
	Session    *discordgo.Session
	Event      *discordgo.InteractionCreate
	Config     *config.Config
	Moderation *moderation.Service
}

type MessageContext struct {
	Session *discordgo.Session
	Event   *discordgo.MessageCreate
	Config  *config.Config
}

// Providers describe how a command is exposed on Discord.

type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// MentionProvider marks commands that answer messages mentioning the bot.
type MentionProvider interface {
	OnMention() bool
}

// DiscordCommand is what individual Discord commands implement.
type DiscordCommand interface {
	Name() string
	Description() string
	Run(ctx context.Context, data interface{}) error
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command so it can live in the
// universal registry, and forwards the provider interfaces.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string        { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string { return a.Cmd.Description() }

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	return a.Cmd.Run(ctx, inv.Data)
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := a.Cmd.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

func (a *DiscordAdapter) OnMention() bool {
	mp, ok := a.Cmd.(MentionProvider)
	return ok && mp.OnMention()
}

// RegisterCommand registers a Discord command with the default registry and
// applies middlewares.
func RegisterCommand(discordCmd DiscordCommand, mws ...cmd.Middleware) {
	RegisterCommandIn(cmd.DefaultRegistry, discordCmd, mws...)
}

// RegisterCommandIn is RegisterCommand against an explicit registry.
func RegisterCommandIn(r *cmd.Registry, discordCmd DiscordCommand, mws ...cmd.Middleware) {
	r.MustRegister(cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...))
}
