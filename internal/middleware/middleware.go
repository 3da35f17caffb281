package middleware

import (
	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// slashOf extracts the slash interaction from an invocation payload.
func slashOf(data interface{}) (*command.SlashInteractionContext, bool) {
	v, ok := data.(*command.SlashInteractionContext)
	if !ok || v.Event == nil {
		return nil, false
	}
	return v, true
}

// denied answers an interaction with an ephemeral refusal.
func denied(s *discordgo.Session, e *discordgo.InteractionCreate, msg string) error {
	return s.InteractionRespond(e.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func configOf(v *command.SlashInteractionContext) *config.Config {
	if v.Config == nil {
		return &config.Config{}
	}
	return v.Config
}
