package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// DirectMessageEmbed sends an embed to a user's DM channel.
func DirectMessageEmbed(s *discordgo.Session, userID string, embed *discordgo.MessageEmbed) error {
	ch, err := s.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open DM channel: %w", err)
	}
	return MessageEmbed(s, ch.ID, embed)
}

// DirectMessage sends plain text to a user's DM channel.
func DirectMessage(s *discordgo.Session, userID, content string) error {
	ch, err := s.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open DM channel: %w", err)
	}
	return Message(s, ch.ID, content)
}

// NotifyMember DMs the embed to a member and, if that fails, tells the
// invoking moderator ephemerally. A failed DM is never fatal.
func NotifyMember(s *discordgo.Session, i *discordgo.InteractionCreate, userID string, embed *discordgo.MessageEmbed) bool {
	if err := DirectMessageEmbed(s, userID, embed); err != nil {
		log.Debug().Err(err).Str("user", userID).Msg("DM failed")
		_ = FollowupEphemeral(s, i, DMFailedMessage(userID))
		return false
	}
	return true
}

func DMFailedMessage(userID string) string {
	return fmt.Sprintf("Couldn't DM %s. They might have DMs disabled.", Mention(userID))
}

// LogEmbed copies an embed to a configured channel. A missing channel or a
// failed send is logged and otherwise ignored.
func LogEmbed(s *discordgo.Session, channelID string, embed *discordgo.MessageEmbed) {
	if channelID == "" {
		log.Warn().Str("embed", embed.Title).Msg("Log channel not configured")
		return
	}
	if err := MessageEmbed(s, channelID, embed); err != nil {
		log.Warn().Err(err).Str("channel", channelID).Msg("Log channel with configured ID not reachable")
	}
}
