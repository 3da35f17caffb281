package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	ColorRed        = 0xe74c3c
	ColorGreen      = 0x2ecc71
	ColorOrange     = 0xe67e22
	ColorDarkOrange = 0xa84300
	ColorBlue       = 0x3498db
	ColorPurple     = 0x9b59b6
)

const NoReason = "No reason provided"

// Field is one "**Label:** value" line of a moderation embed.
type Field struct {
	Label string
	Value string
}

// ModerationEmbed builds the embed used for every moderation notice: one
// bold-labelled line per field and a timestamp.
func ModerationEmbed(title string, color int, now time.Time, fields ...Field) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("**%s:** %s", f.Label, f.Value))
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: strings.Join(lines, "\n"),
		Color:       color,
		Timestamp:   now.UTC().Format(time.RFC3339),
	}
}

// WithThumbnail sets the embed thumbnail to a user's avatar.
func WithThumbnail(e *discordgo.MessageEmbed, u *discordgo.User) *discordgo.MessageEmbed {
	if u != nil {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: u.AvatarURL("")}
	}
	return e
}

func Mention(userID string) string {
	return "<@" + userID + ">"
}

func ChannelMention(channelID string) string {
	return "<#" + channelID + ">"
}

// Reason substitutes NoReason for an empty reason.
func Reason(r string) string {
	if strings.TrimSpace(r) == "" {
		return NoReason
	}
	return r
}

// ErrorEmbed is the generic reply when a command fails unexpectedly.
func ErrorEmbed(err error) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: fmt.Sprintf("❌ An unexpected error occurred: %v", err),
		Color:       ColorRed,
	}
}
