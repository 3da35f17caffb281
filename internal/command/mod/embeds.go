package mod

import (
	"fmt"
	"strings"
	"time"

	"github.com/keshon/jira-bot/internal/bot"
	"github.com/keshon/jira-bot/internal/moderation"

	"github.com/bwmarrin/discordgo"
)

func banEmbed(target *discordgo.User, reason, moderator string, now time.Time) *discordgo.MessageEmbed {
	return bot.WithThumbnail(bot.ModerationEmbed("🔨 User Banned", bot.ColorRed, now,
		bot.Field{Label: "User", Value: bot.Mention(target.ID)},
		bot.Field{Label: "Reason", Value: reason},
		bot.Field{Label: "Moderator", Value: moderator},
	), target)
}

func pardonEmbed(target *discordgo.User, moderator string, now time.Time) *discordgo.MessageEmbed {
	return bot.WithThumbnail(bot.ModerationEmbed("🕊️ User Unbanned", bot.ColorGreen, now,
		bot.Field{Label: "User", Value: bot.Mention(target.ID)},
		bot.Field{Label: "Moderator", Value: moderator},
	), target)
}

func timeoutEmbed(target *discordgo.User, duration, reason, moderator string, now time.Time) *discordgo.MessageEmbed {
	return bot.WithThumbnail(bot.ModerationEmbed("⏳ User Timed Out", bot.ColorOrange, now,
		bot.Field{Label: "User", Value: bot.Mention(target.ID)},
		bot.Field{Label: "Duration", Value: duration},
		bot.Field{Label: "Reason", Value: reason},
		bot.Field{Label: "Moderator", Value: moderator},
	), target)
}

func untimeoutEmbed(target *discordgo.User, reason, moderator string, now time.Time) *discordgo.MessageEmbed {
	return bot.WithThumbnail(bot.ModerationEmbed("⏳ User Untimed Out", bot.ColorOrange, now,
		bot.Field{Label: "User", Value: bot.Mention(target.ID)},
		bot.Field{Label: "Reason", Value: reason},
		bot.Field{Label: "Moderator", Value: moderator},
	), target)
}

func deletedEmbed(messageID, channelID string, author *discordgo.User, reason, moderator string, now time.Time) *discordgo.MessageEmbed {
	return bot.ModerationEmbed("🗑️ Message Deleted", bot.ColorRed, now,
		bot.Field{Label: "Message ID", Value: "`" + messageID + "`"},
		bot.Field{Label: "Channel", Value: bot.ChannelMention(channelID)},
		bot.Field{Label: "Author", Value: bot.Mention(author.ID)},
		bot.Field{Label: "Reason", Value: reason},
		bot.Field{Label: "Moderator", Value: moderator},
	)
}

func strikeEmbed(target *discordgo.User, reason string, out moderation.Outcome, moderator string, now time.Time) *discordgo.MessageEmbed {
	escalation := describeAction(out.Action)
	if len(out.RemovedRoles) > 0 {
		roles := make([]string, len(out.RemovedRoles))
		for i, id := range out.RemovedRoles {
			roles[i] = "<@&" + id + ">"
		}
		escalation += " (" + strings.Join(roles, ", ") + ")"
	}

	return bot.WithThumbnail(bot.ModerationEmbed("⚠️ Strike Issued", bot.ColorOrange, now,
		bot.Field{Label: "User", Value: bot.Mention(target.ID)},
		bot.Field{Label: "Reason", Value: reason},
		bot.Field{Label: "Active strikes", Value: fmt.Sprint(out.Count)},
		bot.Field{Label: "Escalation", Value: escalation},
		bot.Field{Label: "Moderator", Value: moderator},
	), target)
}
