package mod

import (
	"strings"

	"github.com/keshon/jira-bot/internal/bot"
	"github.com/keshon/jira-bot/internal/moderation"

	"github.com/bwmarrin/discordgo"
)

func (r *run) ban() error {
	target := r.o.User("member")
	if r.protected(r.o.Member("member")) {
		return r.reply("❌ You cannot ban this user because they have a protected role.")
	}

	reason := bot.Reason(r.o.String("reason", ""))
	embed := banEmbed(target, reason, r.moderator(), r.now)

	// The member can only be reached while still sharing the guild.
	bot.NotifyMember(r.v.Session, r.v.Event, target.ID, embed)

	if err := r.v.Session.GuildBanCreateWithReason(r.v.Event.GuildID, target.ID, reason, 0, discordgo.WithContext(r.ctx)); err != nil {
		return r.failed("ban", err)
	}
	return r.finish(embed)
}

func (r *run) pardon() error {
	target := r.o.User("user")
	s, guildID := r.v.Session, r.v.Event.GuildID

	if _, err := s.GuildBan(guildID, target.ID, discordgo.WithContext(r.ctx)); err != nil {
		if bot.IsNotFound(err) {
			return r.reply("⚠️ This user is not banned.")
		}
		return r.failed("unban", err)
	}

	if err := s.GuildBanDelete(guildID, target.ID, discordgo.WithContext(r.ctx)); err != nil {
		return r.failed("unban", err)
	}
	return r.finish(pardonEmbed(target, r.moderator(), r.now))
}

func (r *run) timeout() error {
	target := r.o.User("member")
	if r.protected(r.o.Member("member")) {
		return r.reply("❌ You cannot timeout this user because they have a protected role.")
	}

	raw := r.o.String("duration", "")
	d, err := moderation.ParseDuration(raw)
	if err != nil {
		return r.reply("❌ Invalid duration format. Use something like `10m`, `2h`, `1d`.")
	}

	reason := bot.Reason(r.o.String("reason", ""))
	until := r.now.Add(d)
	if err := r.v.Session.GuildMemberTimeout(r.v.Event.GuildID, target.ID, &until, discordgo.WithContext(r.ctx), discordgo.WithAuditLogReason(reason)); err != nil {
		return r.failed("timeout", err)
	}

	embed := timeoutEmbed(target, raw, reason, r.moderator(), r.now)
	bot.NotifyMember(r.v.Session, r.v.Event, target.ID, embed)
	return r.finish(embed)
}

// untimeout sets the timeout to expire now rather than clearing the field.
func (r *run) untimeout() error {
	target := r.o.User("member")
	if r.protected(r.o.Member("member")) {
		return r.reply("❌ You cannot timeout this user because they have a protected role.")
	}

	reason := bot.Reason(r.o.String("reason", ""))
	until := r.now
	if err := r.v.Session.GuildMemberTimeout(r.v.Event.GuildID, target.ID, &until, discordgo.WithContext(r.ctx), discordgo.WithAuditLogReason(reason)); err != nil {
		return r.failed("timeout", err)
	}

	embed := untimeoutEmbed(target, reason, r.moderator(), r.now)
	bot.NotifyMember(r.v.Session, r.v.Event, target.ID, embed)
	return r.finish(embed)
}

func (r *run) deleteMessage() error {
	s, guildID := r.v.Session, r.v.Event.GuildID
	messageID := strings.TrimSpace(r.o.String("message_id", ""))

	if r.v.Config.IsRestrictedMessage(messageID) {
		return r.reply("🚫 This message is restricted and cannot be deleted.")
	}
	if !validSnowflake(messageID) {
		return r.reply("❌ Invalid message ID.")
	}

	msg, err := bot.FindMessage(r.ctx, s, guildID, messageID)
	if err != nil {
		return r.failed("delete messages for", err)
	}
	if msg == nil {
		return r.reply("❌ Message not found in any accessible text channel.")
	}

	author := msg.Author
	if author == nil {
		author = &discordgo.User{ID: "unknown"}
	}
	if r.protected(r.authorMember(msg)) {
		return r.reply("🚫 Cannot delete messages from protected users.")
	}

	if err := s.ChannelMessageDelete(msg.ChannelID, msg.ID, discordgo.WithContext(r.ctx)); err != nil {
		return r.failed("delete messages for", err)
	}

	embed := deletedEmbed(messageID, msg.ChannelID, author, bot.Reason(r.o.String("reason", "")), r.moderator(), r.now)
	if att := r.o.Attachment("file"); att != nil && strings.HasPrefix(att.ContentType, "image/") {
		embed.Image = &discordgo.MessageEmbedImage{URL: att.URL}
	}

	if err := r.finish(embed); err != nil {
		return err
	}
	bot.NotifyMember(s, r.v.Event, author.ID, embed)
	return nil
}

// authorMember returns the guild member behind a message, fetching it when
// the message came without member data. Nil if the author left.
func (r *run) authorMember(msg *discordgo.Message) *discordgo.Member {
	if msg.Member != nil {
		return msg.Member
	}
	if msg.Author == nil {
		return nil
	}
	m, err := r.v.Session.GuildMember(r.v.Event.GuildID, msg.Author.ID, discordgo.WithContext(r.ctx))
	if err != nil {
		return nil
	}
	return m
}
