package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/keshon/jira-bot/internal/bot"
	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/internal/middleware"
	"github.com/keshon/jira-bot/internal/strikes"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const gooberEmoji = "<:Goober:1398408007070777425>"

const (
	reportHint        = " If you are seeing this, please report this to staff via `/tools report`."
	gooberRoleMissing = "⚠️ Role not found. Check the GOOBER_ROLE_ID." + reportHint
	artistRoleMissing = "Role not found. Check the ARTIST_ROLE_ID." + reportHint
)

type ToolsCommand struct {
	now func() time.Time
}

func (c *ToolsCommand) Name() string        { return "tools" }
func (c *ToolsCommand) Description() string { return "Member tools" }

func (c *ToolsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "report",
				Description: "Report a member or message to staff.",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "What happened", Required: true},
					{Type: discordgo.ApplicationCommandOptionAttachment, Name: "file", Description: "Screenshot as evidence"},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Member being reported"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "goober",
				Description: "Claim the Goober role once you have been here long enough.",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "artist",
				Description: "Apply for the Artist role.",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionAttachment, Name: "file", Description: "An example of your art", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "review_applicant",
				Description: "Accept or deny an Artist application.",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "accepted", Description: "Accept the application", Required: true},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Applicant", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "message_id", Description: "ID of the application message", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason shown to the applicant"},
				},
			},
		},
	}
}

func (c *ToolsCommand) Run(ctx context.Context, data interface{}) error {
	v, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}

	if err := bot.RespondDeferredEphemeral(v.Session, v.Event); err != nil {
		return err
	}

	now := time.Now()
	if c.now != nil {
		now = c.now()
	}
	t := &toolRun{ctx: ctx, v: v, o: command.ParseOptions(v.Event), now: now}

	switch t.o.Subcommand() {
	case "report":
		return t.report()
	case "goober":
		return t.goober()
	case "artist":
		return t.artist()
	case "review_applicant":
		return t.review()
	default:
		return t.reply("Unknown subcommand.")
	}
}

type toolRun struct {
	ctx context.Context
	v   *command.SlashInteractionContext
	o   command.Options
	now time.Time
}

func (t *toolRun) reply(msg string) error {
	return bot.FollowupEphemeral(t.v.Session, t.v.Event, msg)
}

func (t *toolRun) invoker() *discordgo.User {
	return command.Invoker(t.v.Event)
}

func (t *toolRun) hasRole(roleID string) bool {
	return roleID != "" && slices.Contains(command.InvokerRoles(t.v.Event), roleID)
}

func isImage(a *discordgo.MessageAttachment) bool {
	return a != nil && strings.HasPrefix(a.ContentType, "image/")
}

func (t *toolRun) report() error {
	file := t.o.Attachment("file")
	if file != nil && !isImage(file) {
		return t.reply("Please upload a valid image file (PNG, JPEG, etc.)")
	}

	reporter := t.invoker()
	reported := "None provided"
	if u := t.o.User("member"); u != nil {
		reported = bot.Mention(u.ID)
	}

	full := bot.ModerationEmbed("⛔ New Report", bot.ColorRed, t.now,
		bot.Field{Label: "Reported By", Value: bot.Mention(reporter.ID)},
		bot.Field{Label: "Reported User", Value: reported},
		bot.Field{Label: "Reason", Value: t.o.String("reason", "")},
	)
	if file != nil {
		full.Image = &discordgo.MessageEmbedImage{URL: file.URL}
	}
	if err := bot.MessageEmbed(t.v.Session, t.v.Config.ReportsChannelID, full); err != nil {
		zerolog.Ctx(t.ctx).Error().Err(err).Msg("Failed to post report")
		return t.reply("❌ Could not deliver your report. Please contact a moderator directly.")
	}

	short := bot.WithThumbnail(bot.ModerationEmbed("⛔ New Report", bot.ColorRed, t.now,
		bot.Field{Label: "Reported By", Value: bot.Mention(reporter.ID)},
	), reporter)
	bot.LogEmbed(t.v.Session, t.v.Config.LogChannelID, short)

	return t.reply("✅ Your report has been sent to staff.")
}

func (t *toolRun) goober() error {
	member := t.v.Event.Member
	if member == nil || member.JoinedAt.IsZero() {
		return t.reply("⚠️ Couldn't determine when you joined the server. Please try again later.")
	}

	d, err := t.v.Moderation.Goober(t.ctx, t.v.Event.GuildID, t.invoker().ID, member.JoinedAt)
	if err != nil {
		if errors.Is(err, strikes.ErrStorageUnavailable) {
			return t.reply("⚠️ The strike ledger is unavailable right now. Please try again later.")
		}
		return err
	}

	switch {
	case d.Eligible:
		if t.v.Config.GooberRoleID == "" {
			return t.reply(gooberRoleMissing)
		}
		if t.hasRole(t.v.Config.GooberRoleID) {
			return t.reply("❌ You already have Goober role.")
		}
		if err := t.v.Session.GuildMemberRoleAdd(t.v.Event.GuildID, t.invoker().ID, t.v.Config.GooberRoleID,
			discordgo.WithContext(t.ctx), discordgo.WithAuditLogReason("Met 3-day server tenure requirement")); err != nil {
			switch {
			case bot.IsNotFound(err):
				return t.reply(gooberRoleMissing)
			case bot.IsForbidden(err):
				return t.reply(fmt.Sprintf("Failed to assign role to %s. Check my permissions."+reportHint, bot.Mention(t.invoker().ID)))
			}
			return err
		}
		bot.LogEmbed(t.v.Session, t.v.Config.LogChannelID, bot.WithThumbnail(
			bot.ModerationEmbed(gooberEmoji+" User Promoted to Goober", bot.ColorDarkOrange, t.now,
				bot.Field{Label: "User", Value: bot.Mention(t.invoker().ID)},
			), t.invoker()))
		return t.reply(fmt.Sprintf("✅ You have been in the server for %d days and as such have been promoted to Goober role.", d.TenureDays))
	case d.Struck:
		return t.reply(fmt.Sprintf("❌ You have %d active strikes and cannot be promoted to Goober right now.", d.ActiveStrikes))
	default:
		return t.reply(fmt.Sprintf("❌ You have only been in the server for %d days.\nYou need **%d more hours** to qualify.", d.TenureDays, d.HoursLeft))
	}
}

func (t *toolRun) artist() error {
	cfg := t.v.Config
	if !t.hasRole(cfg.GooberRoleID) {
		return t.reply("❌ You must have Goober role to use this command.")
	}
	if t.hasRole(cfg.ArtistRoleID) {
		return t.reply("❌ You already have Artist role.")
	}
	file := t.o.Attachment("file")
	if !isImage(file) {
		return t.reply("Please upload a valid image file (PNG, JPEG, etc.)")
	}

	user := t.invoker()
	application := &discordgo.MessageEmbed{
		Title:       "🖌️ New Application",
		Description: "Uploaded by " + bot.Mention(user.ID),
		Color:       bot.ColorBlue,
		Image:       &discordgo.MessageEmbedImage{URL: file.URL},
		Timestamp:   t.now.UTC().Format(time.RFC3339),
	}
	if err := bot.MessageEmbed(t.v.Session, cfg.ApplyChannelID, application); err != nil {
		zerolog.Ctx(t.ctx).Error().Err(err).Msg("Failed to post artist application")
		return t.reply("❌ Could not submit your application. Please try again later.")
	}

	bot.LogEmbed(t.v.Session, cfg.LogChannelID, bot.WithThumbnail(
		bot.ModerationEmbed("🖌️ New Artist Application", bot.ColorPurple, t.now,
			bot.Field{Label: "User", Value: bot.Mention(user.ID)},
		), user))
	return t.reply("✅ Your application for Artist role has been sent.")
}

func (t *toolRun) review() error {
	s, cfg := t.v.Session, t.v.Config
	applicant := t.o.User("member")
	accepted := t.o.Bool("accepted", false)
	reason := t.o.String("reason", "No reason provided.")

	messageID := strings.TrimSpace(t.o.String("message_id", ""))
	if _, err := strconv.ParseUint(messageID, 10, 64); err != nil {
		return t.reply("Invalid message ID format.")
	}

	if _, err := s.ChannelMessage(cfg.ApplyChannelID, messageID, discordgo.WithContext(t.ctx)); err != nil {
		if bot.IsNotFound(err) {
			return t.reply("Message not found in the application channel.")
		}
		if bot.IsForbidden(err) {
			return t.reply("I don't have permission to delete that message.")
		}
		return err
	}
	if err := s.ChannelMessageDelete(cfg.ApplyChannelID, messageID, discordgo.WithContext(t.ctx)); err != nil {
		if bot.IsForbidden(err) {
			return t.reply("I don't have permission to delete that message.")
		}
		return err
	}

	title, color := "❌ Artist Application Denied", bot.ColorRed
	if accepted {
		title, color = "✅ Artist Application Accepted", bot.ColorGreen
	}
	embed := bot.WithThumbnail(bot.ModerationEmbed(title, color, t.now,
		bot.Field{Label: "User", Value: bot.Mention(applicant.ID)},
		bot.Field{Label: "Reason", Value: reason},
		bot.Field{Label: "Moderator", Value: bot.Mention(t.invoker().ID)},
	), applicant)

	bot.LogEmbed(s, cfg.LogChannelID, embed)
	bot.NotifyMember(s, t.v.Event, applicant.ID, embed)

	outcome := "denied"
	if accepted {
		if cfg.ArtistRoleID == "" {
			return t.reply(artistRoleMissing)
		}
		if err := s.GuildMemberRoleAdd(t.v.Event.GuildID, applicant.ID, cfg.ArtistRoleID,
			discordgo.WithContext(t.ctx), discordgo.WithAuditLogReason(
				fmt.Sprintf("Accepted by %s - %s", t.invoker().Username, reason))); err != nil {
			switch {
			case bot.IsNotFound(err):
				return t.reply(artistRoleMissing)
			case bot.IsForbidden(err):
				return t.reply(fmt.Sprintf("Couldn't assign role to %s. Check my permissions."+reportHint, bot.Mention(applicant.ID)))
			}
			return err
		}
		outcome = "accepted and given the role"
	}
	return t.reply(fmt.Sprintf("%s has been %s and notified via DM (If possible).", bot.Mention(applicant.ID), outcome))
}

func init() {
	command.RegisterCommand(
		&ToolsCommand{},
		middleware.WithModeratorRole("review_applicant"),
		middleware.WithGuildOnly(),
		middleware.WithCommandLogger(),
	)
}
