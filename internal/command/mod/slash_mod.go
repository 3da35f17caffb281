package mod

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/keshon/jira-bot/internal/bot"
	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/internal/middleware"

	"github.com/bwmarrin/discordgo"
)

type ModCommand struct {
	now func() time.Time
}

func (c *ModCommand) Name() string        { return "mod" }
func (c *ModCommand) Description() string { return "Jira Moderation commands" }

func (c *ModCommand) SlashDefinition() *discordgo.ApplicationCommand {
	member := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: desc, Required: true,
		}
	}
	reason := &discordgo.ApplicationCommandOption{
		Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Why this action is taken",
	}
	silent := &discordgo.ApplicationCommandOption{
		Type: discordgo.ApplicationCommandOptionBoolean, Name: "silent", Description: "Only you see the result (default true)",
	}

	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "ban",
				Description: "Ban a member from the server.",
				Options:     []*discordgo.ApplicationCommandOption{member("Member to ban"), reason, silent},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "pardon",
				Description: "Unban a user from the server.",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to unban", Required: true},
					silent,
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "timeout",
				Description: "Temporarily timeout a member.",
				Options: []*discordgo.ApplicationCommandOption{
					member("Member to time out"),
					{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "e.g. 10m, 2h, 1d", Required: true},
					reason,
					silent,
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "untimeout",
				Description: "Remove timeout from a member.",
				Options:     []*discordgo.ApplicationCommandOption{member("Member to release"), reason, silent},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete_message",
				Description: "Delete a message by its ID.",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "message_id", Description: "ID of the message", Required: true},
					reason,
					{Type: discordgo.ApplicationCommandOptionAttachment, Name: "file", Description: "Screenshot of the message"},
					silent,
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "strike",
				Description: "Give a member a strike.",
				Options:     []*discordgo.ApplicationCommandOption{member("Member to strike"), reason, silent},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "strikes",
				Description: "List a member's active strikes.",
				Options:     []*discordgo.ApplicationCommandOption{member("Member to look up")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "forgive",
				Description: "Clear all strikes of a member.",
				Options:     []*discordgo.ApplicationCommandOption{member("Member to forgive")},
			},
		},
	}
}

var progress = map[string]string{
	"ban":            "Banning member...",
	"pardon":         "Unbanning member...",
	"timeout":        "Timing member out...",
	"untimeout":      "Removing timeout from member...",
	"delete_message": "Deleting message...",
	"strike":         "Issuing strike...",
	"strikes":        "Looking up strikes...",
	"forgive":        "Clearing strikes...",
}

func (c *ModCommand) Run(ctx context.Context, data interface{}) error {
	v, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}

	o := command.ParseOptions(v.Event)
	msg, known := progress[o.Subcommand()]
	if !known {
		return bot.RespondEphemeral(v.Session, v.Event, "Unknown subcommand.")
	}
	if err := bot.RespondEphemeral(v.Session, v.Event, msg); err != nil {
		return err
	}

	r := &run{ctx: ctx, v: v, o: o, now: c.clock()}
	switch o.Subcommand() {
	case "ban":
		return r.ban()
	case "pardon":
		return r.pardon()
	case "timeout":
		return r.timeout()
	case "untimeout":
		return r.untimeout()
	case "delete_message":
		return r.deleteMessage()
	case "strike":
		return r.strike()
	case "strikes":
		return r.listStrikes()
	default:
		return r.forgive()
	}
}

func (c *ModCommand) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// run carries one invocation through a subcommand.
type run struct {
	ctx context.Context
	v   *command.SlashInteractionContext
	o   command.Options
	now time.Time
}

func (r *run) reply(msg string) error {
	return bot.FollowupEphemeral(r.v.Session, r.v.Event, msg)
}

func (r *run) moderator() string {
	return bot.Mention(command.Invoker(r.v.Event).ID)
}

// protected reports whether the target member holds a protected role.
func (r *run) protected(m *discordgo.Member) bool {
	return m != nil && r.v.Config.IsProtected(m.Roles)
}

// finish answers the moderator, optionally posts publicly and copies the
// embed to the log channel.
func (r *run) finish(embed *discordgo.MessageEmbed) error {
	if err := bot.Announce(r.v.Session, r.v.Event, embed, r.o.Bool("silent", true)); err != nil {
		return err
	}
	bot.LogEmbed(r.v.Session, r.v.Config.LogChannelID, embed)
	return nil
}

func (r *run) failed(action string, err error) error {
	if bot.IsForbidden(err) {
		return r.reply(fmt.Sprintf("❌ I don't have permission to %s this user.", action))
	}
	return r.reply(fmt.Sprintf("❌ An unexpected error occurred: %v", err))
}

func validSnowflake(id string) bool {
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}

func init() {
	command.RegisterCommand(
		&ModCommand{},
		middleware.WithModeratorRole(),
		middleware.WithGuildOnly(),
		middleware.WithCommandLogger(),
	)
}
