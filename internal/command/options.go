package command

import (
	"github.com/bwmarrin/discordgo"
)

// Options gives typed access to the options of a slash command, or of its
// subcommand when one was invoked.
type Options struct {
	sub      string
	byName   map[string]*discordgo.ApplicationCommandInteractionDataOption
	resolved *discordgo.ApplicationCommandInteractionDataResolved
}

func ParseOptions(e *discordgo.InteractionCreate) Options {
	data := e.ApplicationCommandData()
	opts := data.Options

	o := Options{
		byName:   make(map[string]*discordgo.ApplicationCommandInteractionDataOption),
		resolved: data.Resolved,
	}
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		o.sub = opts[0].Name
		opts = opts[0].Options
	}
	for _, opt := range opts {
		o.byName[opt.Name] = opt
	}
	return o
}

// Subcommand returns the invoked subcommand name, or "".
func (o Options) Subcommand() string { return o.sub }

func (o Options) Has(name string) bool {
	_, ok := o.byName[name]
	return ok
}

func (o Options) String(name, def string) string {
	opt, ok := o.byName[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return def
	}
	return opt.StringValue()
}

func (o Options) Bool(name string, def bool) bool {
	opt, ok := o.byName[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionBoolean {
		return def
	}
	return opt.BoolValue()
}

// UserID returns the ID picked for a user option, or "".
func (o Options) UserID(name string) string {
	opt, ok := o.byName[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionUser {
		return ""
	}
	id, _ := opt.Value.(string)
	return id
}

// User returns the resolved user for a user option. When Discord sent no
// resolved data, only the ID is filled in.
func (o Options) User(name string) *discordgo.User {
	id := o.UserID(name)
	if id == "" {
		return nil
	}
	if o.resolved != nil {
		if u, ok := o.resolved.Users[id]; ok {
			return u
		}
	}
	return &discordgo.User{ID: id}
}

// Member returns the resolved guild member for a user option, or nil if the
// user is not in the guild.
func (o Options) Member(name string) *discordgo.Member {
	id := o.UserID(name)
	if id == "" || o.resolved == nil {
		return nil
	}
	m, ok := o.resolved.Members[id]
	if !ok {
		return nil
	}
	if m.User == nil {
		m.User = o.User(name)
	}
	return m
}

func (o Options) Attachment(name string) *discordgo.MessageAttachment {
	opt, ok := o.byName[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionAttachment || o.resolved == nil {
		return nil
	}
	id, _ := opt.Value.(string)
	return o.resolved.Attachments[id]
}

// Invoker returns the user who triggered the interaction.
func Invoker(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	if e.User != nil {
		return e.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}

// InvokerRoles returns the invoking member's role IDs; empty outside guilds.
func InvokerRoles(e *discordgo.InteractionCreate) []string {
	if e.Member == nil {
		return nil
	}
	return e.Member.Roles
}
