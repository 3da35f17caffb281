package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/internal/config"
	"github.com/keshon/jira-bot/internal/discordtest"
	"github.com/keshon/jira-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	name string
	runs int
	ctx  context.Context
}

func (p *probe) Name() string        { return p.name }
func (p *probe) Description() string { return "probe" }
func (p *probe) Run(ctx context.Context, _ interface{}) error {
	p.runs++
	p.ctx = ctx
	return nil
}

func wrap(p *probe, mws ...cmd.Middleware) cmd.Command {
	return cmd.Apply(&command.DiscordAdapter{Cmd: p}, mws...)
}

var testConfig = &config.Config{
	AuthorizedRoleID: "staff",
	DeveloperID:      "dev",
}

func slash(t *testing.T, guildID, userID string, roles []string, sub string) (*command.SlashInteractionContext, *discordtest.Recorder) {
	s, rec := discordtest.NewSession(t)
	return &command.SlashInteractionContext{
		Session: s,
		Event:   discordtest.SlashEvent(guildID, userID, roles, "mod", sub),
		Config:  testConfig,
	}, rec
}

func run(t *testing.T, c cmd.Command, data interface{}) {
	t.Helper()
	require.NoError(t, c.Run(context.Background(), &cmd.Invocation{Data: data}))
}

func TestModeratorRole(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		roles   []string
		allowed bool
	}{
		{"moderator", "U1", []string{"member", "staff"}, true},
		{"developer", "dev", nil, true},
		{"regular member", "U2", []string{"member"}, false},
		{"no roles", "U3", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &probe{name: "mod"}
			data, rec := slash(t, "G1", tt.user, tt.roles, "ban")

			run(t, wrap(p, WithModeratorRole()), data)

			if tt.allowed {
				assert.Equal(t, 1, p.runs)
				assert.Empty(t, rec.Find(http.MethodPost, "/callback"))
				return
			}
			assert.Zero(t, p.runs)
			calls := rec.Find(http.MethodPost, "/callback")
			require.Len(t, calls, 1)
			assert.Contains(t, calls[0].Body, "have permission to use this command")
		})
	}
}

func TestModeratorRoleScopedToSubcommands(t *testing.T) {
	p := &probe{name: "tools"}
	c := wrap(p, WithModeratorRole("review_applicant"))

	data, _ := slash(t, "G1", "U2", []string{"member"}, "report")
	run(t, c, data)
	assert.Equal(t, 1, p.runs)

	data, rec := slash(t, "G1", "U2", []string{"member"}, "review_applicant")
	run(t, c, data)
	assert.Equal(t, 1, p.runs)
	assert.Len(t, rec.Find(http.MethodPost, "/callback"), 1)
}

func TestModeratorRoleWithoutConfiguredRole(t *testing.T) {
	p := &probe{name: "mod"}
	s, _ := discordtest.NewSession(t)
	data := &command.SlashInteractionContext{
		Session: s,
		Event:   discordtest.SlashEvent("G1", "U1", []string{""}, "mod", "ban"),
	}

	run(t, wrap(p, WithModeratorRole()), data)
	assert.Zero(t, p.runs)
}

func TestGuildOnly(t *testing.T) {
	p := &probe{name: "mod"}
	c := wrap(p, WithGuildOnly())

	data, rec := slash(t, "", "U1", nil, "ban")
	run(t, c, data)
	assert.Zero(t, p.runs)
	require.Len(t, rec.Find(http.MethodPost, "/callback"), 1)

	data, _ = slash(t, "G1", "U1", nil, "ban")
	run(t, c, data)
	assert.Equal(t, 1, p.runs)

	dm := &command.MessageContext{Event: &discordgo.MessageCreate{Message: &discordgo.Message{
		Author: &discordgo.User{ID: "U1"},
	}}}
	run(t, c, dm)
	assert.Equal(t, 1, p.runs)
}

func TestCommandLoggerPassesThrough(t *testing.T) {
	p := &probe{name: "mod"}
	data, _ := slash(t, "G1", "U1", []string{"staff"}, "strike")

	run(t, wrap(p, WithCommandLogger()), data)

	assert.Equal(t, 1, p.runs)
	assert.NotNil(t, p.ctx)
}

func TestUnknownPayloadPassesThrough(t *testing.T) {
	p := &probe{name: "mod"}
	c := wrap(p, WithGuildOnly(), WithModeratorRole(), WithCommandLogger())

	run(t, c, "not a discord context")
	assert.Equal(t, 1, p.runs)
}
