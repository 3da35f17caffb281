package mod

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/keshon/jira-bot/datastore"
	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/internal/config"
	"github.com/keshon/jira-bot/internal/discordtest"
	"github.com/keshon/jira-bot/internal/moderation"
	"github.com/keshon/jira-bot/internal/strikes"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const followupPath = "/webhooks/app-1/interaction-token"

type fakePlatform struct {
	mu      sync.Mutex
	bans    []string
	revoked []string
}

func (f *fakePlatform) Ban(_ context.Context, _, userID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bans = append(f.bans, userID)
	return nil
}

func (f *fakePlatform) RemoveRoles(_ context.Context, _, userID string, roleIDs []string, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, userID)
	return roleIDs, nil
}

// sessionBanPlatform bans through the recorded session, so the ban shows up
// in the request log next to the DMs.
type sessionBanPlatform struct {
	fakePlatform
	session *discordgo.Session
}

func (p *sessionBanPlatform) Ban(ctx context.Context, guildID, userID, reason string) error {
	return p.session.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx))
}

type ModSuite struct {
	suite.Suite
	now      time.Time
	cfg      *config.Config
	platform *fakePlatform
	service  *moderation.Service
	session  *discordgo.Session
	rec      *discordtest.Recorder
}

func TestModSuite(t *testing.T) {
	suite.Run(t, new(ModSuite))
}

func (s *ModSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.cfg = &config.Config{
		AuthorizedRoleID:     "staff",
		ProtectedRoleIDs:     []string{"admin"},
		LogChannelID:         "log",
		RestrictedMessageIDs: []string{"999"},
	}

	fs, err := datastore.New(filepath.Join(s.T().TempDir(), "strikes.json"))
	s.Require().NoError(err)

	s.platform = &fakePlatform{}
	s.service = moderation.NewService(strikes.NewStore(fs), s.platform, []string{"goober", "artist"},
		moderation.WithClock(func() time.Time { return s.now }))
	s.session, s.rec = discordtest.NewSession(s.T())
}

func userOpt(name, id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionUser, Value: id}
}

func stringOpt(name, v string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: v}
}

// invoke runs a /mod subcommand as moderator M1. members are attached as
// resolved data keyed by user ID.
func (s *ModSuite) invoke(sub string, members map[string]*discordgo.Member, opts ...*discordgo.ApplicationCommandInteractionDataOption) {
	ev := discordtest.SlashEvent("G1", "M1", []string{"staff"}, "mod", sub, opts...)
	if len(members) > 0 {
		data := ev.ApplicationCommandData()
		data.Resolved = &discordgo.ApplicationCommandInteractionDataResolved{
			Users:   map[string]*discordgo.User{},
			Members: members,
		}
		for id := range members {
			data.Resolved.Users[id] = &discordgo.User{ID: id, Username: "user-" + id}
		}
		ev.Data = data
	}

	c := &ModCommand{now: func() time.Time { return s.now }}
	err := c.Run(context.Background(), &command.SlashInteractionContext{
		Session:    s.session,
		Event:      ev,
		Config:     s.cfg,
		Moderation: s.service,
	})
	s.Require().NoError(err)
}

func (s *ModSuite) followups() []string {
	var bodies []string
	for _, r := range s.rec.Find(http.MethodPost, followupPath) {
		bodies = append(bodies, r.Body)
	}
	return bodies
}

func (s *ModSuite) lastFollowup() string {
	f := s.followups()
	s.Require().NotEmpty(f)
	return f[len(f)-1]
}

func (s *ModSuite) TestProgressMessageFirst() {
	s.invoke("forgive", nil, userOpt("member", "U2"))

	calls := s.rec.Find(http.MethodPost, "/callback")
	s.Require().Len(calls, 1)
	s.Contains(calls[0].Body, "Clearing strikes...")
}

func (s *ModSuite) TestBan() {
	s.invoke("ban", map[string]*discordgo.Member{"U2": {Roles: []string{"member"}}},
		userOpt("member", "U2"), stringOpt("reason", "spam"))

	s.Len(s.rec.Find(http.MethodPut, "/guilds/G1/bans/U2"), 1)
	s.Len(s.rec.Find(http.MethodPost, "/channels/dm-channel/messages"), 1)
	logs := s.rec.Find(http.MethodPost, "/channels/log/messages")
	s.Require().Len(logs, 1)
	s.Contains(logs[0].Body, "User Banned")
	s.Contains(logs[0].Body, "spam")
}

func (s *ModSuite) TestBanProtected() {
	s.invoke("ban", map[string]*discordgo.Member{"U2": {Roles: []string{"admin"}}}, userOpt("member", "U2"))

	s.Empty(s.rec.Find(http.MethodPut, "/bans/"))
	s.Contains(s.lastFollowup(), "protected role")
}

func (s *ModSuite) TestBanForbidden() {
	s.rec.Handle(http.MethodPut, "/guilds/G1/bans/U2", http.StatusForbidden, `{"message":"Missing Permissions","code":50013}`)

	s.invoke("ban", map[string]*discordgo.Member{"U2": {}}, userOpt("member", "U2"))

	s.Contains(s.lastFollowup(), "have permission to ban this user")
	s.Empty(s.rec.Find(http.MethodPost, "/channels/log/messages"))
}

func (s *ModSuite) TestPardonNotBanned() {
	s.rec.Handle(http.MethodGet, "/guilds/G1/bans/U2", http.StatusNotFound, `{"message":"Unknown Ban","code":10026}`)

	s.invoke("pardon", nil, userOpt("user", "U2"))

	s.Contains(s.lastFollowup(), "This user is not banned.")
	s.Empty(s.rec.Find(http.MethodDelete, "/bans/U2"))
}

func (s *ModSuite) TestPardon() {
	s.rec.Handle(http.MethodGet, "/guilds/G1/bans/U2", http.StatusOK, `{"reason":"spam","user":{"id":"U2"}}`)

	s.invoke("pardon", nil, userOpt("user", "U2"))

	s.Len(s.rec.Find(http.MethodDelete, "/guilds/G1/bans/U2"), 1)
	logs := s.rec.Find(http.MethodPost, "/channels/log/messages")
	s.Require().Len(logs, 1)
	s.Contains(logs[0].Body, "User Unbanned")
}

func (s *ModSuite) TestTimeout() {
	s.invoke("timeout", map[string]*discordgo.Member{"U2": {}},
		userOpt("member", "U2"), stringOpt("duration", "2h"))

	calls := s.rec.Find(http.MethodPatch, "/guilds/G1/members/U2")
	s.Require().Len(calls, 1)
	s.Contains(calls[0].Body, "2025-06-01T14:00:00Z")
}

func (s *ModSuite) TestTimeoutInvalidDuration() {
	s.invoke("timeout", map[string]*discordgo.Member{"U2": {}},
		userOpt("member", "U2"), stringOpt("duration", "soon"))

	s.Empty(s.rec.Find(http.MethodPatch, "/members/U2"))
	s.Contains(s.lastFollowup(), "Invalid duration format")
}

func (s *ModSuite) TestUntimeoutExpiresNow() {
	s.invoke("untimeout", map[string]*discordgo.Member{"U2": {}}, userOpt("member", "U2"))

	calls := s.rec.Find(http.MethodPatch, "/guilds/G1/members/U2")
	s.Require().Len(calls, 1)
	s.Contains(calls[0].Body, "2025-06-01T12:00:00Z")
}

func (s *ModSuite) TestDeleteRestrictedMessage() {
	s.invoke("delete_message", nil, stringOpt("message_id", "999"))

	s.Contains(s.lastFollowup(), "restricted and cannot be deleted")
	s.Empty(s.rec.Find(http.MethodGet, "/channels"))
}

func (s *ModSuite) TestDeleteMessage() {
	s.rec.Handle(http.MethodGet, "/guilds/G1/channels", http.StatusOK, `[{"id":"c1","type":0}]`)
	s.rec.Handle(http.MethodGet, "/channels/c1/messages/123", http.StatusOK,
		`{"id":"123","channel_id":"c1","author":{"id":"U5"}}`)

	s.invoke("delete_message", nil, stringOpt("message_id", "123"))

	s.Len(s.rec.Find(http.MethodDelete, "/channels/c1/messages/123"), 1)
	logs := s.rec.Find(http.MethodPost, "/channels/log/messages")
	s.Require().Len(logs, 1)
	s.Contains(logs[0].Body, "Message Deleted")
}

func (s *ModSuite) TestDeleteMessageFromProtectedAuthor() {
	s.rec.Handle(http.MethodGet, "/guilds/G1/channels", http.StatusOK, `[{"id":"c1","type":0}]`)
	s.rec.Handle(http.MethodGet, "/channels/c1/messages/123", http.StatusOK,
		`{"id":"123","channel_id":"c1","author":{"id":"U5"}}`)
	s.rec.Handle(http.MethodGet, "/guilds/G1/members/U5", http.StatusOK, `{"user":{"id":"U5"},"roles":["admin"]}`)

	s.invoke("delete_message", nil, stringOpt("message_id", "123"))

	s.Empty(s.rec.Find(http.MethodDelete, "/messages/123"))
	s.Contains(s.lastFollowup(), "Cannot delete messages from protected users.")
}

func (s *ModSuite) TestStrikeEscalation() {
	member := map[string]*discordgo.Member{"U2": {}}

	s.invoke("strike", member, userOpt("member", "U2"))
	s.Empty(s.platform.revoked)

	s.invoke("strike", member, userOpt("member", "U2"))
	s.Equal([]string{"U2"}, s.platform.revoked)

	s.invoke("strike", member, userOpt("member", "U2"))
	s.invoke("strike", member, userOpt("member", "U2"))
	s.Equal([]string{"U2"}, s.platform.bans)

	logs := s.rec.Find(http.MethodPost, "/channels/log/messages")
	s.Require().Len(logs, 4)
	s.Contains(logs[3].Body, "Banned")
}

func (s *ModSuite) TestBanningStrikeNotifiesBeforeBan() {
	s.service = moderation.NewService(s.service.Ledger(), &sessionBanPlatform{session: s.session}, nil,
		moderation.WithClock(func() time.Time { return s.now }))
	member := map[string]*discordgo.Member{"U2": {}}
	for range strikes.BanThreshold {
		s.invoke("strike", member, userOpt("member", "U2"))
	}

	banAt, lastDM, dms := -1, -1, 0
	for i, req := range s.rec.Requests() {
		switch {
		case req.Method == http.MethodPut && strings.HasSuffix(req.Path, "/guilds/G1/bans/U2"):
			banAt = i
		case req.Method == http.MethodPost && strings.HasSuffix(req.Path, "/channels/dm-channel/messages"):
			lastDM = i
			dms++
		}
	}
	s.Require().NotEqual(-1, banAt)
	s.Equal(int(strikes.BanThreshold), dms)
	s.Less(lastDM, banAt)

	logs := s.rec.Find(http.MethodPost, "/channels/log/messages")
	s.Require().NotEmpty(logs)
	s.Contains(logs[len(logs)-1].Body, "Banned")
}

func (s *ModSuite) TestStrikesAndForgive() {
	s.invoke("strikes", nil, userOpt("member", "U2"))
	s.Contains(s.lastFollowup(), "has no active strikes")

	s.invoke("strike", map[string]*discordgo.Member{"U2": {}}, userOpt("member", "U2"))
	s.invoke("strikes", nil, userOpt("member", "U2"))
	s.Contains(s.lastFollowup(), "Active Strikes")

	s.invoke("forgive", nil, userOpt("member", "U2"))
	s.Contains(s.lastFollowup(), "Cleared 1 strike(s)")

	records, err := s.service.ActiveStrikes(context.Background(), "G1", "U2")
	s.Require().NoError(err)
	s.Empty(records)
}

func TestDescribeAction(t *testing.T) {
	assert.Equal(t, "None", describeAction(strikes.ActionNone))
	assert.Equal(t, "Tier 2 roles revoked", describeAction(strikes.ActionRevokeTier2Roles))
	assert.Equal(t, "Banned", describeAction(strikes.ActionBan))
}

func TestStrikeEmbedListsRemovedRoles(t *testing.T) {
	e := strikeEmbed(&discordgo.User{ID: "U2"}, "spam",
		moderation.Outcome{Count: 2, Action: strikes.ActionRevokeTier2Roles, RemovedRoles: []string{"R1"}},
		"<@M1>", time.Unix(0, 0))

	require.NotNil(t, e.Thumbnail)
	assert.Contains(t, e.Description, "**Active strikes:** 2")
	assert.Contains(t, e.Description, "Tier 2 roles revoked (<@&R1>)")
}

func TestValidSnowflake(t *testing.T) {
	assert.True(t, validSnowflake("1234567890"))
	assert.False(t, validSnowflake("abc"))
	assert.False(t, validSnowflake(""))
}
