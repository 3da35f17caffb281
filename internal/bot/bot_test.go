package bot

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/keshon/jira-bot/internal/discordtest"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationEmbed(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e := ModerationEmbed("🔨 User Banned", ColorRed, now,
		Field{"User", Mention("U1")},
		Field{"Reason", Reason("")},
		Field{"Moderator", Mention("M1")},
	)

	assert.Equal(t, "🔨 User Banned", e.Title)
	assert.Equal(t, ColorRed, e.Color)
	assert.Equal(t, "**User:** <@U1>\n**Reason:** No reason provided\n**Moderator:** <@M1>", e.Description)
	assert.Equal(t, "2025-03-01T12:00:00Z", e.Timestamp)

	WithThumbnail(e, &discordgo.User{ID: "U1"})
	require.NotNil(t, e.Thumbnail)
	assert.NotEmpty(t, e.Thumbnail.URL)
}

func TestReason(t *testing.T) {
	assert.Equal(t, NoReason, Reason("   "))
	assert.Equal(t, "spam", Reason("spam"))
}

func TestStatusCode(t *testing.T) {
	restErr := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	wrapped := errors.Join(errors.New("ban"), restErr)

	code, ok := StatusCode(wrapped)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, code)
	assert.True(t, IsForbidden(wrapped))
	assert.False(t, IsNotFound(wrapped))

	_, ok = StatusCode(errors.New("plain"))
	assert.False(t, ok)
}

func TestFindMessage(t *testing.T) {
	s, rec := discordtest.NewSession(t)
	rec.Handle(http.MethodGet, "/guilds/G1/channels", http.StatusOK,
		`[{"id":"c1","type":0},{"id":"c2","type":0},{"id":"voice","type":2}]`)
	rec.Handle(http.MethodGet, "/channels/c1/messages/M1", http.StatusNotFound,
		`{"message":"Unknown Message","code":10008}`)
	rec.Handle(http.MethodGet, "/channels/c2/messages/M1", http.StatusOK,
		`{"id":"M1","channel_id":"c2","author":{"id":"U5"}}`)

	msg, err := FindMessage(context.Background(), s, "G1", "M1")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "c2", msg.ChannelID)
	assert.Equal(t, "U5", msg.Author.ID)
	assert.Empty(t, rec.Find(http.MethodGet, "/channels/voice/"))
}

func TestFindMessageMissing(t *testing.T) {
	s, rec := discordtest.NewSession(t)
	rec.Handle(http.MethodGet, "/guilds/G1/channels", http.StatusOK, `[{"id":"c1","type":0}]`)
	rec.Handle(http.MethodGet, "/channels/c1/messages/M1", http.StatusForbidden,
		`{"message":"Missing Access","code":50001}`)

	msg, err := FindMessage(context.Background(), s, "G1", "M1")
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Len(t, rec.Find(http.MethodGet, "/channels/c1/messages/M1"), 1)
}

func TestFindMessageReportsServerErrors(t *testing.T) {
	s, rec := discordtest.NewSession(t)
	rec.Handle(http.MethodGet, "/guilds/G1/channels", http.StatusOK,
		`[{"id":"c1","type":0},{"id":"c2","type":0}]`)
	rec.Handle(http.MethodGet, "/channels/c1/messages/M1", http.StatusNotFound,
		`{"message":"Unknown Message","code":10008}`)
	rec.Handle(http.MethodGet, "/channels/c2/messages/M1", http.StatusInternalServerError,
		`{"message":"Internal Server Error"}`)

	msg, err := FindMessage(context.Background(), s, "G1", "M1")
	require.Error(t, err)
	assert.Nil(t, msg)
	assert.Contains(t, err.Error(), "channel c2")
	code, ok := StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestNotifyMemberFallsBackOnDMFailure(t *testing.T) {
	s, rec := discordtest.NewSession(t)
	rec.Handle(http.MethodPost, "/channels/dm-channel/messages", http.StatusForbidden,
		`{"message":"Cannot send messages to this user","code":50007}`)

	e := discordtest.SlashEvent("G1", "M1", nil, "mod", "ban")
	ok := NotifyMember(s, e, "U1", &discordgo.MessageEmbed{Title: "x"})

	assert.False(t, ok)
	followups := rec.Find(http.MethodPost, "/webhooks/app-1/interaction-token")
	require.Len(t, followups, 1)
	assert.Contains(t, followups[0].Body, "Couldn't DM")
}

func TestLogEmbed(t *testing.T) {
	s, rec := discordtest.NewSession(t)

	LogEmbed(s, "", &discordgo.MessageEmbed{Title: "skipped"})
	assert.Empty(t, rec.Requests())

	LogEmbed(s, "log-1", &discordgo.MessageEmbed{Title: "sent"})
	calls := rec.Find(http.MethodPost, "/channels/log-1/messages")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Body, "sent")
}
