// Package discordtest provides a discordgo session whose REST calls are
// answered in-process, so handlers can be exercised without the network.
package discordtest

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// Request is one REST call the session made.
type Request struct {
	Method string
	Path   string
	Body   string
}

type route struct {
	method string
	suffix string
	status int
	body   string
}

// Recorder answers REST calls from registered routes and remembers them.
// Unmatched calls get 200 with an empty JSON object.
type Recorder struct {
	mu       sync.Mutex
	routes   []route
	requests []Request
}

// Handle answers method requests whose path ends with suffix.
func (r *Recorder) Handle(method, suffix string, status int, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append([]route{{method, suffix, status, body}}, r.routes...)
}

func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.requests...)
}

// Find returns recorded requests whose path contains fragment.
func (r *Recorder) Find(method, fragment string) []Request {
	var out []Request
	for _, req := range r.Requests() {
		if req.Method == method && strings.Contains(req.Path, fragment) {
			out = append(out, req)
		}
	}
	return out
}

func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}

	r.mu.Lock()
	r.requests = append(r.requests, Request{Method: req.Method, Path: req.URL.Path, Body: string(body)})
	status, payload := http.StatusOK, "{}"
	for _, rt := range r.routes {
		if rt.method == req.Method && strings.HasSuffix(req.URL.Path, rt.suffix) {
			status, payload = rt.status, rt.body
			break
		}
	}
	r.mu.Unlock()

	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(payload)),
		Request:    req,
	}, nil
}

// NewSession returns a session wired to a fresh Recorder. The DM channel
// endpoint answers with channel "dm-channel".
func NewSession(t testing.TB) (*discordgo.Session, *Recorder) {
	t.Helper()

	s, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("discordgo.New: %v", err)
	}
	rec := &Recorder{}
	rec.Handle(http.MethodPost, "/users/@me/channels", http.StatusOK, `{"id":"dm-channel","type":1}`)

	s.Client = &http.Client{Transport: rec}
	s.MaxRestRetries = 0
	return s, rec
}

// SlashEvent builds a guild slash-command interaction for command name, with
// the first option treated as a subcommand when sub is non-empty.
func SlashEvent(guildID, userID string, roles []string, name, sub string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	data := discordgo.ApplicationCommandInteractionData{Name: name, Options: opts}
	if sub != "" {
		data.Options = []*discordgo.ApplicationCommandInteractionDataOption{{
			Name:    sub,
			Type:    discordgo.ApplicationCommandOptionSubCommand,
			Options: opts,
		}}
	}

	in := &discordgo.Interaction{
		ID:        "interaction-1",
		AppID:     "app-1",
		Token:     "interaction-token",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guildID,
		ChannelID: "channel-1",
		Data:      data,
	}
	if guildID != "" {
		in.Member = &discordgo.Member{User: &discordgo.User{ID: userID, Username: "user-" + userID}, Roles: roles}
	} else {
		in.User = &discordgo.User{ID: userID, Username: "user-" + userID}
	}
	return &discordgo.InteractionCreate{Interaction: in}
}
