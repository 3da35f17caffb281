package discord

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/keshon/jira-bot/internal/bot"
	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/internal/config"
	"github.com/keshon/jira-bot/internal/metrics"
	"github.com/keshon/jira-bot/internal/moderation"
	"github.com/keshon/jira-bot/internal/strikes"
	"github.com/keshon/jira-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent

// Bot is the Discord runtime: it owns the gateway session and routes events
// to registered commands.
type Bot struct {
	dg         *discordgo.Session
	cfg        *config.Config
	registry   *cmd.Registry
	moderation *moderation.Service
	metrics    *metrics.Metrics
	cacheDir   string

	mu  sync.RWMutex
	ctx context.Context
}

type Option func(*Bot)

// WithSession replaces the gateway session, for tests.
func WithSession(dg *discordgo.Session) Option {
	return func(b *Bot) { b.dg = dg }
}

func WithRegistry(r *cmd.Registry) Option {
	return func(b *Bot) { b.registry = r }
}

// WithCommandCache sets where slash command hashes are kept between runs.
func WithCommandCache(dir string) Option {
	return func(b *Bot) { b.cacheDir = dir }
}

// New builds the runtime. The ledger is wrapped in a moderation service that
// carries out escalations through the session.
func New(cfg *config.Config, ledger *strikes.Store, m *metrics.Metrics, opts ...Option) (*Bot, error) {
	b := &Bot{
		cfg:      cfg,
		registry: cmd.DefaultRegistry,
		metrics:  m,
		cacheDir: filepath.Join(filepath.Dir(cfg.LedgerPath), "commands"),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.dg == nil {
		dg, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		b.dg = dg
	}
	b.dg.Identify.Intents = intents

	b.moderation = moderation.NewService(ledger, &sessionPlatform{s: b.dg}, cfg.Tier2RoleIDs,
		moderation.WithObserver(m))
	return b, nil
}

// Moderation exposes the service commands act through.
func (b *Bot) Moderation() *moderation.Service { return b.moderation }

// Run opens the gateway and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, closing Discord session")
	return nil
}

func (b *Bot) baseContext() context.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		if b.leaveIfBlacklisted(s, g.ID) {
			continue
		}
		b.syncCommands(g.ID)
	}
	name := ""
	if r.User != nil {
		name = r.User.Username
	}
	log.Info().Str("user", name).Int("guilds", len(r.Guilds)).Msg("Discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Info().Str("guild", g.ID).Str("name", g.Name).Msg("Guild available")
	if b.leaveIfBlacklisted(s, g.ID) {
		return
	}
	b.syncCommands(g.ID)
}

func (b *Bot) leaveIfBlacklisted(s *discordgo.Session, guildID string) bool {
	if !b.cfg.IsBlacklisted(guildID) {
		return false
	}
	log.Info().Str("guild", guildID).Msg("Leaving blacklisted guild")
	if err := s.GuildLeave(guildID); err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Failed to leave guild")
	}
	return true
}

func (b *Bot) syncCommands(guildID string) {
	if !b.cfg.InitSlashCommands {
		log.Debug().Str("guild", guildID).Msg("Slash command registration skipped")
		return
	}
	if err := b.registerCommands(b.baseContext(), guildID); err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Failed to register slash commands")
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || s.State.User == nil || m.Author.ID == s.State.User.ID {
		return
	}
	if !mentions(m.Message, s.State.User.ID) {
		return
	}

	data := &command.MessageContext{Session: s, Event: m, Config: b.cfg}
	for _, c := range b.registry.GetAll() {
		mp, ok := cmd.Root(c).(command.MentionProvider)
		if !ok || !mp.OnMention() {
			continue
		}
		if err := c.Run(b.baseContext(), &cmd.Invocation{Data: data}); err != nil {
			log.Error().Err(err).Str("command", c.Name()).Msg("Mention handler failed")
		}
	}
}

func mentions(m *discordgo.Message, userID string) bool {
	for _, u := range m.Mentions {
		if u.ID == userID {
			return true
		}
	}
	return false
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	c := b.registry.Get(name)
	if c == nil {
		log.Warn().Str("command", name).Msg("Unknown command")
		return
	}

	err := c.Run(b.baseContext(), &cmd.Invocation{Data: &command.SlashInteractionContext{
		Session:    s,
		Event:      i,
		Config:     b.cfg,
		Moderation: b.moderation,
	}})
	b.metrics.ObserveCommand(name, err)
	if err == nil {
		return
	}

	// The command may already have answered; a second response then fails
	// and the error is reported as a followup instead.
	if rerr := bot.RespondEmbedEphemeral(s, i, bot.ErrorEmbed(err)); rerr != nil {
		_ = bot.FollowupEmbedEphemeral(s, i, bot.ErrorEmbed(err))
	}
}
