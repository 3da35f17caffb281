package discord

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/keshon/jira-bot/datastore"
	"github.com/keshon/jira-bot/internal/bot"
	"github.com/keshon/jira-bot/internal/command"
	"github.com/keshon/jira-bot/pkg/cmd"
	"github.com/keshon/jira-bot/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

var registrationLimiter = retrylimit.NewAdaptiveLimiter(5, 1, 40, 1, 0.5)

// registerCommands syncs slash commands for a guild with Discord: deletes
// obsolete ones and creates those whose definition hash changed.
func (b *Bot) registerCommands(ctx context.Context, guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	remote, err := b.dg.ApplicationCommands(appID, guildID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	cache, err := b.commandCache(guildID)
	if err != nil {
		return err
	}
	hashes := loadCommandHashes(ctx, cache)

	local := b.commandDefinitions()
	wanted := make(map[string]string, len(local))
	for _, d := range local {
		wanted[d.Name] = definitionHash(d)
	}

	registered := make(map[string]bool, len(remote))
	for _, rc := range remote {
		if _, ok := wanted[rc.Name]; ok {
			registered[rc.Name] = true
			continue
		}
		log.Info().Str("guild", guildID).Str("command", rc.Name).Msg("Deleting obsolete command")
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID, discordgo.WithContext(ctx)); err != nil {
			log.Error().Err(err).Str("guild", guildID).Str("command", rc.Name).Msg("Failed to delete command")
			continue
		}
		delete(hashes, rc.Name)
	}

	for _, d := range local {
		// A command missing remotely is recreated even if its hash is cached.
		if hashes[d.Name] == wanted[d.Name] && registered[d.Name] {
			continue
		}
		if err := b.createCommand(ctx, appID, guildID, d); err != nil {
			log.Error().Err(err).Str("guild", guildID).Str("command", d.Name).Msg("Failed to register command")
			continue
		}
		hashes[d.Name] = wanted[d.Name]
		log.Info().Str("guild", guildID).Str("command", d.Name).Msg("Registered command")
	}

	return saveCommandHashes(ctx, cache, hashes)
}

func (b *Bot) createCommand(ctx context.Context, appID, guildID string, def *discordgo.ApplicationCommand) error {
	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = 5
	cfg.Status = bot.StatusCode

	return retrylimit.WithRetryConfig(ctx, func() error {
		_, err := b.dg.ApplicationCommandCreate(appID, guildID, def, discordgo.WithContext(ctx))
		if code, ok := bot.StatusCode(err); ok && code >= 400 && code < 500 && code != 429 {
			return &retrylimit.FatalError{Err: err}
		}
		return err
	}, registrationLimiter, cfg)
}

// definitionHash fingerprints the payload that ApplicationCommandCreate
// sends. Fields Discord assigns are cleared, everything else counts,
// including option order and DefaultMemberPermissions.
func definitionHash(def *discordgo.ApplicationCommand) string {
	payload := *def
	payload.ID, payload.ApplicationID, payload.GuildID, payload.Version = "", "", "", ""
	data, err := json.Marshal(&payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// commandDefinitions returns slash definitions for every registered command,
// walking through middleware wrappers via cmd.Root.
func (b *Bot) commandDefinitions() []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range b.registry.GetAll() {
		if def := commandDefinition(c); def != nil {
			defs = append(defs, def)
		}
	}
	return defs
}

func commandDefinition(c cmd.Command) *discordgo.ApplicationCommand {
	slash, ok := cmd.Root(c).(command.SlashProvider)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def == nil {
		return nil
	}
	if def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}

// appID returns the bot's application ID, fetching it if State is empty.
func (b *Bot) appID() (string, error) {
	if b.dg.State != nil && b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}

// --- Command hash cache ---

func (b *Bot) commandCache(guildID string) (*datastore.FileStore, error) {
	cfg := datastore.DefaultConfig(filepath.Join(b.cacheDir, guildID+".json"))
	cfg.BackupCount = 0
	return datastore.NewWithConfig(cfg)
}

func loadCommandHashes(ctx context.Context, store *datastore.FileStore) map[string]string {
	out := make(map[string]string)
	data, err := store.Load(ctx)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", store.Path()).Msg("Command cache unreadable")
		}
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		log.Warn().Err(err).Str("path", store.Path()).Msg("Command cache corrupt, rebuilding")
		return make(map[string]string)
	}
	return out
}

func saveCommandHashes(ctx context.Context, store *datastore.FileStore, hashes map[string]string) error {
	data, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return err
	}
	if err := store.Save(ctx, data); err != nil {
		return fmt.Errorf("save command cache: %w", err)
	}
	return nil
}

