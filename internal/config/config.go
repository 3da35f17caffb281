// /internal/config/config.go
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

type Config struct {
	DiscordToken      string `env:"DISCORD_TOKEN,required,notEmpty"`
	DeveloperID       string `env:"DEVELOPER_ID"`
	InitSlashCommands bool   `env:"INIT_SLASH_COMMANDS" envDefault:"true"`

	LedgerBackend string        `env:"LEDGER_BACKEND" envDefault:"file"`
	LedgerPath    string        `env:"LEDGER_PATH" envDefault:"data/strikes.json"`
	LedgerBackups int           `env:"LEDGER_BACKUPS" envDefault:"3"`
	RedisURL      string        `env:"REDIS_URL"`
	RedisKey      string        `env:"REDIS_KEY" envDefault:"jira:strikes"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"6h"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	AuthorizedRoleID string   `env:"AUTHORIZED_ROLE_ID"`
	ProtectedRoleIDs []string `env:"PROTECTED_ROLE_IDS" envSeparator:","`
	GooberRoleID     string   `env:"GOOBER_ROLE_ID"`
	ArtistRoleID     string   `env:"ARTIST_ROLE_ID"`
	SecretRoleID     string   `env:"SECRET_ROLE_ID" envDefault:"1381390158187856086"`
	Tier2RoleIDs     []string `env:"TIER2_ROLE_IDS" envSeparator:","`

	LogChannelID     string `env:"LOG_CHANNEL_ID"`
	ReportsChannelID string `env:"REPORTS_CHANNEL_ID"`
	ApplyChannelID   string `env:"APPLY_CHANNEL_ID"`

	RestrictedMessageIDs []string `env:"RESTRICTED_MESSAGE_IDS" envSeparator:","`
	GuildBlacklist       []string `env:"GUILD_BLACKLIST" envSeparator:","`
}

// Load reads .env if present and parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, falling back to system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg.finish()
}

// Parse builds a Config from an explicit environment, ignoring the process one.
func Parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg.finish()
}

func (c *Config) finish() (*Config, error) {
	switch c.LedgerBackend {
	case BackendFile:
	case BackendRedis:
		if c.RedisURL == "" {
			return nil, fmt.Errorf("LEDGER_BACKEND=redis requires REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("unknown LEDGER_BACKEND %q", c.LedgerBackend)
	}

	if c.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}

	if len(c.Tier2RoleIDs) == 0 {
		for _, id := range []string{c.GooberRoleID, c.ArtistRoleID} {
			if id != "" {
				c.Tier2RoleIDs = append(c.Tier2RoleIDs, id)
			}
		}
	}
	return c, nil
}

func (c *Config) IsDeveloper(userID string) bool {
	return c.DeveloperID != "" && c.DeveloperID == userID
}

// IsProtected reports whether any of the given member roles shields the member
// from moderation.
func (c *Config) IsProtected(roles []string) bool {
	for _, r := range roles {
		if slices.Contains(c.ProtectedRoleIDs, r) {
			return true
		}
	}
	return false
}

func (c *Config) IsRestrictedMessage(messageID string) bool {
	return slices.Contains(c.RestrictedMessageIDs, messageID)
}

func (c *Config) IsBlacklisted(guildID string) bool {
	return slices.Contains(c.GuildBlacklist, guildID)
}
