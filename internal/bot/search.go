package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/keshon/jira-bot/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"
)

// searchLimiter paces channel lookups across all concurrent searches.
var searchLimiter = retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5)

const searchConcurrency = 4

// FindMessage looks for messageID in every text channel of a guild and
// returns the first hit, or nil if no accessible channel holds it. When the
// message is not found and some channel failed for a reason other than a
// 403 or 404, the last such error is returned.
func FindMessage(ctx context.Context, s *discordgo.Session, guildID, messageID string) (*discordgo.Message, error) {
	channels, err := s.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)

	var (
		once    sync.Once
		found   *discordgo.Message
		mu      sync.Mutex
		lastErr error
	)

	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText && ch.Type != discordgo.ChannelTypeGuildNews {
			continue
		}
		g.Go(func() error {
			msg, err := fetchMessage(gctx, s, ch.ID, messageID)
			switch {
			case err == nil && msg != nil:
				once.Do(func() {
					found = msg
					cancel()
				})
			case err != nil && !IsNotFound(err) && !IsForbidden(err) && gctx.Err() == nil:
				mu.Lock()
				lastErr = fmt.Errorf("channel %s: %w", ch.ID, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if found != nil {
		return found, nil
	}
	return nil, lastErr
}

func fetchMessage(ctx context.Context, s *discordgo.Session, channelID, messageID string) (*discordgo.Message, error) {
	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = 3
	cfg.InitialDelay = 250 * time.Millisecond
	cfg.Status = StatusCode

	var msg *discordgo.Message
	err := retrylimit.WithRetryConfig(ctx, func() error {
		m, err := s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
		if err != nil {
			if code, ok := StatusCode(err); ok && code < http.StatusInternalServerError && code != http.StatusTooManyRequests {
				return &retrylimit.FatalError{Err: err}
			}
			return err
		}
		msg = m
		return nil
	}, searchLimiter, cfg)
	return msg, err
}
