package discord

import (
	"context"
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"
)

// sessionPlatform carries out escalations through the Discord REST API.
type sessionPlatform struct {
	s *discordgo.Session
}

func (p *sessionPlatform) Ban(ctx context.Context, guildID, userID, reason string) error {
	return p.s.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx))
}

// RemoveRoles removes those of roleIDs the member holds. Roles removed before
// a failure are still reported.
func (p *sessionPlatform) RemoveRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) ([]string, error) {
	member, err := p.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch member: %w", err)
	}

	var removed []string
	for _, roleID := range roleIDs {
		if !slices.Contains(member.Roles, roleID) {
			continue
		}
		if err := p.s.GuildMemberRoleRemove(guildID, userID, roleID,
			discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason)); err != nil {
			return removed, fmt.Errorf("remove role %s: %w", roleID, err)
		}
		removed = append(removed, roleID)
	}
	return removed, nil
}
