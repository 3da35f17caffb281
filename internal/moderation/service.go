// Package moderation ties the strike ledger to its consequences: it records a
// strike, evaluates the escalation and carries it out on the platform.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keshon/jira-bot/internal/strikes"

	"github.com/rs/zerolog/log"
)

// Platform is the part of the chat platform the service acts on.
type Platform interface {
	Ban(ctx context.Context, guildID, userID, reason string) error
	// RemoveRoles strips the listed roles and returns the ones the member
	// actually held.
	RemoveRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) ([]string, error)
}

// Observer receives ledger and escalation events, typically for metrics.
type Observer interface {
	StrikeRecorded()
	Escalated(action string)
	LedgerFailed()
}

// Outcome describes what happened after a strike was recorded.
type Outcome struct {
	Count  int
	Action strikes.Action
	// RemovedRoles lists tier-2 roles taken away by ActionRevokeTier2Roles.
	RemovedRoles []string
	// EnforceErr is set when the strike was stored but the escalation could
	// not be carried out.
	EnforceErr error
}

type Service struct {
	ledger   *strikes.Store
	platform Platform
	tier2    []string
	observer Observer
	now      func() time.Time
}

type Option func(*Service)

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(ledger *strikes.Store, platform Platform, tier2RoleIDs []string, opts ...Option) *Service {
	s := &Service{
		ledger:   ledger,
		platform: platform,
		tier2:    tier2RoleIDs,
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger exposes the underlying store.
func (s *Service) Ledger() *strikes.Store { return s.ledger }

// IssueStrike records a strike against a member and enforces the resulting
// escalation. An error is returned only when the strike itself could not be
// stored.
func (s *Service) IssueStrike(ctx context.Context, guildID, userID, reason string) (Outcome, error) {
	out, err := s.RecordStrike(ctx, guildID, userID)
	if err != nil {
		return Outcome{}, err
	}
	s.Enforce(ctx, guildID, userID, reason, &out)
	return out, nil
}

// RecordStrike stores a strike and evaluates the escalation it calls for
// without carrying it out. Callers that must reach the member before a ban
// notify them between RecordStrike and Enforce.
func (s *Service) RecordStrike(ctx context.Context, guildID, userID string) (Outcome, error) {
	count, err := s.ledger.RecordStrike(ctx, guildID, userID, s.now())
	if err != nil {
		if errors.Is(err, strikes.ErrStorageUnavailable) {
			s.observer.LedgerFailed()
		}
		return Outcome{}, err
	}
	s.observer.StrikeRecorded()
	return Outcome{Count: count, Action: strikes.Evaluate(count)}, nil
}

// Enforce carries out out.Action on the platform and fills in RemovedRoles
// and EnforceErr. Revoking with no tier-2 roles configured is a no-op.
func (s *Service) Enforce(ctx context.Context, guildID, userID, reason string, out *Outcome) {
	logger := log.With().Str("guild", guildID).Str("user", userID).Int("active", out.Count).Logger()

	switch out.Action {
	case strikes.ActionBan:
		banReason := fmt.Sprintf("Reached %d active strikes: %s", out.Count, reason)
		if err := s.platform.Ban(ctx, guildID, userID, banReason); err != nil {
			out.EnforceErr = fmt.Errorf("ban: %w", err)
		}
	case strikes.ActionRevokeTier2Roles:
		if len(s.tier2) == 0 {
			logger.Debug().Msg("No tier-2 roles configured, nothing to revoke")
			return
		}
		removed, err := s.platform.RemoveRoles(ctx, guildID, userID, s.tier2,
			fmt.Sprintf("Reached %d active strikes", out.Count))
		out.RemovedRoles = removed
		if err != nil {
			out.EnforceErr = fmt.Errorf("revoke roles: %w", err)
		}
	default:
		return
	}

	s.observer.Escalated(out.Action.String())
	if out.EnforceErr != nil {
		logger.Error().Err(out.EnforceErr).Stringer("action", out.Action).Msg("Failed to enforce escalation")
		return
	}
	logger.Info().Stringer("action", out.Action).Msg("Escalation enforced")
}

// ActiveStrikes lists a member's unexpired strikes, oldest first.
func (s *Service) ActiveStrikes(ctx context.Context, guildID, userID string) ([]strikes.Record, error) {
	records, err := s.ledger.ActiveStrikes(ctx, guildID, userID, s.now())
	if errors.Is(err, strikes.ErrStorageUnavailable) {
		s.observer.LedgerFailed()
	}
	return records, err
}

// Forgive clears a member's strikes.
func (s *Service) Forgive(ctx context.Context, guildID, userID string) (int, error) {
	removed, err := s.ledger.Forgive(ctx, guildID, userID)
	if errors.Is(err, strikes.ErrStorageUnavailable) {
		s.observer.LedgerFailed()
	}
	return removed, err
}

// Goober evaluates a promotion request from a member who joined at joinedAt.
func (s *Service) Goober(ctx context.Context, guildID, userID string, joinedAt time.Time) (GooberDecision, error) {
	now := s.now()
	records, err := s.ActiveStrikes(ctx, guildID, userID)
	if err != nil {
		return GooberDecision{}, err
	}
	return CheckGoober(joinedAt, now, len(records)), nil
}

// ExpiresAt returns when r stops counting toward escalation.
func (s *Service) ExpiresAt(r strikes.Record) time.Time {
	return r.IssuedAt.Add(s.ledger.Retention())
}

type nopObserver struct{}

func (nopObserver) StrikeRecorded()  {}
func (nopObserver) Escalated(string) {}
func (nopObserver) LedgerFailed()    {}
