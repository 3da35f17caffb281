package mod

import (
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/jira-bot/internal/bot"
	"github.com/keshon/jira-bot/internal/strikes"

	"github.com/rs/zerolog"
)

const ledgerUnavailable = "⚠️ The strike ledger is unavailable right now. No changes were saved."

func (r *run) strike() error {
	target := r.o.User("member")
	if r.protected(r.o.Member("member")) {
		return r.reply("❌ You cannot strike this user because they have a protected role.")
	}

	reason := bot.Reason(r.o.String("reason", ""))
	out, err := r.v.Moderation.RecordStrike(r.ctx, r.v.Event.GuildID, target.ID)
	if err != nil {
		return r.ledgerError(err)
	}

	// A banned member shares no guild with the bot, so the DM has to go out
	// before the ban does.
	notified := out.Action == strikes.ActionBan
	if notified {
		bot.NotifyMember(r.v.Session, r.v.Event, target.ID, strikeEmbed(target, reason, out, r.moderator(), r.now))
	}
	r.v.Moderation.Enforce(r.ctx, r.v.Event.GuildID, target.ID, reason, &out)

	embed := strikeEmbed(target, reason, out, r.moderator(), r.now)
	if !notified {
		bot.NotifyMember(r.v.Session, r.v.Event, target.ID, embed)
	}
	if err := r.finish(embed); err != nil {
		return err
	}

	if out.EnforceErr != nil {
		return r.reply(fmt.Sprintf("⚠️ Strike recorded, but the escalation (%s) failed: %v", describeAction(out.Action), out.EnforceErr))
	}
	return nil
}

func (r *run) listStrikes() error {
	target := r.o.User("member")
	records, err := r.v.Moderation.ActiveStrikes(r.ctx, r.v.Event.GuildID, target.ID)
	if err != nil {
		return r.ledgerError(err)
	}
	if len(records) == 0 {
		return r.reply(fmt.Sprintf("✅ %s has no active strikes.", bot.Mention(target.ID)))
	}

	lines := make([]string, 0, len(records))
	for i, rec := range records {
		lines = append(lines, fmt.Sprintf("%d. <t:%d:f> (expires <t:%d:R>)",
			i+1, rec.IssuedAt.Unix(), r.v.Moderation.ExpiresAt(rec).Unix()))
	}

	embed := bot.ModerationEmbed("📋 Active Strikes", bot.ColorOrange, r.now,
		bot.Field{Label: "User", Value: bot.Mention(target.ID)},
		bot.Field{Label: "Count", Value: fmt.Sprint(len(records))},
		bot.Field{Label: "Next step", Value: describeAction(strikes.Evaluate(len(records) + 1))},
	)
	embed.Description += "\n\n" + strings.Join(lines, "\n")
	return bot.FollowupEmbedEphemeral(r.v.Session, r.v.Event, embed)
}

func (r *run) forgive() error {
	target := r.o.User("member")
	removed, err := r.v.Moderation.Forgive(r.ctx, r.v.Event.GuildID, target.ID)
	if err != nil {
		return r.ledgerError(err)
	}
	if removed == 0 {
		return r.reply(fmt.Sprintf("%s has no strikes to clear.", bot.Mention(target.ID)))
	}

	embed := bot.ModerationEmbed("🧹 Strikes Forgiven", bot.ColorGreen, r.now,
		bot.Field{Label: "User", Value: bot.Mention(target.ID)},
		bot.Field{Label: "Cleared", Value: fmt.Sprint(removed)},
		bot.Field{Label: "Moderator", Value: r.moderator()},
	)
	bot.LogEmbed(r.v.Session, r.v.Config.LogChannelID, embed)
	return r.reply(fmt.Sprintf("🧹 Cleared %d strike(s) for %s.", removed, bot.Mention(target.ID)))
}

// ledgerError tells the moderator the ledger could not be used. Errors other
// than an unavailable ledger are returned to the runtime.
func (r *run) ledgerError(err error) error {
	if errors.Is(err, strikes.ErrStorageUnavailable) {
		zerolog.Ctx(r.ctx).Error().Err(err).Msg("Strike ledger unavailable")
		return r.reply(ledgerUnavailable)
	}
	return err
}

func describeAction(a strikes.Action) string {
	switch a {
	case strikes.ActionRevokeTier2Roles:
		return "Tier 2 roles revoked"
	case strikes.ActionBan:
		return "Banned"
	default:
		return "None"
	}
}
