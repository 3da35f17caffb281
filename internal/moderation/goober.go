package moderation

import (
	"time"

	"github.com/keshon/jira-bot/internal/strikes"
)

// GooberTenure is how long a member must have been in the guild.
const GooberTenure = 72 * time.Hour

// GooberDecision is the verdict on a Goober promotion request.
type GooberDecision struct {
	Eligible   bool
	TenureDays int
	// HoursLeft is the whole number of hours until tenure is met.
	HoursLeft int
	// Struck is set when tenure is met but the member holds too many
	// active strikes.
	Struck        bool
	ActiveStrikes int
}

// CheckGoober applies the tenure rule and the strike gate. The gate only
// matters at grant time; nothing re-checks a member after promotion.
func CheckGoober(joinedAt, now time.Time, activeStrikes int) GooberDecision {
	tenure := now.Sub(joinedAt)
	d := GooberDecision{
		TenureDays:    int(tenure / (24 * time.Hour)),
		ActiveStrikes: activeStrikes,
	}

	if tenure < GooberTenure {
		d.HoursLeft = int((GooberTenure - tenure) / time.Hour)
		return d
	}
	if activeStrikes >= strikes.RevokeThreshold {
		d.Struck = true
		return d
	}
	d.Eligible = true
	return d
}
