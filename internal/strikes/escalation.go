package strikes

// Action is the consequence implied by a member's active strike count.
// Values are ordered by severity.
type Action int

const (
	ActionNone Action = iota
	ActionRevokeTier2Roles
	ActionBan
)

const (
	RevokeThreshold = 2
	BanThreshold    = 4
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionRevokeTier2Roles:
		return "revoke_tier2_roles"
	case ActionBan:
		return "ban"
	default:
		return "unknown"
	}
}

// Evaluate classifies an active strike count. Ban is checked first.
func Evaluate(activeCount int) Action {
	switch {
	case activeCount >= BanThreshold:
		return ActionBan
	case activeCount >= RevokeThreshold:
		return ActionRevokeTier2Roles
	default:
		return ActionNone
	}
}
