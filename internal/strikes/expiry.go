package strikes

import "time"

// RetentionWindow is how long a strike stays active after it is issued.
const RetentionWindow = 30 * 24 * time.Hour

// IsActive reports whether r is still inside the retention window at now.
// A record exactly window old is expired.
func IsActive(r Record, now time.Time, window time.Duration) bool {
	return now.Sub(r.IssuedAt) < window
}

// Prune returns a copy of l without expired records, empty subjects or empty
// guilds. changed is true when any record, subject or guild was dropped.
// The input ledger is never modified.
func Prune(l Ledger, now time.Time, window time.Duration) (Ledger, bool) {
	out := make(Ledger, len(l))
	changed := false

	for guildID, users := range l {
		kept := make(map[string][]Record, len(users))
		for userID, records := range users {
			active := make([]Record, 0, len(records))
			for _, r := range records {
				if IsActive(r, now, window) {
					active = append(active, r)
				}
			}
			if len(active) != len(records) {
				changed = true
			}
			if len(active) == 0 {
				changed = true
				continue
			}
			kept[userID] = active
		}
		if len(kept) == 0 {
			changed = true
			continue
		}
		out[guildID] = kept
	}

	return out, changed
}

func countActive(records []Record, now time.Time, window time.Duration) int {
	n := 0
	for _, r := range records {
		if IsActive(r, now, window) {
			n++
		}
	}
	return n
}
