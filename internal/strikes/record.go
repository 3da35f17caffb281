package strikes

import (
	"slices"
	"sort"
	"time"
)

// Record is a single strike issued against a member. Reasons are not part of
// the ledger; they only travel with the notification sent at issue time.
type Record struct {
	IssuedAt time.Time `json:"timestamp"`
}

// Ledger maps guild ID -> user ID -> strikes in chronological order.
// It is the document persisted by a Backend.
type Ledger map[string]map[string][]Record

// Clone returns a deep copy of the ledger.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for guildID, users := range l {
		u := make(map[string][]Record, len(users))
		for userID, records := range users {
			u[userID] = slices.Clone(records)
		}
		out[guildID] = u
	}
	return out
}

// Records returns a copy of the strikes held for a scope. The result is never nil.
func (l Ledger) Records(guildID, userID string) []Record {
	records := l[guildID][userID]
	out := make([]Record, len(records))
	copy(out, records)
	return out
}

// insert keeps the subject's sequence ordered by IssuedAt. In-order calls are
// plain appends; an older timestamp lands after every record at or before it.
func (l Ledger) insert(guildID, userID string, r Record) {
	users, ok := l[guildID]
	if !ok {
		users = make(map[string][]Record)
		l[guildID] = users
	}
	records := users[userID]
	i := sort.Search(len(records), func(i int) bool {
		return records[i].IssuedAt.After(r.IssuedAt)
	})
	users[userID] = slices.Insert(records, i, r)
}

// remove drops a scope and its guild entry if that leaves the guild empty.
func (l Ledger) remove(guildID, userID string) int {
	users, ok := l[guildID]
	if !ok {
		return 0
	}
	n := len(users[userID])
	delete(users, userID)
	if len(users) == 0 {
		delete(l, guildID)
	}
	return n
}
