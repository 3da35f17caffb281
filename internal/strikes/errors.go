package strikes

import "errors"

var (
	// ErrInvalidScope is returned when a guild or user ID is empty.
	ErrInvalidScope = errors.New("invalid strike scope")
	// ErrStorageUnavailable wraps backend write failures. The mutation that
	// triggered the write is not committed.
	ErrStorageUnavailable = errors.New("strike ledger unavailable")
	// ErrCorruptDocument marks a persisted ledger that could not be decoded.
	// The store recovers from it by starting over with an empty ledger.
	ErrCorruptDocument = errors.New("corrupt strike ledger")
)

func validateScope(guildID, userID string) error {
	if guildID == "" || userID == "" {
		return ErrInvalidScope
	}
	return nil
}
