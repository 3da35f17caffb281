package strikes

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SweepInterval is how often RunSweeper prunes the ledger by default.
const SweepInterval = 6 * time.Hour

// SweepObserver is notified after every sweep.
type SweepObserver interface {
	ObserveSweep(changed bool, err error)
}

// RunSweeper prunes expired strikes once immediately and then every interval
// until ctx is done. It is meant to run as a background job.
func RunSweeper(ctx context.Context, store *Store, interval time.Duration, obs SweepObserver) error {
	if interval <= 0 {
		interval = SweepInterval
	}

	sweep := func() {
		changed, err := store.SweepExpired(ctx, time.Now())
		if obs != nil {
			obs.ObserveSweep(changed, err)
		}
		if err != nil {
			log.Error().Err(err).Msg("Strike sweep failed")
			return
		}
		if changed {
			log.Info().Msg("Expired strikes removed from ledger")
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sweep()
		}
	}
}
