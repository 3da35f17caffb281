package strikes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Backend persists the ledger as a single document. Load must return an error
// wrapping fs.ErrNotExist when nothing has been stored yet.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Updater is implemented by backends that can apply a read-modify-write
// atomically with respect to other processes sharing the document. fn gets
// the stored bytes, or the error reading them, and returns what to write; nil
// means nothing changed. fn may run again if the document moved underneath it.
type Updater interface {
	Update(ctx context.Context, fn func(current []byte, loadErr error) ([]byte, error)) error
}

// Store owns the strike ledger. Every operation loads a fresh copy of the
// document, applies its change and writes it back while holding one lock,
// so a sweep can never drop a strike recorded concurrently. The lock only
// covers this process; a backend shared between processes must implement
// Updater.
type Store struct {
	mu      sync.Mutex
	backend Backend
	window  time.Duration
}

type Option func(*Store)

// WithRetention overrides RetentionWindow.
func WithRetention(window time.Duration) Option {
	return func(s *Store) {
		if window > 0 {
			s.window = window
		}
	}
}

func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		window:  RetentionWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retention returns the window after which strikes expire.
func (s *Store) Retention() time.Duration { return s.window }

// RecordStrike prunes expired strikes, appends a strike issued at issuedAt
// and returns how many strikes the member has active as of issuedAt.
func (s *Store) RecordStrike(ctx context.Context, guildID, userID string, issuedAt time.Time) (int, error) {
	if err := validateScope(guildID, userID); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.update(ctx, func(l Ledger) (Ledger, bool) {
		l, _ = Prune(l, issuedAt, s.window)
		l.insert(guildID, userID, Record{IssuedAt: issuedAt.UTC()})
		return l, true
	})
	if err != nil {
		return 0, err
	}
	return countActive(ledger[guildID][userID], issuedAt, s.window), nil
}

// ActiveStrikes returns the member's active strikes as of now, oldest first.
// Expired strikes found along the way are pruned and persisted.
func (s *Store) ActiveStrikes(ctx context.Context, guildID, userID string, now time.Time) ([]Record, error) {
	if err := validateScope(guildID, userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.update(ctx, func(l Ledger) (Ledger, bool) {
		return Prune(l, now, s.window)
	})
	if err != nil {
		return nil, err
	}
	return ledger.Records(guildID, userID), nil
}

// SweepExpired prunes the whole ledger as of now and reports whether
// anything had to be written.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var swept bool
	_, err := s.update(ctx, func(l Ledger) (Ledger, bool) {
		l, swept = Prune(l, now, s.window)
		return l, swept
	})
	if err != nil {
		return false, err
	}
	return swept, nil
}

// Forgive removes every strike held by a member and returns how many were dropped.
func (s *Store) Forgive(ctx context.Context, guildID, userID string) (int, error) {
	if err := validateScope(guildID, userID); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	_, err := s.update(ctx, func(l Ledger) (Ledger, bool) {
		removed = l.remove(guildID, userID)
		return l, removed > 0
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Snapshot returns the ledger exactly as stored, without pruning it.
func (s *Store) Snapshot(ctx context.Context) (Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// update runs mutate against the current document and persists the result
// when mutate reports a change. Callers hold s.mu.
func (s *Store) update(ctx context.Context, mutate func(Ledger) (Ledger, bool)) (Ledger, error) {
	if u, ok := s.backend.(Updater); ok {
		var result Ledger
		err := u.Update(ctx, func(data []byte, loadErr error) ([]byte, error) {
			ledger, reset := decode(data, loadErr)
			ledger, changed := mutate(ledger)
			result = ledger
			if !changed && !reset {
				return nil, nil
			}
			return encode(ledger)
		})
		if err != nil {
			if errors.Is(err, ErrStorageUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		return result, nil
	}

	ledger, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	ledger, changed := mutate(ledger)
	if changed {
		if err := s.save(ctx, ledger); err != nil {
			return nil, err
		}
	}
	return ledger, nil
}

// load reads the document. A missing, unreadable or corrupt document is
// replaced with an empty ledger, which is written back immediately.
func (s *Store) load(ctx context.Context) (Ledger, error) {
	ledger, reset := decode(s.backend.Load(ctx))
	if reset {
		if err := s.save(ctx, ledger); err != nil {
			return nil, err
		}
	}
	return ledger, nil
}

// decode parses a stored document. reset is set when the document was
// missing, unreadable or corrupt and an empty ledger took its place.
func decode(data []byte, loadErr error) (ledger Ledger, reset bool) {
	switch {
	case errors.Is(loadErr, fs.ErrNotExist):
		log.Info().Msg("No strike ledger found, starting with an empty one")
		return Ledger{}, true
	case loadErr != nil:
		log.Warn().Err(loadErr).Msg("Failed to read strike ledger, reinitializing")
		return Ledger{}, true
	case len(bytes.TrimSpace(data)) == 0:
		return Ledger{}, true
	}

	if err := json.Unmarshal(data, &ledger); err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", ErrCorruptDocument, err)).Msg("Reinitializing strike ledger")
		return Ledger{}, true
	}
	if ledger == nil {
		ledger = Ledger{}
	}
	return ledger, false
}

func encode(ledger Ledger) ([]byte, error) {
	data, err := json.MarshalIndent(ledger, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrStorageUnavailable, err)
	}
	return data, nil
}

func (s *Store) save(ctx context.Context, ledger Ledger) error {
	data, err := encode(ledger)
	if err != nil {
		return err
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}
