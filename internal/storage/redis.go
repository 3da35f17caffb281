package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/keshon/jira-bot/pkg/retrylimit"

	"github.com/redis/go-redis/v9"
)

// DefaultLedgerKey is where the strike ledger lives when it is kept in Redis.
const DefaultLedgerKey = "jira:strikes"

// maxUpdateAttempts bounds how often Update retries after losing a race.
const maxUpdateAttempts = 8

// RedisDocument stores one JSON document under a single Redis key. Update
// guards read-modify-write cycles with WATCH, so several bot processes can
// share the document without overwriting each other.
type RedisDocument struct {
	client *redis.Client
	key    string
}

func NewRedisDocument(client *redis.Client, key string) *RedisDocument {
	if key == "" {
		key = DefaultLedgerKey
	}
	return &RedisDocument{client: client, key: key}
}

// Key returns the Redis key holding the document.
func (d *RedisDocument) Key() string { return d.key }

// Load returns the stored document, or an error wrapping fs.ErrNotExist if the key is unset.
func (d *RedisDocument) Load(ctx context.Context) ([]byte, error) {
	data, err := d.client.Get(ctx, d.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis key %q: %w", d.key, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", d.key, err)
	}
	return data, nil
}

// Save overwrites the document.
func (d *RedisDocument) Save(ctx context.Context, data []byte) error {
	if err := d.client.Set(ctx, d.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", d.key, err)
	}
	return nil
}

// Update reads the document under WATCH, hands it to fn and writes the result
// in a MULTI/EXEC. If another client touched the key in between, the
// transaction aborts and fn runs again on the fresh document.
func (d *RedisDocument) Update(ctx context.Context, fn func(current []byte, loadErr error) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, d.key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			err = fmt.Errorf("redis key %q: %w", d.key, fs.ErrNotExist)
		case err != nil:
			err = fmt.Errorf("redis get %q: %w", d.key, err)
		}

		next, err := fn(data, err)
		if err != nil || next == nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, d.key, next, 0)
			return nil
		})
		return err
	}

	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = maxUpdateAttempts
	cfg.InitialDelay = 10 * time.Millisecond
	cfg.MaxDelay = 250 * time.Millisecond

	err := retrylimit.WithRetryConfig(ctx, func() error {
		err := d.client.Watch(ctx, txf, d.key)
		if err != nil && !errors.Is(err, redis.TxFailedErr) {
			return &retrylimit.FatalError{Err: err}
		}
		return err
	}, nil, cfg)
	if err != nil {
		return fmt.Errorf("redis update %q: %w", d.key, err)
	}
	return nil
}

// Connect parses a redis:// URL and pings the server before returning the client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
