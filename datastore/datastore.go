// Package datastore persists a single JSON document on disk. Writes go through
// a temp file, fsync and rename, are read back for verification, and keep a
// bounded number of timestamped backups of the previous contents.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds configuration options for the FileStore
type Config struct {
	FilePath    string
	BackupCount int // Number of backup files to keep (0 = no backups)
	Logger      zerolog.Logger
}

// DefaultConfig returns a default configuration
func DefaultConfig(filePath string) *Config {
	return &Config{
		FilePath:    filePath,
		BackupCount: 3,
		Logger:      log.With().Str("component", "datastore").Logger(),
	}
}

// FileStore reads and writes one document at Config.FilePath.
type FileStore struct {
	file         string
	config       *Config
	mu           sync.Mutex
	lastChecksum string
}

// New creates a new FileStore with default configuration
func New(filePath string) (*FileStore, error) {
	return NewWithConfig(DefaultConfig(filePath))
}

// NewWithConfig creates a new FileStore with custom configuration.
// The document itself is not created until the first Save.
func NewWithConfig(config *Config) (*FileStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if config.FilePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	dir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &FileStore{
		file:   config.FilePath,
		config: config,
	}, nil
}

// Path returns the document location.
func (fs *FileStore) Path() string { return fs.file }

// Load returns the raw document. A missing file yields an error wrapping
// fs.ErrNotExist.
func (fs *FileStore) Load(_ context.Context) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	fs.lastChecksum = calculateChecksum(data)
	return data, nil
}

// Save replaces the document. Writing the same bytes that were last loaded or
// saved is a no-op.
func (fs *FileStore) Save(_ context.Context, data []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	checksum := calculateChecksum(data)
	if checksum == fs.lastChecksum {
		return nil
	}

	if fs.config.BackupCount > 0 {
		if err := fs.createBackup(); err != nil {
			fs.config.Logger.Warn().Err(err).Msg("Failed to create backup")
		}
	}

	if err := fs.writeFileAtomic(data); err != nil {
		return err
	}

	if err := fs.verifyFile(checksum); err != nil {
		return fmt.Errorf("file verification failed: %w", err)
	}

	fs.lastChecksum = checksum
	return nil
}

// writeFileAtomic performs atomic file write using temporary file and rename
func (fs *FileStore) writeFileAtomic(data []byte) error {
	tmpFile := fs.file + ".tmp"

	file, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	file.Close()

	if err := os.Rename(tmpFile, fs.file); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// verifyFile verifies that the written file matches the expected checksum
func (fs *FileStore) verifyFile(expected string) error {
	actualData, err := os.ReadFile(fs.file)
	if err != nil {
		return fmt.Errorf("failed to read file for verification: %w", err)
	}

	if calculateChecksum(actualData) != expected {
		return fmt.Errorf("file checksum mismatch")
	}

	return nil
}

// createBackup copies the current document next to itself with a timestamp suffix
func (fs *FileStore) createBackup() error {
	if _, err := os.Stat(fs.file); os.IsNotExist(err) {
		return nil
	}

	timestamp := time.Now().UTC().Format("20060102_150405.000000000")
	backupFile := fmt.Sprintf("%s.backup.%s", fs.file, timestamp)

	src, err := os.Open(fs.file)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(backupFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	fs.cleanupOldBackups()
	return nil
}

// Backups returns existing backup files, oldest first.
func (fs *FileStore) Backups() []string {
	matches, err := filepath.Glob(fs.file + ".backup.*")
	if err != nil {
		return nil
	}
	// The timestamp suffix sorts lexically in creation order.
	sort.Strings(matches)
	return matches
}

// cleanupOldBackups removes old backup files beyond the configured limit
func (fs *FileStore) cleanupOldBackups() {
	backups := fs.Backups()
	if len(backups) <= fs.config.BackupCount {
		return
	}

	for _, path := range backups[:len(backups)-fs.config.BackupCount] {
		if err := os.Remove(path); err != nil {
			fs.config.Logger.Warn().Err(err).Str("path", path).Msg("Failed to remove old backup")
		}
	}
}

// Stats returns statistics about the FileStore
func (fs *FileStore) Stats() map[string]any {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	stats := map[string]any{
		"file_path": fs.file,
		"backups":   len(fs.Backups()),
		"last_save": fs.lastChecksum != "",
	}
	if info, err := os.Stat(fs.file); err == nil {
		stats["size"] = info.Size()
		stats["modified"] = info.ModTime()
	}
	return stats
}

// calculateChecksum computes SHA-256 checksum of data
func calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
