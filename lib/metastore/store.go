// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bureau-foundation/warden/lib/clock"
	"github.com/bureau-foundation/warden/lib/keyring"
	"github.com/bureau-foundation/warden/lib/secret"
)

const (
	dataFileName  = "metadata.enc"
	backupDirName = "backups"
	backupPrefix  = "metadata-backup-"
	backupSuffix  = ".enc"
)

// ErrBackupNotFound is returned by ImportBackup when the named backup
// file does not exist.
var ErrBackupNotFound = errors.New("metastore: backup not found")

// Options configures a Store.
type Options struct {
	// DataDir is the directory owning the primary data file, the key
	// file, and the backups. Required.
	DataDir string

	// EncryptionSecret, when non-empty, overrides the data
	// directory's key file: the key is derived from it in memory and
	// never written to disk. A 64-hex-character value is used as the
	// key directly; anything else is hashed as a passphrase.
	EncryptionSecret string

	// Logger receives fallback warnings. Defaults to a discard
	// logger.
	Logger *slog.Logger

	// Clock supplies envelope timestamps and backup names. Defaults
	// to the real clock.
	Clock clock.Clock

	// Metrics counts store operations. Defaults to Noop.
	Metrics Metrics
}

// Store orchestrates load/save/backup/restore of the encrypted
// metadata aggregate against one data directory. The zero value is not
// usable; construct with New and Close when done to release the key
// material.
//
// A Store serializes its own operations, but exactly one process must
// own a data directory at a time — there is no cross-process locking.
type Store struct {
	mu      sync.Mutex
	dataDir string
	key     *secret.Buffer
	logger  *slog.Logger
	clock   clock.Clock
	metrics Metrics
}

// New resolves the encryption key for the data directory and returns a
// store handle. Pass the handle to whatever owns mutation; callers
// needing multi-writer safety must funnel all mutations through one
// owning task.
func New(options Options) (*Store, error) {
	if options.DataDir == "" {
		return nil, fmt.Errorf("metastore: DataDir is required")
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	metrics := options.Metrics
	if metrics == nil {
		metrics = Noop{}
	}

	key, err := keyring.Open(options.DataDir, options.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("metastore: resolving key: %w", err)
	}

	return &Store{
		dataDir: options.DataDir,
		key:     key,
		logger:  logger,
		clock:   clk,
		metrics: metrics,
	}, nil
}

// Close releases the key material. The store must not be used after
// Close.
func (s *Store) Close() error {
	return s.key.Close()
}

// DataPath returns the path of the primary data file.
func (s *Store) DataPath() string {
	return filepath.Join(s.dataDir, dataFileName)
}

// Load decrypts and returns the current aggregate. Load never fails:
// a missing primary file is normal first use, and an unreadable,
// malformed, or unauthentic file falls back to the empty aggregate
// with a WARN log and a fallback metric increment. Load does not
// change store state.
func (s *Store) Load() *Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() *Aggregate {
	data, err := os.ReadFile(s.DataPath())
	if err != nil {
		if os.IsNotExist(err) {
			// Normal first use.
			return Empty()
		}
		return s.fallback(&decodeFailure{reason: failureRead, err: err})
	}

	aggregate, failure := open(s.key, data)
	if failure != nil {
		return s.fallback(failure)
	}
	return aggregate
}

// fallback turns an absorbed decode failure into the empty aggregate,
// emitting the diagnostics that make the fallback observable.
func (s *Store) fallback(failure *decodeFailure) *Aggregate {
	s.logger.Warn("metadata load fell back to empty aggregate",
		"path", s.DataPath(),
		"reason", string(failure.reason),
		"error", failure.err)
	s.metrics.IncLoadFallback(string(failure.reason))
	return Empty()
}

// Save encrypts the aggregate under a fresh nonce and replaces the
// primary data file. The write goes through a temp file and rename so
// readers never observe a torn file. Filesystem failures are returned
// to the caller.
func (s *Store) Save(aggregate *Aggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(aggregate)
}

func (s *Store) saveLocked(aggregate *Aggregate) error {
	envelope, err := seal(s.key, aggregate, s.clock.Now())
	if err != nil {
		return fmt.Errorf("metastore: %w", err)
	}
	encoded, err := envelope.encode()
	if err != nil {
		return fmt.Errorf("metastore: %w", err)
	}

	if err := os.MkdirAll(s.dataDir, 0o700); err != nil {
		return fmt.Errorf("metastore: creating data directory: %w", err)
	}
	if err := writeFileAtomic(s.DataPath(), encoded); err != nil {
		return fmt.Errorf("metastore: writing data file: %w", err)
	}

	s.metrics.IncSave()
	return nil
}

// ExportBackup copies the current primary file byte-for-byte into the
// backup directory and returns the new backup's path. If the store is
// uninitialized, an empty aggregate is saved first so there is
// something to copy. Backup names carry the current epoch millisecond;
// a name collision (same-millisecond backups, or a pre-existing file)
// gets a monotonically increasing suffix rather than overwriting.
func (s *Store) ExportBackup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backupDir := filepath.Join(s.dataDir, backupDirName)
	if err := os.MkdirAll(backupDir, 0o700); err != nil {
		return "", fmt.Errorf("metastore: creating backup directory: %w", err)
	}

	if _, err := os.Stat(s.DataPath()); os.IsNotExist(err) {
		if err := s.saveLocked(Empty()); err != nil {
			return "", err
		}
	}

	data, err := os.ReadFile(s.DataPath())
	if err != nil {
		return "", fmt.Errorf("metastore: reading data file: %w", err)
	}

	backupPath := s.nextBackupPath(backupDir)
	if err := writeFileAtomic(backupPath, data); err != nil {
		return "", fmt.Errorf("metastore: writing backup: %w", err)
	}

	s.metrics.IncBackup()
	return backupPath, nil
}

// nextBackupPath picks the first free backup name for the current
// millisecond: metadata-backup-<ms>.enc, then -<ms>-1.enc, -<ms>-2.enc
// and so on.
func (s *Store) nextBackupPath(backupDir string) string {
	millis := s.clock.Now().UnixMilli()
	path := filepath.Join(backupDir, fmt.Sprintf("%s%d%s", backupPrefix, millis, backupSuffix))
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(backupDir, fmt.Sprintf("%s%d-%d%s", backupPrefix, millis, n, backupSuffix))
	}
}

// ImportBackup overwrites the primary data file with a byte-for-byte
// copy of the named backup and returns the result of a normal load.
// Returns ErrBackupNotFound if the backup file does not exist.
//
// Restoring a backup encrypted under a different key than the store's
// active key is not an error: the subsequent load falls back to the
// empty aggregate exactly like the corruption path, with the same
// diagnostics.
func (s *Store) ImportBackup(backupPath string) (*Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, backupPath)
		}
		return nil, fmt.Errorf("metastore: reading backup: %w", err)
	}

	if err := os.MkdirAll(s.dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("metastore: creating data directory: %w", err)
	}
	if err := writeFileAtomic(s.DataPath(), data); err != nil {
		return nil, fmt.Errorf("metastore: restoring data file: %w", err)
	}

	s.metrics.IncRestore()
	return s.loadLocked(), nil
}

// writeFileAtomic writes data to path via a temp file in the same
// directory and an atomic rename, so concurrent readers see either the
// old or the new complete contents.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
