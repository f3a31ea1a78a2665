// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package keyring resolves the 32-byte symmetric key that encrypts
// Warden's metadata envelope.
//
// The key comes from one of two places. When the operator supplies a
// secret (a literal 64-hex-character key or a passphrase), the key is
// derived from it in memory and never written to disk. Otherwise the
// keyring owns a key file under the data directory: it derives from
// the file when one exists, or generates a fresh random key and
// persists it on first use.
//
// There is no rotation mechanism: a data directory's key is created at
// most once, and existing ciphertext is never re-encrypted under a new
// key.
//
// Key material lives in a secret.Buffer (mmap-backed, locked against
// swap, zeroed on close) for the lifetime of one store instance. The
// caller must Close the returned buffer.
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/warden/lib/secret"
)

// KeySize is the size in bytes of the metadata encryption key.
const KeySize = 32

const (
	keyDirName  = "security"
	keyFileName = "metadata.key"
)

// ErrEmptySecret is returned when a supplied encryption secret is
// empty after trimming whitespace. This is a configuration error: the
// operator asked for an explicit key but did not provide one.
var ErrEmptySecret = errors.New("keyring: encryption secret is empty")

// KeyFilePath returns the path of the persisted key file for a data
// directory: <dataDir>/security/metadata.key.
func KeyFilePath(dataDir string) string {
	return filepath.Join(dataDir, keyDirName, keyFileName)
}

// Open resolves the encryption key for a data directory.
//
// When overrideSecret is non-empty the key is derived from it directly
// and nothing is read from or written to disk — the secret is held in
// memory for the store's lifetime only.
//
// Otherwise the key file is consulted: a non-empty file yields a key
// derived from its contents; a missing or empty file causes a fresh
// random key to be generated and persisted as lowercase hex with a
// trailing newline (0600, directory 0700).
//
// The caller must Close the returned buffer.
func Open(dataDir, overrideSecret string) (*secret.Buffer, error) {
	if overrideSecret != "" {
		return Derive(overrideSecret)
	}

	keyPath := KeyFilePath(dataDir)
	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("keyring: creating key directory: %w", err)
	}

	contents, err := os.ReadFile(keyPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("keyring: reading key file: %w", err)
	}
	if trimmed := strings.TrimSpace(string(contents)); trimmed != "" {
		return Derive(trimmed)
	}

	return generate(keyPath)
}

// Derive turns an operator-supplied secret into a 32-byte key. The
// secret is trimmed first; an empty result is ErrEmptySecret. A value
// of exactly 64 hexadecimal characters is decoded directly as the key,
// so operators can supply a pre-generated key. Anything else is
// treated as a passphrase and hashed with BLAKE3 to 32 bytes, letting
// a human-memorable secret flow through the same interface.
//
// The caller must Close the returned buffer.
func Derive(secretText string) (*secret.Buffer, error) {
	trimmed := strings.TrimSpace(secretText)
	if trimmed == "" {
		return nil, ErrEmptySecret
	}

	if len(trimmed) == hex.EncodedLen(KeySize) {
		if raw, err := hex.DecodeString(trimmed); err == nil {
			return secret.NewFromBytes(raw)
		}
	}

	sum := blake3.Sum256([]byte(trimmed))
	return secret.NewFromBytes(sum[:])
}

// GenerateHex mints a fresh random key and returns it as 64 lowercase
// hex characters, suitable for operator key files and the keygen
// subcommand. The raw bytes are scrubbed before returning.
func GenerateHex() (string, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("keyring: generating key: %w", err)
	}
	encoded := hex.EncodeToString(raw)
	secret.Zero(raw)
	return encoded, nil
}

// generate creates a fresh random key, persists it as hex, and returns
// the raw bytes in a protected buffer.
func generate(keyPath string) (*secret.Buffer, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("keyring: generating key: %w", err)
	}

	encoded := hex.EncodeToString(raw) + "\n"
	if err := os.WriteFile(keyPath, []byte(encoded), 0o600); err != nil {
		secret.Zero(raw)
		return nil, fmt.Errorf("keyring: persisting key file: %w", err)
	}

	// NewFromBytes zeros raw after copying it into protected memory.
	return secret.NewFromBytes(raw)
}
