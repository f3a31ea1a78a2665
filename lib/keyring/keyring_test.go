// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keyring

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeebo/blake3"
)

func TestDerive_HexKey(t *testing.T) {
	raw := make([]byte, KeySize)
	for i := range raw {
		raw[i] = byte(i)
	}
	encoded := hex.EncodeToString(raw)

	key, err := Derive(encoded)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	defer key.Close()

	if !key.Equal(raw) {
		t.Error("64-hex-char secret must decode directly to the key bytes")
	}
}

func TestDerive_HexKeyTrimmed(t *testing.T) {
	raw := make([]byte, KeySize)
	encoded := "  " + hex.EncodeToString(raw) + "\n"

	key, err := Derive(encoded)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	defer key.Close()

	if !key.Equal(raw) {
		t.Error("secret must be trimmed before hex decoding")
	}
}

func TestDerive_Passphrase(t *testing.T) {
	key, err := Derive("correct horse battery staple")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	defer key.Close()

	want := blake3.Sum256([]byte("correct horse battery staple"))
	if !key.Equal(want[:]) {
		t.Error("passphrase must derive via BLAKE3")
	}
	if key.Len() != KeySize {
		t.Errorf("derived key length = %d, want %d", key.Len(), KeySize)
	}
}

func TestDerive_64CharNonHexIsPassphrase(t *testing.T) {
	// Exactly 64 characters but not valid hex: falls through to the
	// passphrase path instead of failing.
	text := strings.Repeat("zz", 32)
	key, err := Derive(text)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	defer key.Close()

	want := blake3.Sum256([]byte(text))
	if !key.Equal(want[:]) {
		t.Error("non-hex 64-char secret must hash as a passphrase")
	}
}

func TestDerive_EmptySecret(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := Derive(input); !errors.Is(err, ErrEmptySecret) {
			t.Errorf("Derive(%q) = %v, want ErrEmptySecret", input, err)
		}
	}
}

func TestOpen_GeneratesAndPersists(t *testing.T) {
	dataDir := t.TempDir()

	key, err := Open(dataDir, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer key.Close()

	contents, err := os.ReadFile(KeyFilePath(dataDir))
	if err != nil {
		t.Fatalf("reading key file: %v", err)
	}

	text := string(contents)
	if !strings.HasSuffix(text, "\n") {
		t.Error("key file must end with a newline")
	}
	trimmed := strings.TrimSpace(text)
	if len(trimmed) != hex.EncodedLen(KeySize) {
		t.Fatalf("key file length = %d, want %d hex chars", len(trimmed), hex.EncodedLen(KeySize))
	}
	if trimmed != strings.ToLower(trimmed) {
		t.Error("key file must be lowercase hex")
	}

	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		t.Fatalf("key file is not hex: %v", err)
	}
	if !key.Equal(raw) {
		t.Error("in-memory key must match the persisted key file")
	}

	info, err := os.Stat(KeyFilePath(dataDir))
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("key file mode = %o, want 600", mode)
	}
}

func TestOpen_ReusesExistingKeyFile(t *testing.T) {
	dataDir := t.TempDir()

	first, err := Open(dataDir, "")
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	firstBytes := append([]byte(nil), first.Bytes()...)
	first.Close()

	second, err := Open(dataDir, "")
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()

	if !second.Equal(firstBytes) {
		t.Error("key must be created at most once per data directory")
	}
}

func TestOpen_OverrideSecretSkipsDisk(t *testing.T) {
	dataDir := t.TempDir()

	key, err := Open(dataDir, "a passphrase")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer key.Close()

	if _, err := os.Stat(KeyFilePath(dataDir)); !os.IsNotExist(err) {
		t.Error("override secret must never be written to disk")
	}
}

func TestOpen_EmptyKeyFileRegenerates(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.MkdirAll(filepath.Dir(KeyFilePath(dataDir)), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(KeyFilePath(dataDir), []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	key, err := Open(dataDir, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer key.Close()

	contents, err := os.ReadFile(KeyFilePath(dataDir))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(contents)) == "" {
		t.Error("empty key file must be replaced with a generated key")
	}
}

func TestGenerateHex(t *testing.T) {
	first, err := GenerateHex()
	if err != nil {
		t.Fatalf("GenerateHex: %v", err)
	}
	second, err := GenerateHex()
	if err != nil {
		t.Fatalf("GenerateHex: %v", err)
	}

	if len(first) != hex.EncodedLen(KeySize) {
		t.Errorf("length = %d, want %d", len(first), hex.EncodedLen(KeySize))
	}
	if _, err := hex.DecodeString(first); err != nil {
		t.Errorf("not valid hex: %v", err)
	}
	if first == second {
		t.Error("two generated keys must differ")
	}
}
