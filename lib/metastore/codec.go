// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/bureau-foundation/warden/lib/secret"
)

const (
	// nonceSize is the GCM nonce length. A fresh random nonce is
	// generated per save and never reused with the same key.
	nonceSize = 12

	// tagSize is the GCM authentication tag length. The tag is stored
	// separately in the envelope and verified together with the
	// ciphertext on open.
	tagSize = 16
)

// failureReason classifies why opening a stored envelope fell back to
// the empty aggregate. The reasons are metric label values.
type failureReason string

const (
	// failureRead: the primary file exists but could not be read.
	failureRead failureReason = "read"

	// failureEnvelope: the file is not a well-formed envelope.
	failureEnvelope failureReason = "envelope"

	// failureAuthentication: decryption failed — wrong key, corrupted
	// ciphertext, or tag mismatch.
	failureAuthentication failureReason = "authentication"

	// failurePlaintext: decryption succeeded but the plaintext is not
	// a JSON object.
	failurePlaintext failureReason = "plaintext"
)

// decodeFailure is the explicit tagged result for the absorbed error
// path: the store's Load contract never raises these, but they are
// modeled as values so the fallback is observable and loggable rather
// than an invisible catch-and-ignore.
type decodeFailure struct {
	reason failureReason
	err    error
}

// seal encrypts the canonical serialization of an aggregate into a
// fresh envelope stamped with now. The key is borrowed (read via
// Bytes) and NOT closed.
func seal(key *secret.Buffer, aggregate *Aggregate, now time.Time) (*Envelope, error) {
	plaintext, err := aggregate.marshal()
	if err != nil {
		return nil, fmt.Errorf("serializing aggregate: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	// Seal appends the tag to the ciphertext; the envelope stores the
	// two separately.
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return &Envelope{
		Version:    envelopeVersion,
		Algorithm:  envelopeAlgorithm,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Tag:        base64.StdEncoding.EncodeToString(tag),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		UpdatedAt:  now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}, nil
}

// open authenticates and decrypts stored envelope bytes. On any
// failure it returns a decodeFailure instead of an aggregate; the
// store turns that into the empty-aggregate fallback with diagnostics.
func open(key *secret.Buffer, data []byte) (*Aggregate, *decodeFailure) {
	envelope, err := parseEnvelope(data)
	if err != nil {
		return nil, &decodeFailure{reason: failureEnvelope, err: err}
	}

	nonce, err := base64.StdEncoding.DecodeString(envelope.Nonce)
	if err != nil {
		return nil, &decodeFailure{reason: failureEnvelope, err: fmt.Errorf("decoding nonce: %w", err)}
	}
	tag, err := base64.StdEncoding.DecodeString(envelope.Tag)
	if err != nil {
		return nil, &decodeFailure{reason: failureEnvelope, err: fmt.Errorf("decoding tag: %w", err)}
	}
	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Ciphertext)
	if err != nil {
		return nil, &decodeFailure{reason: failureEnvelope, err: fmt.Errorf("decoding ciphertext: %w", err)}
	}
	if len(nonce) != nonceSize || len(tag) != tagSize {
		return nil, &decodeFailure{reason: failureEnvelope, err: fmt.Errorf("nonce or tag has wrong length")}
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, &decodeFailure{reason: failureAuthentication, err: err}
	}

	// Tag and ciphertext are verified together — any bit of corruption
	// fails authentication rather than decoding silently.
	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, &decodeFailure{reason: failureAuthentication, err: err}
	}

	aggregate, err := parseAggregate(plaintext)
	if err != nil {
		return nil, &decodeFailure{reason: failurePlaintext, err: err}
	}
	return aggregate, nil
}

func newGCM(key *secret.Buffer) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("initializing GCM: %w", err)
	}
	return gcm, nil
}
