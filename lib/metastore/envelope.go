// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"encoding/json"
	"fmt"
)

const (
	// envelopeVersion is the current envelope format version.
	envelopeVersion = 1

	// envelopeAlgorithm identifies the AEAD sealing the payload.
	envelopeAlgorithm = "aes-256-gcm"
)

// Envelope is the versioned on-disk record and the only thing ever
// written to the primary data file. All binary fields are standard
// base64; UpdatedAt is an ISO-8601 timestamp. The format must
// round-trip exactly — field names are wire contract.
type Envelope struct {
	Version    int    `json:"version"`
	Algorithm  string `json:"alg"`
	Nonce      string `json:"iv"`
	Tag        string `json:"tag"`
	Ciphertext string `json:"ciphertext"`
	UpdatedAt  string `json:"updatedAt"`
}

// encode renders the envelope as pretty-printed JSON for the data
// file.
func (e *Envelope) encode() ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return append(data, '\n'), nil
}

// parseEnvelope decodes file contents into an envelope and checks that
// it is well-formed: the expected version and algorithm, with nonce,
// tag, and ciphertext all present. Anything else is malformed — the
// caller treats that the same as corruption.
func parseEnvelope(data []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parsing envelope: %w", err)
	}
	if envelope.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", envelope.Version)
	}
	if envelope.Algorithm != envelopeAlgorithm {
		return nil, fmt.Errorf("unsupported envelope algorithm %q", envelope.Algorithm)
	}
	if envelope.Nonce == "" || envelope.Tag == "" || envelope.Ciphertext == "" {
		return nil, fmt.Errorf("envelope is missing cipher fields")
	}
	return &envelope, nil
}
