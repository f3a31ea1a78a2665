// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metastore persists Warden's organizational metadata —
// orgs, workspaces, policy documents, audit events, and metrics — as a
// single encrypted aggregate under a data directory.
//
// The aggregate is serialized to JSON and sealed with AES-256-GCM
// under a key resolved by the keyring package. The only thing ever
// written to the primary data file is a versioned envelope holding the
// nonce, authentication tag, ciphertext, and save timestamp. A fresh
// random nonce is generated for every save; any bit of corruption in
// the stored envelope fails authentication on load rather than
// decoding silently.
//
// # Failure contract
//
// Load never returns an error. A missing primary file is normal first
// use and yields the empty aggregate. A file that cannot be parsed as
// an envelope, fails authentication (wrong key, corrupted bytes), or
// decrypts to malformed JSON also yields the empty aggregate — an
// availability-over-correctness choice: an operator pointing the store
// at mismatched key and data sees an apparently empty workspace, not a
// crash. Because that state is otherwise indistinguishable from a
// genuinely new workspace, every fallback is logged at WARN and
// counted by reason in the store's metrics.
//
// Save, backup, and restore surface filesystem failures to the caller.
//
// # Concurrency
//
// A Store serializes its own operations, but the design assumes
// exactly one process owns a data directory at a time. There is no
// cross-process locking: concurrent saves from independent processes
// are last-write-wins. Writes are full-file replacements (temp file
// and rename), so a concurrent reader observes either the previous or
// the new complete file, never a torn one.
package metastore
