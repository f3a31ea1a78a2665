// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// warden is the operator CLI for the Warden security core. It
// evaluates proposed actions against a YAML policy file and manages
// the encrypted metadata store: inspect the aggregate, append audit
// events, export and import backups, and mint encryption keys.
//
// Policy checks print the decision as JSON and map the verdict to the
// exit code (0 allow, 2 deny, 3 require_approval) so shell callers can
// branch on it directly.
package main
