// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy implements Warden's trust-boundary decision engine.
// It classifies proposed actions — shell commands, file-path writes,
// outbound network calls, and aggregate edit summaries — as allowed,
// denied, or requiring human approval.
//
// Evaluation is pure: no I/O, no hidden state, no error paths. Every
// input, however malformed, resolves to exactly one of the three
// verdicts, with require_approval as the universal fail-safe default.
// Unknown commands never auto-allow and never auto-deny.
//
// # Rules
//
// Command and path rules are ordered lists with first-match-wins
// semantics. Order is load-bearing: an earlier rule's verdict always
// beats a later conflicting rule, so rules are modeled as slices and
// must never be collapsed into a map.
//
// Command patterns are case-insensitive globs matched against the full
// command string, where "*" matches any run of characters (including
// spaces and slashes) and "?" matches a single character.
//
// Path globs are hierarchical, "/"-separated patterns where "*"
// matches within one segment, "?" matches a single non-slash
// character, and "**" matches across segments. Dotfiles are matched
// like any other name. Malformed patterns match nothing — a broken
// rule never grants access.
//
// # Edit summaries
//
// EvaluateEditSummary composes the primitive checks in a fixed risk
// order: size gates (blast radius) first, then the dependency-change
// gate (category), then the path rules. The order is part of the
// contract and must not be rearranged.
//
// # Sensitive paths
//
// SensitiveTouches flags paths matching the configured sensitive
// globs for extra scrutiny in audit logging. It never changes a
// decision.
package policy
