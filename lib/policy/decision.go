// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

// Verdict is the outcome class of a policy check. There are exactly
// three verdicts; no fourth state exists.
type Verdict string

const (
	// VerdictAllow means the action is permitted.
	VerdictAllow Verdict = "allow"

	// VerdictDeny means the action is not permitted.
	VerdictDeny Verdict = "deny"

	// VerdictRequireApproval means a human must approve the action.
	// This is the fail-safe default for unmatched or ambiguous input.
	VerdictRequireApproval Verdict = "require_approval"
)

// Decision is the outcome of evaluating one proposed action: a verdict
// plus a human-readable reason suitable for audit logging and approval
// prompts.
type Decision struct {
	Verdict Verdict `json:"decision"`
	Reason  string  `json:"reason"`
}

func allow(reason string) Decision {
	return Decision{Verdict: VerdictAllow, Reason: reason}
}

func deny(reason string) Decision {
	return Decision{Verdict: VerdictDeny, Reason: reason}
}

func requireApproval(reason string) Decision {
	return Decision{Verdict: VerdictRequireApproval, Reason: reason}
}
