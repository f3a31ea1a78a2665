// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "fmt"

// EditSummary describes a pending file mutation for composite
// evaluation: the target path, the size of the change, and whether it
// touches dependency manifests.
type EditSummary struct {
	Path                string `json:"path"`
	Additions           int    `json:"additions"`
	Deletions           int    `json:"deletions"`
	TouchesDependencies bool   `json:"touchesDependencies"`
}

// EvaluateCommand classifies a shell command. Command rules are
// scanned in order; the first rule whose pattern matches the full
// command string (case-insensitive) decides. With no matching rule the
// command requires approval — unknown commands never auto-allow and
// never auto-deny.
func EvaluateCommand(config *Config, command string) Decision {
	for i := range config.CommandRules {
		rule := &config.CommandRules[i]
		if !matchCommand(rule.Pattern, command) {
			continue
		}
		if rule.Allowed {
			return allow(ruleReason(rule.Reason, "command matches allowed pattern %q", rule.Pattern))
		}
		return deny(ruleReason(rule.Reason, "command matches denied pattern %q", rule.Pattern))
	}
	return requireApproval("no explicit command rule")
}

// EvaluatePath classifies a write to a file path. Path rules are
// scanned in order; the first rule whose glob matches decides:
//
//   - not writable, requires_approval unset → deny
//   - not writable, requires_approval set   → require_approval
//   - writable, requires_approval set       → require_approval
//   - writable, requires_approval unset     → allow
//
// With no matching rule the write requires approval.
func EvaluatePath(config *Config, path string) Decision {
	for i := range config.PathRules {
		rule := &config.PathRules[i]
		if !matchPath(rule.Glob, path) {
			continue
		}
		if !rule.Writable {
			if rule.RequiresApproval {
				return requireApproval(fmt.Sprintf("path matches protected pattern %q", rule.Glob))
			}
			return deny(fmt.Sprintf("path matches read-only pattern %q", rule.Glob))
		}
		if rule.RequiresApproval {
			return requireApproval(fmt.Sprintf("path matches gated pattern %q", rule.Glob))
		}
		return allow(fmt.Sprintf("path matches writable pattern %q", rule.Glob))
	}
	return requireApproval("no explicit path rule")
}

// EvaluateNetwork classifies an outbound call to a domain. Allowed
// when the policy defaults to allow, or when the domain is an exact
// member of the allowlist. Everything else requires approval — there
// is no deny verdict for network, so unknown domains always route to a
// human rather than being silently blocked.
func EvaluateNetwork(config *Config, domain string) Decision {
	if config.Network.DefaultAllow {
		return allow("network defaults to allow")
	}
	for _, allowed := range config.Network.AllowDomains {
		if allowed == domain {
			return allow(fmt.Sprintf("domain %q is in the allowlist", domain))
		}
	}
	return requireApproval(fmt.Sprintf("domain %q is not in the allowlist", domain))
}

// EvaluateEditSummary classifies a pending edit by composing the
// primitive checks in a fixed risk order — blast-radius size, then
// dependency category, then the specific path:
//
//  1. additions or deletions over the configured limits → require_approval
//  2. touches dependencies while the dependency gate is on → require_approval
//  3. the path verdict, if not allow, passes through unchanged
//  4. otherwise allow
//
// Size gates dominate everything else: an oversized edit requires
// approval regardless of any path rule.
func EvaluateEditSummary(config *Config, edit EditSummary) Decision {
	if edit.Additions > config.OverwriteLimit {
		return requireApproval(fmt.Sprintf("edit adds %d lines, over the limit of %d", edit.Additions, config.OverwriteLimit))
	}
	if edit.Deletions > config.DeleteLimit {
		return requireApproval(fmt.Sprintf("edit deletes %d lines, over the limit of %d", edit.Deletions, config.DeleteLimit))
	}
	if edit.TouchesDependencies && config.DepChangeGate {
		return requireApproval("edit touches dependency manifests")
	}
	if pathDecision := EvaluatePath(config, edit.Path); pathDecision.Verdict != VerdictAllow {
		return pathDecision
	}
	return allow("edit within limits and path rules")
}

// SensitiveTouches returns the subset of paths matching any configured
// sensitive glob, preserving input order. The result flags files for
// extra scrutiny in audit logging; it never changes a decision.
func SensitiveTouches(config *Config, paths []string) []string {
	var touched []string
	for _, path := range paths {
		if matchAnyPath(config.SensitivePaths, path) {
			touched = append(touched, path)
		}
	}
	return touched
}

func ruleReason(override, format string, args ...any) string {
	if override != "" {
		return override
	}
	return fmt.Sprintf(format, args...)
}
