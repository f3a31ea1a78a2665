// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CommandRule maps a command glob pattern to a verdict. Rules are
// evaluated in list order; the first matching rule wins.
type CommandRule struct {
	// Pattern is a case-insensitive glob matched against the full
	// command string.
	Pattern string `yaml:"pattern" json:"pattern"`

	// Allowed selects the verdict when the pattern matches: allow
	// when true, deny when false.
	Allowed bool `yaml:"allowed" json:"allowed"`

	// Reason overrides the default decision reason. Optional.
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// PathRule maps a path glob to write permissions. Rules are evaluated
// in list order; the first matching rule wins.
type PathRule struct {
	// Glob is a hierarchical path pattern ("*" within a segment,
	// "**" across segments). Dotfiles are matched.
	Glob string `yaml:"glob" json:"glob"`

	// Writable permits writes to matching paths.
	Writable bool `yaml:"writable" json:"writable"`

	// RequiresApproval routes matching writes to a human. On a
	// non-writable rule it softens the deny to require_approval.
	RequiresApproval bool `yaml:"requires_approval,omitempty" json:"requires_approval,omitempty"`
}

// NetworkRules controls outbound network access. There is no deny
// verdict for network: unknown domains always route to human approval,
// never silent blocking.
type NetworkRules struct {
	// DefaultAllow permits every domain when true.
	DefaultAllow bool `yaml:"default_allow" json:"default_allow"`

	// AllowDomains is the set of domains permitted without approval.
	// Membership is exact string comparison.
	AllowDomains []string `yaml:"allow_domains,omitempty" json:"allow_domains,omitempty"`
}

// Config is an immutable, externally supplied ruleset. The evaluators
// only read it; callers own construction and mutation. A zero Config
// routes everything to require_approval.
type Config struct {
	// CommandRules is the ordered command rule list.
	CommandRules []CommandRule `yaml:"command_rules,omitempty" json:"command_rules,omitempty"`

	// PathRules is the ordered path rule list.
	PathRules []PathRule `yaml:"path_rules,omitempty" json:"path_rules,omitempty"`

	// Network is the outbound network policy.
	Network NetworkRules `yaml:"network_rules,omitempty" json:"network_rules,omitempty"`

	// OverwriteLimit is the maximum number of added lines a single
	// edit may carry before it requires approval.
	OverwriteLimit int `yaml:"overwrite_limit" json:"overwrite_limit"`

	// DeleteLimit is the maximum number of deleted lines a single
	// edit may carry before it requires approval.
	DeleteLimit int `yaml:"delete_limit" json:"delete_limit"`

	// DepChangeGate routes edits that touch dependency manifests to
	// a human when enabled.
	DepChangeGate bool `yaml:"dep_change_gate" json:"dep_change_gate"`

	// SensitivePaths are globs flagging files for extra scrutiny in
	// audit logging, independent of any allow/deny verdict.
	SensitivePaths []string `yaml:"sensitive_paths,omitempty" json:"sensitive_paths,omitempty"`
}

// Load reads and validates a YAML policy document from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return config, nil
}

// Parse decodes and validates a YAML policy document. Unknown fields
// are rejected so that a typo in a rule key cannot silently weaken the
// policy.
func Parse(data []byte) (*Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var config Config
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks structural constraints that the evaluators assume.
// Evaluation itself never errors; malformed documents are rejected
// here, at the loading boundary.
func (c *Config) Validate() error {
	for i, rule := range c.CommandRules {
		if rule.Pattern == "" {
			return fmt.Errorf("command_rules[%d]: pattern must not be empty", i)
		}
	}
	for i, rule := range c.PathRules {
		if rule.Glob == "" {
			return fmt.Errorf("path_rules[%d]: glob must not be empty", i)
		}
	}
	if c.OverwriteLimit < 0 {
		return fmt.Errorf("overwrite_limit must be non-negative, got %d", c.OverwriteLimit)
	}
	if c.DeleteLimit < 0 {
		return fmt.Errorf("delete_limit must be non-negative, got %d", c.DeleteLimit)
	}
	for i, glob := range c.SensitivePaths {
		if glob == "" {
			return fmt.Errorf("sensitive_paths[%d]: glob must not be empty", i)
		}
	}
	return nil
}
