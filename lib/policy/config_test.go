// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const policyYAML = `
command_rules:
  - pattern: "rm -rf *"
    allowed: false
  - pattern: "git *"
    allowed: true
    reason: "git is safe"
path_rules:
  - glob: "config/production.yaml"
    writable: false
  - glob: "src/**"
    writable: true
network_rules:
  default_allow: false
  allow_domains:
    - github.com
    - proxy.golang.org
overwrite_limit: 200
delete_limit: 80
dep_change_gate: true
sensitive_paths:
  - "**/.env"
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(policyYAML), 0o600); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(config.CommandRules) != 2 {
		t.Fatalf("command rules = %d, want 2", len(config.CommandRules))
	}
	if config.CommandRules[0].Pattern != "rm -rf *" || config.CommandRules[0].Allowed {
		t.Errorf("first command rule = %+v, want ordered deny rule", config.CommandRules[0])
	}
	if config.CommandRules[1].Reason != "git is safe" {
		t.Errorf("second rule reason = %q", config.CommandRules[1].Reason)
	}
	if len(config.PathRules) != 2 {
		t.Errorf("path rules = %d, want 2", len(config.PathRules))
	}
	if config.Network.DefaultAllow {
		t.Error("default_allow should be false")
	}
	if len(config.Network.AllowDomains) != 2 {
		t.Errorf("allow domains = %v", config.Network.AllowDomains)
	}
	if config.OverwriteLimit != 200 || config.DeleteLimit != 80 {
		t.Errorf("limits = %d/%d, want 200/80", config.OverwriteLimit, config.DeleteLimit)
	}
	if !config.DepChangeGate {
		t.Error("dep_change_gate should be true")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("command_ruless:\n  - pattern: x\n    allowed: true\n"))
	if err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative overwrite limit", func(c *Config) { c.OverwriteLimit = -1 }, "overwrite_limit"},
		{"negative delete limit", func(c *Config) { c.DeleteLimit = -5 }, "delete_limit"},
		{"empty command pattern", func(c *Config) { c.CommandRules = []CommandRule{{}} }, "pattern"},
		{"empty path glob", func(c *Config) { c.PathRules = []PathRule{{Writable: true}} }, "glob"},
		{"empty sensitive glob", func(c *Config) { c.SensitivePaths = []string{""} }, "sensitive_paths"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := &Config{}
			test.mutate(config)
			err := config.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error %q does not mention %q", err, test.wantErr)
			}
		})
	}
}

func TestValidate_ZeroConfigIsValid(t *testing.T) {
	if err := (&Config{}).Validate(); err != nil {
		t.Errorf("zero config should validate: %v", err)
	}
}
