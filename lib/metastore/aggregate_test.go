// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"reflect"
	"strings"
	"testing"
)

func TestEmpty(t *testing.T) {
	aggregate := Empty()
	for name, collection := range map[string][]any{
		"orgs":        aggregate.Orgs,
		"workspaces":  aggregate.Workspaces,
		"policies":    aggregate.Policies,
		"auditEvents": aggregate.AuditEvents,
		"metrics":     aggregate.Metrics,
	} {
		if collection == nil {
			t.Errorf("%s: nil, want empty sequence", name)
		}
		if len(collection) != 0 {
			t.Errorf("%s: %d entries, want none", name, len(collection))
		}
	}
}

func TestMarshal_NilCollectionsBecomeEmptySequences(t *testing.T) {
	data, err := (&Aggregate{}).marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"orgs":[]`, `"workspaces":[]`, `"policies":[]`, `"auditEvents":[]`, `"metrics":[]`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("serialized aggregate missing %s: %s", field, data)
		}
	}
}

func TestParseAggregate_DefensiveCoercion(t *testing.T) {
	// Missing fields and non-sequence fields are replaced with empty
	// sequences; valid sequences pass through with order preserved.
	plaintext := []byte(`{
		"orgs": [{"id": "org-1"}, {"id": "org-2"}],
		"workspaces": "not a sequence",
		"policies": 42,
		"metrics": null
	}`)

	aggregate, err := parseAggregate(plaintext)
	if err != nil {
		t.Fatalf("parseAggregate: %v", err)
	}

	want := []any{
		map[string]any{"id": "org-1"},
		map[string]any{"id": "org-2"},
	}
	if !reflect.DeepEqual(aggregate.Orgs, want) {
		t.Errorf("orgs = %v, want %v", aggregate.Orgs, want)
	}
	for name, collection := range map[string][]any{
		"workspaces":  aggregate.Workspaces,
		"policies":    aggregate.Policies,
		"auditEvents": aggregate.AuditEvents,
		"metrics":     aggregate.Metrics,
	} {
		if len(collection) != 0 || collection == nil {
			t.Errorf("%s = %v, want empty sequence", name, collection)
		}
	}
}

func TestParseAggregate_NonObjectPlaintext(t *testing.T) {
	for _, plaintext := range []string{`[]`, `"text"`, `not json`} {
		if _, err := parseAggregate([]byte(plaintext)); err == nil {
			t.Errorf("parseAggregate(%q): expected error", plaintext)
		}
	}
}
