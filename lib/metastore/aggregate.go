// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import "encoding/json"

// Record is one loosely typed entry in an aggregate collection.
// Record identity (IDs, uniqueness) is assigned by the caller; the
// store never enforces it.
type Record = map[string]any

// Aggregate is the full plaintext metadata payload, encrypted as one
// unit. Each collection is an ordered sequence whose insertion order
// is preserved across save/load. The caller owns and mutates the
// aggregate; the store only transforms it at the encryption boundary.
type Aggregate struct {
	Orgs        []any `json:"orgs"`
	Workspaces  []any `json:"workspaces"`
	Policies    []any `json:"policies"`
	AuditEvents []any `json:"auditEvents"`
	Metrics     []any `json:"metrics"`
}

// Empty returns the canonical empty aggregate: five empty sequences.
// This is both the first-use state and the fallback for absorbed
// decryption failures.
func Empty() *Aggregate {
	return &Aggregate{
		Orgs:        []any{},
		Workspaces:  []any{},
		Policies:    []any{},
		AuditEvents: []any{},
		Metrics:     []any{},
	}
}

// marshal produces the canonical JSON serialization of the aggregate.
// Nil collections are written as empty sequences so that every saved
// payload is structurally complete.
func (a *Aggregate) marshal() ([]byte, error) {
	return json.Marshal(a.normalized())
}

// normalized returns a copy with nil collections coerced to empty
// sequences.
func (a *Aggregate) normalized() *Aggregate {
	normalized := *a
	if normalized.Orgs == nil {
		normalized.Orgs = []any{}
	}
	if normalized.Workspaces == nil {
		normalized.Workspaces = []any{}
	}
	if normalized.Policies == nil {
		normalized.Policies = []any{}
	}
	if normalized.AuditEvents == nil {
		normalized.AuditEvents = []any{}
	}
	if normalized.Metrics == nil {
		normalized.Metrics = []any{}
	}
	return &normalized
}

// parseAggregate decodes decrypted plaintext into an aggregate,
// coercing defensively: any of the five top-level fields that is
// missing or not an ordered sequence is replaced with an empty
// sequence. Only a plaintext that is not a JSON object at all is an
// error.
func parseAggregate(plaintext []byte) (*Aggregate, error) {
	var raw map[string]any
	if err := json.Unmarshal(plaintext, &raw); err != nil {
		return nil, err
	}
	return &Aggregate{
		Orgs:        sequence(raw["orgs"]),
		Workspaces:  sequence(raw["workspaces"]),
		Policies:    sequence(raw["policies"]),
		AuditEvents: sequence(raw["auditEvents"]),
		Metrics:     sequence(raw["metrics"]),
	}, nil
}

func sequence(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}
	return []any{}
}
