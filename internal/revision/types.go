// Copyright 2025 Aqua Protocol Contributors
//
// Package revision implements the revision model and hash algebra:
// canonical hashing of heterogeneous revision payloads, producing either
// a scalar or Merkle-tree verification hash (spec.md §3, §4.A, §4.B).
package revision

import (
	"github.com/aquaprotocol/aquacore/internal/canonicaljson"
	"github.com/aquaprotocol/aquacore/internal/hashalg"
)

// Kind is the revision's tagged variant (spec.md §3).
type Kind string

const (
	KindFile      Kind = "file"
	KindForm      Kind = "form"
	KindSignature Kind = "signature"
	KindWitness   Kind = "witness"
	KindLink      Kind = "link"
)

// Mode selects how the verification hash is computed (spec.md §4.B).
type Mode int

const (
	ModeScalar Mode = iota
	ModeMerkle
)

// KV is an ordered key/value pair, used wherever field order is part of
// the hash contract (form fields, in particular).
type KV struct {
	Key   string
	Value string
}

// Revision is one immutable record in a chain. Fields holds the exact
// ordered attribute map that was hashed — the single source of truth for
// both verification-hash recomputation and JSON (de)serialization, so a
// revision can never drift from what was actually hashed.
type Revision struct {
	Fields *hashalg.OrderedMap
	Mode   Mode
	// Leaves is populated only in Merkle mode; it is also persisted under
	// the "leaves" field of Fields so a verifier need not rebuild it from
	// scratch to know the declared mode (spec.md §4.B: mode is "inferred
	// from presence of leaves").
	Leaves []string
}

// Kind returns the revision's tagged variant.
func (r *Revision) Kind() Kind {
	v, _ := r.Fields.Get("revision_type")
	s, _ := v.(string)
	return Kind(s)
}

// PreviousVerificationHash returns the linkage field, "" for genesis.
func (r *Revision) PreviousVerificationHash() string {
	v, _ := r.Fields.Get("previous_verification_hash")
	s, _ := v.(string)
	return s
}

// LocalTimestamp returns the revision's local_timestamp field.
func (r *Revision) LocalTimestamp() string {
	v, _ := r.Fields.Get("local_timestamp")
	s, _ := v.(string)
	return s
}

// StringField is a convenience accessor for an optional string field.
func (r *Revision) StringField(key string) (string, bool) {
	v, ok := r.Fields.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// BoolField is a convenience accessor for an optional bool field.
func (r *Revision) BoolField(key string) (bool, bool) {
	v, ok := r.Fields.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// StringSliceField is a convenience accessor for an optional []string field.
// Fields built in-process carry a native []string; fields decoded off the
// wire carry canonicaljson.Unmarshal's []any representation instead, so
// both are accepted here.
func (r *Revision) StringSliceField(key string) ([]string, bool) {
	v, ok := r.Fields.Get(key)
	if !ok {
		return nil, false
	}
	if s, ok := v.([]string); ok {
		return s, true
	}
	if arr, ok := v.([]any); ok {
		out := make([]string, len(arr))
		for i, e := range arr {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// CanonicalJSON renders the revision's Fields in canonical form (spec.md
// §4.B scalar mode, and §9 "Canonical JSON").
func (r *Revision) CanonicalJSON() (string, error) {
	return canonicaljson.Marshal(r.Fields)
}

// newSkeleton builds the common field skeleton shared by every kind
// (spec.md §4.B "Assembly"): previous_verification_hash, local_timestamp,
// revision_type, in that order.
func newSkeleton(previousVerificationHash, localTimestamp string, kind Kind) *hashalg.OrderedMap {
	m := hashalg.NewOrderedMap()
	m.Set("previous_verification_hash", previousVerificationHash)
	m.Set("local_timestamp", localTimestamp)
	m.Set("revision_type", string(kind))
	return m
}
