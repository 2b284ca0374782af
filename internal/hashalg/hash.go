// Copyright 2025 Aqua Protocol Contributors
//
// Package hashalg implements the hash primitive and deterministic leaf
// production used throughout the aqua chain core.

package hashalg

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"golang.org/x/crypto/sha3"
)

// Size is the digest length in bytes of SHA3-512.
const Size = 64

// Sum512 returns the lowercase hex-encoded SHA3-512 digest of data.
//
// Empty input yields an empty string by convention; this sentinel is only
// meaningful to legacy (v1.2) verification paths that compare against it,
// never produced for real content.
func Sum512(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	h := sha3.Sum512(data)
	return hex.EncodeToString(h[:])
}

// Sum512Bytes returns the raw SHA3-512 digest of data.
func Sum512Bytes(data []byte) [Size]byte {
	return sha3.Sum512(data)
}

// Normalize strips an optional "0x" prefix and lowercases a hash for
// case-insensitive, prefix-insensitive comparison (spec.md open question
// on "0x" prefix handling).
func Normalize(h string) string {
	if len(h) >= 2 && (h[0:2] == "0x" || h[0:2] == "0X") {
		h = h[2:]
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if c >= 'A' && c <= 'Z' {
			return normalizeLower(h)
		}
	}
	return h
}

func normalizeLower(h string) string {
	b := []byte(h)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Equal compares two hashes ignoring case and an optional "0x" prefix.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// OrderedMap is the minimal contract leaf production needs over an
// attribute map: keys in insertion order, with string-rendered values.
// Callers (the revision builder) construct this directly instead of
// relying on Go's unordered map type.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap returns an empty attribute map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]any)}
}

// Set appends a key (or overwrites it in place, preserving its original
// position) with a value. Values must be one of: string, bool, any
// integer/float type, or a JSON-marshalable nested structure.
func (m *OrderedMap) Set(key string, value any) *OrderedMap {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	return m.keys
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Stringify deterministically renders a value to its hashable string form
// (spec.md §4.A): strings as-is, numbers as decimal, booleans as
// "true"/"false", nested structures as canonical JSON with insertion-order
// keys. The canonical JSON encoder lives in internal/canonicaljson; this
// function depends on an injected encoder to avoid an import cycle.
func Stringify(v any, canonicalJSON func(any) (string, error)) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return canonicalJSON(v)
	}
}

// Leaves produces the ordered leaf-hash sequence of an attribute map per
// spec.md §4.A: sha3_512(key || stringify(value)) for each key, in
// insertion order.
func Leaves(m *OrderedMap, canonicalJSON func(any) (string, error)) ([]string, error) {
	leaves := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		v, _ := m.Get(k)
		s, err := Stringify(v, canonicalJSON)
		if err != nil {
			return nil, fmt.Errorf("stringify leaf %q: %w", k, err)
		}
		leaves = append(leaves, Sum512([]byte(k+s)))
	}
	return leaves, nil
}
