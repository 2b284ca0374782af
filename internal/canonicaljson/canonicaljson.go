// Copyright 2025 Aqua Protocol Contributors
//
// Package canonicaljson implements the canonical JSON serialization rules
// spec.md §4.A/§9 require for hashing: keys in insertion order (never
// sorted — insertion order is part of the hash contract), no whitespace,
// UTF-8 strings with JSON-standard escapes, numbers rendered as their
// shortest round-tripping decimal.
package canonicaljson

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Ordered is implemented by any value that carries its own key order.
// hashalg.OrderedMap and revision.Fields both satisfy it structurally.
type Ordered interface {
	Keys() []string
	Get(key string) (any, bool)
}

// Marshal renders v into its canonical form. v must be an Ordered value,
// a slice of canonicalizable values, a scalar (string/bool/number), or
// nil. Plain Go maps are rejected: map iteration order is not part of
// Go's language guarantees, so any caller reaching for map[string]any
// directly would silently break hash determinism.
func Marshal(v any) (string, error) {
	var b strings.Builder
	if err := encode(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encode(b *strings.Builder, v any) error {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
		return nil
	case Ordered:
		return encodeOrdered(b, t)
	case string:
		return encodeString(b, t)
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
		return nil
	case int:
		b.WriteString(strconv.Itoa(t))
		return nil
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
		return nil
	case uint64:
		b.WriteString(strconv.FormatUint(t, 10))
		return nil
	case float64:
		b.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
		return nil
	case []string:
		return encodeSlice(b, len(t), func(i int) any { return t[i] })
	case []any:
		return encodeSlice(b, len(t), func(i int) any { return t[i] })
	case map[string]any:
		return fmt.Errorf("canonicaljson: unordered map[string]any is not hashable; use an Ordered value")
	default:
		return fmt.Errorf("canonicaljson: unsupported type %T", v)
	}
}

func encodeOrdered(b *strings.Builder, o Ordered) error {
	b.WriteByte('{')
	for i, k := range o.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := encodeString(b, k); err != nil {
			return err
		}
		b.WriteByte(':')
		v, _ := o.Get(k)
		if err := encode(b, v); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

func encodeSlice(b *strings.Builder, n int, at func(int) any) error {
	b.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := encode(b, at(i)); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

// encodeString reuses encoding/json's string escaping (JSON-standard
// escapes, UTF-8 passthrough) and writes its output unchanged —
// encoding/json never inserts whitespace inside a single string literal,
// so no stripping is needed.
func encodeString(b *strings.Builder, s string) error {
	out, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("canonicaljson: encode string: %w", err)
	}
	b.Write(out)
	return nil
}
