// Copyright 2025 Aqua Protocol Contributors

package canonicaljson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aquaprotocol/aquacore/internal/hashalg"
)

// Unmarshal decodes a JSON document into order-preserving Go values:
// objects become *hashalg.OrderedMap (keys in the order they appeared in
// the document), arrays become []any, and scalars become string/
// float64/bool/nil. This is the read-side counterpart to Marshal, needed
// because encoding/json's map[string]any decoding target discards key
// order — and for the wire format (spec.md §6), "keys are preserved in
// insertion order" is part of the interop contract, not a presentation
// nicety.
func Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("canonicaljson: unexpected trailing data")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := hashalg.NewOrderedMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("canonicaljson: object key is not a string")
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return m, nil
		case '[':
			arr := make([]any, 0)
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("canonicaljson: unexpected delimiter %v", t)
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("canonicaljson: decode number: %w", err)
		}
		return f, nil
	default:
		return tok, nil // string, bool, nil
	}
}

// AsOrderedMap asserts v is an *hashalg.OrderedMap, as produced by
// Unmarshal for a JSON object.
func AsOrderedMap(v any) (*hashalg.OrderedMap, bool) {
	m, ok := v.(*hashalg.OrderedMap)
	return m, ok
}

// AsStringSlice converts a []any of strings (as produced by Unmarshal for
// a JSON array of strings) into []string.
func AsStringSlice(v any) ([]string, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
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
