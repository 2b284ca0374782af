// Copyright 2025 Aqua Protocol Contributors

package canonicaljson

import (
	"testing"

	"github.com/aquaprotocol/aquacore/internal/hashalg"
)

func TestMarshalPreservesInsertionOrder(t *testing.T) {
	m := hashalg.NewOrderedMap()
	m.Set("z", "last").Set("a", "first")

	got, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"z":"last","a":"first"}`
	if got != want {
		t.Errorf("Marshal() = %q, want %q", got, want)
	}
}

func TestMarshalNoWhitespace(t *testing.T) {
	m := hashalg.NewOrderedMap()
	m.Set("a", 1).Set("b", []string{"x", "y"})

	got, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"a":1,"b":["x","y"]}`
	if got != want {
		t.Errorf("Marshal() = %q, want %q", got, want)
	}
}

func TestMarshalRejectsPlainMap(t *testing.T) {
	if _, err := Marshal(map[string]any{"a": 1}); err == nil {
		t.Errorf("Marshal should reject a plain map[string]any")
	}
}

func TestMarshalEscapesStrings(t *testing.T) {
	got, err := Marshal("hello \"world\"\n")
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `"hello \"world\"\n"`
	if got != want {
		t.Errorf("Marshal() = %q, want %q", got, want)
	}
}

func TestUnmarshalPreservesObjectKeyOrder(t *testing.T) {
	v, err := Unmarshal([]byte(`{"z":1,"a":2,"m":3}`))
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	m, ok := AsOrderedMap(v)
	if !ok {
		t.Fatalf("Unmarshal did not return an *OrderedMap")
	}
	want := []string{"z", "a", "m"}
	got := m.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUnmarshalThenMarshalRoundTrips(t *testing.T) {
	original := `{"b":"x","a":["1","2"],"c":true}`
	v, err := Unmarshal([]byte(original))
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	got, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if got != original {
		t.Errorf("round trip = %q, want %q", got, original)
	}
}

func TestAsStringSlice(t *testing.T) {
	v, err := Unmarshal([]byte(`["one","two"]`))
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	s, ok := AsStringSlice(v)
	if !ok || len(s) != 2 || s[0] != "one" || s[1] != "two" {
		t.Errorf("AsStringSlice() = (%v, %v), want ([one two], true)", s, ok)
	}
}
