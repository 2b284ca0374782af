// Copyright 2025 Aqua Protocol Contributors

package hashalg

import "testing"

func TestSum512EmptyIsEmptyString(t *testing.T) {
	if got := Sum512(nil); got != "" {
		t.Errorf("Sum512(nil) = %q, want empty string", got)
	}
}

func TestSum512Length(t *testing.T) {
	got := Sum512([]byte("hello"))
	if len(got) != Size*2 {
		t.Errorf("Sum512 hex length = %d, want %d", len(got), Size*2)
	}
}

func TestNormalizeStripsPrefixAndLowercases(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0xABCDEF", "abcdef"},
		{"0XABCDEF", "abcdef"},
		{"abcdef", "abcdef"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEqualIgnoresCaseAndPrefix(t *testing.T) {
	if !Equal("0xABCD", "abcd") {
		t.Errorf("Equal should ignore 0x prefix and case")
	}
	if Equal("abcd", "abce") {
		t.Errorf("Equal should distinguish differing hashes")
	}
}

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("z", 1).Set("a", 2).Set("m", 3)
	want := []string{"z", "a", "m"}
	got := m.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOrderedMapSetOverwriteKeepsPosition(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", 1).Set("b", 2).Set("a", 3)
	if got := m.Keys(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Keys() = %v, want [a b] with a re-set in place", got)
	}
	v, ok := m.Get("a")
	if !ok || v != 3 {
		t.Errorf("Get(a) = (%v, %v), want (3, true)", v, ok)
	}
}

func TestStringifyScalars(t *testing.T) {
	noop := func(any) (string, error) { return "", nil }
	cases := []struct {
		in   any
		want string
	}{
		{"x", "x"},
		{true, "true"},
		{false, "false"},
		{42, "42"},
		{int64(42), "42"},
		{uint64(42), "42"},
		{3.5, "3.5"},
	}
	for _, c := range cases {
		got, err := Stringify(c.in, noop)
		if err != nil {
			t.Fatalf("Stringify(%v) error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Stringify(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLeavesOrderAndContent(t *testing.T) {
	m := NewOrderedMap()
	m.Set("b", "second").Set("a", "first")
	canon := func(v any) (string, error) { return "", nil }

	leaves, err := Leaves(m, canon)
	if err != nil {
		t.Fatalf("Leaves error: %v", err)
	}
	want := []string{Sum512([]byte("bsecond")), Sum512([]byte("afirst"))}
	if len(leaves) != 2 || leaves[0] != want[0] || leaves[1] != want[1] {
		t.Errorf("Leaves() = %v, want %v", leaves, want)
	}
}
