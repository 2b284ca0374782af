// Copyright 2025 Aqua Protocol Contributors

package nostrbackend

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
)

func TestEventIDMatchesNIP01Serialization(t *testing.T) {
	id, err := eventID("pub1", 1700000000, KindWitness, nil, "deadbeef")
	if err != nil {
		t.Fatalf("eventID error: %v", err)
	}
	serialized, err := json.Marshal([]any{0, "pub1", int64(1700000000), KindWitness, [][]string{}, "deadbeef"})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	sum := sha256.Sum256(serialized)
	want := hex.EncodeToString(sum[:])
	if id != want {
		t.Errorf("eventID() = %s, want %s", id, want)
	}
}

func TestEventIDIsDeterministic(t *testing.T) {
	a, err := eventID("pub1", 1700000000, KindWitness, nil, "content")
	if err != nil {
		t.Fatalf("eventID error: %v", err)
	}
	b, err := eventID("pub1", 1700000000, KindWitness, nil, "content")
	if err != nil {
		t.Fatalf("eventID error: %v", err)
	}
	if a != b {
		t.Errorf("eventID should be deterministic, got %s vs %s", a, b)
	}
}

func TestEventIDChangesWithContent(t *testing.T) {
	a, _ := eventID("pub1", 1700000000, KindWitness, nil, "one")
	b, _ := eventID("pub1", 1700000000, KindWitness, nil, "two")
	if a == b {
		t.Errorf("eventID should differ when content differs")
	}
}

func TestNewRejectsMalformedPrivateKey(t *testing.T) {
	if _, err := New("not-hex", []string{"https://relay.example"}); err == nil {
		t.Errorf("New should reject a non-hex private key")
	}
	if _, err := New("ab", []string{"https://relay.example"}); err == nil {
		t.Errorf("New should reject a private key shorter than 32 bytes")
	}
}
