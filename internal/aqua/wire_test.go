// Copyright 2025 Aqua Protocol Contributors

package aqua

import (
	"strings"
	"testing"
)

func TestToJSONThenOpenRoundTrips(t *testing.T) {
	o := New()
	appendFile(t, o, "a")
	appendFile(t, o, "b")

	data, err := o.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}

	reopened, err := Open([]byte(data))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if reopened.Len() != o.Len() {
		t.Errorf("Len() = %d, want %d", reopened.Len(), o.Len())
	}
	if reopened.Tip() != o.Tip() {
		t.Errorf("Tip() = %s, want %s", reopened.Tip(), o.Tip())
	}
	idx := reopened.FileIndex()
	if idx["a"] != "file-a" || idx["b"] != "file-b" {
		t.Errorf("FileIndex() = %v, want a/b entries preserved", idx)
	}
}

func TestOpenRejectsNonGenesisFirstRevision(t *testing.T) {
	doc := `{"revisions":{"vh1":{"previous_verification_hash":"nonempty","local_timestamp":"t","revision_type":"file"}},"file_index":{}}`
	if _, err := Open([]byte(doc)); err == nil {
		t.Errorf("Open should reject a first revision with a non-empty previous_verification_hash")
	}
}

func TestOpenRejectsBrokenLinkage(t *testing.T) {
	doc := `{"revisions":{` +
		`"vh1":{"previous_verification_hash":"","local_timestamp":"t","revision_type":"file"},` +
		`"vh2":{"previous_verification_hash":"not-vh1","local_timestamp":"t","revision_type":"file"}` +
		`},"file_index":{}}`
	if _, err := Open([]byte(doc)); err == nil {
		t.Errorf("Open should reject a revision whose previous_verification_hash doesn't match its predecessor's key")
	}
}

func TestOpenRejectsMissingFileIndexEntry(t *testing.T) {
	doc := `{"revisions":{"vh1":{"previous_verification_hash":"","local_timestamp":"t","revision_type":"file","file_hash":"abc"}},"file_index":{}}`
	if _, err := Open([]byte(doc)); err == nil {
		t.Errorf("Open should reject a file_hash with no file_index entry")
	}
}

func TestOpenRejectsUnindexedLinkVerificationHash(t *testing.T) {
	doc := `{"revisions":{"vh1":{"previous_verification_hash":"","local_timestamp":"t","revision_type":"link","link_verification_hashes":["target1"]}},"file_index":{}}`
	if _, err := Open([]byte(doc)); err == nil {
		t.Errorf("Open should reject a link_verification_hashes entry with no file_index entry")
	}
}

func TestOpenAcceptsIndexedLinkVerificationHash(t *testing.T) {
	doc := `{"revisions":{"vh1":{"previous_verification_hash":"","local_timestamp":"t","revision_type":"link","link_verification_hashes":["target1"]}},"file_index":{"target1":"other.aqua.json"}}`
	o, err := Open([]byte(doc))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if o.Len() != 1 {
		t.Errorf("Len() = %d, want 1", o.Len())
	}
}

func TestOpenRejectsMalformedRoot(t *testing.T) {
	if _, err := Open([]byte(`["not", "an", "object"]`)); err == nil {
		t.Errorf("Open should reject a non-object root")
	}
	if !strings.Contains(ErrCorruptChain.Error(), "corrupt") {
		t.Fatalf("sanity check on sentinel error text failed")
	}
}
