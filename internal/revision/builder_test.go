// Copyright 2025 Aqua Protocol Contributors

package revision

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aquaprotocol/aquacore/internal/metrics"
)

type fakeChain struct {
	fileHashes    map[string]bool
	indexedHashes map[string]bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{fileHashes: map[string]bool{}, indexedHashes: map[string]bool{}}
}

func (c *fakeChain) HasFileHash(hash string) bool    { return c.fileHashes[hash] }
func (c *fakeChain) HasIndexedHash(hash string) bool { return c.indexedHashes[hash] }

func TestBuildFileScalarMode(t *testing.T) {
	chain := newFakeChain()
	rev, vh, err := BuildFile(chain, "", "20250101000000", FileParams{FileHash: "abc123"}, false)
	if err != nil {
		t.Fatalf("BuildFile error: %v", err)
	}
	if rev.Kind() != KindFile {
		t.Errorf("Kind() = %q, want %q", rev.Kind(), KindFile)
	}
	if vh[:2] != "0x" {
		t.Errorf("scalar verification hash should be 0x-prefixed, got %q", vh)
	}
	if h, _ := rev.StringField("file_hash"); h != "abc123" {
		t.Errorf("file_hash = %q, want abc123", h)
	}
	if n, ok := rev.StringField("file_nonce"); !ok || n == "" {
		t.Errorf("file_nonce should be auto-generated when absent")
	}
}

func TestBuildFileRejectsDuplicateContent(t *testing.T) {
	chain := newFakeChain()
	chain.fileHashes["dup"] = true
	before := testutil.ToFloat64(metrics.AppendErrors.WithLabelValues("DUPLICATE_CONTENT"))
	if _, _, err := BuildFile(chain, "", "t", FileParams{FileHash: "dup"}, false); err == nil {
		t.Errorf("BuildFile should reject a duplicate file_hash")
	}
	after := testutil.ToFloat64(metrics.AppendErrors.WithLabelValues("DUPLICATE_CONTENT"))
	if after != before+1 {
		t.Errorf("AppendErrors{kind=DUPLICATE_CONTENT} = %v, want %v", after, before+1)
	}
}

func TestBuildFormIsAlwaysMerkleMode(t *testing.T) {
	chain := newFakeChain()
	rev, _, err := BuildForm(chain, "", "t", FormParams{
		FileParams: FileParams{FileHash: "f1"},
		Fields:     []KV{{Key: "name", Value: "alice"}},
	})
	if err != nil {
		t.Fatalf("BuildForm error: %v", err)
	}
	if rev.Mode != ModeMerkle {
		t.Errorf("form revisions must always be Merkle mode")
	}
	if len(rev.Leaves) == 0 {
		t.Errorf("Merkle mode revision should populate Leaves")
	}
	if v, ok := rev.StringField("forms_name"); !ok || v != "alice" {
		t.Errorf("forms_name = (%q, %v), want (alice, true)", v, ok)
	}
}

func TestBuildLinkRejectsDirectAquaJSONLink(t *testing.T) {
	chain := newFakeChain()
	_, _, err := BuildLink(chain, "", "t", LinkParams{URIs: []string{"other.aqua.json"}}, false)
	if err == nil {
		t.Errorf("BuildLink should reject a direct .aqua.json link")
	}
}

func TestBuildLinkRejectsReindexedHash(t *testing.T) {
	chain := newFakeChain()
	chain.indexedHashes["h1"] = true
	before := testutil.ToFloat64(metrics.AppendErrors.WithLabelValues("INVALID_LINK"))
	_, _, err := BuildLink(chain, "", "t", LinkParams{FileHashes: []string{"h1"}}, false)
	if err == nil {
		t.Errorf("BuildLink should reject re-indexing an already-linked file hash")
	}
	after := testutil.ToFloat64(metrics.AppendErrors.WithLabelValues("INVALID_LINK"))
	if after != before+1 {
		t.Errorf("AppendErrors{kind=INVALID_LINK} = %v, want %v", after, before+1)
	}
}

func TestStringSliceFieldAcceptsNativeAndWireRepresentations(t *testing.T) {
	m := newSkeleton("", "t", KindLink)
	m.Set("native", []string{"a", "b"})
	m.Set("wire", []any{"a", "b"})
	rev := &Revision{Fields: m}

	native, ok := rev.StringSliceField("native")
	if !ok || len(native) != 2 {
		t.Errorf("StringSliceField(native) = (%v, %v)", native, ok)
	}
	wire, ok := rev.StringSliceField("wire")
	if !ok || len(wire) != 2 || wire[0] != "a" {
		t.Errorf("StringSliceField(wire) = (%v, %v)", wire, ok)
	}
}

func TestSignatureAndWitnessRevisionKinds(t *testing.T) {
	sig, _, err := BuildSignature("", "t", SignatureParams{Signature: "0xdead", SignatureType: "ethereum:eip-191"}, false)
	if err != nil {
		t.Fatalf("BuildSignature error: %v", err)
	}
	if sig.Kind() != KindSignature {
		t.Errorf("Kind() = %q, want %q", sig.Kind(), KindSignature)
	}

	wit, _, err := BuildWitness("", "t", WitnessParams{MerkleRoot: "root", Network: "sepolia"}, false)
	if err != nil {
		t.Fatalf("BuildWitness error: %v", err)
	}
	if wit.Kind() != KindWitness {
		t.Errorf("Kind() = %q, want %q", wit.Kind(), KindWitness)
	}
}
