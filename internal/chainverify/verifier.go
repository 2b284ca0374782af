// Copyright 2025 Aqua Protocol Contributors

package chainverify

import (
	"context"
	"fmt"
	"time"

	"github.com/aquaprotocol/aquacore/internal/aqua"
	"github.com/aquaprotocol/aquacore/internal/canonicaljson"
	"github.com/aquaprotocol/aquacore/internal/hashalg"
	"github.com/aquaprotocol/aquacore/internal/legacy"
	"github.com/aquaprotocol/aquacore/internal/metrics"
	"github.com/aquaprotocol/aquacore/internal/revision"
)

// Verifier runs the Revision Verifier (spec.md §4.E) and Chain Verifier
// (spec.md §4.F) against a single aqua object, delegating to pluggable
// external collaborators for file bytes and witness transaction lookup.
type Verifier struct {
	Options    Options
	Files      FileBytesProvider
	Eth        EthereumOracle
	Nostr      NostrOracle
	NostrRelay string
	TSA        TSATokens
}

// DefaultOptions returns spec.md §6's defaults: strict=false,
// verify_merkle_proof=true. Options's zero value cannot represent this
// directly since Go's zero bool is false, so callers who want the spec's
// defaults should start from DefaultOptions() rather than a bare
// Options{}.
func DefaultOptions() Options {
	return Options{VerifyMerkleProof: true}
}

// NewVerifier returns a Verifier. Any of Files/Eth/Nostr/TSA may be nil;
// sub-results that need an absent collaborator fail with
// CONFIG_MISSING-flavored messages rather than panicking.
func NewVerifier(opts Options) *Verifier {
	return &Verifier{Options: opts}
}

// VerifyChain implements spec.md §4.F: iterate revisions in insertion
// order with P seeded to "", verify each with threaded linkage, and
// never short-circuit.
func (v *Verifier) VerifyChain(ctx context.Context, obj *aqua.Object) ChainResult {
	var result ChainResult
	prev := ""
	for _, h := range obj.Revisions() {
		rev, _ := obj.Get(h)
		rr := v.VerifyRevision(ctx, rev, h, prev, obj)
		result.Revisions = append(result.Revisions, rr)
		prev = h
	}
	outcome := "pass"
	if !result.Pass(v.Options.Strict) {
		outcome = "fail"
	}
	metrics.ChainVerifications.WithLabelValues(outcome).Inc()
	return result
}

// VerifyRevision implements spec.md §4.E for one revision, given the
// expected previous-hash P and the enclosing object (for file_index
// lookups and link target resolution).
func (v *Verifier) VerifyRevision(ctx context.Context, rev *revision.Revision, hash, expectedPrev string, obj *aqua.Object) RevisionResult {
	start := time.Now()
	rr := RevisionResult{Hash: hash}
	rr.Linkage = v.verifyLinkage(rev, expectedPrev)
	rr.File = v.verifyFileIntegrity(ctx, rev, obj)
	rr.Content = v.verifyContentIntegrity(rev, hash)
	rr.Signature = v.verifySignature(rev, hash, expectedPrev)
	rr.Witness = v.verifyWitness(ctx, rev)
	metrics.RevisionVerifyDuration.WithLabelValues(string(rev.Kind())).Observe(time.Since(start).Seconds())
	return rr
}

// verifyLinkage is spec.md §4.E.1.
func (v *Verifier) verifyLinkage(rev *revision.Revision, expectedPrev string) SubResult {
	if !hashalg.Equal(rev.PreviousVerificationHash(), expectedPrev) {
		return fail(fmt.Sprintf("previous_verification_hash %q does not match chain predecessor %q", rev.PreviousVerificationHash(), expectedPrev))
	}
	return pass()
}

// verifyFileIntegrity is spec.md §4.E.2.
func (v *Verifier) verifyFileIntegrity(ctx context.Context, rev *revision.Revision, obj *aqua.Object) SubResult {
	fileHash, ok := rev.StringField("file_hash")
	if !ok || fileHash == "" {
		return missing()
	}

	var content []byte
	if embedded, ok := rev.StringField("content"); ok {
		content = []byte(embedded)
	} else if v.Files != nil {
		name := obj.FileIndex()[hashalg.Normalize(fileHash)]
		bytes, err := v.Files.Read(ctx, name)
		if err != nil {
			return fail(fmt.Sprintf("read external content %q: %v", name, err))
		}
		content = bytes
	} else {
		return fail("file_hash present but no embedded content and no FileBytesProvider configured")
	}

	computed := hashalg.Sum512(content)
	if !hashalg.Equal(computed, fileHash) {
		return fail(fmt.Sprintf("computed file hash %s does not match declared %s", computed, fileHash))
	}
	return pass()
}

// verifyContentIntegrity is spec.md §4.E.3: recompute the verification
// hash under the revision's declared mode and compare to its storage key.
func (v *Verifier) verifyContentIntegrity(rev *revision.Revision, storageKey string) SubResult {
	if rev.Mode == revision.ModeMerkle {
		tree, err := hashalg.BuildMerkleTree(rev.Leaves)
		if err != nil {
			return fail(fmt.Sprintf("rebuild merkle tree: %v", err))
		}
		if !hashalg.Equal(tree.Root(), storageKey) {
			return fail(fmt.Sprintf("recomputed merkle root %s does not match storage key %s", tree.Root(), storageKey))
		}
		return pass()
	}

	canon, err := canonicaljson.Marshal(rev.Fields)
	if err != nil {
		return fail(fmt.Sprintf("canonicalize: %v", err))
	}
	computed := "0x" + hashalg.Sum512([]byte(canon))
	if !hashalg.Equal(computed, storageKey) {
		return fail(fmt.Sprintf("recomputed scalar hash %s does not match storage key %s", computed, storageKey))
	}

	if legacy.IsLegacy(rev.Fields) {
		return v.verifyLegacyMetadataHash(rev)
	}
	return pass()
}

// verifyLegacyMetadataHash additionally checks the v1.2 metadata_hash
// construction (spec.md §9), folded into the "content/metadata
// integrity" sub-result rather than a sixth sub-result, since spec.md
// names exactly five.
func (v *Verifier) verifyLegacyMetadataHash(rev *revision.Revision) SubResult {
	domainID, _ := rev.StringField("domain_id")
	timeStamp, _ := rev.StringField("time_stamp")
	mergeHash, _ := rev.StringField("merge_hash")
	declared, _ := rev.StringField(legacy.MetadataHashField)

	computed := legacy.MetadataHash(domainID, timeStamp, rev.PreviousVerificationHash(), mergeHash)
	if !hashalg.Equal(computed, declared) {
		return fail(fmt.Sprintf("recomputed legacy metadata_hash %s does not match declared %s", computed, declared))
	}
	return pass()
}
