// Copyright 2025 Aqua Protocol Contributors

package revision

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aquaprotocol/aquacore/internal/canonicaljson"
	"github.com/aquaprotocol/aquacore/internal/hashalg"
	"github.com/aquaprotocol/aquacore/internal/metrics"
)

// Builder-side error kinds (spec.md §7).
var (
	ErrDuplicateContent = errors.New("revision: file_hash already present in this chain")
	ErrInvalidLink      = errors.New("revision: invalid link revision")
)

// ExistingChain is the narrow view the builder needs of the chain it is
// appending to, to enforce spec.md §4.B's duplicate-content and
// link-cycle checks without depending on the aqua package (avoiding an
// import cycle between revision and aqua).
type ExistingChain interface {
	HasFileHash(hash string) bool
	HasIndexedHash(hash string) bool
}

// FileParams carries the materials for a file (or file-shaped) revision.
type FileParams struct {
	FileHash     string // SHA3-512 of the file bytes, precomputed by the caller
	FileNonce    string // base64url 32-byte nonce; generated if empty
	Content      []byte // raw bytes, embedded inline when content embedding is enabled
	EmbedContent bool
	ExternalName string // not read by the builder; file_index names come from aqua.Meta at Append
}

// FormParams extends FileParams with ordered form fields, each promoted
// to a top-level "forms_<k>" field (spec.md §3).
type FormParams struct {
	FileParams
	Fields []KV
}

// SignatureParams carries a signature revision's payload.
type SignatureParams struct {
	Signature     string
	PublicKey     string
	WalletAddress string
	SignatureType string // "ethereum:eip-191" or "did:key"
}

// WitnessParams carries a witness revision's payload.
type WitnessParams struct {
	MerkleRoot            string
	Timestamp             int64
	Network               string
	SmartContractAddress  string
	TransactionHash       string
	SenderAccountAddress  string
	MerkleProof           []hashalg.ProofNode
}

// LinkParams carries a link revision's payload.
type LinkParams struct {
	RequireIndepthVerification bool
	VerificationHashes         []string // tips of linked chains
	FileHashes                 []string // SHA3-512 of the linked aqua files' raw bytes
	// URIs are the linked files' external names/URIs, checked against the
	// ".aqua.json" direct-link prohibition (spec.md §4.B).
	URIs []string
}

func randomNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("revision: generate file nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// BuildFile constructs a scalar-mode file revision (the default; Merkle
// mode is opt-in via merkleMode).
func BuildFile(chain ExistingChain, previousVerificationHash, localTimestamp string, p FileParams, merkleMode bool) (*Revision, string, error) {
	if chain.HasFileHash(p.FileHash) {
		metrics.AppendErrors.WithLabelValues("DUPLICATE_CONTENT").Inc()
		return nil, "", fmt.Errorf("%w: %s", ErrDuplicateContent, p.FileHash)
	}
	nonce := p.FileNonce
	if nonce == "" {
		var err error
		nonce, err = randomNonce()
		if err != nil {
			return nil, "", err
		}
	}

	m := newSkeleton(previousVerificationHash, localTimestamp, KindFile)
	m.Set("file_hash", p.FileHash)
	m.Set("file_nonce", nonce)
	if p.EmbedContent {
		m.Set("content", string(p.Content))
	}

	return finish(m, merkleMode)
}

// BuildForm constructs a form revision. Merkle mode is mandatory for
// forms (spec.md §4.B).
func BuildForm(chain ExistingChain, previousVerificationHash, localTimestamp string, p FormParams) (*Revision, string, error) {
	if chain.HasFileHash(p.FileHash) {
		metrics.AppendErrors.WithLabelValues("DUPLICATE_CONTENT").Inc()
		return nil, "", fmt.Errorf("%w: %s", ErrDuplicateContent, p.FileHash)
	}
	nonce := p.FileNonce
	if nonce == "" {
		var err error
		nonce, err = randomNonce()
		if err != nil {
			return nil, "", err
		}
	}

	m := newSkeleton(previousVerificationHash, localTimestamp, KindForm)
	m.Set("file_hash", p.FileHash)
	m.Set("file_nonce", nonce)
	if p.EmbedContent {
		m.Set("content", string(p.Content))
	}
	for _, kv := range p.Fields {
		m.Set("forms_"+kv.Key, kv.Value)
	}

	return finish(m, true)
}

// BuildSignature constructs a signature revision.
func BuildSignature(previousVerificationHash, localTimestamp string, p SignatureParams, merkleMode bool) (*Revision, string, error) {
	m := newSkeleton(previousVerificationHash, localTimestamp, KindSignature)
	m.Set("signature", p.Signature)
	m.Set("signature_public_key", p.PublicKey)
	m.Set("signature_wallet_address", p.WalletAddress)
	m.Set("signature_type", p.SignatureType)
	return finish(m, merkleMode)
}

// BuildWitness constructs a witness revision.
func BuildWitness(previousVerificationHash, localTimestamp string, p WitnessParams, merkleMode bool) (*Revision, string, error) {
	m := newSkeleton(previousVerificationHash, localTimestamp, KindWitness)
	m.Set("witness_merkle_root", p.MerkleRoot)
	m.Set("witness_timestamp", p.Timestamp)
	m.Set("witness_network", p.Network)
	m.Set("witness_smart_contract_address", p.SmartContractAddress)
	m.Set("witness_transaction_hash", p.TransactionHash)
	m.Set("witness_sender_account_address", p.SenderAccountAddress)
	m.Set("witness_merkle_proof", proofToAny(p.MerkleProof))
	return finish(m, merkleMode)
}

// BuildLink constructs a link revision, enforcing the builder-side
// invariants of spec.md §4.B: no direct ".aqua.json" links, and no
// re-indexing of an already-linked file hash.
func BuildLink(chain ExistingChain, previousVerificationHash, localTimestamp string, p LinkParams, merkleMode bool) (*Revision, string, error) {
	for _, uri := range p.URIs {
		if hasSuffix(uri, ".aqua.json") {
			metrics.AppendErrors.WithLabelValues("INVALID_LINK").Inc()
			return nil, "", fmt.Errorf("%w: %q links an aqua file directly", ErrInvalidLink, uri)
		}
	}
	for _, h := range p.FileHashes {
		if chain.HasIndexedHash(h) {
			metrics.AppendErrors.WithLabelValues("INVALID_LINK").Inc()
			return nil, "", fmt.Errorf("%w: %s already indexed", ErrInvalidLink, h)
		}
	}

	m := newSkeleton(previousVerificationHash, localTimestamp, KindLink)
	m.Set("link_type", "aqua")
	m.Set("link_require_indepth_verification", p.RequireIndepthVerification)
	m.Set("link_verification_hashes", p.VerificationHashes)
	m.Set("link_file_hashes", p.FileHashes)
	return finish(m, merkleMode)
}

func proofToAny(proof []hashalg.ProofNode) []any {
	out := make([]any, len(proof))
	for i, n := range proof {
		nm := hashalg.NewOrderedMap()
		nm.Set("left_leaf", n.LeftLeaf)
		nm.Set("right_leaf", n.RightLeaf)
		nm.Set("successor", n.Successor)
		out[i] = nm
	}
	return out
}

// finish computes the verification hash for an assembled field map,
// dispatching to scalar or Merkle mode (spec.md §4.B), and returns the
// built Revision alongside its verification hash.
func finish(m *hashalg.OrderedMap, merkleMode bool) (*Revision, string, error) {
	if !merkleMode {
		canon, err := canonicaljson.Marshal(m)
		if err != nil {
			return nil, "", fmt.Errorf("revision: canonicalize: %w", err)
		}
		vh := "0x" + hashalg.Sum512([]byte(canon))
		return &Revision{Fields: m, Mode: ModeScalar}, vh, nil
	}

	leaves, err := hashalg.Leaves(m, canonicaljson.Marshal)
	if err != nil {
		return nil, "", err
	}
	m.Set("leaves", leaves)
	// leaves recomputed after appending the "leaves" field itself would be
	// circular; the leaves field is metadata about the tree, not a tree
	// input, so it is appended only after leaf production completes and
	// is not itself leaf-hashed again.
	tree, err := hashalg.BuildMerkleTree(leaves)
	if err != nil {
		return nil, "", fmt.Errorf("revision: build merkle tree: %w", err)
	}
	rev := &Revision{Fields: m, Mode: ModeMerkle, Leaves: leaves}
	return rev, tree.Root(), nil
}
