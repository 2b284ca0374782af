// Copyright 2025 Aqua Protocol Contributors
//
// Package chainverify implements the Revision Verifier and Chain
// Verifier (spec.md §4.E, §4.F): per-revision sub-result verification
// and the ordered, non-short-circuiting walk over a full chain.
package chainverify

import "context"

// Status is one sub-result's outcome (spec.md §4.E).
type Status int

const (
	StatusMissing Status = iota
	StatusPass
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	default:
		return "MISSING"
	}
}

// SubResult is one of a revision's five independent checks.
type SubResult struct {
	Status  Status
	Message string // populated only when Status == StatusFail
}

func pass() SubResult          { return SubResult{Status: StatusPass} }
func missing() SubResult       { return SubResult{Status: StatusMissing} }
func fail(msg string) SubResult { return SubResult{Status: StatusFail, Message: msg} }

// RevisionResult aggregates the five sub-results for one revision
// (spec.md §4.E "Aggregate. The revision PASSes iff every non-MISSING
// sub-result is PASS").
type RevisionResult struct {
	Hash      string
	Linkage   SubResult
	File      SubResult
	Content   SubResult
	Signature SubResult
	Witness   SubResult
}

// Pass reports the revision's aggregate outcome under the given
// strictness (spec.md §6 "strict: bool — if true, MISSING sub-results
// demote aggregate to FAIL; default false").
func (r RevisionResult) Pass(strict bool) bool {
	for _, s := range []SubResult{r.Linkage, r.File, r.Content, r.Signature, r.Witness} {
		switch s.Status {
		case StatusFail:
			return false
		case StatusMissing:
			if strict {
				return false
			}
		}
	}
	return true
}

// ChainResult is the ordered, complete diagnosis of a whole chain
// (spec.md §4.F "does NOT short-circuit on first failure").
type ChainResult struct {
	Revisions []RevisionResult
}

// Pass reports whether every revision passed.
func (c ChainResult) Pass(strict bool) bool {
	for _, r := range c.Revisions {
		if !r.Pass(strict) {
			return false
		}
	}
	return true
}

// Options configures a Verifier (spec.md §6 "Configuration").
type Options struct {
	// SchemaVersion is carried over from configuration. The Verifier does
	// not read it: the v1.2 checks of internal/legacy are chosen per
	// revision by the presence of a metadata_hash field.
	SchemaVersion string
	// AlchemyOrRPCKey is carried over from configuration (config.Validate
	// requires it whenever ETHEREUM_URL is set). The Verifier does not
	// read it: an Ethereum witness check fails with CONFIG_MISSING when no
	// EthereumOracle is configured, whatever this field holds.
	AlchemyOrRPCKey string
	// Strict promotes MISSING sub-results to FAIL in the aggregate.
	Strict bool
	// VerifyMerkleProof gates step 4.E.5.c; defaults to true.
	VerifyMerkleProof bool
}

// FileBytesProvider resolves file/form/link content by external name
// (spec.md §6 "File bytes provider").
type FileBytesProvider interface {
	Read(ctx context.Context, name string) ([]byte, error)
}
