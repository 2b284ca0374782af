// Copyright 2025 Aqua Protocol Contributors
//
// Package aqua implements the chain store: the in-memory aqua object that
// owns an ordered revision history and its file index (spec.md §3, §4.C).
package aqua

import (
	"errors"
	"fmt"

	"github.com/aquaprotocol/aquacore/internal/hashalg"
	"github.com/aquaprotocol/aquacore/internal/metrics"
	"github.com/aquaprotocol/aquacore/internal/revision"
)

// Sentinel errors (spec.md §7).
var (
	ErrCorruptChain = errors.New("aqua: corrupt chain")
	ErrEmptyChain   = errors.New("aqua: chain has no revisions")
)

// Object is one aqua chain: an insertion-ordered map of verification hash
// to revision, plus the file index (spec.md §3 invariants 1-6).
type Object struct {
	order     []string
	revisions map[string]*revision.Revision
	fileIndex map[string]string
	// fileIndexOrder tracks file_index insertion order for stable wire
	// serialization (spec.md §6).
	fileIndexOrder []string

	// fileHashesInChain tracks the set of file_hash values already used by
	// file/form revisions in this chain (invariant 3), independent of
	// fileIndex keys so link-indexed hashes never collide with it.
	fileHashesInChain map[string]bool
}

// New returns an empty aqua object. Per spec.md §3 "Lifecycle", a chain
// with zero revisions does not persist as an object — this constructor is
// the staging area a caller uses before the first Append.
func New() *Object {
	return &Object{
		revisions:         make(map[string]*revision.Revision),
		fileIndex:         make(map[string]string),
		fileHashesInChain: make(map[string]bool),
	}
}

// Tip returns the verification hash of the most recently appended
// revision, or "" for a newly created (or emptied) object.
func (o *Object) Tip() string {
	if len(o.order) == 0 {
		return ""
	}
	return o.order[len(o.order)-1]
}

// Len returns the number of revisions.
func (o *Object) Len() int {
	return len(o.order)
}

// Revisions returns the verification hashes in insertion (chronological)
// order — spec.md invariant 6: iteration order is part of the contract.
func (o *Object) Revisions() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Get returns the revision stored under hash, case/prefix-insensitively.
func (o *Object) Get(hash string) (*revision.Revision, bool) {
	r, ok := o.revisions[hashalg.Normalize(hash)]
	return r, ok
}

// FileIndex returns a copy of the hash -> external name mapping.
func (o *Object) FileIndex() map[string]string {
	out := make(map[string]string, len(o.fileIndex))
	for k, v := range o.fileIndex {
		out[k] = v
	}
	return out
}

// HasFileHash reports whether hash is already used by a file/form
// revision in this chain (spec.md invariant 3; also the builder-side
// DUPLICATE_CONTENT check of §4.B).
func (o *Object) HasFileHash(hash string) bool {
	if hash == "" {
		return false
	}
	return o.fileHashesInChain[hashalg.Normalize(hash)]
}

// HasIndexedHash reports whether hash has any file_index entry at all —
// the builder-side INVALID_LINK check of §4.B.
func (o *Object) HasIndexedHash(hash string) bool {
	_, ok := o.fileIndex[hashalg.Normalize(hash)]
	return ok
}

// Meta carries the non-hashed bookkeeping an Append needs to update the
// file index: external names are metadata about a revision, not part of
// its hashed payload, so they travel alongside rather than through
// revision.Revision.Fields.
type Meta struct {
	// FileExternalName names the file_hash of a file/form revision.
	FileExternalName string
	// LinkNames are external names for each entry of a link revision's
	// link_verification_hashes, aligned by index.
	LinkNames []string
}

// Append adds rev under verificationHash, updating the file index per
// spec.md §3. The caller (the revision builder) is responsible for having
// already rejected duplicate file hashes and invalid links; Append only
// performs the bookkeeping, not the builder-side validation.
func (o *Object) Append(rev *revision.Revision, verificationHash string, meta Meta) error {
	vh := hashalg.Normalize(verificationHash)
	if _, exists := o.revisions[vh]; exists {
		return fmt.Errorf("aqua: verification hash %s already present", verificationHash)
	}
	expectedPrev := o.Tip()
	if !hashalg.Equal(rev.PreviousVerificationHash(), expectedPrev) {
		return fmt.Errorf("aqua: append would break linkage: revision's previous_verification_hash %q != chain tip %q", rev.PreviousVerificationHash(), expectedPrev)
	}

	o.order = append(o.order, vh)
	o.revisions[vh] = rev

	switch rev.Kind() {
	case revision.KindFile, revision.KindForm:
		if fh, ok := rev.StringField("file_hash"); ok && fh != "" {
			fhn := hashalg.Normalize(fh)
			o.fileHashesInChain[fhn] = true
			o.setFileIndex(fhn, meta.FileExternalName)
		}
	case revision.KindLink:
		hashes, _ := rev.StringSliceField("link_verification_hashes")
		for i, h := range hashes {
			name := ""
			if i < len(meta.LinkNames) {
				name = meta.LinkNames[i]
			}
			o.setFileIndex(hashalg.Normalize(h), name)
		}
	}
	metrics.RevisionsAppended.WithLabelValues(string(rev.Kind())).Inc()
	return nil
}

// setFileIndex records a new file_index entry and its insertion position.
// Re-setting an existing key updates the name but keeps its original
// position, matching map semantics elsewhere in this package.
func (o *Object) setFileIndex(hash, name string) {
	if _, exists := o.fileIndex[hash]; !exists {
		o.fileIndexOrder = append(o.fileIndexOrder, hash)
	}
	o.fileIndex[hash] = name
}

// RemoveTip removes the most recently appended revision, reversing its
// file_index contributions (spec.md §4.C "tip rollback"). Returns true if
// the chain is now empty, signalling the caller to destroy the object.
func (o *Object) RemoveTip() (empty bool, err error) {
	if len(o.order) == 0 {
		return false, ErrEmptyChain
	}
	vh := o.order[len(o.order)-1]
	rev := o.revisions[vh]

	switch rev.Kind() {
	case revision.KindFile, revision.KindForm:
		if fh, ok := rev.StringField("file_hash"); ok && fh != "" {
			delete(o.fileHashesInChain, hashalg.Normalize(fh))
			o.deleteFileIndex(hashalg.Normalize(fh))
		}
	case revision.KindLink:
		hashes, _ := rev.StringSliceField("link_verification_hashes")
		for _, h := range hashes {
			o.deleteFileIndex(hashalg.Normalize(h))
		}
	}

	o.order = o.order[:len(o.order)-1]
	delete(o.revisions, vh)
	return len(o.order) == 0, nil
}

func (o *Object) deleteFileIndex(hash string) {
	if _, exists := o.fileIndex[hash]; !exists {
		return
	}
	delete(o.fileIndex, hash)
	for i, h := range o.fileIndexOrder {
		if h == hash {
			o.fileIndexOrder = append(o.fileIndexOrder[:i], o.fileIndexOrder[i+1:]...)
			break
		}
	}
}
