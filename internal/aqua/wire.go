// Copyright 2025 Aqua Protocol Contributors

package aqua

import (
	"fmt"

	"github.com/aquaprotocol/aquacore/internal/canonicaljson"
	"github.com/aquaprotocol/aquacore/internal/hashalg"
	"github.com/aquaprotocol/aquacore/internal/revision"
)

// ToJSON serializes the object per spec.md §6's wire contract:
// { revisions: { <vhash>: <revision>, ... }, file_index: { <hash>: <name>, ... } }
// with keys preserved in insertion order.
func (o *Object) ToJSON() (string, error) {
	revisionsMap := hashalg.NewOrderedMap()
	for _, vh := range o.order {
		revisionsMap.Set(vh, o.revisions[vh].Fields)
	}
	fileIndexMap := hashalg.NewOrderedMap()
	for _, h := range o.fileIndexOrder {
		fileIndexMap.Set(h, o.fileIndex[h])
	}
	root := hashalg.NewOrderedMap()
	root.Set("revisions", revisionsMap)
	root.Set("file_index", fileIndexMap)
	return canonicaljson.Marshal(root)
}

// Open parses a serialized aqua object and validates invariants 1, 2, 4, 5
// (spec.md §3, §4.C). On violation it fails with ErrCorruptChain.
func Open(data []byte) (*Object, error) {
	parsed, err := canonicaljson.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptChain, err)
	}
	root, ok := canonicaljson.AsOrderedMap(parsed)
	if !ok {
		return nil, fmt.Errorf("%w: root is not a JSON object", ErrCorruptChain)
	}

	revisionsRaw, ok := root.Get("revisions")
	if !ok {
		return nil, fmt.Errorf("%w: missing \"revisions\"", ErrCorruptChain)
	}
	revisionsMap, ok := canonicaljson.AsOrderedMap(revisionsRaw)
	if !ok {
		return nil, fmt.Errorf("%w: \"revisions\" is not an object", ErrCorruptChain)
	}

	fileIndexMap := hashalg.NewOrderedMap()
	if fileIndexRaw, ok := root.Get("file_index"); ok {
		fileIndexMap, ok = canonicaljson.AsOrderedMap(fileIndexRaw)
		if !ok {
			return nil, fmt.Errorf("%w: \"file_index\" is not an object", ErrCorruptChain)
		}
	}

	o := New()
	for _, h := range fileIndexMap.Keys() {
		nameRaw, _ := fileIndexMap.Get(h)
		name, _ := nameRaw.(string)
		hn := hashalg.Normalize(h)
		o.fileIndex[hn] = name
		o.fileIndexOrder = append(o.fileIndexOrder, hn)
	}

	var prev string
	for i, vh := range revisionsMap.Keys() {
		fieldsRaw, _ := revisionsMap.Get(vh)
		fields, ok := canonicaljson.AsOrderedMap(fieldsRaw)
		if !ok {
			return nil, fmt.Errorf("%w: revision %s is not an object", ErrCorruptChain, vh)
		}

		rev := &revision.Revision{Fields: fields, Mode: revision.ModeScalar}
		if leavesRaw, ok := fields.Get("leaves"); ok {
			leaves, ok := canonicaljson.AsStringSlice(leavesRaw)
			if !ok {
				return nil, fmt.Errorf("%w: revision %s has malformed \"leaves\"", ErrCorruptChain, vh)
			}
			rev.Mode = revision.ModeMerkle
			rev.Leaves = leaves
		}

		// invariant 1: first revision's previous_verification_hash == ""
		if i == 0 && rev.PreviousVerificationHash() != "" {
			return nil, fmt.Errorf("%w: genesis revision has non-empty previous_verification_hash", ErrCorruptChain)
		}
		// invariant 2: revision i's previous_verification_hash == key of revision i-1
		if i > 0 && !hashalg.Equal(rev.PreviousVerificationHash(), prev) {
			return nil, fmt.Errorf("%w: revision %s breaks linkage from %s", ErrCorruptChain, vh, prev)
		}
		prev = vh

		hn := hashalg.Normalize(vh)
		o.order = append(o.order, hn)
		o.revisions[hn] = rev

		switch rev.Kind() {
		case revision.KindFile, revision.KindForm:
			if fh, ok := rev.StringField("file_hash"); ok && fh != "" {
				fhn := hashalg.Normalize(fh)
				o.fileHashesInChain[fhn] = true
				// invariant 4: file_index must contain an entry for file_hash
				if _, ok := o.fileIndex[fhn]; !ok {
					return nil, fmt.Errorf("%w: file_hash %s has no file_index entry", ErrCorruptChain, fh)
				}
			}
		case revision.KindLink:
			hashes, _ := rev.StringSliceField("link_verification_hashes")
			for _, h := range hashes {
				// invariant 5: every link_verification_hashes entry is in file_index
				if _, ok := o.fileIndex[hashalg.Normalize(h)]; !ok {
					return nil, fmt.Errorf("%w: link_verification_hashes entry %s has no file_index entry", ErrCorruptChain, h)
				}
			}
		}
	}

	return o, nil
}
