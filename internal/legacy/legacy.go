// Copyright 2025 Aqua Protocol Contributors
//
// Package legacy decodes the older v1.2 aqua chain schema (spec.md §9
// "Two schema versions"): a separate metadata_hash computed from
// domain_id/time_stamp/previous_verification_hash/merge_hash, and an
// older signature message format keyed on the revision's own
// verification hash rather than its predecessor's. A reimplementation
// decodes both schemas for verification but emits only the newer one on
// append — this package has no Build/Append side, only decode-time
// recognition and recomputation helpers for internal/chainverify.
package legacy

import "github.com/aquaprotocol/aquacore/internal/hashalg"

// MetadataHashField is the field whose presence marks a revision as
// v1.2-schema (the current schema has no separate metadata hash).
const MetadataHashField = "metadata_hash"

// IsLegacy reports whether fields carries the v1.2 metadata_hash field.
func IsLegacy(fields *hashalg.OrderedMap) bool {
	_, ok := fields.Get(MetadataHashField)
	return ok
}

// MetadataHash recomputes the v1.2 metadata_hash: sha3_512 of the
// concatenation domain_id || time_stamp || previous_verification_hash ||
// merge_hash (spec.md §9).
func MetadataHash(domainID, timeStamp, previousVerificationHash, mergeHash string) string {
	return hashalg.Sum512([]byte(domainID + timeStamp + previousVerificationHash + mergeHash))
}

// SignedMessage builds the v1.2 signed-message format: "I sign the
// following page verification_hash: [0x…]", keyed on the revision's own
// verification hash rather than its predecessor's (unlike the current
// schema's message, spec.md §4.E.4/§9).
func SignedMessage(verificationHash string) []byte {
	return []byte("I sign the following page verification_hash: [" + verificationHash + "]")
}
