// Copyright 2025 Aqua Protocol Contributors

package chainverify

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/aquaprotocol/aquacore/internal/hashalg"
	"github.com/aquaprotocol/aquacore/internal/revision"
	"github.com/aquaprotocol/aquacore/internal/witness/tsabackend"
)

// verifyWitness is spec.md §4.E.5: cross-check the witness transaction
// against the declared root, then (if requested) traverse the Merkle
// proof.
func (v *Verifier) verifyWitness(ctx context.Context, rev *revision.Revision) SubResult {
	root, ok := rev.StringField("witness_merkle_root")
	if !ok || root == "" {
		return missing()
	}
	network, _ := rev.StringField("witness_network")
	txHash, _ := rev.StringField("witness_transaction_hash")

	if sr := v.crossCheckTransaction(ctx, network, txHash, root); sr.Status == StatusFail {
		return sr
	}

	if !v.Options.VerifyMerkleProof {
		return pass()
	}

	proofRaw, hasProof := rev.Fields.Get("witness_merkle_proof")
	if !hasProof {
		return pass() // proof is optional per spec.md §4.E.5.c ("if present")
	}
	proof, err := decodeProof(proofRaw)
	if err != nil {
		return fail(fmt.Sprintf("decode witness_merkle_proof: %v", err))
	}
	if len(proof) <= 1 {
		return pass() // spec.md §4.E.5.c only traverses proofs of length > 1
	}

	leaf, _ := rev.StringField("previous_verification_hash")
	if leaf == "" {
		// No leaf to traverse from in the degenerate genesis witness case;
		// the root itself is the leaf (spec.md §4.D "Single-chain witness").
		leaf = root
	}
	if !hashalg.VerifyMerkleProof(leaf, proof, root) {
		return fail("merkle proof traversal did not terminate at the declared root")
	}
	return pass()
}

// crossCheckTransaction is spec.md §4.E.5.a/b.
func (v *Verifier) crossCheckTransaction(ctx context.Context, network, txHash, expectedRoot string) SubResult {
	switch network {
	case "nostr":
		if v.Nostr == nil {
			return fail("witness_network is nostr but no NostrOracle is configured (CONFIG_MISSING)")
		}
		content, err := v.Nostr.FetchEvent(ctx, v.NostrRelay, txHash)
		if err != nil {
			return fail(fmt.Sprintf("fetch nostr event: %v", err))
		}
		if !hashalg.Equal(content, expectedRoot) {
			return fail(fmt.Sprintf("nostr event content %s does not match expected root %s", content, expectedRoot))
		}
		return pass()
	case "TSA_RFC3161":
		if v.TSA == nil {
			return fail("witness_network is TSA_RFC3161 but no TSATokens is configured (CONFIG_MISSING)")
		}
		token, ok := v.TSA.Token(txHash)
		if !ok {
			return fail(fmt.Sprintf("no RFC-3161 token available for transaction %s", txHash))
		}
		rootBytes, err := hex.DecodeString(hashalg.Normalize(expectedRoot))
		if err != nil {
			return fail(fmt.Sprintf("decode witness_merkle_root as hex: %v", err))
		}
		digest := sha512.Sum512(rootBytes)
		if err := tsabackend.VerifyToken(token, digest[:]); err != nil {
			return fail(fmt.Sprintf("verify RFC-3161 token: %v", err))
		}
		return pass()
	default: // Ethereum-family networks: mainnet, sepolia, holesky
		if v.Eth == nil {
			return fail("no EthereumOracle configured (CONFIG_MISSING: alchemy_or_rpc_key)")
		}
		actual, err := v.Eth.FetchRoot(ctx, txHash)
		if err != nil {
			return fail(fmt.Sprintf("fetch ethereum transaction: %v", err))
		}
		if !hashalg.Equal(actual, expectedRoot) {
			return fail(fmt.Sprintf("on-chain root %s does not match expected %s", actual, expectedRoot))
		}
		return pass()
	}
}

// decodeProof converts the revision's stored "witness_merkle_proof" value
// (a []any of *hashalg.OrderedMap, as produced by canonicaljson.Unmarshal,
// or a []any of *hashalg.OrderedMap built in-process by proofToAny) back
// into []hashalg.ProofNode.
func decodeProof(raw any) ([]hashalg.ProofNode, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("witness_merkle_proof is not an array")
	}
	out := make([]hashalg.ProofNode, 0, len(arr))
	for i, elem := range arr {
		m, ok := elem.(*hashalg.OrderedMap)
		if !ok {
			return nil, fmt.Errorf("proof element %d is not an object", i)
		}
		left, _ := m.Get("left_leaf")
		right, _ := m.Get("right_leaf")
		successor, _ := m.Get("successor")
		leftStr, _ := left.(string)
		rightStr, _ := right.(string)
		successorStr, _ := successor.(string)
		out = append(out, hashalg.ProofNode{LeftLeaf: leftStr, RightLeaf: rightStr, Successor: successorStr})
	}
	return out, nil
}
