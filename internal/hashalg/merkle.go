// Copyright 2025 Aqua Protocol Contributors

package hashalg

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrEmptyTree is returned when building a Merkle tree from zero leaves.
var ErrEmptyTree = errors.New("hashalg: cannot build merkle tree from zero leaves")

// ProofNode is one step of a Merkle proof, carrying both siblings of the
// step and the hash they produce. This mirrors spec.md §4.E.5.c's
// verification algorithm directly: a node is self-describing (no external
// "position" flag needed). Proof emits no node for an odd leaf that is
// promoted unchanged; VerifyMerkleProof also accepts a node with one side
// empty, whose successor is the other side, unchanged.
type ProofNode struct {
	LeftLeaf  string
	RightLeaf string
	Successor string
}

// MerkleTree is a binary Merkle tree over hex-encoded SHA3-512 leaves,
// built with promotion-without-duplication for odd levels (spec.md §9
// "Open question: odd-leaf Merkle semantics" — this module picks
// promotion, never duplication, for both construction and verification).
type MerkleTree struct {
	levels [][]string // levels[0] = leaves, levels[len-1] = [root]
}

// BuildMerkleTree constructs a tree over leaves in the given order.
// leaves must be non-empty lowercase hex SHA3-512 digests.
func BuildMerkleTree(leaves []string) (*MerkleTree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	level := make([]string, len(leaves))
	copy(level, leaves)

	t := &MerkleTree{levels: [][]string{level}}
	for len(level) > 1 {
		level = promoteLevel(level)
		t.levels = append(t.levels, level)
	}
	return t, nil
}

// promoteLevel combines adjacent pairs; an odd trailing leaf is carried
// upward unchanged rather than duplicated and hashed with itself.
func promoteLevel(level []string) []string {
	next := make([]string, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		if i+1 < len(level) {
			next = append(next, hashPairHex(level[i], level[i+1]))
		} else {
			next = append(next, level[i])
		}
	}
	return next
}

// hashPairHex computes sha3_512(left || right) over the raw bytes behind
// two hex-encoded digests.
func hashPairHex(leftHex, rightHex string) string {
	left, _ := hex.DecodeString(leftHex)
	right, _ := hex.DecodeString(rightHex)
	combined := make([]byte, 0, len(left)+len(right))
	combined = append(combined, left...)
	combined = append(combined, right...)
	return Sum512(combined)
}

// Root returns the tree's root hash.
func (t *MerkleTree) Root() string {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Proof returns the path of ProofNodes from the leaf at index to the root.
func (t *MerkleTree) Proof(index int) ([]ProofNode, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, fmt.Errorf("hashalg: leaf index %d out of range [0,%d)", index, len(t.levels[0]))
	}
	var path []ProofNode
	idx := index
	for lvl := 0; lvl < len(t.levels)-1; lvl++ {
		level := t.levels[lvl]
		if idx%2 == 0 {
			if idx+1 < len(level) {
				// paired: current is left, sibling is right
				path = append(path, ProofNode{
					LeftLeaf:  level[idx],
					RightLeaf: level[idx+1],
					Successor: hashPairHex(level[idx], level[idx+1]),
				})
			}
			// odd trailing leaf: promoted unchanged, no proof step emitted
			// and idx/2 in the next level still refers to the same value.
		} else {
			path = append(path, ProofNode{
				LeftLeaf:  level[idx-1],
				RightLeaf: level[idx],
				Successor: hashPairHex(level[idx-1], level[idx]),
			})
		}
		idx /= 2
	}
	return path, nil
}

// VerifyMerkleProof traverses path per spec.md §4.E.5.c: at each step the
// running successor (the leaf itself, at step 0) must appear as either
// LeftLeaf or RightLeaf of the node; if one side is empty, the successor
// passes through unchanged instead of being rehashed. The final successor
// must equal expectedRoot.
func VerifyMerkleProof(leaf string, path []ProofNode, expectedRoot string) bool {
	current := leaf
	for _, node := range path {
		switch {
		case node.LeftLeaf == "" && node.RightLeaf == "":
			return false
		case node.LeftLeaf == "":
			if !Equal(current, node.RightLeaf) {
				return false
			}
			current = node.RightLeaf
		case node.RightLeaf == "":
			if !Equal(current, node.LeftLeaf) {
				return false
			}
			current = node.LeftLeaf
		default:
			if !Equal(current, node.LeftLeaf) && !Equal(current, node.RightLeaf) {
				return false
			}
			current = hashPairHex(node.LeftLeaf, node.RightLeaf)
		}
		if !Equal(current, node.Successor) {
			return false
		}
	}
	return Equal(current, expectedRoot)
}
