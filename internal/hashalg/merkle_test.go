// Copyright 2025 Aqua Protocol Contributors

package hashalg

import "testing"

func leafOf(s string) string { return Sum512([]byte(s)) }

func TestBuildMerkleTreeEmptyErrors(t *testing.T) {
	if _, err := BuildMerkleTree(nil); err != ErrEmptyTree {
		t.Errorf("BuildMerkleTree(nil) error = %v, want ErrEmptyTree", err)
	}
}

func TestBuildMerkleTreeSingleLeafRootIsLeaf(t *testing.T) {
	leaf := leafOf("only")
	tree, err := BuildMerkleTree([]string{leaf})
	if err != nil {
		t.Fatalf("BuildMerkleTree error: %v", err)
	}
	if tree.Root() != leaf {
		t.Errorf("Root() = %s, want %s", tree.Root(), leaf)
	}
	proof, err := tree.Proof(0)
	if err != nil {
		t.Fatalf("Proof error: %v", err)
	}
	if len(proof) != 0 {
		t.Errorf("single-leaf proof should have zero steps, got %d", len(proof))
	}
	if !VerifyMerkleProof(leaf, proof, tree.Root()) {
		t.Errorf("VerifyMerkleProof should pass for a single-leaf tree")
	}
}

func TestBuildMerkleTreeTwoLeaves(t *testing.T) {
	l1, l2 := leafOf("one"), leafOf("two")
	tree, err := BuildMerkleTree([]string{l1, l2})
	if err != nil {
		t.Fatalf("BuildMerkleTree error: %v", err)
	}
	want := hashPairHex(l1, l2)
	if tree.Root() != want {
		t.Errorf("Root() = %s, want %s", tree.Root(), want)
	}
}

func TestMerkleProofOddLeafPromotedWithoutDuplication(t *testing.T) {
	leaves := []string{leafOf("a"), leafOf("b"), leafOf("c")}
	tree, err := BuildMerkleTree(leaves)
	if err != nil {
		t.Fatalf("BuildMerkleTree error: %v", err)
	}
	// Leaf "c" is the odd one out at the first level: it is promoted
	// unchanged rather than paired with a duplicate of itself.
	for i, leaf := range leaves {
		proof, err := tree.Proof(i)
		if err != nil {
			t.Fatalf("Proof(%d) error: %v", i, err)
		}
		if !VerifyMerkleProof(leaf, proof, tree.Root()) {
			t.Errorf("VerifyMerkleProof failed for leaf %d (%s)", i, leaf)
		}
	}
}

func TestVerifyMerkleProofRejectsTamperedLeaf(t *testing.T) {
	leaves := []string{leafOf("a"), leafOf("b"), leafOf("c"), leafOf("d")}
	tree, err := BuildMerkleTree(leaves)
	if err != nil {
		t.Fatalf("BuildMerkleTree error: %v", err)
	}
	proof, err := tree.Proof(1)
	if err != nil {
		t.Fatalf("Proof error: %v", err)
	}
	if VerifyMerkleProof(leafOf("tampered"), proof, tree.Root()) {
		t.Errorf("VerifyMerkleProof should reject a leaf that doesn't match the proof path")
	}
}

func TestProofIndexOutOfRange(t *testing.T) {
	tree, err := BuildMerkleTree([]string{leafOf("a")})
	if err != nil {
		t.Fatalf("BuildMerkleTree error: %v", err)
	}
	if _, err := tree.Proof(5); err == nil {
		t.Errorf("Proof(5) should error on a single-leaf tree")
	}
}
