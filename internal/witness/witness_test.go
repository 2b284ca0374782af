// Copyright 2025 Aqua Protocol Contributors

package witness

import (
	"context"
	"testing"

	"github.com/aquaprotocol/aquacore/internal/hashalg"
)

type fakeBackend struct {
	receipt Receipt
	err     error
	calls   int
}

func (f *fakeBackend) Publish(ctx context.Context, root [hashalg.Size]byte) (Receipt, error) {
	f.calls++
	return f.receipt, f.err
}

func TestCoordinateRejectsEmptyTips(t *testing.T) {
	c := NewCoordinator(&fakeBackend{})
	if _, err := c.Coordinate(context.Background(), nil); err == nil {
		t.Errorf("Coordinate should reject an empty tip list")
	}
}

func TestCoordinateSingleChainDegenerateProof(t *testing.T) {
	backend := &fakeBackend{receipt: Receipt{TransactionHash: "0xtx", Network: "sepolia"}}
	c := NewCoordinator(backend)

	tip := hashalg.Sum512([]byte("chain-a-tip"))
	results, err := c.Coordinate(context.Background(), []ChainTip{{ChainID: "a", Tip: tip}})
	if err != nil {
		t.Fatalf("Coordinate error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Root != tip {
		t.Errorf("single-chain root = %s, want %s", results[0].Root, tip)
	}
	if len(results[0].Proof) != 0 {
		t.Errorf("single-chain proof should have zero steps, got %d", len(results[0].Proof))
	}
	if backend.calls != 1 {
		t.Errorf("backend.Publish called %d times, want 1", backend.calls)
	}
}

func TestCoordinateMultiChainProducesIndependentProofs(t *testing.T) {
	backend := &fakeBackend{receipt: Receipt{TransactionHash: "0xtx", Network: "mainnet"}}
	c := NewCoordinator(backend)

	tips := []ChainTip{
		{ChainID: "a", Tip: hashalg.Sum512([]byte("a"))},
		{ChainID: "b", Tip: hashalg.Sum512([]byte("b"))},
		{ChainID: "c", Tip: hashalg.Sum512([]byte("c"))},
	}
	results, err := c.Coordinate(context.Background(), tips)
	if err != nil {
		t.Fatalf("Coordinate error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	root := results[0].Root
	for i, r := range results {
		if r.Root != root {
			t.Errorf("result[%d].Root = %s, want shared root %s", i, r.Root, root)
		}
		leaf := hashalg.Normalize(tips[i].Tip)
		if !hashalg.VerifyMerkleProof(leaf, r.Proof, r.Root) {
			t.Errorf("VerifyMerkleProof failed for chain %s", tips[i].ChainID)
		}
	}
}

func TestCoordinatePropagatesBackendError(t *testing.T) {
	backend := &fakeBackend{err: errBackendFailure{}}
	c := NewCoordinator(backend)
	_, err := c.Coordinate(context.Background(), []ChainTip{{ChainID: "a", Tip: hashalg.Sum512([]byte("a"))}})
	if err == nil {
		t.Errorf("Coordinate should propagate a backend publish error")
	}
}

type errBackendFailure struct{}

func (errBackendFailure) Error() string { return "backend unavailable" }
