// Copyright 2025 Aqua Protocol Contributors
//
// Package witness implements the multi-chain witness coordinator
// (spec.md §4.D): aggregating chain tips into a Merkle tree, publishing
// the root through a pluggable backend, and distributing per-chain
// proofs back to the caller for attachment as witness revisions.
package witness

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/aquaprotocol/aquacore/internal/hashalg"
	"github.com/aquaprotocol/aquacore/internal/metrics"
)

// Receipt is what a backend returns after publishing a Merkle root
// (spec.md §6 "Witness backend" external collaborator).
type Receipt struct {
	TransactionHash      string
	Publisher            string
	Timestamp            int64
	Network              string
	SmartContractAddress string
}

// Backend publishes a 64-byte (SHA3-512) Merkle root to some external system and
// reports back how to find it there. Implementations: ethbackend,
// nostrbackend, tsabackend.
type Backend interface {
	Publish(ctx context.Context, root [hashalg.Size]byte) (Receipt, error)
}

// Request pairs a Merkle root with a correlation id (mirrors the
// teacher's pkg/anchor_proof request/response structs, which carry a
// uuid.UUID). Coordinate does not build a Request: it logs a fresh uuid
// with each publish and passes Backend.Publish only the root.
type Request struct {
	ID   uuid.UUID
	Root [hashalg.Size]byte
}

// ChainTip is one chain's contribution to a multi-chain witness: its
// identifier and tip hash. Its position in the slice passed to
// Coordinate is its leaf index in the Merkle tree.
type ChainTip struct {
	ChainID string
	Tip     string
}

// Result is one chain's outcome from a Coordinate call: the witness
// revision fields ready to hand to revision.BuildWitness.
type Result struct {
	ChainID string
	Root    string
	Proof   []hashalg.ProofNode
	Receipt Receipt
}

// Coordinator runs the multi-chain witness protocol of spec.md §4.D over
// a single pluggable Backend. Coordinators are reusable across chains
// and safe to share (per spec.md §5 "Witness backend clients are owned
// by the coordinator; they are reusable across chains").
type Coordinator struct {
	backend Backend
}

// NewCoordinator returns a Coordinator publishing through backend.
func NewCoordinator(backend Backend) *Coordinator {
	return &Coordinator{backend: backend}
}

// Coordinate builds a Merkle tree over tips (in the given order), invokes
// the backend once with the root, and returns one Result per chain
// carrying its own proof against the shared root. n=1 is the degenerate
// single-chain case: the tree has one leaf, Root() == tip, and Proof
// returns no steps — VerifyMerkleProof then reduces to a direct equality
// check against the root (spec.md §4.D "Single-chain witness").
func (c *Coordinator) Coordinate(ctx context.Context, tips []ChainTip) ([]Result, error) {
	if len(tips) == 0 {
		return nil, fmt.Errorf("witness: coordinate requires at least one chain tip")
	}

	leaves := make([]string, len(tips))
	for i, t := range tips {
		leaves[i] = hashalg.Normalize(t.Tip)
	}

	tree, err := hashalg.BuildMerkleTree(leaves)
	if err != nil {
		return nil, fmt.Errorf("witness: build merkle tree: %w", err)
	}
	root := tree.Root()

	var rootBytes [hashalg.Size]byte
	n, err := hex.Decode(rootBytes[:], []byte(root))
	if err != nil || n != hashalg.Size {
		return nil, fmt.Errorf("witness: malformed merkle root %q: %w", root, err)
	}

	reqID := uuid.New()
	log.Printf("witness: publishing root %s for %d chain(s) [request %s]", root, len(tips), reqID)

	start := time.Now()
	receipt, err := c.backend.Publish(ctx, rootBytes)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.WitnessPublishErrors.WithLabelValues(networkLabel(receipt.Network)).Inc()
		return nil, fmt.Errorf("witness: publish: %w", err)
	}
	metrics.WitnessPublishDuration.WithLabelValues(receipt.Network).Observe(elapsed)
	log.Printf("witness: published root %s as tx %s on %s [request %s]", root, receipt.TransactionHash, receipt.Network, reqID)

	results := make([]Result, len(tips))
	for i, t := range tips {
		proof, err := tree.Proof(i)
		if err != nil {
			return nil, fmt.Errorf("witness: proof for chain %s: %w", t.ChainID, err)
		}
		results[i] = Result{
			ChainID: t.ChainID,
			Root:    root,
			Proof:   proof,
			Receipt: receipt,
		}
	}
	return results, nil
}

func networkLabel(network string) string {
	if network == "" {
		return "unknown"
	}
	return network
}
