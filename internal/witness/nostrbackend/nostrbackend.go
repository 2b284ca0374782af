// Copyright 2025 Aqua Protocol Contributors
//
// Package nostrbackend implements the Nostr witness.Backend (spec.md
// §4.D): publishes the Merkle root as the content of a signed Nostr
// event (NIP-01) to a set of relays over their websocket-free HTTP
// fallback endpoint. The event id becomes the transaction hash and the
// signer's public key becomes the publisher, per spec.md §4.D.
package nostrbackend

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/aquaprotocol/aquacore/internal/hashalg"
	"github.com/aquaprotocol/aquacore/internal/witness"
)

// KindWitness is the Nostr event kind this backend publishes under; a
// private, protocol-reserved range is used since this is not a
// human-facing note (NIP-01 reserves kinds per range, not a single
// registry).
const KindWitness = 30078

// Backend publishes witness events to one or more Nostr relays.
type Backend struct {
	privateKey *btcec.PrivateKey
	relays     []string
	httpClient *http.Client
}

// New returns a Backend signing events with privateKeyHex and publishing
// to the given relay HTTP endpoints.
func New(privateKeyHex string, relays []string) (*Backend, error) {
	keyBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil || len(keyBytes) != 32 {
		return nil, fmt.Errorf("nostrbackend: private key must be 32 bytes of hex: %w", err)
	}
	priv, _ := btcec.PrivKeyFromBytes(keyBytes)
	return &Backend{
		privateKey: priv,
		relays:     relays,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// event is the NIP-01 event shape, field order fixed by the protocol's
// id-hashing serialization, not by this struct's JSON tags.
type event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Publish signs an event whose content is the hex-encoded root and
// submits it to the configured relays in order, stopping at the first
// relay that accepts it and returning that receipt; later relays are not
// contacted.
func (b *Backend) Publish(ctx context.Context, root [hashalg.Size]byte) (witness.Receipt, error) {
	pubKeyHex := hex.EncodeToString(schnorr.SerializePubKey(b.privateKey.PubKey()))
	createdAt := time.Now().Unix()
	content := hex.EncodeToString(root[:])

	id, err := eventID(pubKeyHex, createdAt, KindWitness, nil, content)
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("nostrbackend: compute event id: %w", err)
	}
	idBytes, err := hex.DecodeString(id)
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("nostrbackend: decode event id: %w", err)
	}
	sig, err := schnorr.Sign(b.privateKey, idBytes)
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("nostrbackend: sign event: %w", err)
	}

	ev := event{
		ID:        id,
		PubKey:    pubKeyHex,
		CreatedAt: createdAt,
		Kind:      KindWitness,
		Tags:      [][]string{},
		Content:   content,
		Sig:       hex.EncodeToString(sig.Serialize()),
	}

	if len(b.relays) == 0 {
		return witness.Receipt{}, fmt.Errorf("nostrbackend: no relays configured")
	}
	var lastErr error
	for _, relay := range b.relays {
		if err := b.submit(ctx, relay, ev); err != nil {
			lastErr = err
			continue
		}
		return witness.Receipt{
			TransactionHash:      ev.ID,
			Publisher:            ev.PubKey,
			Timestamp:            ev.CreatedAt,
			Network:              "nostr",
			SmartContractAddress: "",
		}, nil
	}
	return witness.Receipt{}, fmt.Errorf("nostrbackend: all relays rejected the event, last error: %w", lastErr)
}

func (b *Backend) submit(ctx context.Context, relay string, ev event) error {
	body, err := json.Marshal([]any{"EVENT", ev})
	if err != nil {
		return fmt.Errorf("nostrbackend: encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, relay, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("nostrbackend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nostrbackend: post to relay %s: %w", relay, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("nostrbackend: relay %s returned status %d", relay, resp.StatusCode)
	}
	return nil
}

// eventID computes the NIP-01 event id: sha256 of the canonical
// 6-element JSON array [0, pubkey, created_at, kind, tags, content].
func eventID(pubKeyHex string, createdAt int64, kind int, tags [][]string, content string) (string, error) {
	if tags == nil {
		tags = [][]string{}
	}
	serialized, err := json.Marshal([]any{0, pubKeyHex, createdAt, kind, tags, content})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:]), nil
}

// FetchEvent implements the Nostr side of spec.md §4.E.5.b: query a
// relay for an event by id and report its content, for the verifier to
// compare against the expected root.
func (b *Backend) FetchEvent(ctx context.Context, relay, id string) (content string, err error) {
	filter := map[string]any{"ids": []string{id}}
	body, err := json.Marshal([]any{"REQ", "aquacore-verify", filter})
	if err != nil {
		return "", fmt.Errorf("nostrbackend: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, relay, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("nostrbackend: build request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("nostrbackend: query relay %s: %w", relay, err)
	}
	defer resp.Body.Close()

	var reply []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("nostrbackend: decode relay reply: %w", err)
	}
	if len(reply) < 3 {
		return "", fmt.Errorf("nostrbackend: relay %s: event %s not found", relay, id)
	}
	var ev event
	if err := json.Unmarshal(reply[2], &ev); err != nil {
		return "", fmt.Errorf("nostrbackend: decode event payload: %w", err)
	}
	return ev.Content, nil
}
