// Copyright 2025 Aqua Protocol Contributors

package chainverify

import "context"

// EthereumOracle is the Ethereum half of spec.md §6's "Transaction
// oracle" collaborator: given a transaction hash, return the root
// carried in its call data (already selector-checked and hex-decoded by
// the implementation, per spec.md §4.E.5.b).
type EthereumOracle interface {
	FetchRoot(ctx context.Context, txHash string) (string, error)
}

// NostrOracle is the Nostr half: given a relay and event id, return the
// event's content (spec.md §4.E.5.b).
type NostrOracle interface {
	FetchEvent(ctx context.Context, relay, id string) (content string, err error)
}

// TSATokens supplies the raw RFC-3161 token bytes for a given witness
// transaction hash. Unlike Ethereum transactions or Nostr events, RFC-3161
// tokens are not generally queryable by id over the wire — a verifier is
// expected to have retained the token from the original Publish call (or
// loaded it from wherever the caller persists witness artifacts). This
// interface lets a caller supply that lookup however it sees fit.
type TSATokens interface {
	Token(txHash string) ([]byte, bool)
}
