// Copyright 2025 Aqua Protocol Contributors

package chainverify

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/mr-tron/base58"

	"github.com/aquaprotocol/aquacore/internal/hashalg"
	"github.com/aquaprotocol/aquacore/internal/legacy"
	"github.com/aquaprotocol/aquacore/internal/revision"
)

// signedMessage builds spec.md §4.E.4's exact signed-message format:
// "I sign this revision: [" || previous_verification_hash || "]".
func signedMessage(previousVerificationHash string) []byte {
	return []byte("I sign this revision: [" + previousVerificationHash + "]")
}

// verifySignature is spec.md §4.E.4, with the v1.2 message format
// (spec.md §9) substituted when the revision carries a legacy
// metadata_hash field.
func (v *Verifier) verifySignature(rev *revision.Revision, hash, previousVerificationHash string) SubResult {
	sigHex, ok := rev.StringField("signature")
	if !ok || sigHex == "" {
		return missing()
	}
	walletAddress, _ := rev.StringField("signature_wallet_address")
	sigType, _ := rev.StringField("signature_type")

	var message []byte
	if legacy.IsLegacy(rev.Fields) {
		message = legacy.SignedMessage("0x" + hashalg.Normalize(hash))
	} else {
		message = signedMessage(previousVerificationHash)
	}

	switch sigType {
	case "did:key":
		publicKey, _ := rev.StringField("signature_public_key")
		return verifyDIDKeySignature(publicKey, sigHex)
	default: // "ethereum:eip-191" and unset default to EIP-191, spec.md §3
		return verifyEIP191Signature(message, sigHex, walletAddress)
	}
}

// verifyEIP191Signature recovers the signer from an EIP-191 personal-sign
// signature and compares to the declared wallet address (spec.md §4.E.4).
func verifyEIP191Signature(message []byte, sigHex, walletAddress string) SubResult {
	sig, err := decodeHexSignature(sigHex)
	if err != nil {
		return fail(fmt.Sprintf("decode signature: %v", err))
	}
	if len(sig) != 65 {
		return fail(fmt.Sprintf("signature must be 65 bytes (r,s,v), got %d", len(sig)))
	}
	// go-ethereum's crypto.SigToPub expects a recovery id in [0,1]; wallets
	// following the EIP-191/eth_sign convention emit v in {27,28}.
	sigForRecover := make([]byte, 65)
	copy(sigForRecover, sig)
	if sigForRecover[64] >= 27 {
		sigForRecover[64] -= 27
	}

	hash := eip191Hash(message)
	pubKey, err := crypto.SigToPub(hash[:], sigForRecover)
	if err != nil {
		return fail(fmt.Sprintf("recover public key: %v", err))
	}
	recovered := crypto.PubkeyToAddress(*pubKey)
	declared := common.HexToAddress(walletAddress)
	if recovered != declared {
		return fail(fmt.Sprintf("recovered signer %s does not match declared %s", recovered.Hex(), declared.Hex()))
	}
	return pass()
}

// eip191Hash implements the EIP-191 personal-sign prefix: keccak256
// over "\x19Ethereum Signed Message:\n" || len(message) || message.
func eip191Hash(message []byte) [32]byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	return crypto.Keccak256Hash([]byte(prefix), message)
}

func decodeHexSignature(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

// verifyDIDKeySignature verifies a did:key signature_public_key's
// embedded Ed25519 public key against a compact JWS in the signature
// field (spec.md §4.E.4 "For did:key signatures, verify the JWS against
// the embedded public key instead").
func verifyDIDKeySignature(didKey, compactJWS string) SubResult {
	pubKey, err := decodeDIDKeyEd25519(didKey)
	if err != nil {
		return fail(fmt.Sprintf("decode did:key: %v", err))
	}

	jwk := jose.JSONWebKey{Key: pubKey, Algorithm: string(jose.EdDSA)}
	sig, err := jose.ParseSigned(compactJWS, []jose.SignatureAlgorithm{jose.EdDSA})
	if err != nil {
		return fail(fmt.Sprintf("parse JWS: %v", err))
	}
	if _, err := sig.Verify(jwk); err != nil {
		return fail(fmt.Sprintf("verify JWS: %v", err))
	}
	return pass()
}

// didKeyEd25519Prefix is the multicodec varint prefix for an Ed25519
// public key (0xed01), as used by did:key identifiers.
var didKeyEd25519Prefix = []byte{0xed, 0x01}

// decodeDIDKeyEd25519 decodes a "did:key:z..." identifier carrying a
// base58btc multibase-encoded, multicodec-prefixed Ed25519 public key.
func decodeDIDKeyEd25519(didKey string) (ed25519.PublicKey, error) {
	const prefix = "did:key:z"
	if !strings.HasPrefix(didKey, prefix) {
		return nil, fmt.Errorf("not a did:key identifier: %q", didKey)
	}
	decoded, err := base58.Decode(didKey[len(prefix):])
	if err != nil {
		return nil, fmt.Errorf("base58 decode: %w", err)
	}
	if len(decoded) != len(didKeyEd25519Prefix)+ed25519.PublicKeySize {
		return nil, fmt.Errorf("unexpected decoded length %d", len(decoded))
	}
	if decoded[0] != didKeyEd25519Prefix[0] || decoded[1] != didKeyEd25519Prefix[1] {
		return nil, fmt.Errorf("unsupported multicodec prefix %x, only Ed25519 (0xed01) is supported", decoded[:2])
	}
	return ed25519.PublicKey(decoded[2:]), nil
}
